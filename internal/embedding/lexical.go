package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hyperjump/grantseek/pkg/utils"
)

// LexicalModelName identifies vectors produced by LexicalEmbedder in manifests.
const LexicalModelName = "lexical-hash"

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"can": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "into": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"their": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {}, "will": {},
	"with": {}, "our": {}, "us": {}, "you": {}, "your": {},
}

// LexicalEmbedder maps text to an L2-normalised bag of hashed words. It needs no model
// files, so it backs tests and machines without onnxruntime. Similar vocabulary means
// small distance; it has no notion of synonyms.
type LexicalEmbedder struct {
	dimensions int
}

// NewLexicalEmbedder returns a lexical embedder producing vectors of the given dimensions.
func NewLexicalEmbedder(dimensions int) *LexicalEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &LexicalEmbedder{dimensions: dimensions}
}

// Embed returns the hashed term vector of text. Text without terms yields the zero vector.
func (e *LexicalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dimensions)
	for _, term := range LexicalTerms(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(term))
		vec[h.Sum32()%uint32(e.dimensions)]++
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *LexicalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *LexicalEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns LexicalModelName.
func (e *LexicalEmbedder) ModelName() string {
	return LexicalModelName
}

// Close is a no-op for LexicalEmbedder.
func (e *LexicalEmbedder) Close() error {
	return nil
}

// LexicalTerms lowercases text, splits it on anything that is not a letter or digit,
// and drops stop words.
func LexicalTerms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(stripAccents(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
