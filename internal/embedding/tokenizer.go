package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Special tokens of uncased BERT vocabularies.
const (
	TokenPad = "[PAD]"
	TokenUnk = "[UNK]"
	TokenCLS = "[CLS]"
	TokenSEP = "[SEP]"
)

// maxWordRunes is the longest word WordPiece tries to split; longer words become [UNK].
const maxWordRunes = 100

// Encoding is the model input for one text, without padding.
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}

// Len returns the number of tokens including [CLS] and [SEP].
func (e Encoding) Len() int {
	return len(e.InputIDs)
}

// Tokenizer produces token IDs for BERT-style models.
type Tokenizer interface {
	Encode(text string, maxTokens int) Encoding
}

// WordPieceTokenizer implements uncased BERT tokenization: lowercase, accent stripping,
// whitespace and punctuation splitting, then greedy longest-match WordPiece.
type WordPieceTokenizer struct {
	vocab map[string]int64
	unk   int64
	cls   int64
	sep   int64
	pad   int64
}

// LoadVocab reads a vocab.txt (one token per line, line number is the id).
func LoadVocab(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	return NewWordPieceTokenizer(tokens)
}

// NewWordPieceTokenizer builds a tokenizer from an ordered token list.
func NewWordPieceTokenizer(tokens []string) (*WordPieceTokenizer, error) {
	vocab := make(map[string]int64, len(tokens))
	for i, tok := range tokens {
		if _, dup := vocab[tok]; !dup {
			vocab[tok] = int64(i)
		}
	}
	t := &WordPieceTokenizer{vocab: vocab}
	for _, special := range []struct {
		name string
		dst  *int64
	}{
		{TokenUnk, &t.unk},
		{TokenCLS, &t.cls},
		{TokenSEP, &t.sep},
		{TokenPad, &t.pad},
	} {
		id, ok := vocab[special.name]
		if !ok {
			return nil, fmt.Errorf("vocab is missing %s", special.name)
		}
		*special.dst = id
	}
	return t, nil
}

// PadID returns the id of [PAD].
func (t *WordPieceTokenizer) PadID() int64 {
	return t.pad
}

// Tokenize splits text into WordPiece tokens, without special tokens.
func (t *WordPieceTokenizer) Tokenize(text string) []string {
	var out []string
	for _, word := range basicTokenize(text) {
		out = append(out, t.wordPiece(word)...)
	}
	return out
}

// Encode returns [CLS] tokens [SEP], truncated so the whole sequence fits in maxTokens.
func (t *WordPieceTokenizer) Encode(text string, maxTokens int) Encoding {
	if maxTokens < 2 {
		maxTokens = 2
	}
	pieces := t.Tokenize(text)
	if len(pieces) > maxTokens-2 {
		pieces = pieces[:maxTokens-2]
	}
	n := len(pieces) + 2
	enc := Encoding{
		InputIDs:      make([]int64, 0, n),
		AttentionMask: make([]int64, n),
		TokenTypeIDs:  make([]int64, n),
	}
	enc.InputIDs = append(enc.InputIDs, t.cls)
	for _, p := range pieces {
		enc.InputIDs = append(enc.InputIDs, t.vocab[p])
	}
	enc.InputIDs = append(enc.InputIDs, t.sep)
	for i := range enc.AttentionMask {
		enc.AttentionMask[i] = 1
	}
	return enc
}

// wordPiece splits one basic token greedily into the longest vocabulary pieces.
func (t *WordPieceTokenizer) wordPiece(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []string{TokenUnk}
	}
	var pieces []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := ""
		for start < end {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				found = sub
				break
			}
			end--
		}
		if found == "" {
			return []string{TokenUnk}
		}
		pieces = append(pieces, found)
		start = end
	}
	return pieces
}

// basicTokenize lowercases, strips accents, and splits on whitespace and punctuation.
func basicTokenize(text string) []string {
	text = strings.ToLower(text)
	text = stripAccents(text)

	var words []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r):
			continue
		case unicode.IsSpace(r):
			flush()
		case isPunctuation(r) || isCJK(r):
			flush()
			words = append(words, string(r))
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return words
}

func stripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r) || unicode.In(r, unicode.Cf)
}

// isPunctuation treats all non-alphanumeric ASCII as punctuation, like BERT.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// PadBatch right-pads encodings to the longest one and flattens them row-major.
// The returned mask is zero on padded positions.
func PadBatch(encs []Encoding, padID int64) (inputIDs, attentionMask, tokenTypeIDs []int64, seqLen int) {
	for _, e := range encs {
		if e.Len() > seqLen {
			seqLen = e.Len()
		}
	}
	total := len(encs) * seqLen
	inputIDs = make([]int64, total)
	attentionMask = make([]int64, total)
	tokenTypeIDs = make([]int64, total)
	for i, e := range encs {
		row := i * seqLen
		for j := 0; j < seqLen; j++ {
			if j < e.Len() {
				inputIDs[row+j] = e.InputIDs[j]
				attentionMask[row+j] = e.AttentionMask[j]
				tokenTypeIDs[row+j] = e.TokenTypeIDs[j]
			} else {
				inputIDs[row+j] = padID
			}
		}
	}
	return inputIDs, attentionMask, tokenTypeIDs, seqLen
}
