//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a sentence-transformer model with ONNX Runtime and mean-pools its
// token-level output. It requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *WordPieceTokenizer
	cache      *EmbeddingCache
	modelName  string
	dimensions int
	maxTokens  int
	batchSize  int
	mu         sync.Mutex
}

// NewONNXEmbedder loads the model and vocabulary and creates an inference session.
// The ONNX environment is initialised on first use.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}
	if opts.VocabPath == "" {
		opts.VocabPath = filepath.Join(filepath.Dir(opts.ModelPath), "vocab.txt")
	}
	if opts.OutputName == "" {
		opts.OutputName = "last_hidden_state"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 512
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}

	tokenizer, err := LoadVocab(opts.VocabPath)
	if err != nil {
		return nil, err
	}

	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		opts.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{opts.OutputName},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXEmbedder{
		session:    session,
		tokenizer:  tokenizer,
		cache:      NewEmbeddingCache(opts.CacheSize),
		modelName:  opts.ModelName,
		dimensions: opts.Dimensions,
		maxTokens:  opts.MaxTokens,
		batchSize:  opts.BatchSize,
	}, nil
}

// Embed returns the embedding for text, using cache when available.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds texts in batches of the configured size. Cached texts are not re-run.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if cached, ok := e.cache.Get(text); ok {
			embeddings[i] = cached
			continue
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+e.batchSize, len(missing))
		batch := make([]string, 0, end-start)
		for _, i := range missing[start:end] {
			batch = append(batch, texts[i])
		}
		vecs, err := e.run(batch)
		if err != nil {
			return nil, err
		}
		for j, i := range missing[start:end] {
			embeddings[i] = vecs[j]
			e.cache.Set(texts[i], vecs[j])
		}
	}
	return embeddings, nil
}

// run executes one forward pass and pools the output.
func (e *ONNXEmbedder) run(texts []string) ([][]float32, error) {
	encs := make([]Encoding, len(texts))
	for i, text := range texts {
		encs[i] = e.tokenizer.Encode(text, e.maxTokens)
	}
	inputIDs, attentionMask, tokenTypeIDs, seqLen := PadBatch(encs, e.tokenizer.PadID())
	shape := ort.NewShape(int64(len(texts)), int64(seqLen))

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("ONNX embedder is closed")
	}

	inputIDsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer inputIDsTensor.Destroy()
	attentionMaskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer attentionMaskTensor.Destroy()
	tokenTypeIDsTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer tokenTypeIDsTensor.Destroy()
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(len(texts)), int64(seqLen), int64(e.dimensions)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = e.session.Run(
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return MeanPool(outputTensor.GetData(), attentionMask, len(texts), seqLen, e.dimensions)
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the configured model name.
func (e *ONNXEmbedder) ModelName() string {
	return e.modelName
}

// Close destroys the session. The ONNX environment stays up for other embedders.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	return err
}
