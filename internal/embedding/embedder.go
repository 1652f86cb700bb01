// Package embedding turns text into fixed-size vectors via ONNX sentence-transformer models,
// with a deterministic lexical fallback and an LRU cache.
package embedding

import "context"

// Embedder produces vector embeddings for text. Embedding the same text twice yields
// identical vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}

// ONNXOptions configures NewONNXEmbedder.
type ONNXOptions struct {
	ModelName string
	ModelPath string
	// VocabPath is the WordPiece vocab.txt; defaults to vocab.txt next to the model.
	VocabPath string
	// LibraryPath overrides the onnxruntime shared library location.
	LibraryPath string
	// OutputName is the token-level output to pool, usually last_hidden_state.
	OutputName string
	Dimensions int
	MaxTokens  int
	BatchSize  int
	CacheSize  int
}
