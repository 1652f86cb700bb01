// Package search answers nearest-neighbour queries over a loaded index and record store.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/internal/embedding"
	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/internal/source"
	"github.com/hyperjump/grantseek/internal/storage"
	"github.com/hyperjump/grantseek/internal/vector"
	"github.com/hyperjump/grantseek/pkg/utils"
)

var (
	// ErrMissingArtifact is returned when the index pair cannot be loaded from disk.
	ErrMissingArtifact = errors.New("index files are missing or corrupt; run `grantseek index` to rebuild the index")
	// ErrMisaligned is returned when the index and record store do not describe the same
	// records in the same order.
	ErrMisaligned = errors.New("vector index and record store are misaligned")
	// ErrModelMismatch is returned when the index was built by a different embedding model.
	ErrModelMismatch = errors.New("index was built with a different embedding model")
)

// Engine joins an embedder, a vector index and the record store it was built from.
// It is immutable after construction and safe for concurrent queries.
type Engine struct {
	embedder  embedding.Embedder
	index     vector.Index
	store     *storage.RecordStore
	config    config.SearchConfig
	normalize bool
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithNormalize L2-normalises query vectors. Use it when the index was built from
// normalised vectors.
func WithNormalize(normalize bool) EngineOption {
	return func(e *Engine) { e.normalize = normalize }
}

// NewEngine creates an engine after checking that index position i holds the vector of
// store position i, and that the embedder produces vectors the index accepts.
func NewEngine(
	embedder embedding.Embedder,
	index vector.Index,
	store *storage.RecordStore,
	cfg config.SearchConfig,
	opts ...EngineOption,
) (*Engine, error) {
	if index.Size() != store.Len() {
		return nil, fmt.Errorf("%w: index has %d vectors, store has %d records", ErrMisaligned, index.Size(), store.Len())
	}
	storeIDs := store.IDs()
	for i, id := range index.IDs() {
		if id != storeIDs[i] {
			return nil, fmt.Errorf("%w: position %d is %q in the index and %q in the store", ErrMisaligned, i, id, storeIDs[i])
		}
	}
	if index.Dimensions() != embedder.Dimensions() {
		return nil, fmt.Errorf("%w: index has %d dimensions, embedder %q produces %d",
			ErrModelMismatch, index.Dimensions(), embedder.ModelName(), embedder.Dimensions())
	}
	e := &Engine{
		embedder: embedder,
		index:    index,
		store:    store,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e, nil
}

// Query returns the k records nearest to text, nearest first, with 1-based ranks.
// text goes through the same normalisation as indexed records. Blank text, k <= 0 and
// an empty index give an empty result.
func (e *Engine) Query(ctx context.Context, text string, k int) ([]*models.SearchResult, error) {
	text = source.Preprocess(text)
	if text == "" || k <= 0 || e.index.Size() == 0 {
		return []*models.SearchResult{}, nil
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if e.normalize {
		utils.NormalizeL2(vec)
	}
	hits, err := e.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]*models.SearchResult, 0, len(hits))
	for i, hit := range hits {
		record, err := e.store.At(hit.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMisaligned, err)
		}
		if record.ID != hit.ID {
			return nil, fmt.Errorf("%w: position %d is %q in the index and %q in the store", ErrMisaligned, hit.Position, hit.ID, record.ID)
		}
		results = append(results, &models.SearchResult{
			Record:   record,
			Distance: hit.Distance,
			Rank:     i + 1,
		})
	}
	e.logger.Debug("query answered", zap.String("query", text), zap.Int("k", k), zap.Int("results", len(results)))
	return results, nil
}

// Search validates query, applying the configured default and maximum limits, and runs it.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(e.config.DefaultLimit, e.config.MaxLimit); err != nil {
		return nil, err
	}
	results, err := e.Query(ctx, query.Query, query.Limit)
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     query.Query,
	}, nil
}

// Record returns the record with id.
func (e *Engine) Record(id string) (*models.Record, bool) {
	r, _, ok := e.store.ByID(id)
	return r, ok
}

// Store returns the record store.
func (e *Engine) Store() *storage.RecordStore {
	return e.store
}

// Size returns the number of indexed records.
func (e *Engine) Size() int {
	return e.index.Size()
}

// IndexType returns the vector index type (e.g. "flat", "faiss").
func (e *Engine) IndexType() string {
	return e.index.Type()
}

// Dimensions returns the vector dimensionality.
func (e *Engine) Dimensions() int {
	return e.index.Dimensions()
}

// ModelName returns the embedding model name.
func (e *Engine) ModelName() string {
	return e.embedder.ModelName()
}

// Close releases the index and the embedder.
func (e *Engine) Close() error {
	return errors.Join(e.index.Close(), e.embedder.Close())
}
