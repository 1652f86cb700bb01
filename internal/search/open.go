package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/internal/embedding"
	"github.com/hyperjump/grantseek/internal/manifest"
	"github.com/hyperjump/grantseek/internal/storage"
	"github.com/hyperjump/grantseek/internal/vector"
	"github.com/hyperjump/grantseek/pkg/utils"
)

// Open loads the index pair named by the manifest at cfg.Storage.ManifestPath and returns
// an engine over it. The engine takes ownership of embedder, which is closed on failure.
func Open(ctx context.Context, cfg *config.Config, embedder embedding.Embedder, logger *zap.Logger) (engine *Engine, err error) {
	logger = utils.OrNop(logger)
	defer func() {
		if err != nil {
			_ = embedder.Close()
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := manifest.Read(cfg.Storage.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingArtifact, err)
	}
	dir := filepath.Dir(cfg.Storage.ManifestPath)
	if err := m.Verify(dir); err != nil {
		if errors.Is(err, manifest.ErrChecksumMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrMisaligned, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMissingArtifact, err)
	}
	if m.Model != embedder.ModelName() {
		return nil, fmt.Errorf("%w: index built with %q, embedder is %q", ErrModelMismatch, m.Model, embedder.ModelName())
	}

	index, err := vector.NewIndex(m.IndexType, m.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingArtifact, err)
	}
	if err := index.Load(m.Path(dir, m.Index)); err != nil {
		_ = index.Close()
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, vector.ErrCorruptIndex) {
			return nil, fmt.Errorf("%w: %w", ErrMissingArtifact, err)
		}
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}

	records, err := storage.LoadRecords(m.Path(dir, m.Records))
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("%w: %w", ErrMissingArtifact, err)
	}
	store, err := storage.NewRecordStore(records)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("%w: %w", ErrMissingArtifact, err)
	}
	if got := manifest.RecordSetID(store.IDs()); got != m.RecordSetID {
		_ = index.Close()
		return nil, fmt.Errorf("%w: records file does not match manifest record set", ErrMisaligned)
	}

	engine, err = NewEngine(embedder, index, store, cfg.Search,
		WithLogger(logger),
		WithNormalize(m.Normalized))
	if err != nil {
		_ = index.Close()
		return nil, err
	}
	logger.Info("index loaded",
		zap.String("run_id", m.RunID),
		zap.Int("records", engine.Size()),
		zap.String("index_type", engine.IndexType()),
		zap.String("model", m.Model))
	return engine, nil
}
