// Package indexer turns a record list into a persisted vector index and records file pair.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/internal/embedding"
	"github.com/hyperjump/grantseek/internal/manifest"
	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/internal/source"
	"github.com/hyperjump/grantseek/internal/storage"
	"github.com/hyperjump/grantseek/internal/vector"
	"github.com/hyperjump/grantseek/pkg/utils"
)

// ErrNoRecords is returned when Build is given an empty record list.
var ErrNoRecords = errors.New("no records to index")

// ProgressFunc is called after each embedded batch with the number of records done so far.
type ProgressFunc func(done, total int)

// Indexer embeds records and persists the index pair described by the storage config.
type Indexer struct {
	embedder embedding.Embedder
	cfg      *config.Config
	catalog  storage.Catalog
	progress ProgressFunc
	logger   *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build and persist events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithCatalog mirrors persisted records and index runs into catalog.
func WithCatalog(c storage.Catalog) IndexerOption {
	return func(idx *Indexer) { idx.catalog = c }
}

// WithProgress sets a callback invoked after every embedding batch.
func WithProgress(fn ProgressFunc) IndexerOption {
	return func(idx *Indexer) { idx.progress = fn }
}

// NewIndexer creates an indexer using embedder and the storage, embedding and vector
// sections of cfg.
func NewIndexer(embedder embedding.Embedder, cfg *config.Config, opts ...IndexerOption) *Indexer {
	idx := &Indexer{embedder: embedder, cfg: cfg}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = utils.OrNop(idx.logger)
	return idx
}

// Built is an index and the records it was built from, not yet written to disk.
type Built struct {
	Records    []models.Record
	Index      vector.Index
	Model      string
	Dimensions int
	Normalized bool
	// UsedFallback marks a run over the built-in sample records.
	UsedFallback bool
}

// Close releases the built index.
func (b *Built) Close() error {
	if b.Index == nil {
		return nil
	}
	return b.Index.Close()
}

// Build embeds the searchable text of every record and builds the configured vector
// index over them, in record order.
func (idx *Indexer) Build(ctx context.Context, records []models.Record) (*Built, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	// Reject duplicates before spending time on embeddings.
	if _, err := storage.NewRecordStore(records); err != nil {
		return nil, err
	}

	texts := make([]string, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		texts[i] = source.Preprocess(source.SearchableText(r))
		ids[i] = r.ID
	}

	vectors, err := idx.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}
	if idx.cfg.Vector.Normalize {
		for _, v := range vectors {
			utils.NormalizeL2(v)
		}
	}

	indexType := vector.ResolveType(idx.cfg.Vector.IndexType)
	if indexType != idx.cfg.Vector.IndexType && idx.cfg.Vector.IndexType != "" {
		idx.logger.Warn("vector index type not available, using flat",
			zap.String("requested", idx.cfg.Vector.IndexType))
	}
	index, err := vector.NewIndex(indexType, idx.embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	if err := index.Build(ctx, ids, vectors); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to build vector index: %w", err)
	}

	idx.logger.Info("index built",
		zap.Int("records", len(records)),
		zap.String("index_type", index.Type()),
		zap.String("model", idx.embedder.ModelName()))
	return &Built{
		Records:    append([]models.Record(nil), records...),
		Index:      index,
		Model:      idx.embedder.ModelName(),
		Dimensions: idx.embedder.Dimensions(),
		Normalized: idx.cfg.Vector.Normalize,
	}, nil
}

func (idx *Indexer) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	batchSize := idx.cfg.Embedding.BatchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		batch, err := idx.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		vectors = append(vectors, batch...)
		if idx.progress != nil {
			idx.progress(end, len(texts))
		}
		idx.logger.Debug("embedded batch", zap.Int("done", end), zap.Int("total", len(texts)))
	}
	return vectors, nil
}

// Persist writes the index file and records file under temporary names, renames both
// into place and then writes the manifest. When a catalog is configured the records and
// the run are mirrored into it.
func (idx *Indexer) Persist(ctx context.Context, b *Built) (*manifest.Manifest, error) {
	st := idx.cfg.Storage
	runID := uuid.New().String()
	suffix := ".tmp-" + runID

	sidecar := b.Index.Type() == string(vector.IndexTypeFAISS)
	tmpIndex := st.IndexPath + suffix
	tmpRecords := st.RecordsPath + suffix
	defer func() {
		_ = os.Remove(tmpIndex)
		_ = os.Remove(tmpIndex + ".faiss")
		_ = os.Remove(tmpRecords)
	}()

	if err := b.Index.Save(tmpIndex); err != nil {
		return nil, fmt.Errorf("failed to save vector index: %w", err)
	}
	if err := storage.SaveRecords(tmpRecords, b.Records); err != nil {
		return nil, fmt.Errorf("failed to save records: %w", err)
	}

	if err := os.Rename(tmpIndex, st.IndexPath); err != nil {
		return nil, fmt.Errorf("failed to move index into place: %w", err)
	}
	if sidecar {
		if err := os.Rename(tmpIndex+".faiss", st.IndexPath+".faiss"); err != nil {
			return nil, fmt.Errorf("failed to move index into place: %w", err)
		}
	}
	if err := os.Rename(tmpRecords, st.RecordsPath); err != nil {
		return nil, fmt.Errorf("failed to move records into place: %w", err)
	}

	dir := filepath.Dir(st.ManifestPath)
	indexArtifact, err := manifest.Describe(dir, st.IndexPath)
	if err != nil {
		return nil, err
	}
	recordsArtifact, err := manifest.Describe(dir, st.RecordsPath)
	if err != nil {
		return nil, err
	}
	m := &manifest.Manifest{
		RunID:        runID,
		IndexedAt:    time.Now().UTC(),
		Index:        indexArtifact,
		Records:      recordsArtifact,
		RecordSetID:  manifest.RecordSetID(b.Index.IDs()),
		Count:        len(b.Records),
		Dimensions:   b.Dimensions,
		Model:        b.Model,
		IndexType:    b.Index.Type(),
		Normalized:   b.Normalized,
		UsedFallback: b.UsedFallback,
	}
	if sidecar {
		a, err := manifest.Describe(dir, st.IndexPath+".faiss")
		if err != nil {
			return nil, err
		}
		m.IndexSidecar = &a
	}
	if err := manifest.Write(st.ManifestPath, m); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	idx.logger.Info("index persisted",
		zap.String("run_id", runID),
		zap.String("index", st.IndexPath),
		zap.String("records", st.RecordsPath),
		zap.Int("count", m.Count))

	if idx.catalog != nil {
		if err := idx.catalog.ReplaceRecords(ctx, b.Records); err != nil {
			return m, fmt.Errorf("failed to update catalog: %w", err)
		}
		run := &storage.IndexRun{
			ID:           runID,
			IndexedAt:    m.IndexedAt,
			RecordCount:  m.Count,
			Dimensions:   m.Dimensions,
			Model:        m.Model,
			IndexType:    m.IndexType,
			UsedFallback: m.UsedFallback,
		}
		if err := idx.catalog.RecordIndexRun(ctx, run); err != nil {
			return m, fmt.Errorf("failed to record index run: %w", err)
		}
	}
	return m, nil
}
