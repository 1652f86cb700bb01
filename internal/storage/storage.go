// Package storage holds the canonical ordered record list and its persisted forms: the
// JSON records file paired with the vector index, and a SQLite catalog mirror.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/grantseek/internal/models"
)

// ErrNotFound is returned when a record or index run does not exist in the catalog.
var ErrNotFound = errors.New("not found")

// IndexRun describes one completed indexing pass.
type IndexRun struct {
	ID           string    `json:"id"`
	IndexedAt    time.Time `json:"indexed_at"`
	RecordCount  int       `json:"record_count"`
	Dimensions   int       `json:"dimensions"`
	Model        string    `json:"model"`
	IndexType    string    `json:"index_type"`
	UsedFallback bool      `json:"used_fallback"`
}

// Catalog is a queryable mirror of the last indexed record set and its index runs.
type Catalog interface {
	// ReplaceRecords swaps the stored records for records, keeping their order as position.
	ReplaceRecords(ctx context.Context, records []models.Record) error
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	ListRecords(ctx context.Context, offset, limit int) ([]*models.Record, error)
	CountRecords(ctx context.Context) (int64, error)

	RecordIndexRun(ctx context.Context, run *IndexRun) error
	LatestIndexRun(ctx context.Context) (*IndexRun, error)

	Close() error
}
