// Package vector provides exact nearest-neighbour indexes over embedding vectors.
package vector

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimensionality.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Index stores N vectors, each tagged with the record ID it was built from, and answers
// k-nearest-neighbour queries by squared Euclidean distance. It is immutable after Build.
type Index interface {
	// Build replaces the index contents. ids[i] labels vectors[i].
	Build(ctx context.Context, ids []string, vectors [][]float32) error
	// Search returns up to k results, nearest first. k is clamped to Size; an empty index
	// or k <= 0 yields an empty result.
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Save(path string) error
	Load(path string) error
	// IDs returns the record IDs in position order.
	IDs() []string
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Result is a single nearest-neighbour hit.
type Result struct {
	// Position is the 0-based insertion position, aligned with the record store.
	Position int
	ID       string
	// Distance is the squared Euclidean distance to the query.
	Distance float64
}
