package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/vecgo/distance"
)

// FlatIndex is an exact brute-force index. Every query is compared against every stored
// vector, which is the right trade-off for hundreds to low thousands of records.
type FlatIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewFlatIndex creates an empty flat index with the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Build replaces the contents with copies of vectors.
func (f *FlatIndex) Build(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	newIDs := make([]string, len(ids))
	newVectors := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(vec) != f.dimensions {
			return fmt.Errorf("%w: vector %d has %d, expected %d", ErrDimensionMismatch, i, len(vec), f.dimensions)
		}
		newVectors[i] = append([]float32(nil), vec...)
		newIDs[i] = ids[i]
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = newIDs
	f.vectors = newVectors
	return nil
}

// Search returns the k nearest vectors by squared L2 distance. Equal distances keep
// position order.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.vectors) == 0 {
		return []*Result{}, nil
	}
	results := make([]*Result, len(f.vectors))
	for i, vec := range f.vectors {
		results[i] = &Result{
			Position: i,
			ID:       f.ids[i],
			Distance: float64(distance.SquaredL2(query, vec)),
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Save persists ids and vectors to path. The directory is created if needed.
func (f *FlatIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	vectors := f.vectors
	if vectors == nil {
		vectors = [][]float32{}
	}
	return writeIndexFile(path, &indexFile{dimensions: f.dimensions, ids: f.ids, vectors: vectors})
}

// Load replaces the contents with the index at path. The file's dimension must match.
func (f *FlatIndex) Load(path string) error {
	file, err := readIndexFile(path)
	if err != nil {
		return err
	}
	if file.dimensions != f.dimensions {
		return fmt.Errorf("%w: file has %d, index expects %d", ErrDimensionMismatch, file.dimensions, f.dimensions)
	}
	if file.vectors == nil {
		return fmt.Errorf("%w: file has no vectors", ErrCorruptIndex)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = file.ids
	f.vectors = file.vectors
	return nil
}

// IDs returns a copy of the record IDs in position order.
func (f *FlatIndex) IDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.ids...)
}

// Size returns the number of vectors in the index.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Dimensions returns the vector dimension.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error {
	return nil
}
