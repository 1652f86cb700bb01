package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeFlat is the pure Go exact index.
	IndexTypeFlat IndexType = "flat"
	// IndexTypeFAISS is an exact FAISS IndexFlatL2. Requires the FAISS C library and
	// building with -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// NewIndex creates an empty vector index of the specified type.
// Supported types: "flat" (default), "faiss".
func NewIndex(indexType string, dimensions int) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		return NewFlatIndex(dimensions)
	case IndexTypeFAISS:
		return NewFAISSIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat, faiss)", indexType)
	}
}

// ResolveType returns indexType when it can be built in this binary, and "flat" when FAISS
// was requested but is not compiled in.
func ResolveType(indexType string) string {
	if IndexType(indexType) == IndexTypeFAISS && !IsFAISSAvailable() {
		return string(IndexTypeFlat)
	}
	if indexType == "" {
		return string(IndexTypeFlat)
	}
	return indexType
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
// This is determined by the build tag -tags=faiss.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
