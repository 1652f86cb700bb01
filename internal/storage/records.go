package storage

import (
	"errors"
	"fmt"

	"github.com/hyperjump/grantseek/internal/models"
)

var (
	// ErrOutOfRange is returned for a position outside the store. Callers treat it as a
	// mismatched index/store pair.
	ErrOutOfRange = errors.New("record position out of range")
	// ErrDuplicateRecord is returned when two records share an ID.
	ErrDuplicateRecord = errors.New("duplicate record id")
)

// RecordStore is the ordered record list the vector index was built from. Position i
// holds the record whose vector sits at index position i. It is read-only after
// construction.
type RecordStore struct {
	records []models.Record
	byID    map[string]int
}

// NewRecordStore copies records into a store, rejecting empty and duplicate IDs.
func NewRecordStore(records []models.Record) (*RecordStore, error) {
	s := &RecordStore{
		records: make([]models.Record, len(records)),
		byID:    make(map[string]int, len(records)),
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if prev, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s at positions %d and %d", ErrDuplicateRecord, r.ID, prev, i)
		}
		s.byID[r.ID] = i
		s.records[i] = r
	}
	return s, nil
}

// At returns a copy of the record at position.
func (s *RecordStore) At(position int) (*models.Record, error) {
	if position < 0 || position >= len(s.records) {
		return nil, fmt.Errorf("%w: %d (store has %d)", ErrOutOfRange, position, len(s.records))
	}
	r := s.records[position]
	return &r, nil
}

// ByID returns a copy of the record with id and its position.
func (s *RecordStore) ByID(id string) (*models.Record, int, bool) {
	pos, ok := s.byID[id]
	if !ok {
		return nil, -1, false
	}
	r := s.records[pos]
	return &r, pos, true
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	return len(s.records)
}

// IDs returns record IDs in position order.
func (s *RecordStore) IDs() []string {
	ids := make([]string, len(s.records))
	for i, r := range s.records {
		ids[i] = r.ID
	}
	return ids
}

// Records returns a copy of all records in position order.
func (s *RecordStore) Records() []models.Record {
	return append([]models.Record(nil), s.records...)
}
