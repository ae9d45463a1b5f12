package grid

import (
	"fmt"

	"github.com/surendarrv/datagrid/internal/models"
)

// RecordStore is the authoritative ordered collection of records. It owns
// every Record; readers only ever receive copies.
type RecordStore struct {
	records []models.Record
	index   map[int]int
}

// NewRecordStore builds a store preserving the given order. Ids must be unique.
func NewRecordStore(records []models.Record) (*RecordStore, error) {
	s := &RecordStore{
		records: make([]models.Record, 0, len(records)),
		index:   make(map[int]int, len(records)),
	}
	for _, rec := range records {
		if _, dup := s.index[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate record id %d", rec.ID)
		}
		s.index[rec.ID] = len(s.records)
		s.records = append(s.records, rec.Clone())
	}
	return s, nil
}

// Get returns a copy of the record with the given id.
func (s *RecordStore) Get(id int) (models.Record, bool) {
	pos, ok := s.index[id]
	if !ok {
		return models.Record{}, false
	}
	return s.records[pos].Clone(), true
}

// FindIndex returns the position of id in store order.
func (s *RecordStore) FindIndex(id int) (int, bool) {
	pos, ok := s.index[id]
	return pos, ok
}

// Replace overwrites the record stored under id. Unknown ids are ignored and
// reported through the return value.
func (s *RecordStore) Replace(id int, updated models.Record) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	updated.ID = id
	s.records[pos] = updated.Clone()
	return true
}

// All returns copies of every record in store order.
func (s *RecordStore) All() []models.Record {
	return s.Slice(0, len(s.records))
}

// Slice returns copies of records in [start, end), clipped to the store bounds.
func (s *RecordStore) Slice(start, end int) []models.Record {
	start = max(start, 0)
	end = min(end, len(s.records))
	if start >= end {
		return nil
	}
	out := make([]models.Record, 0, end-start)
	for _, rec := range s.records[start:end] {
		out = append(out, rec.Clone())
	}
	return out
}

// Contains reports whether id resolves.
func (s *RecordStore) Contains(id int) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of records.
func (s *RecordStore) Len() int { return len(s.records) }
