package engine

import (
	"github.com/IshaanNene/qlcatalog/internal/types"
)

// Dataset accumulates unique records in first-seen order.
type Dataset struct {
	records []types.Record
	seen    map[string]struct{}
}

// NewDataset creates a Dataset with the given estimated capacity.
func NewDataset(estimatedCapacity int) *Dataset {
	return &Dataset{
		records: make([]types.Record, 0, estimatedCapacity),
		seen:    make(map[string]struct{}, estimatedCapacity),
	}
}

// Add appends rec unless it is invalid or its ID was already added.
// It reports whether the record was appended.
func (d *Dataset) Add(rec types.Record) bool {
	if !rec.Valid() {
		return false
	}
	if _, ok := d.seen[rec.ID]; ok {
		return false
	}
	d.seen[rec.ID] = struct{}{}
	d.records = append(d.records, rec)
	return true
}

// Has reports whether a record with id has been added.
func (d *Dataset) Has(id string) bool {
	_, ok := d.seen[id]
	return ok
}

// Len returns the number of unique records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of the records in insertion order.
func (d *Dataset) Records() []types.Record {
	out := make([]types.Record, len(d.records))
	copy(out, d.records)
	return out
}
