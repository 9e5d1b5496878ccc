package types

import (
	"time"
)

// Record is a single catalog entry (lab, course, ...) scraped from the
// search results.
type Record struct {
	ID       string `json:"id"       bson:"_id"`
	Type     string `json:"type"     bson:"type"`
	Name     string `json:"name"     bson:"name"`
	Duration string `json:"duration" bson:"duration"`
	Level    string `json:"level"    bson:"level"`
	Credits  string `json:"credits"  bson:"credits"`
	Link     string `json:"link"     bson:"link"`
}

// Valid reports whether the record carries the fields needed to identify it.
func (r Record) Valid() bool {
	return r.ID != "" && r.Type != ""
}

// Batch is the finalized result of one scrape, handed to storage.
type Batch struct {
	// Records in first-seen order, unique by ID.
	Records []Record

	// Filename is the output base name, without extension.
	Filename string

	// Filter is the content filter the page was scraped with ("labs", "all", ...).
	Filter string

	// SourceURL is the catalog page the records were read from.
	SourceURL string

	// ScrapedAt is when the scrape finished.
	ScrapedAt time.Time
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}
