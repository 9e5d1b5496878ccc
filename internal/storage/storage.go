package storage

import (
	"github.com/IshaanNene/qlcatalog/internal/types"
)

// Storage is the interface for all output backends.
type Storage interface {
	// Store persists one finalized scrape.
	Store(batch *types.Batch) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}
