package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoResults          = errors.New("search result container not found")
	ErrPaginationTimeout  = errors.New("pagination timed out")
	ErrNoPaginationMarker = errors.New("pagination marker not found")
	ErrEmptyDataset       = errors.New("no records scraped")
)

// BrowserError wraps errors raised while driving the browser.
type BrowserError struct {
	Op  string
	URL string
	Err error
}

func (e *BrowserError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("browser %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("browser %s: %v", e.Op, e.Err)
}

func (e *BrowserError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
