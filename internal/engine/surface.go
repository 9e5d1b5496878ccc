package engine

import (
	"context"
	"time"

	"github.com/IshaanNene/qlcatalog/internal/extract"
)

// Advance is the outcome of asking the host page for its next page.
type Advance int

const (
	// AdvanceSettled means the marker changed and the page went quiet.
	AdvanceSettled Advance = iota

	// AdvanceLastPage means there is no enabled next-page control.
	AdvanceLastPage

	// AdvanceTimeout means no marker change was seen before the deadline.
	AdvanceTimeout

	// AdvanceNoMarker means the pagination marker is missing altogether.
	AdvanceNoMarker
)

func (a Advance) String() string {
	switch a {
	case AdvanceSettled:
		return "settled"
	case AdvanceLastPage:
		return "last_page"
	case AdvanceTimeout:
		return "timeout"
	case AdvanceNoMarker:
		return "no_marker"
	default:
		return "unknown"
	}
}

// Surface is the rendered results region of the host page. Implementations
// re-query the page on every call; nodes may be replaced after navigation.
type Surface interface {
	// Scan snapshots every item container currently rendered. It returns
	// types.ErrNoResults when the results region or its shadow root is missing.
	Scan(ctx context.Context) ([]extract.Card, error)

	// Advance triggers the next-page control and waits for the marker text
	// to change, then for a quiet period of settle. The error is reserved
	// for failures of the surface itself.
	Advance(ctx context.Context, timeout, settle time.Duration) (Advance, error)

	// URL returns the address of the page being scraped.
	URL() string
}
