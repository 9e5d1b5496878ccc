// Package engine drives a scrape: scan the rendered page, advance the
// pagination control, repeat until the last page, then hand the collected
// records to storage.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/qlcatalog/internal/catalog"
	"github.com/IshaanNene/qlcatalog/internal/config"
	"github.com/IshaanNene/qlcatalog/internal/extract"
	"github.com/IshaanNene/qlcatalog/internal/observability"
	"github.com/IshaanNene/qlcatalog/internal/types"
)

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle      State = 0
	StateScanning  State = 1
	StateAdvancing State = 2
	StateDone      State = 3
	StateAborted   State = 4
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateAdvancing:
		return "advancing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Extractor turns a card snapshot into a record.
type Extractor interface {
	Extract(card extract.Card) (types.Record, bool)
}

// Storage is the interface for the output backend.
type Storage interface {
	Store(batch *types.Batch) error
	Name() string
}

// Result summarizes a finished scrape.
type Result struct {
	State      State
	Pages      int
	Records    []types.Record
	Skipped    int
	Duplicates int

	// Reason is why the scrape was aborted; nil when it reached the last page.
	Reason error

	// Filename is the output base name, set only when output was stored.
	Filename string
	Stored   bool
}

// Engine is the scrape orchestrator. One Engine runs one scrape at a time.
type Engine struct {
	cfg       config.ScrapeConfig
	logger    *slog.Logger
	surface   Surface
	extractor Extractor
	storage   Storage
	metrics   *observability.Metrics
	now       func() time.Time

	state   atomic.Int32
	running atomic.Bool
}

// New creates an Engine reading from surface.
func New(cfg *config.Config, surface Surface, extractor Extractor, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg.Scrape,
		logger:    logger.With("component", "engine"),
		surface:   surface,
		extractor: extractor,
		now:       time.Now,
	}
}

// SetStorage sets the output backend.
func (e *Engine) SetStorage(s Storage) {
	e.storage = s
	e.logger.Debug("storage set", "backend", s.Name())
}

// SetMetrics attaches counters updated during the scrape.
func (e *Engine) SetMetrics(m *observability.Metrics) {
	e.metrics = m
}

// GetState returns the current engine state.
func (e *Engine) GetState() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	if e.metrics != nil {
		e.metrics.SetState(s.String())
	}
}

// ErrAlreadyRunning is returned by Run while another scrape is in flight.
var ErrAlreadyRunning = errors.New("scrape already running")

// Run performs the scrape. Scrape-level failures (missing results region,
// pagination timeout, missing marker, cancellation) end the run gracefully
// and are reported in Result; the returned error is reserved for storage
// failures.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	e.setState(StateIdle)
	res := &Result{}
	ds := NewDataset(128)

	e.logger.Info("scrape starting", "url", e.surface.URL(), "initial_delay", e.cfg.InitialDelay)
	if err := sleepCtx(ctx, e.cfg.InitialDelay); err != nil {
		e.abort(res, err)
		return e.finalize(ds, res)
	}

scan:
	for {
		e.setState(StateScanning)
		cards, err := e.surface.Scan(ctx)
		if err != nil {
			if errors.Is(err, types.ErrNoResults) {
				e.logger.Error("search result container not found", "url", e.surface.URL())
			}
			e.abort(res, err)
			break
		}
		res.Pages++
		e.scanPage(res.Pages, cards, ds, res)

		if e.cfg.MaxPages > 0 && res.Pages >= e.cfg.MaxPages {
			e.logger.Info("max pages reached", "pages", res.Pages)
			e.setState(StateDone)
			break
		}

		e.setState(StateAdvancing)
		outcome, err := e.surface.Advance(ctx, e.cfg.AdvanceTimeout, e.cfg.SettleWindow)
		if err != nil {
			e.abort(res, err)
			break
		}
		if e.metrics != nil {
			e.metrics.ObserveAdvance(outcome.String())
		}

		switch outcome {
		case AdvanceSettled:
			e.logger.Debug("page advanced", "page", res.Pages+1)
		case AdvanceLastPage:
			e.logger.Info("last page reached", "pages", res.Pages)
			e.setState(StateDone)
			break scan
		case AdvanceTimeout:
			e.abort(res, types.ErrPaginationTimeout)
			break scan
		default:
			e.abort(res, types.ErrNoPaginationMarker)
			break scan
		}
	}

	return e.finalize(ds, res)
}

// scanPage extracts every card and keeps records not seen before.
func (e *Engine) scanPage(page int, cards []extract.Card, ds *Dataset, res *Result) {
	added := 0
	for _, card := range cards {
		rec, ok := e.extractor.Extract(card)
		if !ok {
			res.Skipped++
			continue
		}
		if !ds.Add(rec) {
			res.Duplicates++
			continue
		}
		added++
	}

	if e.metrics != nil {
		e.metrics.PagesScanned.Add(1)
		e.metrics.CardsSeen.Add(int64(len(cards)))
		e.metrics.RecordsAdded.Add(int64(added))
	}

	e.logger.Info("page scanned",
		"page", page,
		"cards", len(cards),
		"added", added,
		"total", ds.Len(),
	)
}

func (e *Engine) abort(res *Result, reason error) {
	res.Reason = reason
	e.setState(StateAborted)
	if e.metrics != nil {
		e.metrics.ScrapesAborted.Add(1)
	}
	e.logger.Warn("scrape aborted, keeping partial results", "reason", reason, "pages", res.Pages)
}

// finalize freezes the dataset and stores it unless it is empty.
func (e *Engine) finalize(ds *Dataset, res *Result) (*Result, error) {
	res.State = e.GetState()
	res.Records = ds.Records()

	if len(res.Records) == 0 {
		e.logger.Info("no records scraped, nothing to save", "state", res.State, "pages", res.Pages)
		return res, nil
	}
	if e.storage == nil {
		e.logger.Warn("no storage configured, discarding records", "records", len(res.Records))
		return res, nil
	}

	now := e.now()
	batch := &types.Batch{
		Records:   res.Records,
		Filename:  catalog.OutputName(e.surface.URL(), now),
		Filter:    catalog.Filter(e.surface.URL()),
		SourceURL: e.surface.URL(),
		ScrapedAt: now,
	}
	if err := e.storage.Store(batch); err != nil {
		var se *types.StorageError
		if errors.As(err, &se) {
			return res, err
		}
		return res, &types.StorageError{Backend: e.storage.Name(), Err: err}
	}

	res.Filename = batch.Filename
	res.Stored = true
	if e.metrics != nil {
		e.metrics.RecordsStored.Add(int64(len(res.Records)))
	}

	e.logger.Info("scrape saved",
		"records", len(res.Records),
		"pages", res.Pages,
		"state", res.State,
		"filename", batch.Filename,
	)
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
