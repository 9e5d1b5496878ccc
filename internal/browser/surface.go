package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/qlcatalog/internal/config"
	"github.com/IshaanNene/qlcatalog/internal/engine"
	"github.com/IshaanNene/qlcatalog/internal/extract"
	"github.com/IshaanNene/qlcatalog/internal/types"
)

//go:embed scan.js
var scanJS string

//go:embed advance.js
var advanceJS string

// evalSlack is added on top of the in-page deadline so the page script
// always resolves before the CDP call gives up.
const evalSlack = 5 * time.Second

// Surface is a live catalog tab.
type Surface struct {
	page   *rod.Page
	router *rod.HijackRouter
	url    string
	sel    config.SelectorConfig
	logger *slog.Logger
}

var _ engine.Surface = (*Surface)(nil)

type scanResult struct {
	Found bool           `json:"found"`
	Cards []extract.Card `json:"cards"`
}

func (s *Surface) URL() string { return s.url }

// Scan snapshots every card in the results region's shadow root.
func (s *Surface) Scan(ctx context.Context) ([]extract.Card, error) {
	res, err := s.page.Context(ctx).Eval(scanJS, s.sel.ResultsContainer, s.sel.Card)
	if err != nil {
		return nil, &types.BrowserError{Op: "scan", URL: s.url, Err: err}
	}

	var out scanResult
	if err := decode(res, &out); err != nil {
		return nil, &types.BrowserError{Op: "scan", URL: s.url, Err: err}
	}
	if !out.Found {
		return nil, types.ErrNoResults
	}

	s.logger.Debug("scanned", "cards", len(out.Cards))
	return out.Cards, nil
}

// Advance clicks the next-page control and waits in the page for the
// pagination marker to change and the region to go quiet.
func (s *Surface) Advance(ctx context.Context, timeout, settle time.Duration) (engine.Advance, error) {
	p := s.page.Context(ctx).Timeout(timeout + settle + evalSlack)
	defer p.CancelTimeout()

	res, err := p.Eval(advanceJS,
		s.sel.ResultsContainer,
		s.sel.PaginationMarker,
		s.sel.NextPage,
		s.sel.DisabledAttr,
		timeout.Milliseconds(),
		settle.Milliseconds(),
	)
	if err != nil {
		return 0, &types.BrowserError{Op: "advance", URL: s.url, Err: err}
	}

	outcome, err := parseAdvance(res.Value.Str())
	if err != nil {
		return 0, &types.BrowserError{Op: "advance", URL: s.url, Err: err}
	}
	return outcome, nil
}

// Close closes the tab.
func (s *Surface) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	return s.page.Close()
}

func parseAdvance(s string) (engine.Advance, error) {
	switch s {
	case "settled":
		return engine.AdvanceSettled, nil
	case "last_page":
		return engine.AdvanceLastPage, nil
	case "timeout":
		return engine.AdvanceTimeout, nil
	case "no_marker":
		return engine.AdvanceNoMarker, nil
	default:
		return 0, fmt.Errorf("unexpected advance outcome %q", s)
	}
}

func decode(obj *proto.RuntimeRemoteObject, v any) error {
	raw, err := obj.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("read eval result: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode eval result: %w", err)
	}
	return nil
}
