package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for a scrape.
type Metrics struct {
	// Scan metrics
	PagesScanned atomic.Int64
	CardsSeen    atomic.Int64
	RecordsAdded atomic.Int64

	// Pagination metrics
	AdvanceSettled  atomic.Int64
	AdvanceLastPage atomic.Int64
	AdvanceTimeouts atomic.Int64
	AdvanceNoMarker atomic.Int64

	// Outcome metrics
	RecordsStored  atomic.Int64
	ScrapesAborted atomic.Int64

	state  atomic.Value // string
	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		logger: logger.With("component", "metrics"),
	}
	m.state.Store("idle")
	return m
}

// SetState records the engine's current state.
func (m *Metrics) SetState(s string) {
	m.state.Store(s)
}

// State returns the last recorded engine state.
func (m *Metrics) State() string {
	s, _ := m.state.Load().(string)
	return s
}

// ObserveAdvance counts one pagination outcome by name.
func (m *Metrics) ObserveAdvance(outcome string) {
	switch outcome {
	case "settled":
		m.AdvanceSettled.Add(1)
	case "last_page":
		m.AdvanceLastPage.Add(1)
	case "timeout":
		m.AdvanceTimeouts.Add(1)
	case "no_marker":
		m.AdvanceNoMarker.Add(1)
	default:
		m.logger.Debug("unknown advance outcome", "outcome", outcome)
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"qlcatalog_pages_scanned_total", "Total result pages scanned", m.PagesScanned.Load()},
		{"qlcatalog_cards_seen_total", "Total item containers seen", m.CardsSeen.Load()},
		{"qlcatalog_records_added_total", "Total unique records collected", m.RecordsAdded.Load()},
		{"qlcatalog_advance_settled_total", "Page advances that settled", m.AdvanceSettled.Load()},
		{"qlcatalog_advance_last_page_total", "Advances that found no next page", m.AdvanceLastPage.Load()},
		{"qlcatalog_advance_timeouts_total", "Advances that timed out", m.AdvanceTimeouts.Load()},
		{"qlcatalog_advance_no_marker_total", "Advances without a pagination marker", m.AdvanceNoMarker.Load()},
		{"qlcatalog_records_stored_total", "Total records written to storage", m.RecordsStored.Load()},
		{"qlcatalog_scrapes_aborted_total", "Scrapes that ended before the last page", m.ScrapesAborted.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}

	fmt.Fprintf(w, "# HELP qlcatalog_engine_state Current engine state\n")
	fmt.Fprintf(w, "# TYPE qlcatalog_engine_state gauge\n")
	fmt.Fprintf(w, "qlcatalog_engine_state{state=%q} 1\n", m.State())
}

// Handler returns the mux serving metrics at path plus /health.
func (m *Metrics) Handler(path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	return mux
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) *http.Server {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: m.Handler(path),
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return srv
}

// Snapshot returns all counters as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_scanned":     m.PagesScanned.Load(),
		"cards_seen":        m.CardsSeen.Load(),
		"records_added":     m.RecordsAdded.Load(),
		"advance_settled":   m.AdvanceSettled.Load(),
		"advance_last_page": m.AdvanceLastPage.Load(),
		"advance_timeouts":  m.AdvanceTimeouts.Load(),
		"advance_no_marker": m.AdvanceNoMarker.Load(),
		"records_stored":    m.RecordsStored.Load(),
		"scrapes_aborted":   m.ScrapesAborted.Load(),
	}
}
