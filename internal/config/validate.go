package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Catalog.Origin); err != nil {
		return fmt.Errorf("catalog.origin: %w", err)
	}
	if cfg.Catalog.URL != "" {
		if err := ValidateURL(cfg.Catalog.URL); err != nil {
			return fmt.Errorf("catalog.url: %w", err)
		}
	}
	if cfg.Catalog.PerPage < 0 {
		return fmt.Errorf("catalog.per_page must be >= 0, got %d", cfg.Catalog.PerPage)
	}

	required := map[string]string{
		"selectors.results_container": cfg.Selectors.ResultsContainer,
		"selectors.card":              cfg.Selectors.Card,
		"selectors.pagination_marker": cfg.Selectors.PaginationMarker,
		"selectors.next_page":         cfg.Selectors.NextPage,
		"selectors.metadata":          cfg.Selectors.Metadata,
	}
	for key, val := range required {
		if val == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}

	if cfg.Scrape.InitialDelay < 0 {
		return fmt.Errorf("scrape.initial_delay must be >= 0")
	}
	if cfg.Scrape.AdvanceTimeout <= 0 {
		return fmt.Errorf("scrape.advance_timeout must be > 0")
	}
	if cfg.Scrape.SettleWindow < 0 {
		return fmt.Errorf("scrape.settle_window must be >= 0")
	}
	if cfg.Scrape.SettleWindow >= cfg.Scrape.AdvanceTimeout {
		return fmt.Errorf("scrape.settle_window (%s) must be shorter than scrape.advance_timeout (%s)",
			cfg.Scrape.SettleWindow, cfg.Scrape.AdvanceTimeout)
	}
	if cfg.Scrape.MaxPages < 0 {
		return fmt.Errorf("scrape.max_pages must be >= 0, got %d", cfg.Scrape.MaxPages)
	}

	if cfg.Browser.NavigateTimeout <= 0 {
		return fmt.Errorf("browser.navigate_timeout must be > 0")
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv)", cfg.Storage.Type)
	}
	if cfg.Storage.Compress != "none" && cfg.Storage.Compress != "brotli" {
		return fmt.Errorf("storage.compress must be 'none' or 'brotli', got %q", cfg.Storage.Compress)
	}
	if cfg.Storage.Mongo.Enabled {
		if cfg.Storage.Mongo.URI == "" || cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "" {
			return fmt.Errorf("storage.mongo requires uri, database and collection when enabled")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
