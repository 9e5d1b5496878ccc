package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for qlcatalog.
type Config struct {
	Catalog   CatalogConfig   `mapstructure:"catalog"   yaml:"catalog"`
	Selectors SelectorConfig  `mapstructure:"selectors" yaml:"selectors"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"    yaml:"scrape"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// CatalogConfig describes which catalog page is scraped.
type CatalogConfig struct {
	Origin  string `mapstructure:"origin"   yaml:"origin"`
	URL     string `mapstructure:"url"      yaml:"url"`
	Format  string `mapstructure:"format"   yaml:"format"` // labs, courses or empty for all
	PerPage int    `mapstructure:"per_page" yaml:"per_page"`
}

// SelectorConfig locates the parts of the catalog markup.
type SelectorConfig struct {
	ResultsContainer string `mapstructure:"results_container" yaml:"results_container"`
	Card             string `mapstructure:"card"              yaml:"card"`
	PaginationMarker string `mapstructure:"pagination_marker" yaml:"pagination_marker"`
	NextPage         string `mapstructure:"next_page"         yaml:"next_page"`
	DisabledAttr     string `mapstructure:"disabled_attr"     yaml:"disabled_attr"`
	Link             string `mapstructure:"link"              yaml:"link"`
	Label            string `mapstructure:"label"             yaml:"label"`
	LabelAttr        string `mapstructure:"label_attr"        yaml:"label_attr"`
	Metadata         string `mapstructure:"metadata"          yaml:"metadata"`
}

// ScrapeConfig controls the scrape loop timing.
type ScrapeConfig struct {
	InitialDelay   time.Duration `mapstructure:"initial_delay"   yaml:"initial_delay"`
	AdvanceTimeout time.Duration `mapstructure:"advance_timeout" yaml:"advance_timeout"`
	SettleWindow   time.Duration `mapstructure:"settle_window"   yaml:"settle_window"`
	MaxPages       int           `mapstructure:"max_pages"       yaml:"max_pages"`
}

// BrowserConfig controls the headless browser.
type BrowserConfig struct {
	Bin             string        `mapstructure:"bin"              yaml:"bin"`
	RemoteURL       string        `mapstructure:"remote_url"       yaml:"remote_url"`
	Headless        bool          `mapstructure:"headless"         yaml:"headless"`
	Stealth         bool          `mapstructure:"stealth"          yaml:"stealth"`
	UserDataDir     string        `mapstructure:"user_data_dir"    yaml:"user_data_dir"`
	BlockResources  []string      `mapstructure:"block_resources"  yaml:"block_resources"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout" yaml:"navigate_timeout"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type       string      `mapstructure:"type"        yaml:"type"`
	OutputPath string      `mapstructure:"output_path" yaml:"output_path"`
	Compress   string      `mapstructure:"compress"    yaml:"compress"`
	Mongo      MongoConfig `mapstructure:"mongo"       yaml:"mongo"`
}

// MongoConfig controls the optional MongoDB sink.
type MongoConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Origin: "https://www.skills.google",
		},
		Selectors: SelectorConfig{
			ResultsContainer: "ql-search-result-container",
			Card:             "ql-activity-card",
			PaginationMarker: ".pagination-page",
			NextPage:         "ql-icon-button.next-page",
			DisabledAttr:     "disabled",
			Link:             "a",
			Label:            "ql-activity-label",
			LabelAttr:        "activity",
			Metadata:         ".metadata-value",
		},
		Scrape: ScrapeConfig{
			InitialDelay:   5 * time.Second,
			AdvanceTimeout: 10 * time.Second,
			SettleWindow:   500 * time.Millisecond,
		},
		Browser: BrowserConfig{
			Headless:        true,
			Stealth:         true,
			BlockResources:  []string{"images", "fonts", "media"},
			NavigateTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Type:       "csv",
			OutputPath: "./output",
			Compress:   "none",
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "qlcatalog",
				Collection: "records",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
