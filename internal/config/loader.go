package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller on top of the result.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("QLCATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("qlcatalog")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".qlcatalog"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env vars can override
// keys that the config file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("catalog.origin", cfg.Catalog.Origin)
	v.SetDefault("catalog.url", cfg.Catalog.URL)
	v.SetDefault("catalog.format", cfg.Catalog.Format)
	v.SetDefault("catalog.per_page", cfg.Catalog.PerPage)

	v.SetDefault("selectors.results_container", cfg.Selectors.ResultsContainer)
	v.SetDefault("selectors.card", cfg.Selectors.Card)
	v.SetDefault("selectors.pagination_marker", cfg.Selectors.PaginationMarker)
	v.SetDefault("selectors.next_page", cfg.Selectors.NextPage)
	v.SetDefault("selectors.disabled_attr", cfg.Selectors.DisabledAttr)
	v.SetDefault("selectors.link", cfg.Selectors.Link)
	v.SetDefault("selectors.label", cfg.Selectors.Label)
	v.SetDefault("selectors.label_attr", cfg.Selectors.LabelAttr)
	v.SetDefault("selectors.metadata", cfg.Selectors.Metadata)

	v.SetDefault("scrape.initial_delay", cfg.Scrape.InitialDelay)
	v.SetDefault("scrape.advance_timeout", cfg.Scrape.AdvanceTimeout)
	v.SetDefault("scrape.settle_window", cfg.Scrape.SettleWindow)
	v.SetDefault("scrape.max_pages", cfg.Scrape.MaxPages)

	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.remote_url", cfg.Browser.RemoteURL)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)
	v.SetDefault("browser.block_resources", cfg.Browser.BlockResources)
	v.SetDefault("browser.navigate_timeout", cfg.Browser.NavigateTimeout)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.compress", cfg.Storage.Compress)
	v.SetDefault("storage.mongo.enabled", cfg.Storage.Mongo.Enabled)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
