package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/qlcatalog/internal/browser"
	"github.com/IshaanNene/qlcatalog/internal/catalog"
	"github.com/IshaanNene/qlcatalog/internal/config"
	"github.com/IshaanNene/qlcatalog/internal/engine"
	"github.com/IshaanNene/qlcatalog/internal/extract"
	"github.com/IshaanNene/qlcatalog/internal/observability"
	"github.com/IshaanNene/qlcatalog/internal/snapshot"
	"github.com/IshaanNene/qlcatalog/internal/storage"
)

var (
	cfgFile    string
	verbose    bool
	outputPath string
	outputType string
	format     string
	perPage    int
	maxPages   int
	compress   string
	pageURL    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qlcatalog",
		Short: "qlcatalog exports the skills.google catalog to CSV",
		Long: `qlcatalog opens the catalog search page in a headless browser, walks
every results page and writes the labs and courses it finds to a file.

Saved pages can be replayed offline with the extract command.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(linksCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&outputType, "type", "t", "", "output type: csv, json, jsonl")
	cmd.Flags().StringVar(&compress, "compress", "", "output compression: none, brotli")
	cmd.Flags().IntVar(&maxPages, "max-pages", -1, "stop after this many pages (0 = unlimited)")
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url]",
		Short: "Scrape the live catalog",
		Long: `Scrape the catalog page at url, or the filter page built from
--format and --per-page when no url is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScrape,
	}

	addOutputFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "catalog format filter: labs, courses (default all)")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "results per page requested from the catalog")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	target, err := resolveURL(cfg, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := browser.Launch(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	surface, err := b.Open(ctx, target)
	if err != nil {
		return err
	}
	defer surface.Close()

	return run(ctx, cfg, surface, logger)
}

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file.html>...",
		Short: "Extract records from saved catalog pages",
		Long: `Replay saved catalog pages, one file per results page, in order.
Pages must carry their shadow roots as declarative templates.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExtract,
	}

	addOutputFlags(cmd)
	cmd.Flags().StringVar(&pageURL, "url", "", "catalog URL the pages were saved from (names the output)")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if pageURL != "" {
		if err := config.ValidateURL(pageURL); err != nil {
			return fmt.Errorf("invalid URL %q: %w", pageURL, err)
		}
	}

	// Saved pages are already rendered.
	cfg.Scrape.InitialDelay = 0

	surface, err := snapshot.Open(args, pageURL, cfg.Selectors, logger)
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, surface, logger)
}

// run wires extractor, storage and metrics around surface and performs
// one scrape.
func run(ctx context.Context, cfg *config.Config, surface engine.Surface, logger *slog.Logger) error {
	origin, err := url.Parse(cfg.Catalog.Origin)
	if err != nil {
		return fmt.Errorf("parse origin: %w", err)
	}
	ex := extract.New(origin, extract.Selectors{
		Link:      cfg.Selectors.Link,
		Label:     cfg.Selectors.Label,
		LabelAttr: cfg.Selectors.LabelAttr,
		Metadata:  cfg.Selectors.Metadata,
	}, logger)

	eng := engine.New(cfg, surface, ex, logger)

	store, err := buildStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()
	eng.SetStorage(store)

	metrics := observability.NewMetrics(logger)
	eng.SetMetrics(metrics)
	if cfg.Metrics.Enabled {
		srv := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting scrape",
		"url", surface.URL(),
		"output", cfg.Storage.OutputPath,
		"type", cfg.Storage.Type,
		"max_pages", cfg.Scrape.MaxPages,
	)

	start := time.Now()
	res, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("\nScrape %s in %s\n", res.State, elapsed.Round(time.Millisecond))
	fmt.Printf("   Pages:     %d\n", res.Pages)
	fmt.Printf("   Records:   %d (%d skipped, %d duplicates)\n", len(res.Records), res.Skipped, res.Duplicates)
	if res.Reason != nil {
		fmt.Printf("   Stopped:   %v\n", res.Reason)
	}
	if res.Stored {
		fmt.Printf("   Output:    %s (%s)\n", res.Filename, cfg.Storage.OutputPath)
	} else {
		fmt.Println("   Output:    none, no records were scraped")
	}
	return nil
}

// buildStorage creates the file sink, fanned out to MongoDB when enabled.
func buildStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	file, err := storage.NewFileStorage(cfg.Storage.Type, cfg.Storage.OutputPath, cfg.Storage.Compress, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Storage.Mongo.Enabled {
		return file, nil
	}

	mongo, err := storage.NewMongoStorage(cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database, cfg.Storage.Mongo.Collection, logger)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return storage.NewMultiStorage([]storage.Storage{file, mongo}, logger), nil
}

// resolveURL picks the page to scrape: the argument, then catalog.url,
// then the filter page for catalog.format. catalog.per_page is applied
// to whichever is chosen.
func resolveURL(cfg *config.Config, args []string) (string, error) {
	target := cfg.Catalog.URL
	if len(args) > 0 {
		target = args[0]
	}

	if target == "" {
		return catalog.FilterURL(cfg.Catalog.Origin, cfg.Catalog.Format, cfg.Catalog.PerPage)
	}
	if err := config.ValidateURL(target); err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if cfg.Catalog.PerPage > 0 {
		return catalog.WithPerPage(target, cfg.Catalog.PerPage)
	}
	return target, nil
}

// linksCmd creates the "links" subcommand.
func linksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Print the catalog filter URLs for each format",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			n := cfg.Catalog.PerPage
			if n == 0 {
				n = 100
			}
			for _, f := range catalog.Formats {
				u, err := catalog.FilterURL(cfg.Catalog.Origin, f, n)
				if err != nil {
					return err
				}
				fmt.Printf("%-8s %s\n", f, u)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&perPage, "per-page", 0, "results per page (default 100)")
	return cmd
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qlcatalog %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Catalog:\n")
			fmt.Printf("  Origin:            %s\n", cfg.Catalog.Origin)
			fmt.Printf("  URL:               %s\n", cfg.Catalog.URL)
			fmt.Printf("  Format:            %s\n", cfg.Catalog.Format)
			fmt.Printf("  Per Page:          %d\n", cfg.Catalog.PerPage)
			fmt.Printf("\nScrape:\n")
			fmt.Printf("  Initial Delay:     %s\n", cfg.Scrape.InitialDelay)
			fmt.Printf("  Advance Timeout:   %s\n", cfg.Scrape.AdvanceTimeout)
			fmt.Printf("  Settle Window:     %s\n", cfg.Scrape.SettleWindow)
			fmt.Printf("  Max Pages:         %d\n", cfg.Scrape.MaxPages)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Remote URL:        %s\n", cfg.Browser.RemoteURL)
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:           %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Block Resources:   %s\n", strings.Join(cfg.Browser.BlockResources, ", "))
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("  Compress:          %s\n", cfg.Storage.Compress)
			fmt.Printf("  MongoDB:           %v\n", cfg.Storage.Mongo.Enabled)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// loadConfig loads, overrides and validates the config, then builds the
// logger it describes.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg.Logging), nil
}

// setupLogger creates a structured logger.
func setupLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if compress != "" {
		cfg.Storage.Compress = strings.ToLower(compress)
	}
	if format != "" {
		cfg.Catalog.Format = strings.ToLower(format)
	}
	if perPage > 0 {
		cfg.Catalog.PerPage = perPage
	}
	if maxPages >= 0 {
		cfg.Scrape.MaxPages = maxPages
	}
}
