package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopharvest/shopharvest/internal/config"
	"github.com/shopharvest/shopharvest/internal/discover"
	"github.com/shopharvest/shopharvest/internal/engine"
	"github.com/shopharvest/shopharvest/internal/firecrawl"
	"github.com/shopharvest/shopharvest/internal/mapper"
	"github.com/shopharvest/shopharvest/internal/media"
	"github.com/shopharvest/shopharvest/internal/storage"
)

var (
	outputDir string
	backends  string
	siteRoot  string
	interval  string
	limit     int
	noImages  bool
	useMock   bool
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run the full scraping pipeline",
		Long:  "Discover product URLs, extract each product, download lead images, and export JSON/CSV.",
		RunE:  runScrape,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVarP(&backends, "backends", "b", "", "comma-separated storage backends: json, csv, mongodb")
	cmd.Flags().StringVar(&siteRoot, "site", "", "site root URL override")
	cmd.Flags().StringVar(&interval, "interval", "", "minimum delay between extraction calls (e.g. 2s)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum products to process (0 = all)")
	cmd.Flags().BoolVar(&noImages, "no-images", false, "skip image downloads")
	cmd.Flags().BoolVar(&useMock, "mock", false, "use the mock extractor (no API key required)")

	return cmd
}

// discoverCmd creates the "discover" subcommand: discovery only, URLs to
// stdout.
func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover product URLs and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScrapeConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(os.Stderr)

			extractor := newExtractor(cfg, logger)
			d := discover.New(extractor, cfg.Site.Root, &cfg.Discovery, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			urls, err := d.Run(ctx)
			if err != nil {
				return err
			}
			for _, u := range urls {
				fmt.Println(u)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&siteRoot, "site", "", "site root URL override")
	cmd.Flags().BoolVar(&useMock, "mock", false, "use the mock extractor (no API key required)")
	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadScrapeConfig()
	if err != nil {
		return err
	}

	timestamp := time.Now().Format("20060102_150405")

	// The run log mirrors stderr into the output directory, one file per
	// invocation.
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	logPath := filepath.Join(cfg.Storage.OutputDir, "harvest_"+timestamp+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("create run log: %w", err)
	}
	defer logFile.Close()
	logger := setupLogger(io.MultiWriter(os.Stderr, logFile))

	logger.Info("starting scrape",
		"site", cfg.Site.Root,
		"collections", len(cfg.Discovery.CollectionPaths),
		"interval", cfg.API.ScrapeInterval,
		"output", cfg.Storage.OutputDir,
		"backends", cfg.Storage.Backends,
		"mock", useMock,
	)

	extractor := newExtractor(cfg, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Discovery failure is fatal: there is nothing to process without it.
	urls, err := discover.New(extractor, cfg.Site.Root, &cfg.Discovery, logger).Run(ctx)
	if err != nil {
		return err
	}
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
		logger.Info("product list truncated", "limit", limit)
	}

	var downloader *media.Downloader
	if cfg.Images.Enabled {
		imagesDir := filepath.Join(cfg.Storage.OutputDir, cfg.Images.SubDir)
		downloader, err = media.NewDownloader(imagesDir, cfg.Site.Root, &cfg.Images, logger)
		if err != nil {
			return err
		}
	}

	store, err := storage.NewFromConfig(&cfg.Storage, timestamp, logger)
	if err != nil {
		return err
	}

	eng := engine.New(extractor, mapper.New(cfg.Mapper.KeywordVocabulary), downloader, store, logger)

	start := time.Now()
	stats, err := eng.Run(ctx, urls)
	if err != nil {
		// Mid-run failure or cancellation: records not yet flushed are lost.
		return err
	}

	// The final write is fatal on failure.
	if err := store.Close(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	logger.Info("scrape complete",
		"elapsed", elapsed,
		"discovered", len(urls),
		"processed", stats.Processed,
		"skipped", stats.Skipped,
	)

	fmt.Printf("\nScrape complete in %s\n", elapsed.Round(time.Second))
	fmt.Printf("   Products:  %d processed, %d skipped (of %d discovered)\n", stats.Processed, stats.Skipped, len(urls))
	fmt.Printf("   Images:    %d fetched, %d failed\n", stats.ImagesFetched, stats.ImagesFailed)
	fmt.Printf("   Output:    %s\n", cfg.Storage.OutputDir)
	fmt.Printf("   Run log:   %s\n", logPath)

	return nil
}

// loadScrapeConfig loads config, applies CLI overrides, and validates.
func loadScrapeConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if backends != "" {
		var list []string
		for _, b := range strings.Split(backends, ",") {
			if b = strings.TrimSpace(b); b != "" {
				list = append(list, strings.ToLower(b))
			}
		}
		cfg.Storage.Backends = list
	}
	if siteRoot != "" {
		cfg.Site.Root = strings.TrimRight(siteRoot, "/")
	}
	if interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid --interval: %w", err)
		}
		cfg.API.ScrapeInterval = d
	}
	if noImages {
		cfg.Images.Enabled = false
	}
	if useMock && cfg.API.Key == "" {
		cfg.API.Key = "mock"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newExtractor picks the real client or the mock.
func newExtractor(cfg *config.Config, logger *slog.Logger) firecrawl.Extractor {
	if useMock {
		return firecrawl.NewMockExtractor()
	}
	return firecrawl.New(&cfg.API, logger)
}
