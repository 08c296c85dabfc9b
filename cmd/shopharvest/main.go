package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shopharvest/shopharvest/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shopharvest",
		Short: "shopharvest — single-site product catalog scraper",
		Long: `shopharvest discovers product pages on one e-commerce site, extracts
structured attributes through the Firecrawl extraction API, downloads
product images, and writes timestamped JSON and CSV output.

Subcommands:
  scrape    — run the full discover/extract/download/export pipeline
  discover  — discover product URLs only and print them
  convert   — re-export a run's JSON output to a cleaned CSV
  report    — render an HTML report (keywords, prices) from a run's JSON`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shopharvest %s\n", config.Version)
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
			keySet := "no"
			if cfg.API.Key != "" {
				keySet = "yes"
			}
			fmt.Printf("API:\n")
			fmt.Printf("  Endpoint:          %s\n", cfg.API.Endpoint)
			fmt.Printf("  Key set:           %s\n", keySet)
			fmt.Printf("  Request Timeout:   %s\n", cfg.API.RequestTimeout)
			fmt.Printf("  Max Retries:       %d\n", cfg.API.MaxRetries)
			fmt.Printf("  Scrape Interval:   %s\n", cfg.API.ScrapeInterval)
			fmt.Printf("\nSite:\n")
			fmt.Printf("  Root:              %s\n", cfg.Site.Root)
			fmt.Printf("\nDiscovery:\n")
			fmt.Printf("  Collections:       %d configured\n", len(cfg.Discovery.CollectionPaths))
			fmt.Printf("  Product Pattern:   %s\n", cfg.Discovery.ProductPattern)
			fmt.Printf("\nMapper:\n")
			fmt.Printf("  Vocabulary:        %s\n", strings.Join(cfg.Mapper.KeywordVocabulary, ", "))
			fmt.Printf("\nImages:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Images.Enabled)
			fmt.Printf("  Max Size:          %d bytes\n", cfg.Images.MaxSizeBytes)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Backends:          %s\n", strings.Join(cfg.Storage.Backends, ", "))
			return nil
		},
	}
}

// setupLogger creates a structured logger writing to w.
func setupLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
