package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shopharvest/shopharvest/internal/mapper"
	"github.com/shopharvest/shopharvest/internal/report"
	"github.com/shopharvest/shopharvest/internal/storage"
	"github.com/shopharvest/shopharvest/internal/types"
)

var reportOut string

// convertCmd creates the "convert" subcommand: re-export a run's JSON
// output to a cleaned CSV, re-applying description and price cleanup.
func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [products.json ...]",
		Short: "Re-export run JSON to cleaned CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(os.Stderr)

			for _, jsonPath := range args {
				csvPath := stem(jsonPath) + "_cleaned.csv"

				records, err := loadRecords(jsonPath)
				if err != nil {
					return err
				}
				for i := range records {
					records[i].Description = mapper.CleanDescription(records[i].Description)
					records[i].Price = mapper.FormatPrice(splitPrice(records[i].Price))
				}

				store, err := storage.NewCSVStorage(csvPath, logger)
				if err != nil {
					return err
				}
				if err := store.Store(records); err != nil {
					store.Close()
					return err
				}
				if err := store.Close(); err != nil {
					return err
				}
				fmt.Printf("Converted %d records: %s\n", len(records), csvPath)
			}
			return nil
		},
	}
}

// reportCmd creates the "report" subcommand.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [products.json]",
		Short: "Render an HTML report from run JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(os.Stderr)
			out := reportOut
			if out == "" {
				out = stem(args[0]) + "_report.html"
			}
			if err := report.Generate(args[0], out, logger); err != nil {
				return err
			}
			fmt.Printf("Report written: %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&reportOut, "out", "o", "", "output HTML path")
	return cmd
}

func loadRecords(path string) ([]types.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []types.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// splitPrice breaks a display price back into current and original parts
// so FormatPrice can re-render it without upstream artifacts.
func splitPrice(display string) (current, original string) {
	current = display
	if i := strings.Index(display, " (was "); i >= 0 {
		current = display[:i]
		original = strings.TrimSuffix(display[i+len(" (was "):], ")")
	}
	return current, original
}

func stem(path string) string {
	return strings.TrimSuffix(path, ".json")
}
