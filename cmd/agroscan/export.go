package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan/internal/app"
	"github.com/agroscan/agroscan/internal/config"
	"github.com/agroscan/agroscan/internal/export"
	"github.com/agroscan/agroscan/internal/store"
	"github.com/agroscan/agroscan/pkg/models"
)

var (
	exportFormat string
	exportOutput string
	exportSource string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the analysis history as CSV or XLSX",
	Long: `Export the analysis history shown on the results page.

Examples:
  agroscan export --format csv
  agroscan export --format xlsx --output results.xlsx
  agroscan export --source log --output -`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Output format (csv, xlsx)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file, - for stdout (defaults to the download name)")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "History source (mock, log), overrides history.source")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if exportSource != "" {
		cfg.History.Source = exportSource
	}

	write, filename, err := exporter(exportFormat)
	if err != nil {
		return err
	}

	entries, err := history(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if exportOutput == "-" {
		return write(cmd.OutOrStdout(), entries)
	}
	if exportOutput != "" {
		filename = exportOutput
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := write(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", len(entries), filename)
	return nil
}

func exporter(format string) (func(io.Writer, []models.HistoryEntry) error, string, error) {
	switch format {
	case "csv":
		return export.WriteCSV, export.CSVFilename, nil
	case "xlsx":
		return export.WriteXLSX, export.XLSXFilename, nil
	default:
		return nil, "", fmt.Errorf("unsupported format %q, use csv or xlsx", format)
	}
}

func history(ctx context.Context, cfg *config.Config) ([]models.HistoryEntry, error) {
	switch cfg.History.Source {
	case "mock":
		return store.MockHistory(), nil
	case "log":
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("history source %q requires DATABASE_URL", cfg.History.Source)
		}
		stores, err := app.OpenStores(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		defer stores.Close()

		records, err := stores.Log.List(ctx, cfg.History.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list analyses: %w", err)
		}
		return store.Entries(records), nil
	default:
		return nil, fmt.Errorf("unknown history source %q", cfg.History.Source)
	}
}
