package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan/internal/analyzer"
	"github.com/agroscan/agroscan/pkg/models"
)

var (
	analyzeImageID  string
	analyzeEndpoint string
	analyzeOutDir   string
	jsonOutput      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Send one leaf image to the analysis service",
	Long: `Analyze a single PNG or JPEG leaf image and print the severity class and
infection percentage.

Examples:
  agroscan analyze ./leaf.jpg --id WR042
  agroscan analyze ./leaf.png --json
  agroscan analyze ./leaf.png --out ./masks`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeImageID, "id", "", "Image ID (defaults to the file name)")
	analyzeCmd.Flags().StringVar(&analyzeEndpoint, "endpoint", "", "Analysis service URL, overrides analyzer.endpoint")
	analyzeCmd.Flags().StringVarP(&analyzeOutDir, "out", "o", "", "Directory to write the original and mask images to")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	endpoint := cfg.Analyzer.Endpoint
	if analyzeEndpoint != "" {
		endpoint = analyzeEndpoint
	}

	upload, err := readImage(args[0], analyzeImageID)
	if err != nil {
		return err
	}
	if err := analyzer.Validate(upload); err != nil {
		return err
	}

	client := analyzer.New(endpoint, cfg.Analyzer.Timeout)

	stop := startSpinner(!jsonOutput && isatty.IsTerminal(os.Stderr.Fd()))
	result, err := client.Analyze(context.Background(), upload)
	stop()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeOutDir != "" {
		if err := writeImages(analyzeOutDir, result); err != nil {
			return err
		}
	}

	if jsonOutput {
		return printJSON(os.Stdout, result)
	}

	printResult(os.Stderr, os.Stdout, result)
	return nil
}

func readImage(path, imageID string) (*analyzer.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	name := filepath.Base(path)
	if imageID == "" {
		imageID = strings.TrimSuffix(name, filepath.Ext(name))
	}

	return &analyzer.Upload{
		ImageID:     imageID,
		Filename:    name,
		ContentType: analyzer.DetectContentType("", data),
		Data:        data,
	}, nil
}

func startSpinner(enabled bool) func() {
	if !enabled {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Analyzing leaf image..."
	s.Start()
	return s.Stop
}

func writeImages(dir string, a *models.Analysis) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	images := []struct {
		suffix string
		img    models.Image
	}{
		{"original", a.Original},
		{"green_mask", a.GreenMask},
		{"infected_highlight", a.InfectedHighlight},
	}
	// The ID may come from the command line or the service; keep files in dir.
	base := filepath.Base(a.ImageID)
	for _, im := range images {
		name := fmt.Sprintf("%s_%s%s", base, im.suffix, imageExt(im.img.ContentType))
		if err := os.WriteFile(filepath.Join(dir, name), im.img.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

func imageExt(contentType string) string {
	if contentType == "image/jpeg" {
		return ".jpg"
	}
	return ".png"
}
