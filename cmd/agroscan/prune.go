package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan/internal/app"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete logged analyses older than a given age",
	Long: `Delete analyses from the database log that are older than --older-than,
or history.retention when the flag is not set.

Examples:
  agroscan prune --older-than 720h`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "Age of the oldest analysis to keep (defaults to history.retention)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	age := cfg.History.Retention
	if pruneOlderThan > 0 {
		age = pruneOlderThan
	}
	if age <= 0 {
		return errors.New("--older-than or history.retention must be set")
	}

	ctx := context.Background()
	stores, err := app.OpenStores(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer stores.Close()

	n, err := stores.Log.Prune(ctx, time.Now().Add(-age))
	if err != nil {
		return fmt.Errorf("failed to prune analyses: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d analyses older than %s\n", n, age)
	return nil
}
