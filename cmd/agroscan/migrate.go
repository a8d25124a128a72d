package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan/internal/database"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back all migrations")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if migrateDown {
		if err := database.MigrateDown(cfg.Database.URL); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Migrations rolled back")
		return nil
	}

	if err := database.Migrate(cfg.Database.URL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Migrations complete")
	return nil
}
