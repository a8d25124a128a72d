// Package main provides the AgroScan web server for container deployments.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/agroscan/agroscan/internal/app"
	"github.com/agroscan/agroscan/internal/config"
	"github.com/agroscan/agroscan/internal/database"
)

func main() {
	var (
		configPath  = flag.String("config", getEnv("AGROSCAN_CONFIG", "agroscan.yaml"), "Config file")
		migrateOnly = flag.Bool("migrate", false, "Run migrations and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *migrateOnly {
		if cfg.Database.URL == "" {
			log.Fatal("DATABASE_URL is required")
		}
		log.Println("Running database migrations...")
		if err := database.Migrate(cfg.Database.URL); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations complete")
		return
	}

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		a.Close()
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
