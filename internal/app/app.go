// Package app wires configuration into a running AgroScan web server.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/agroscan/agroscan/internal/admin"
	"github.com/agroscan/agroscan/internal/analyzer"
	"github.com/agroscan/agroscan/internal/auth"
	"github.com/agroscan/agroscan/internal/config"
	"github.com/agroscan/agroscan/internal/database"
	"github.com/agroscan/agroscan/internal/metrics"
	"github.com/agroscan/agroscan/internal/snapshot"
	"github.com/agroscan/agroscan/internal/store"
	"github.com/agroscan/agroscan/internal/web"
)

const memoryLogCapacity = 10000

// Stores groups the persistence backends used by the server.
type Stores struct {
	Log      store.AnalysisLog
	Accounts store.Accounts
	Datasets store.Datasets
	close    func()
}

// Close releases the underlying connection pool, if any.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores returns PostgreSQL-backed stores when a database URL is
// configured and in-memory stores otherwise. Migrations run first.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig) (*Stores, error) {
	if cfg.URL == "" {
		log.Println("No database configured, using in-memory stores")
		return &Stores{
			Log:      store.NewMemoryAnalysisLog(memoryLogCapacity),
			Accounts: store.NewMemoryAccounts(),
			Datasets: store.NewMemoryDatasets(),
		}, nil
	}

	db, err := database.Open(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Stores{
		Log:      db.AnalysisLog(),
		Accounts: db.Accounts(),
		Datasets: db.Datasets(),
		close:    db.Close,
	}, nil
}

// App is a configured server and the resources it owns.
type App struct {
	cfg    *config.Config
	stores *Stores
	admin  *admin.Service
	web    *web.Server
}

// New builds the application from cfg. The caller must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	stores, err := OpenStores(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a, err := build(cfg, stores)
	if err != nil {
		stores.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *config.Config, stores *Stores) (*App, error) {
	tokens, err := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	authService := auth.NewService(stores.Accounts, tokens, auth.Mode(cfg.Auth.Mode))
	if authService.Mode() == auth.ModeDemo {
		log.Println("Admin login is in demo mode, any credentials are accepted")
	}

	var verifier auth.TokenVerifier = tokens
	if cfg.Auth.JWKSDomain != "" {
		jwks, err := auth.NewJWKSVerifier(auth.JWKSConfig{
			Domain:   cfg.Auth.JWKSDomain,
			Audience: cfg.Auth.JWKSAudience,
		})
		if err != nil {
			return nil, err
		}
		verifier = auth.Chain{tokens, jwks}
	}

	mode, err := snapshot.ParseMode(cfg.Report.Renderer)
	if err != nil {
		return nil, err
	}

	var examples fs.FS
	if cfg.Server.ExamplesDir != "" {
		examples = os.DirFS(cfg.Server.ExamplesDir)
	}

	adminService := admin.NewService(stores.Datasets, cfg.Admin.RetrainDuration)
	server, err := web.NewServer(web.Config{
		Analyzer:       analyzer.New(cfg.Analyzer.Endpoint, cfg.Analyzer.Timeout),
		Auth:           authService,
		Verifier:       verifier,
		Admin:          adminService,
		Log:            stores.Log,
		Renderer:       snapshot.NewRenderer(mode, cfg.Server.MaxImagePixels),
		Metrics:        metrics.New(),
		Examples:       examples,
		HistorySource:  cfg.History.Source,
		HistoryLimit:   cfg.History.Limit,
		Retention:      cfg.History.Retention,
		SessionTTL:     cfg.Server.SessionTTL,
		MaxSessions:    cfg.Server.MaxSessions,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		MaxImagePixels: cfg.Server.MaxImagePixels,
		AnalyzeRate:    cfg.Server.AnalyzeRate,
		AnalyzeBurst:   cfg.Server.AnalyzeBurst,
		SecureCookies:  cfg.Server.SecureCookies,
	})
	if err != nil {
		adminService.Close()
		return nil, err
	}

	return &App{cfg: cfg, stores: stores, admin: adminService, web: server}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.web
}

// HTTPServer returns an http.Server listening on the configured address.
func (a *App) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.web,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := a.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

// Close stops background work and releases the stores.
func (a *App) Close() {
	a.web.Close()
	a.admin.Close()
	a.stores.Close()
}
