// Package web serves the AgroScan site: content pages, the analysis form,
// the results dashboard, exports, the admin panel and a small JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/agroscan/agroscan/internal/admin"
	"github.com/agroscan/agroscan/internal/analyzer"
	"github.com/agroscan/agroscan/internal/auth"
	"github.com/agroscan/agroscan/internal/fingerprint"
	"github.com/agroscan/agroscan/internal/metrics"
	"github.com/agroscan/agroscan/internal/session"
	"github.com/agroscan/agroscan/internal/snapshot"
	"github.com/agroscan/agroscan/internal/store"
	"github.com/agroscan/agroscan/pkg/models"
)

// History sources.
const (
	HistoryMock = "mock"
	HistoryLog  = "log"
)

// Analyzer runs one analysis against the diagnosis service.
type Analyzer interface {
	Analyze(ctx context.Context, u *analyzer.Upload) (*models.Analysis, error)
}

// Config holds the dependencies and limits of the web server.
type Config struct {
	Analyzer Analyzer
	Auth     *auth.Service
	// Verifier checks admin session tokens. Defaults to the tokens of Auth.
	Verifier auth.TokenVerifier
	Admin    *admin.Service
	Log      store.AnalysisLog
	Renderer *snapshot.Renderer
	Metrics  *metrics.Metrics
	// Examples holds the sample images offered on the upload form.
	Examples fs.FS

	HistorySource  string
	HistoryLimit   int
	// Retention is the age after which logged analyses are pruned. Zero
	// keeps them forever.
	Retention      time.Duration
	SessionTTL     time.Duration
	MaxSessions    int
	MaxUploadBytes int64
	MaxImagePixels int
	AnalyzeRate    float64
	AnalyzeBurst   int
	SecureCookies  bool
}

// result is the analysis held for one browser session.
type result struct {
	Analysis *models.Analysis
	Similar  []store.Match
}

// Server is the web server.
type Server struct {
	analyzer  Analyzer
	auth      *auth.Service
	verifier  auth.TokenVerifier
	admin     *admin.Service
	log       store.AnalysisLog
	renderer  *snapshot.Renderer
	metrics   *metrics.Metrics
	templates map[string]*template.Template
	results   *session.Cache[*result]
	limiter   *ipLimiter
	examples  []example

	historySource  string
	historyLimit   int
	retention      time.Duration
	maxUploadBytes int64
	maxImagePixels int
	secure         bool

	mux     *http.ServeMux
	handler http.Handler
	done    chan struct{}
}

// NewServer creates the web server with all routes registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if cfg.Auth == nil || cfg.Admin == nil || cfg.Log == nil {
		return nil, errors.New("auth, admin and analysis log are required")
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.MaxImagePixels <= 0 {
		cfg.MaxImagePixels = fingerprint.DefaultMaxPixels
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	examples, err := loadExamples(cfg.Examples)
	if err != nil {
		return nil, err
	}

	s := &Server{
		analyzer:       cfg.Analyzer,
		auth:           cfg.Auth,
		verifier:       cfg.Verifier,
		admin:          cfg.Admin,
		log:            cfg.Log,
		renderer:       cfg.Renderer,
		metrics:        cfg.Metrics,
		templates:      templates,
		results:        session.New[*result](cfg.SessionTTL, cfg.MaxSessions),
		limiter:        newIPLimiter(cfg.AnalyzeRate, cfg.AnalyzeBurst),
		examples:       examples,
		historySource:  cfg.HistorySource,
		historyLimit:   cfg.HistoryLimit,
		retention:      cfg.Retention,
		maxUploadBytes: cfg.MaxUploadBytes,
		maxImagePixels: cfg.MaxImagePixels,
		secure:         cfg.SecureCookies,
		mux:            http.NewServeMux(),
		done:           make(chan struct{}),
	}
	if s.verifier == nil {
		s.verifier = cfg.Auth.Tokens()
	}
	if s.renderer == nil {
		s.renderer = snapshot.NewRenderer(snapshot.ModeAuto, s.maxImagePixels)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.historySource == "" {
		s.historySource = HistoryMock
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = 20 << 20
	}

	s.registerRoutes()
	s.handler = auth.OptionalMiddleware(s.verifier)(s.metrics.Middleware(routeLabel)(s.mux))
	go s.janitor(time.Minute)

	return s, nil
}

func (s *Server) registerRoutes() {
	// Content pages
	s.mux.HandleFunc("GET /{$}", s.handlePage("index", "home", nil))
	s.mux.HandleFunc("GET /about", s.handlePage("about", "about", nil))
	s.mux.HandleFunc("GET /how-it-works", s.handlePage("how_it_works", "how-it-works", models.Classes))
	s.mux.HandleFunc("GET /contact", s.handlePage("contact", "contact", nil))
	s.mux.HandleFunc("POST /contact", s.handleContact)

	// Analysis
	s.mux.HandleFunc("GET /services", s.handleServices)
	s.mux.HandleFunc("POST /services/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /services/reset", s.handleReset)
	s.mux.HandleFunc("GET /services/report.pdf", s.handleReport)
	s.mux.HandleFunc("GET /services/image/{kind}", s.handleImage)
	s.mux.HandleFunc("GET /services/examples/{id}", s.handleExample)

	// Dashboard and exports
	s.mux.HandleFunc("GET /results", s.handleResults)
	s.mux.HandleFunc("GET /results/export.csv", s.handleExportCSV)
	s.mux.HandleFunc("GET /results/export.xlsx", s.handleExportXLSX)

	// Admin panel
	s.mux.HandleFunc("GET /admin", s.handleAdmin)
	s.mux.HandleFunc("POST /admin/login", s.handleLogin)
	s.mux.HandleFunc("POST /admin/register", s.handleRegister)
	s.mux.HandleFunc("POST /admin/logout", s.handleLogout)
	s.mux.HandleFunc("POST /admin/datasets", s.handleDatasetUpload)
	s.mux.HandleFunc("POST /admin/retrain", s.handleRetrain)

	// API
	s.mux.HandleFunc("POST /api/analyze", s.handleAPIAnalyze)
	s.mux.HandleFunc("GET /api/history", s.handleAPIHistory)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.handler.ServeHTTP(w, r)
}

// Close stops background work.
func (s *Server) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// janitor drops expired results, idle rate limiters and analyses past
// the retention period.
func (s *Server) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.results.Sweep()
			s.limiter.sweep(10 * time.Minute)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			s.prune(ctx, time.Now())
			cancel()
		}
	}
}

func (s *Server) prune(ctx context.Context, now time.Time) {
	if s.retention <= 0 {
		return
	}
	n, err := s.log.Prune(ctx, now.Add(-s.retention))
	if err != nil {
		log.Printf("Failed to prune analysis log: %v", err)
		return
	}
	s.metrics.ObservePrune(n)
	if n > 0 {
		log.Printf("Pruned %d analyses older than %s", n, s.retention)
	}
}

// routeLabel keeps metric labels bounded to registered patterns.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
