// Package config loads AgroScan configuration from YAML, .env and the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds AgroScan configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	History  HistoryConfig  `yaml:"history"`
	Report   ReportConfig   `yaml:"report"`
	Admin    AdminConfig    `yaml:"admin"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // e.g. ":8080"
	SessionTTL      time.Duration `yaml:"session_ttl"`      // lifetime of an unviewed result
	MaxSessions     int           `yaml:"max_sessions"`     // cap on cached results
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"` // multipart body limit
	MaxImagePixels  int           `yaml:"max_image_pixels"` // decode budget per image
	ExamplesDir     string        `yaml:"examples_dir"`     // sample images for the upload form
	AnalyzeRate     float64       `yaml:"analyze_rate"`     // submissions per second per client
	AnalyzeBurst    int           `yaml:"analyze_burst"`
	SecureCookies   bool          `yaml:"secure_cookies"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AnalyzerConfig struct {
	Endpoint string        `yaml:"endpoint"` // e.g. "http://127.0.0.1:5000/analyze"
	Timeout  time.Duration `yaml:"timeout"`  // 0 means no timeout
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty selects in-memory stores
}

type AuthConfig struct {
	Mode         string        `yaml:"mode"`   // local | demo
	Secret       string        `yaml:"secret"` // HS256 signing key for admin sessions
	TokenTTL     time.Duration `yaml:"token_ttl"`
	JWKSDomain   string        `yaml:"jwks_domain"` // optional external identity provider
	JWKSAudience string        `yaml:"jwks_audience"`
}

type HistoryConfig struct {
	Source    string        `yaml:"source"` // mock | log
	Limit     int           `yaml:"limit"`
	Retention time.Duration `yaml:"retention"` // 0 keeps analyses forever
}

type ReportConfig struct {
	Renderer string `yaml:"renderer"` // auto | browser | compose
}

type AdminConfig struct {
	RetrainDuration time.Duration `yaml:"retrain_duration"`
}

// Load reads configuration from a YAML file, then applies .env and
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			SessionTTL:      30 * time.Minute,
			MaxSessions:     1000,
			MaxUploadBytes:  20 << 20,
			MaxImagePixels:  50_000_000,
			AnalyzeRate:     1,
			AnalyzeBurst:    5,
			ShutdownTimeout: 30 * time.Second,
		},
		Analyzer: AnalyzerConfig{
			Endpoint: "http://127.0.0.1:5000/analyze",
		},
		Auth: AuthConfig{
			Mode:     "local",
			TokenTTL: 12 * time.Hour,
		},
		History: HistoryConfig{
			Source: "mock",
			Limit:  100,
		},
		Report: ReportConfig{
			Renderer: "auto",
		},
		Admin: AdminConfig{
			RetrainDuration: 30 * time.Second,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("AGROSCAN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("AGROSCAN_EXAMPLES_DIR"); v != "" {
		cfg.Server.ExamplesDir = v
	}
	if v := os.Getenv("AGROSCAN_ANALYZER_URL"); v != "" {
		cfg.Analyzer.Endpoint = v
	}
	if v := os.Getenv("AGROSCAN_ANALYZER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analyzer.Timeout = d
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("AGROSCAN_AUTH_MODE"); v != "" {
		cfg.Auth.Mode = v
	}
	if v := os.Getenv("AGROSCAN_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AGROSCAN_JWKS_DOMAIN"); v != "" {
		cfg.Auth.JWKSDomain = v
	}
	if v := os.Getenv("AGROSCAN_JWKS_AUDIENCE"); v != "" {
		cfg.Auth.JWKSAudience = v
	}
	if v := os.Getenv("AGROSCAN_HISTORY_SOURCE"); v != "" {
		cfg.History.Source = v
	}
	if v := os.Getenv("AGROSCAN_HISTORY_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.History.Retention = d
		}
	}
	if v := os.Getenv("AGROSCAN_REPORT_RENDERER"); v != "" {
		cfg.Report.Renderer = v
	}
	if v := os.Getenv("AGROSCAN_SECURE_COOKIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.SecureCookies = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Server.MaxSessions <= 0 {
		cfg.Server.MaxSessions = 1000
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 20 << 20
	}
	if cfg.Server.MaxImagePixels <= 0 {
		cfg.Server.MaxImagePixels = 50_000_000
	}
	if cfg.Server.AnalyzeBurst <= 0 {
		cfg.Server.AnalyzeBurst = 5
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = "local"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.History.Source == "" {
		cfg.History.Source = "mock"
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = 100
	}
	if cfg.Report.Renderer == "" {
		cfg.Report.Renderer = "auto"
	}
	if cfg.Admin.RetrainDuration <= 0 {
		cfg.Admin.RetrainDuration = 30 * time.Second
	}
}
