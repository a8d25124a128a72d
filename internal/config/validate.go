package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	if cfg.Server.AnalyzeRate < 0 {
		return errors.New("server.analyze_rate must not be negative")
	}

	if err := validateEndpoint(cfg.Analyzer.Endpoint); err != nil {
		return err
	}
	if cfg.Analyzer.Timeout < 0 {
		return errors.New("analyzer.timeout must not be negative")
	}

	switch cfg.Auth.Mode {
	case "local", "demo":
	default:
		return fmt.Errorf("auth.mode must be local or demo, got %q", cfg.Auth.Mode)
	}
	if cfg.Auth.Mode == "local" && len(cfg.Auth.Secret) < 16 {
		return errors.New("auth.secret must be at least 16 characters in local mode")
	}
	if cfg.Auth.JWKSDomain != "" {
		if u, err := url.Parse(cfg.Auth.JWKSDomain); err != nil || u.Scheme != "https" {
			return fmt.Errorf("auth.jwks_domain must be an https URL, got %q", cfg.Auth.JWKSDomain)
		}
	}

	switch cfg.History.Source {
	case "mock", "log":
	default:
		return fmt.Errorf("history.source must be mock or log, got %q", cfg.History.Source)
	}
	if cfg.History.Retention < 0 {
		return errors.New("history.retention must not be negative")
	}

	switch cfg.Report.Renderer {
	case "auto", "browser", "compose":
	default:
		return fmt.Errorf("report.renderer must be auto, browser or compose, got %q", cfg.Report.Renderer)
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("analyzer.endpoint must be set")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("analyzer.endpoint is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("analyzer.endpoint must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("analyzer.endpoint must include a host")
	}
	return nil
}
