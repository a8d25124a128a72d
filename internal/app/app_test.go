package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroscan/agroscan/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Setenv("DATABASE_URL", "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Auth.Secret = "test-secret-0123456789"
	cfg.Report.Renderer = "compose"
	return cfg
}

func TestNewUsesMemoryStores(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Secret = "short"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.secret")
}

func TestNewDemoModeWithoutSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Mode = "demo"
	cfg.Auth.Secret = ""

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	a.Close()
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHTTPServerTimeouts(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	srv := a.HTTPServer()
	assert.Equal(t, "127.0.0.1:0", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.NotNil(t, srv.Handler)
}
