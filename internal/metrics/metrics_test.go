package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsStatus(t *testing.T) {
	m := New()
	h := m.Middleware(func(r *http.Request) string { return "/route" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/route?x=1", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/route", "GET", "418")))
}

func TestMiddleware_DefaultStatus(t *testing.T) {
	m := New()
	h := m.Middleware(func(r *http.Request) string { return r.URL.Path })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
		w.WriteHeader(http.StatusInternalServerError) // ignored after body
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/health", "GET", "200")))
}

func TestObserveAnalysis(t *testing.T) {
	m := New()
	m.ObserveAnalysis("success", "MRMS", 2*time.Second)
	m.ObserveAnalysis("failure", "", time.Second)
	m.ObserveAnalysis("rejected", "", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("success", "MRMS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("failure", "none")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.analyzerLatency))
}

func TestObservePrune(t *testing.T) {
	m := New()
	m.ObservePrune(3)
	m.ObservePrune(0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.pruned))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveExport("csv")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `agroscan_exports_total{format="csv"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
