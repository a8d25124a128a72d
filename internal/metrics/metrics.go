// Package metrics exposes Prometheus instrumentation for the web server.
package metrics

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one server instance.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	analyses        *prometheus.CounterVec
	analyzerLatency prometheus.Histogram
	exports         *prometheus.CounterVec
	pruned          prometheus.Counter
}

// New creates collectors registered on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			}, []string{"path", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"path"},
		),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agroscan_analyses_total",
				Help: "Analysis submissions by outcome and predicted class",
			}, []string{"outcome", "class"},
		),
		analyzerLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agroscan_analyzer_duration_seconds",
				Help:    "Duration of calls to the analysis service",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agroscan_exports_total",
				Help: "Downloaded exports by format",
			}, []string{"format"},
		),
		pruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agroscan_analyses_pruned_total",
				Help: "Logged analyses removed by the retention sweep",
			},
		),
	}
	m.registry.MustRegister(
		m.requestCount, m.requestDuration, m.analyses, m.analyzerLatency, m.exports, m.pruned,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrune records analyses removed from the log.
func (m *Metrics) ObservePrune(n int64) {
	m.pruned.Add(float64(n))
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one analysis outcome. class is empty on failure.
func (m *Metrics) ObserveAnalysis(outcome, class string, d time.Duration) {
	if class == "" {
		class = "none"
	}
	m.analyses.WithLabelValues(outcome, class).Inc()
	if d > 0 {
		m.analyzerLatency.Observe(d.Seconds())
	}
}

// ObserveExport records one export download.
func (m *Metrics) ObserveExport(format string) {
	m.exports.WithLabelValues(format).Inc()
}

// Middleware logs each request and records its status and duration.
// pathLabel maps a request to a bounded label, typically its route pattern.
func (m *Metrics) Middleware(pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(lrw, r)
			duration := time.Since(start)
			log.Printf("%s %s %d %s", r.Method, r.URL.Path, lrw.statusCode, duration)

			path := pathLabel(r)
			m.requestCount.WithLabelValues(path, r.Method, fmt.Sprintf("%d", lrw.statusCode)).Inc()
			m.requestDuration.WithLabelValues(path).Observe(duration.Seconds())
		})
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	if !lrw.wrote {
		lrw.statusCode = code
		lrw.wrote = true
	}
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	lrw.wrote = true
	return lrw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}
