package web

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"net/http"

	"github.com/agroscan/agroscan/internal/export"
	"github.com/agroscan/agroscan/internal/store"
	"github.com/agroscan/agroscan/pkg/models"
)

type resultsData struct {
	Tab       string
	BarChart  template.HTML
	LineChart template.HTML
	History   []models.HistoryEntry
}

// dashboard returns the canned dashboard, or one derived from the
// analysis log when history comes from recorded analyses.
func (s *Server) dashboard(ctx context.Context) (models.Dashboard, error) {
	if s.historySource != HistoryLog {
		return store.MockDashboard(), nil
	}
	records, err := s.log.List(ctx, s.historyLimit)
	if err != nil {
		return models.Dashboard{}, err
	}
	entries := store.Entries(records)
	return models.Dashboard{
		Distribution: models.ClassDistribution(entries),
		OverTime:     models.InfectionOverTime(entries),
		History:      entries,
	}, nil
}

// adminLog returns the rows of the admin analysis log.
func (s *Server) adminLog(ctx context.Context) ([]models.HistoryEntry, error) {
	if s.historySource != HistoryLog {
		return store.MockAdminLog(), nil
	}
	records, err := s.log.List(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}
	return store.Entries(records), nil
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r.Context())
	if err != nil {
		log.Printf("Failed to load dashboard: %v", err)
		http.Error(w, "failed to load results", http.StatusInternalServerError)
		return
	}

	tab := "charts"
	if r.URL.Query().Get("tab") == "history" {
		tab = "history"
	}

	s.render(w, r, "results", "results", resultsData{
		Tab:       tab,
		BarChart:  BarChart(d.Distribution),
		LineChart: LineChart(d.OverTime),
		History:   d.History,
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r.Context())
	if err != nil {
		log.Printf("Failed to load history: %v", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	s.metrics.ObserveExport("csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(export.CSVFilename))
	if err := export.WriteCSV(w, d.History); err != nil {
		log.Printf("Failed to write CSV export: %v", err)
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r.Context())
	if err != nil {
		log.Printf("Failed to load history: %v", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, d.History); err != nil {
		log.Printf("Failed to build XLSX export: %v", err)
		http.Error(w, "failed to build export", http.StatusInternalServerError)
		return
	}

	s.metrics.ObserveExport("xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(export.XLSXFilename))
	_, _ = buf.WriteTo(w)
}
