package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/agroscan/agroscan/internal/analyzer"
	"github.com/agroscan/agroscan/pkg/models"
)

type analysisResponse struct {
	models.Payload
	Similar []similarSample `json:"similar"`
}

type similarSample struct {
	models.HistoryEntry
	Distance float64 `json:"distance"`
}

func toResponse(res *result) analysisResponse {
	out := analysisResponse{
		Payload: res.Analysis.Payload(),
		Similar: []similarSample{},
	}
	for _, m := range res.Similar {
		out.Similar = append(out.Similar, similarSample{HistoryEntry: m.Record.Entry, Distance: m.Distance})
	}
	return out
}

func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r) {
		writeError(w, http.StatusTooManyRequests, errRateLimited.Error())
		return
	}

	u, err := s.readUpload(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUploadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err.Error())
		return
	}

	res, err := s.analyze(r.Context(), u)
	switch {
	case errors.Is(err, analyzer.ErrAnalysisFailed):
		writeError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toResponse(res))
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r.Context())
	if err != nil {
		log.Printf("Failed to load history: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, d)
}
