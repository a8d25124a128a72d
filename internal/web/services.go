package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/agroscan/agroscan/internal/analyzer"
	"github.com/agroscan/agroscan/internal/export"
	"github.com/agroscan/agroscan/internal/fingerprint"
	"github.com/agroscan/agroscan/internal/session"
	"github.com/agroscan/agroscan/internal/store"
	"github.com/agroscan/agroscan/pkg/models"
)

const similarSamples = 3

var (
	errUploadTooLarge = errors.New("image is too large")
	errImageTooLarge  = errors.New("image dimensions are too large")
	errRateLimited    = errors.New("too many analysis requests, please wait a moment")
	errNoResult       = errors.New("no analysis result, please analyze an image first")
)

type servicesData struct {
	ImageID  string
	Result   *result
	Examples []example
}

func (s *Server) currentResult(r *http.Request) *result {
	id := session.Lookup(r)
	if id == "" {
		return nil
	}
	res, ok := s.results.Get(id)
	if !ok {
		return nil
	}
	return res
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "services", "services", servicesData{
		ImageID:  r.URL.Query().Get("image_id"),
		Result:   s.currentResult(r),
		Examples: s.examples,
	})
}

// readUpload parses the analysis form. A chosen sample image stands in for
// a missing file; otherwise a missing file yields an empty upload so
// validation reports it.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*analyzer.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errUploadTooLarge
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("invalid form: %w", err)
		}
	}

	u := &analyzer.Upload{ImageID: r.FormValue("image_id")}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return s.exampleUpload(u, r.FormValue("example"))
	}
	if err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	u.Filename = header.Filename
	u.ContentType = analyzer.DetectContentType(header.Header.Get("Content-Type"), data)
	u.Data = data
	return u, nil
}

func (s *Server) exampleUpload(u *analyzer.Upload, id string) (*analyzer.Upload, error) {
	if id == "" {
		return u, nil
	}
	ex, ok := s.example(id)
	if !ok {
		return nil, errUnknownExample
	}
	if u.ImageID == "" {
		u.ImageID = ex.ID
	}
	u.Filename = ex.Filename
	u.ContentType = ex.ContentType
	u.Data = ex.Data
	return u, nil
}

// analyze calls the analysis service and records a successful result.
func (s *Server) analyze(ctx context.Context, u *analyzer.Upload) (*result, error) {
	if err := analyzer.Validate(u); err != nil {
		s.metrics.ObserveAnalysis("invalid", "", 0)
		return nil, err
	}
	if err := fingerprint.CheckSize(u.Data, s.maxImagePixels); errors.Is(err, fingerprint.ErrTooLarge) {
		s.metrics.ObserveAnalysis("invalid", "", 0)
		return nil, errImageTooLarge
	}

	start := time.Now()
	a, err := s.analyzer.Analyze(ctx, u)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveAnalysis("failed", "", elapsed)
		log.Printf("Analysis of %q failed: %v", u.ImageID, err)
		return nil, analyzer.ErrAnalysisFailed
	}
	s.metrics.ObserveAnalysis("success", string(a.PredictedClass), elapsed)

	res := &result{Analysis: a}

	fp, err := fingerprint.Compute(a.Original.Data, s.maxImagePixels)
	if err != nil {
		log.Printf("Failed to fingerprint %q: %v", a.ImageID, err)
	}
	if len(fp) > 0 {
		matches, err := s.log.Similar(ctx, fp, similarSamples)
		if err != nil {
			log.Printf("Failed to find similar samples: %v", err)
		}
		res.Similar = matches
	}

	rec := &store.AnalysisRecord{
		Entry:       a.HistoryEntry(),
		Result:      a.Result,
		Fingerprint: fp,
	}
	if err := s.log.Record(ctx, rec); err != nil {
		log.Printf("Failed to record analysis %q: %v", a.ImageID, err)
	}

	return res, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r) {
		s.flashError(w, errRateLimited)
		s.redirect(w, r, "/services")
		return
	}

	u, err := s.readUpload(w, r)
	if err != nil {
		s.flashError(w, err)
		s.redirect(w, r, "/services")
		return
	}

	back := "/services"
	if u.ImageID != "" {
		back += "?image_id=" + url.QueryEscape(u.ImageID)
	}

	res, err := s.analyze(r.Context(), u)
	if err != nil {
		s.flashError(w, err)
		s.redirect(w, r, back)
		return
	}

	s.results.Set(session.ID(w, r, s.secure), res)
	s.flashSuccess(w, "Analysis completed successfully")
	s.redirect(w, r, "/services")
}

// handleReset discards the session's result so the form starts empty.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if id := session.Lookup(r); id != "" {
		s.results.Delete(id)
	}
	s.redirect(w, r, "/services")
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	res := s.currentResult(r)
	if res == nil {
		http.NotFound(w, r)
		return
	}

	var img models.Image
	switch r.PathValue("kind") {
	case "original":
		img = res.Analysis.Original
	case "mask":
		img = res.Analysis.GreenMask
	case "highlight":
		img = res.Analysis.InfectedHighlight
	default:
		http.NotFound(w, r)
		return
	}

	ct := img.ContentType
	if ct == "" {
		ct = "image/png"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img.Data)
}

// renderReport produces the PDF report of res.
func (s *Server) renderReport(res *result) ([]byte, error) {
	var view bytes.Buffer
	if err := s.templates["report"].Execute(&view, res); err != nil {
		return nil, fmt.Errorf("failed to render report page: %w", err)
	}

	png, err := s.renderer.Render(view.Bytes(), res.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to capture report: %w", err)
	}

	var out bytes.Buffer
	err = export.WritePDF(&out, export.Report{
		ImageID:     res.Analysis.ImageID,
		Snapshot:    png,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res := s.currentResult(r)
	if res == nil {
		s.flashError(w, errNoResult)
		s.redirect(w, r, "/services")
		return
	}

	pdf, err := s.renderReport(res)
	if err != nil {
		log.Printf("Failed to build report for %q: %v", res.Analysis.ImageID, err)
		s.setFlash(w, "error", "Failed to generate the report")
		s.redirect(w, r, "/services")
		return
	}

	s.metrics.ObserveExport("pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(export.ReportFilename(res.Analysis.ImageID)))
	_, _ = w.Write(pdf)
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
