package web

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/agroscan/agroscan/internal/auth"
	"github.com/agroscan/agroscan/pkg/models"
)

//go:embed templates
var templateFiles embed.FS

// pages are rendered inside layout.html; report.html stands alone.
var pages = []string{"index", "about", "how_it_works", "contact", "services", "results", "admin"}

var funcs = template.FuncMap{
	"percent": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"imgsrc": func(i models.Image) template.URL {
		return template.URL(i.DataURI())
	},
	"kib": func(n int64) string {
		return strconv.FormatFloat(float64(n)/1024, 'f', 1, 64)
	},
	"timestamp": func(t time.Time) string {
		return t.Format(models.TimestampLayout)
	},
}

func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages)+1)
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFiles,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		out[name] = t
	}

	report, err := template.New("report.html").Funcs(funcs).ParseFS(templateFiles, "templates/report.html")
	if err != nil {
		return nil, err
	}
	out["report"] = report

	return out, nil
}

// page is the data every layout-rendered template receives.
type page struct {
	Nav   string
	Flash *flash
	Admin string
	Year  int
	Data  any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name, nav string, data any) {
	p := page{
		Nav:   nav,
		Flash: s.popFlash(w, r),
		Year:  time.Now().Year(),
		Admin: auth.DisplayName(r.Context()),
		Data:  data,
	}

	var buf bytes.Buffer
	if err := s.templates[name].Execute(&buf, p); err != nil {
		log.Printf("Failed to render %s: %v", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handlePage(name, nav string, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, name, nav, data)
	}
}
