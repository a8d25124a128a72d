package web

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// maxExamples is the number of sample images offered on the upload form.
const maxExamples = 5

var errUnknownExample = errors.New("unknown sample image")

// example is a sample leaf image. ID is the file name without extension.
type example struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
}

// loadExamples reads up to maxExamples PNG or JPEG files from the root of
// fsys in name order. A nil fsys yields no examples.
func loadExamples(fsys fs.FS) ([]example, error) {
	if fsys == nil {
		return nil, nil
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list sample images: %w", err)
	}

	var out []example
	for _, e := range entries {
		if len(out) == maxExamples {
			break
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		var ct string
		switch strings.ToLower(path.Ext(name)) {
		case ".png":
			ct = "image/png"
		case ".jpg", ".jpeg":
			ct = "image/jpeg"
		default:
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sample image %s: %w", name, err)
		}
		out = append(out, example{
			ID:          strings.TrimSuffix(name, path.Ext(name)),
			Filename:    name,
			ContentType: ct,
			Data:        data,
		})
	}
	return out, nil
}

func (s *Server) example(id string) (*example, bool) {
	for i := range s.examples {
		if s.examples[i].ID == id {
			return &s.examples[i], true
		}
	}
	return nil, false
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.example(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", ex.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(ex.Data)
}
