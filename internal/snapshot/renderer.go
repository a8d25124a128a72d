package snapshot

import (
	"fmt"
	"log"
	"sync"

	"github.com/agroscan/agroscan/pkg/models"
)

// Mode selects how report snapshots are produced.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeBrowser Mode = "browser"
	ModeCompose Mode = "compose"
)

// ParseMode validates a renderer name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAuto, ModeBrowser, ModeCompose:
		return m, nil
	}
	return "", fmt.Errorf("unknown report renderer %q", s)
}

// Renderer produces the PNG embedded in PDF reports.
type Renderer struct {
	mode      Mode
	maxPixels int

	// overridable in tests
	available  func() bool
	screenshot func(html []byte) ([]byte, error)

	once    sync.Once
	browser bool
}

// NewRenderer creates a renderer. maxPixels bounds every image the composer
// decodes; a non-positive value selects DefaultMaxPixels.
func NewRenderer(mode Mode, maxPixels int) *Renderer {
	return &Renderer{
		mode:       mode,
		maxPixels:  maxPixels,
		available:  IsAvailable,
		screenshot: ScreenshotHTML,
	}
}

func (r *Renderer) Mode() Mode {
	return r.mode
}

func (r *Renderer) browserAvailable() bool {
	r.once.Do(func() {
		r.browser = r.available()
		if !r.browser && r.mode == ModeAuto {
			log.Println("Chromium unavailable, report snapshots use the image composer")
		}
	})
	return r.browser
}

// Render captures the report section of html. In auto mode a browser
// failure falls back to composing the analysis images.
func (r *Renderer) Render(html []byte, a *models.Analysis) ([]byte, error) {
	switch r.mode {
	case ModeCompose:
		return r.compose(a)
	case ModeBrowser:
		return r.screenshot(html)
	}

	if r.browserAvailable() {
		png, err := r.screenshot(html)
		if err == nil {
			return png, nil
		}
		log.Printf("Browser snapshot failed, composing images: %v", err)
	}
	return r.compose(a)
}

func (r *Renderer) compose(a *models.Analysis) ([]byte, error) {
	if a == nil {
		return nil, ErrNoImages
	}
	return Compose(r.maxPixels, a.Original.Data, a.GreenMask.Data, a.InfectedHighlight.Data)
}
