package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// Report page geometry in millimetres on A4 portrait.
const (
	reportMargin     = 15.0
	reportImageWidth = 180.0
	reportPageHeight = 295.0
	reportImageTop   = 35.0
)

// ErrEmptySnapshot is returned when a report has no image to embed.
var ErrEmptySnapshot = errors.New("report snapshot is empty")

// Report is the input of the PDF report.
type Report struct {
	ImageID     string
	Snapshot    []byte // PNG of the rendered result view
	GeneratedAt time.Time
}

// Placements returns the vertical offset of the snapshot on each page. The
// image is drawn once per page, shifted up by one page height each time,
// until no part of it remains below the previous page.
func Placements(imageHeight float64) []float64 {
	positions := []float64{reportImageTop}
	heightLeft := imageHeight - reportPageHeight
	for heightLeft >= 0 {
		positions = append(positions, heightLeft-imageHeight)
		heightLeft -= reportPageHeight
	}
	return positions
}

// ScaledHeight returns the height in mm of a snapshot scaled to the report width.
func ScaledHeight(snapshot []byte) (float64, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(snapshot))
	if err != nil {
		return 0, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if cfg.Width == 0 {
		return 0, ErrEmptySnapshot
	}
	return float64(cfg.Height) * reportImageWidth / float64(cfg.Width), nil
}

// WritePDF renders the report and writes it to w.
func WritePDF(w io.Writer, r Report) error {
	pdf, err := buildPDF(r)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func buildPDF(r Report) (*fpdf.Fpdf, error) {
	if len(r.Snapshot) == 0 {
		return nil, ErrEmptySnapshot
	}
	imgHeight, err := ScaledHeight(r.Snapshot)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("AgroScan Analysis Report", true)
	pdf.SetCreator("AgroScan", true)
	pdf.SetCreationDate(r.GeneratedAt)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	name := "snapshot-" + r.ImageID
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(r.Snapshot))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to embed snapshot: %w", err)
	}

	for i, y := range Placements(imgHeight) {
		pdf.AddPage()
		if i == 0 {
			pdf.SetFont("Helvetica", "", 16)
			pdf.Text(reportMargin, 20, "AgroScan Analysis Report")
			pdf.SetFont("Helvetica", "", 10)
			pdf.Text(reportMargin, 28, "Generated on: "+r.GeneratedAt.Format("2006-01-02 15:04:05"))
		}
		pdf.ImageOptions(name, reportMargin, y, reportImageWidth, imgHeight, false, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf, nil
}
