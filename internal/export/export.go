// Package export renders analysis history and reports as CSV, XLSX and PDF.
package export

import "github.com/agroscan/agroscan/pkg/models"

// Download file names.
const (
	CSVFilename  = "analysis_results.csv"
	XLSXFilename = "analysis_results.xlsx"
)

// Header is the column row shared by the CSV and XLSX exports.
var Header = []string{"Image ID", "Class", "Infection %", "Timestamp"}

// ReportFilename returns the download name of the PDF report for an image.
func ReportFilename(imageID string) string {
	return "wheat-rust-report-" + imageID + ".pdf"
}

func row(e models.HistoryEntry) []string {
	return []string{e.ImageID, string(e.Class), e.PercentString(), e.TimestampString()}
}
