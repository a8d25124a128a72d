package export

import (
	"io"
	"strings"

	"github.com/agroscan/agroscan/pkg/models"
)

// CSV renders entries with every field double-quoted. Lines are joined by
// "\n" with no trailing newline, so N entries produce N+1 lines.
func CSV(entries []models.HistoryEntry) []byte {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, quoteRow(Header))
	for _, e := range entries {
		lines = append(lines, quoteRow(row(e)))
	}
	return []byte(strings.Join(lines, "\n"))
}

// WriteCSV writes the CSV rendering of entries to w.
func WriteCSV(w io.Writer, entries []models.HistoryEntry) error {
	_, err := w.Write(CSV(entries))
	return err
}

func quoteRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
