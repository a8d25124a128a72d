package export

import (
	"fmt"
	"io"

	"github.com/agroscan/agroscan/pkg/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet of the spreadsheet export.
const SheetName = "Analysis Results"

// WriteXLSX writes entries as a workbook with one sheet. Infection
// percentages are stored as numbers.
func WriteXLSX(w io.Writer, entries []models.HistoryEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{e.ImageID, string(e.Class), e.InfectionPercent, e.TimestampString()}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "D", 18); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
