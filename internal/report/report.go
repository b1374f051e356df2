// Package report writes batch run summaries as Excel workbooks.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-pdf-filler/internal/filler"
)

const (
	SummarySheet = "Summary"
	RunSheet     = "Run"

	timeLayout = "2006-01-02 15:04:05"
)

var summaryHeader = []any{"#", "Identifier", "Status", "Output", "Message"}

// WriteXLSX writes one row per record outcome to a workbook at path
func WriteXLSX(path string, s *filler.Summary) (err error) {
	if s == nil {
		return fmt.Errorf("summary cannot be nil")
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := writeOutcomes(f, s); err != nil {
		return err
	}

	if _, err := f.NewSheet(RunSheet); err != nil {
		return fmt.Errorf("failed to create run sheet: %w", err)
	}
	if err := writeRun(f, s); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func writeOutcomes(f *excelize.File, s *filler.Summary) error {
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, o := range s.Outcomes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{o.Index + 1, o.Identifier, string(o.Status), o.OutputPath, o.Message}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SummarySheet, "B", "B", 24); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "D", "E", 48)
}

func writeRun(f *excelize.File, s *filler.Summary) error {
	rows := [][]any{
		{"Run ID", s.RunID},
		{"Template", s.Template},
		{"Mode", mode(s)},
		{"Started", formatTime(s.Started)},
		{"Finished", formatTime(s.Finished)},
		{"Filled", s.Count(filler.StatusFilled)},
		{"Skipped (exists)", s.Count(filler.StatusSkippedExists)},
		{"Skipped (duplicate)", s.Count(filler.StatusSkippedDuplicate)},
		{"Failed", s.Count(filler.StatusFailed)},
		{"Message", s.Message},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RunSheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write run info: %w", err)
		}
	}
	return f.SetColWidth(RunSheet, "A", "B", 28)
}

func mode(s *filler.Summary) string {
	if s.Batch {
		return "batch"
	}
	return "single"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
