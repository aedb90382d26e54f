package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"avdeck/internal/dataprocessing"
	apperrors "avdeck/internal/errors"
)

const maxSheetName = 31

// WorkbookExporter writes several datasets into one workbook
type WorkbookExporter struct {
	ColumnWidth float64
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{ColumnWidth: 16}
}

// Export writes one sheet per table, in order, with a bold header row.
// Numbers are stored as numeric cells and dates as YYYY-MM-DD text.
func (e *WorkbookExporter) Export(filePath string, tables []*dataprocessing.Table) error {
	if len(tables) == 0 {
		return apperrors.NewAppValidationError("workbook export needs at least one dataset")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewStorageError("failed to create header style", err)
	}

	used := make(map[string]bool, len(tables))
	for i, t := range tables {
		name := sheetName(t.Name, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return apperrors.NewStorageError(fmt.Sprintf("failed to name sheet %q", name), err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to add sheet %q", name), err)
		}

		if err := e.writeSheet(f, name, t, headerStyle); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to save workbook %s", filePath), err)
	}

	slog.Info("Wrote dataset workbook",
		slog.String("file_path", filePath),
		slog.Int("sheets", len(tables)))

	return nil
}

func (e *WorkbookExporter) writeSheet(f *excelize.File, sheet string, t *dataprocessing.Table, headerStyle int) error {
	header := make([]interface{}, t.Width())
	for i, name := range Headers(t) {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write header of %s", sheet), err)
	}

	if t.Width() > 0 {
		last, err := excelize.CoordinatesToCellName(t.Width(), 1)
		if err != nil {
			return apperrors.NewStorageError("invalid header range", err)
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to style header of %s", sheet), err)
		}
		lastCol, _ := excelize.ColumnNumberToName(t.Width())
		if err := f.SetColWidth(sheet, "A", lastCol, e.ColumnWidth); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to size columns of %s", sheet), err)
		}
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if num, ok := v.Float(); ok {
				cells[j] = num
				continue
			}
			cells[j] = v.Interface()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("invalid row reference", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write row %d of %s", i+1, sheet), err)
		}
	}
	return nil
}

// sheetName strips characters workbooks reject, truncates to the
// sheet name limit and suffixes duplicates.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "dataset"
	}
	clean = truncate(clean, maxSheetName)

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		candidate = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
