package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"avdeck/internal/config"
	"avdeck/internal/dataprocessing"
	apperrors "avdeck/internal/errors"
	"avdeck/pkg/contracts/domain"
)

// AllFormats lists every supported export format
var AllFormats = []domain.DatasetFormat{
	domain.DatasetFormatCSV,
	domain.DatasetFormatJSON,
	domain.DatasetFormatXLSX,
}

// ParseFormats parses a comma separated format list such as "csv,json".
// An empty list selects every format.
func ParseFormats(s string) ([]domain.DatasetFormat, error) {
	if strings.TrimSpace(s) == "" {
		return AllFormats, nil
	}

	seen := make(map[domain.DatasetFormat]bool)
	var formats []domain.DatasetFormat
	for _, part := range strings.Split(s, ",") {
		format := domain.DatasetFormat(strings.ToLower(strings.TrimSpace(part)))
		switch format {
		case domain.DatasetFormatCSV, domain.DatasetFormatJSON, domain.DatasetFormatXLSX:
		case "":
			continue
		default:
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown export format %q", part)).
				WithContext("format", part)
		}
		if !seen[format] {
			seen[format] = true
			formats = append(formats, format)
		}
	}
	return formats, nil
}

// Exporter writes a finished build in the requested formats
type Exporter struct {
	paths    *config.Paths
	csv      *CSVWriter
	workbook *WorkbookExporter
	logger   *slog.Logger
}

// NewExporter creates an exporter. Relative directories resolve against the reports directory.
func NewExporter(paths *config.Paths) *Exporter {
	return &Exporter{
		paths:    paths,
		csv:      NewCSVWriter(paths),
		workbook: NewWorkbookExporter(),
		logger:   slog.Default().With(slog.String("component", "exporter")),
	}
}

// Export writes every table to dir: <name>.csv and <name>.json per dataset,
// and <deck>.xlsx holding all of them. It returns the files written.
func (e *Exporter) Export(dir, deck string, tables []*dataprocessing.Table, formats []domain.DatasetFormat) ([]string, error) {
	dir = resolvePath(e.paths, dir)
	var files []string

	for _, format := range formats {
		switch format {
		case domain.DatasetFormatCSV:
			for _, t := range tables {
				path := filepath.Join(dir, t.Name+".csv")
				if err := e.csv.WriteTable(path, t); err != nil {
					return files, err
				}
				files = append(files, path)
			}
		case domain.DatasetFormatJSON:
			for _, t := range tables {
				path := filepath.Join(dir, t.Name+".json")
				if err := WriteJSON(path, t); err != nil {
					return files, err
				}
				files = append(files, path)
			}
		case domain.DatasetFormatXLSX:
			path := filepath.Join(dir, deck+".xlsx")
			if err := e.workbook.Export(path, tables); err != nil {
				return files, err
			}
			files = append(files, path)
		default:
			return files, apperrors.NewAppValidationError(fmt.Sprintf("unknown export format %q", format))
		}
	}

	e.logger.Info("Exported datasets",
		slog.String("dir", dir),
		slog.Int("datasets", len(tables)),
		slog.Int("files", len(files)))

	return files, nil
}
