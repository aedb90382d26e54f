package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"google.golang.org/api/option"

	"avdeck/internal/config"
	"avdeck/internal/dataprocessing"
	apperrors "avdeck/internal/errors"
	"avdeck/internal/infrastructure"
)

// SourceLoader reads manifest sources into raw tables
type SourceLoader struct {
	credentialsFile string

	mu     sync.Mutex
	sheets dataprocessing.ValuesReader
	logger *slog.Logger
}

// NewSourceLoader creates a loader. sheets may be nil, in which case a Sheets
// API reader is created from credentialsFile the first time a gsheet source
// is loaded.
func NewSourceLoader(credentialsFile string, sheets dataprocessing.ValuesReader) *SourceLoader {
	return &SourceLoader{
		credentialsFile: credentialsFile,
		sheets:          sheets,
		logger:          infrastructure.WithComponent(nil, "sources"),
	}
}

// Load reads the listed sources. IDs the manifest does not declare are left
// out; the runner rejects the steps that need them.
func (l *SourceLoader) Load(ctx context.Context, m *config.Manifest, ids []string) (map[string]*dataprocessing.Table, error) {
	out := make(map[string]*dataprocessing.Table, len(ids))
	for _, id := range ids {
		spec, ok := m.Source(id)
		if !ok {
			l.logger.WarnContext(ctx, "Source not declared in manifest", slog.String("source", id))
			continue
		}

		t, err := l.LoadSource(ctx, spec)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				appErr.WithContext("source_id", id)
			}
			return nil, err
		}
		out[id] = t.Named(id)

		l.logger.InfoContext(ctx, "Source loaded",
			slog.String("source", id),
			slog.String("kind", spec.Kind),
			slog.Int("rows", t.Len()),
			slog.Int("columns", t.Width()))
	}
	return out, nil
}

// LoadSource reads one source
func (l *SourceLoader) LoadSource(ctx context.Context, spec config.SourceSpec) (*dataprocessing.Table, error) {
	switch spec.Kind {
	case config.SourceXLSX:
		return dataprocessing.LoadSpreadsheet(dataprocessing.SpreadsheetSource{
			Path:     spec.Path,
			Sheet:    spec.Sheet,
			Range:    spec.Range,
			Header:   spec.HasHeader(),
			SkipRows: spec.SkipRows,
			Columns:  spec.Columns,
		})
	case config.SourceCSV:
		return dataprocessing.LoadDelimited(dataprocessing.DelimitedSource{
			Path:      spec.Path,
			Delimiter: spec.DelimiterRune(),
			SkipRows:  spec.SkipRows,
			Header:    spec.HasHeader(),
			Columns:   spec.Columns,
		})
	case config.SourceGSheet:
		reader, err := l.sheetsReader(ctx)
		if err != nil {
			return nil, err
		}
		return dataprocessing.LoadSheetsRange(ctx, reader, dataprocessing.SheetsSource{
			SpreadsheetID: spec.SpreadsheetID,
			Range:         spec.Range,
			Header:        spec.HasHeader(),
			Columns:       spec.Columns,
		})
	}
	return nil, apperrors.NewConfigError(fmt.Sprintf("unknown source kind %q", spec.Kind), nil)
}

func (l *SourceLoader) sheetsReader(ctx context.Context) (dataprocessing.ValuesReader, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sheets != nil {
		return l.sheets, nil
	}

	credentials, err := os.ReadFile(l.credentialsFile)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read sheets credentials %s", l.credentialsFile), err)
	}

	reader, err := dataprocessing.NewSheetsReader(ctx, option.WithCredentialsJSON(credentials))
	if err != nil {
		return nil, err
	}
	l.sheets = reader
	return reader, nil
}
