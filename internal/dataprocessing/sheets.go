package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "avdeck/internal/errors"
)

// SheetsSource locates a range in a Google Sheets spreadsheet
type SheetsSource struct {
	SpreadsheetID string
	Range         string // "Sheet1!A1:D20"
	Header        bool
	Columns       []string
}

// ValuesReader fetches the cell values of one A1 range
type ValuesReader interface {
	ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([][]interface{}, error)
}

// SheetsReader reads ranges through the Sheets v4 API
type SheetsReader struct {
	service *sheets.Service
}

// NewSheetsReader creates a reader. Options carry credentials or a test endpoint.
func NewSheetsReader(ctx context.Context, opts ...option.ClientOption) (*SheetsReader, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to create sheets service", err)
	}
	return &SheetsReader{service: service}, nil
}

// ReadRange implements ValuesReader. Numbers come back unformatted and date
// cells as their displayed text, so an ISO-formatted date column reads as YYYY-MM-DD.
func (r *SheetsReader) ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([][]interface{}, error) {
	resp, err := r.service.Spreadsheets.Values.Get(spreadsheetID, a1Range).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifySheetsError(spreadsheetID, a1Range, err)
	}
	return resp.Values, nil
}

// classifySheetsError maps API failures onto the loader taxonomy
func classifySheetsError(id, a1Range string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return apperrors.NewSourceNotFoundError(id, err)
		case http.StatusBadRequest:
			if sheet, _, ok := strings.Cut(a1Range, "!"); ok {
				return apperrors.NewSheetNotFoundError(id, strings.Trim(sheet, "'"))
			}
			return apperrors.NewRangeOutOfBoundsError(id, a1Range, apiErr.Message)
		}
	}
	return apperrors.NewNetworkError(fmt.Sprintf("failed to read %s from spreadsheet %s", a1Range, id), err)
}

// LoadSheetsRange reads a spreadsheet range into a raw all-string table.
// The range must fit inside the populated area, as for LoadSpreadsheet.
func LoadSheetsRange(ctx context.Context, reader ValuesReader, src SheetsSource) (*Table, error) {
	rect, err := parseRange(src.Range)
	if err != nil {
		return nil, apperrors.NewRangeOutOfBoundsError(src.SpreadsheetID, src.Range, err.Error())
	}

	values, err := reader.ReadRange(ctx, src.SpreadsheetID, src.Range)
	if err != nil {
		return nil, err
	}

	raw := make([][]string, len(values))
	for i, row := range values {
		line := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				line[j] = fmt.Sprint(cell)
			}
		}
		raw[i] = line
	}

	wantRows := rect.endRow - rect.startRow + 1
	wantCols := rect.endCol - rect.startCol + 1
	if len(raw) < wantRows || maxWidth(raw) < wantCols {
		return nil, apperrors.NewRangeOutOfBoundsError(src.SpreadsheetID, src.Range,
			fmt.Sprintf("populated area is %d rows x %d columns", len(raw), maxWidth(raw)))
	}

	cells := cutRect(raw, cellRect{startCol: 1, startRow: 1, endCol: wantCols, endRow: wantRows})

	slog.Debug("Loaded sheets range",
		slog.String("spreadsheet_id", src.SpreadsheetID),
		slog.String("range", src.Range),
		slog.Int("rows", len(cells)))

	name := src.SpreadsheetID
	if sheet, _, ok := strings.Cut(src.Range, "!"); ok {
		name = strings.Trim(sheet, "'")
	}
	return buildRaw(name, cells, rect.startCol, src.Header, src.Columns)
}
