package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "avdeck/internal/errors"
)

// SpreadsheetSource locates a rectangle of cells in a workbook
type SpreadsheetSource struct {
	Path     string
	Sheet    string
	Range    string // A1 notation, e.g. "A1:I41"; empty reads the populated area
	Header   bool
	SkipRows int // rows skipped before reading when Range is empty
	Columns  []string
}

// DelimitedSource locates a delimited text file
type DelimitedSource struct {
	Path      string
	Delimiter rune
	SkipRows  int // lines skipped before the header
	Header    bool
	Columns   []string
}

// cellRect is a 1-based inclusive rectangle
type cellRect struct {
	startCol, startRow int
	endCol, endRow     int
}

// LoadSpreadsheet reads a sheet (or a range of it) into a raw all-string table.
// Numeric cells are read unformatted. Cells with a date number format are
// rendered as YYYY-MM-DD.
func LoadSpreadsheet(src SpreadsheetSource) (*Table, error) {
	if _, err := os.Stat(src.Path); err != nil {
		return nil, apperrors.NewSourceNotFoundError(src.Path, err)
	}

	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open workbook %s", src.Path), err)
	}
	defer f.Close()

	sheet, ok := resolveSheet(f.GetSheetList(), src.Sheet)
	if !ok {
		return nil, apperrors.NewSheetNotFoundError(src.Path, src.Sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}

	rect, err := spreadsheetRect(src, rows)
	if err != nil {
		return nil, err
	}

	if err := renderDateCells(f, sheet, rows, rect); err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read cell styles of sheet %q", sheet), err)
	}

	cells := cutRect(rows, rect)

	slog.Debug("Loaded spreadsheet range",
		slog.String("path", src.Path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(cells)),
		slog.Int("columns", rect.endCol-rect.startCol+1))

	return buildRaw(sourceName(src.Path), cells, rect.startCol, src.Header, src.Columns)
}

// builtinDateFormats are the built-in number format ids that show a calendar date
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// renderDateCells rewrites numeric cells inside rect whose style carries a date
// format. Serials with a time of day keep it as "YYYY-MM-DD hh:mm:ss".
func renderDateCells(f *excelize.File, sheet string, rows [][]string, rect cellRect) error {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	dated := make(map[int]bool)
	for r := rect.startRow; r <= rect.endRow && r <= len(rows); r++ {
		row := rows[r-1]
		for c := rect.startCol; c <= rect.endCol && c <= len(row); c++ {
			serial, err := strconv.ParseFloat(row[c-1], 64)
			if err != nil || serial <= 0 {
				continue
			}

			name, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			styleID, err := f.GetCellStyle(sheet, name)
			if err != nil {
				return err
			}
			isDate, seen := dated[styleID]
			if !seen {
				isDate = dateStyle(f, styleID)
				dated[styleID] = isDate
			}
			if !isDate {
				continue
			}

			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			layout := DateLayout
			if serial != math.Trunc(serial) {
				layout = "2006-01-02 15:04:05"
			}
			row[c-1] = t.Format(layout)
		}
	}
	return nil
}

func dateStyle(f *excelize.File, styleID int) bool {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	return style.CustomNumFmt != nil && isDateFormat(*style.CustomNumFmt)
}

// isDateFormat reports whether a custom number format shows a year or a day.
// Quoted literals, bracketed sections and escaped characters are ignored.
func isDateFormat(code string) bool {
	code, _, _ = strings.Cut(code, ";")
	var b strings.Builder
	quoted, bracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case quoted:
			quoted = ch != '"'
		case bracket:
			bracket = ch != ']'
		case ch == '"':
			quoted = true
		case ch == '[':
			bracket = true
		case ch == '\\':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	plain := strings.ToLower(b.String())
	return strings.ContainsAny(plain, "yd")
}

// resolveSheet finds the sheet by exact name, then by trimmed case-insensitive name
func resolveSheet(sheets []string, want string) (string, bool) {
	for _, name := range sheets {
		if name == want {
			return name, true
		}
	}
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(want)) {
			return name, true
		}
	}
	return "", false
}

// spreadsheetRect computes the rectangle to read and checks it against the populated area
func spreadsheetRect(src SpreadsheetSource, rows [][]string) (cellRect, error) {
	populatedRows := len(rows)
	populatedCols := maxWidth(rows)

	if src.Range == "" {
		if src.SkipRows >= populatedRows {
			return cellRect{}, apperrors.NewRangeOutOfBoundsError(src.Path, fmt.Sprintf("skip %d", src.SkipRows),
				fmt.Sprintf("sheet has only %d populated rows", populatedRows))
		}
		return cellRect{startCol: 1, startRow: src.SkipRows + 1, endCol: max(populatedCols, 1), endRow: populatedRows}, nil
	}

	rect, err := parseRange(src.Range)
	if err != nil {
		return cellRect{}, apperrors.NewRangeOutOfBoundsError(src.Path, src.Range, err.Error())
	}
	if rect.endRow > populatedRows || rect.endCol > populatedCols {
		return cellRect{}, apperrors.NewRangeOutOfBoundsError(src.Path, src.Range,
			fmt.Sprintf("populated area is %d rows x %d columns", populatedRows, populatedCols))
	}
	return rect, nil
}

// parseRange parses "A1:I41" (or a single cell) into a normalised rectangle
func parseRange(a1 string) (cellRect, error) {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	a1 = strings.ReplaceAll(a1, "$", "")

	parts := strings.Split(a1, ":")
	if len(parts) > 2 || parts[0] == "" {
		return cellRect{}, fmt.Errorf("malformed range %q", a1)
	}
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}

	c1, r1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return cellRect{}, fmt.Errorf("malformed range start %q: %w", parts[0], err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return cellRect{}, fmt.Errorf("malformed range end %q: %w", parts[1], err)
	}

	return cellRect{
		startCol: min(c1, c2), startRow: min(r1, r2),
		endCol: max(c1, c2), endRow: max(r1, r2),
	}, nil
}

// cutRect copies the rectangle out of ragged rows, padding with empty strings
func cutRect(rows [][]string, rect cellRect) [][]string {
	width := rect.endCol - rect.startCol + 1
	out := make([][]string, 0, rect.endRow-rect.startRow+1)
	for r := rect.startRow; r <= rect.endRow; r++ {
		line := make([]string, width)
		if r-1 < len(rows) {
			src := rows[r-1]
			for c := 0; c < width; c++ {
				if idx := rect.startCol - 1 + c; idx < len(src) {
					line[c] = src[idx]
				}
			}
		}
		out = append(out, line)
	}
	return out
}

func maxWidth(rows [][]string) int {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// LoadDelimited reads a delimited text file into a raw all-string table
func LoadDelimited(src DelimitedSource) (*Table, error) {
	file, err := os.Open(src.Path)
	if err != nil {
		return nil, apperrors.NewSourceNotFoundError(src.Path, err)
	}
	defer file.Close()

	records, err := readDelimited(file, src)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to parse %s", src.Path), err)
	}

	slog.Debug("Loaded delimited file",
		slog.String("path", src.Path),
		slog.Int("records", len(records)))

	return buildRaw(sourceName(src.Path), records, 1, src.Header, src.Columns)
}

// readDelimited strips a UTF-8 BOM, skips leading lines and parses the rest
func readDelimited(r io.Reader, src DelimitedSource) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	for i := 0; i < src.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	if src.Delimiter != 0 {
		reader.Comma = src.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	return reader.ReadAll()
}

// buildRaw turns a block of cells into a String-typed table.
// firstCol is the 1-based spreadsheet column of the block, used for default names.
func buildRaw(name string, cells [][]string, firstCol int, header bool, explicit []string) (*Table, error) {
	width := maxWidth(cells)

	var names []string
	if header && len(cells) > 0 {
		names = make([]string, width)
		copy(names, cells[0])
		cells = cells[1:]
	}

	if len(explicit) > 0 {
		if len(explicit) != width && width > 0 {
			return nil, apperrors.NewSchemaMismatchError(name,
				fmt.Sprintf("%d column names given for %d columns", len(explicit), width))
		}
		names = explicit
		width = len(explicit)
	}

	if names == nil {
		names = make([]string, width)
	}
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
		if names[i] == "" {
			letter, err := excelize.ColumnNumberToName(firstCol + i)
			if err != nil {
				letter = fmt.Sprintf("X%d", i+1)
			}
			names[i] = letter
		}
	}
	names = uniqueNames(names)

	columns := make([]Column, width)
	for i, n := range names {
		columns[i] = Column{Name: n, Type: String}
	}

	rows := make([][]Value, len(cells))
	for i, line := range cells {
		row := make([]Value, width)
		for j := 0; j < width && j < len(line); j++ {
			if cell := strings.TrimSpace(line[j]); cell != "" {
				row[j] = Str(cell)
			}
		}
		rows[i] = row
	}

	return NewTable(name, columns, rows), nil
}

// uniqueNames suffixes repeated header names with _2, _3, ...
func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		seen[n]++
		if seen[n] > 1 {
			out[i] = fmt.Sprintf("%s_%d", n, seen[n])
			continue
		}
		out[i] = n
	}
	return out
}

func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
