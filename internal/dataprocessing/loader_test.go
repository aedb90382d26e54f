package dataprocessing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "avdeck/internal/errors"
)

var trafficHeader = []interface{}{
	"YEAR", "MONTH_NUM", "FLT_DATE", "APT_ICAO", "APT_NAME", "STATE_NAME", "FLT_DEP_1", "FLT_ARR_1", "FLT_TOT_1",
}

// writeTrafficWorkbook writes a header row plus n data rows to sheet DATA
func writeTrafficWorkbook(t *testing.T, n int) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "DATA"
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	require.NoError(t, f.SetSheetRow(sheet, "A1", &trafficHeader))

	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i)
		row := []interface{}{
			2019, int(date.Month()), date.Format(DateLayout), "EGLL", "London - Heathrow", "United Kingdom",
			600 + i, 610 + i, fmt.Sprintf("1,%03d", 210+2*i),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "traffic.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadSpreadsheet_RangeWithHeader(t *testing.T) {
	path := writeTrafficWorkbook(t, 40)

	raw, err := LoadSpreadsheet(SpreadsheetSource{Path: path, Sheet: "DATA", Range: "A1:I41", Header: true})
	require.NoError(t, err)

	assert.Equal(t, 40, raw.Len())
	assert.Equal(t, 9, raw.Width())
	assert.Equal(t, "traffic", raw.Name)
	assert.Equal(t, "FLT_DATE", raw.Columns[2].Name)
	for _, c := range raw.Columns {
		assert.Equal(t, String, c.Type)
	}

	// selecting four columns keeps every row
	sel, err := Select(raw, Col("FLT_DATE", "date"), Col("APT_ICAO", "airport"), Col("STATE_NAME", "country"), Col("FLT_TOT_1", "flights"))
	require.NoError(t, err)
	assert.Equal(t, 4, sel.Width())
	assert.Equal(t, 40, sel.Len())
	assert.Equal(t, []string{"date", "airport", "country", "flights"}, sel.Columns.Names())
	assert.Equal(t, "1,210", sel.Rows[0][3].String())
}

func TestLoadSpreadsheet_PartialRange(t *testing.T) {
	path := writeTrafficWorkbook(t, 10)

	raw, err := LoadSpreadsheet(SpreadsheetSource{Path: path, Sheet: "DATA", Range: "D2:E5"})
	require.NoError(t, err)

	assert.Equal(t, 4, raw.Len())
	assert.Equal(t, []string{"D", "E"}, raw.Columns.Names())
	assert.Equal(t, "EGLL", raw.Rows[0][0].String())
}

func TestLoadSpreadsheet_NumericCellsAreRaw(t *testing.T) {
	path := writeTrafficWorkbook(t, 2)

	raw, err := LoadSpreadsheet(SpreadsheetSource{Path: path, Sheet: "DATA", Header: true})
	require.NoError(t, err)
	assert.Equal(t, 2, raw.Len())
	assert.Equal(t, "600", raw.Value(0, "FLT_DEP_1").String())

	typed, _, err := CoerceNumeric(raw, FailFast, "FLT_DEP_1", "FLT_TOT_1")
	require.NoError(t, err)
	f, ok := typed.Value(1, "FLT_TOT_1").Float()
	require.True(t, ok)
	assert.Equal(t, 1212.0, f)
}

func TestLoadSpreadsheet_SkipRowsAndDateCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := "Sheet1"
	require.NoError(t, f.SetCellValue(sheet, "A1", "ANSP cost-effectiveness"))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"date", "value"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), 5}))
	path := filepath.Join(t.TempDir(), "skip.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	raw, err := LoadSpreadsheet(SpreadsheetSource{Path: path, Sheet: "Sheet1", SkipRows: 2, Header: true})
	require.NoError(t, err)
	require.Equal(t, 1, raw.Len())
	assert.Equal(t, []string{"date", "value"}, raw.Columns.Names())
	assert.Equal(t, "2019-01-01", raw.Value(0, "date").String())
	assert.Equal(t, "5", raw.Value(0, "value").String())

	typed, _, err := CoerceDate(raw, FailFast, "date")
	require.NoError(t, err)
	assert.Equal(t, "2019-01-01", typed.Rows[0][0].String())
}

func TestLoadSpreadsheet_DateFormatsDecideDateCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := "Sheet1"
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"iso", "builtin", "timestamp", "plain", "text"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{43466, 43467, 43468.5, 12, "2019"}))

	isoFmt := "yyyy-mm-dd"
	iso, err := f.NewStyle(&excelize.Style{CustomNumFmt: &isoFmt})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "A2", "A2", iso))

	builtin, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "B2", "B2", builtin))

	stamp, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", stamp))

	money := `"EUR" #,##0`
	plain, err := f.NewStyle(&excelize.Style{CustomNumFmt: &money})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "D2", "D2", plain))

	path := filepath.Join(t.TempDir(), "dates.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	raw, err := LoadSpreadsheet(SpreadsheetSource{Path: path, Sheet: sheet, Header: true})
	require.NoError(t, err)
	assert.Equal(t, "2019-01-01", raw.Value(0, "iso").String())
	assert.Equal(t, "2019-01-02", raw.Value(0, "builtin").String())
	assert.Equal(t, "2019-01-03 12:00:00", raw.Value(0, "timestamp").String())
	assert.Equal(t, "12", raw.Value(0, "plain").String())
	assert.Equal(t, "2019", raw.Value(0, "text").String())

	typed, _, err := CoerceDate(raw, FailFast, "iso", "builtin", "timestamp")
	require.NoError(t, err)
	assert.Equal(t, "2019-01-03", typed.Value(0, "timestamp").String())

	_, _, err = CoerceDate(raw, FailFast, "plain")
	requireErrType(t, err, apperrors.ErrTypeInvalidDate)
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"dd/mm/yyyy hh:mm", true},
		{"mmm yy", true},
		{"General", false},
		{"#,##0.00", false},
		{`"days" 0`, false},
		{`[$-409]h:mm AM/PM`, false},
		{`0\d`, false},
		{"[h]:mm:ss", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormat(tt.code))
		})
	}
}

func TestLoadSpreadsheet_NoHeaderExplicitColumns(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Lookup  "))
	require.NoError(t, f.SetSheetRow("Lookup  ", "A1", &[]interface{}{"DFS", "Germany"}))
	require.NoError(t, f.SetSheetRow("Lookup  ", "A2", &[]interface{}{"NATS", "United Kingdom"}))
	path := filepath.Join(t.TempDir(), "lookup.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	// trailing spaces in the sheet name are tolerated
	raw, err := LoadSpreadsheet(SpreadsheetSource{Path: path, Sheet: "Lookup", Columns: []string{"ansp", "country"}})
	require.NoError(t, err)
	assert.Equal(t, 2, raw.Len())
	assert.Equal(t, []string{"ansp", "country"}, raw.Columns.Names())

	_, err = LoadSpreadsheet(SpreadsheetSource{Path: path, Sheet: "Lookup", Columns: []string{"only_one"}})
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)
}

func TestLoadSpreadsheet_Errors(t *testing.T) {
	path := writeTrafficWorkbook(t, 40)

	tests := []struct {
		name string
		src  SpreadsheetSource
		want apperrors.ErrorType
	}{
		{"missing file", SpreadsheetSource{Path: filepath.Join(t.TempDir(), "nope.xlsx"), Sheet: "DATA"}, apperrors.ErrTypeSourceNotFound},
		{"missing sheet", SpreadsheetSource{Path: path, Sheet: "Other"}, apperrors.ErrTypeSheetNotFound},
		{"too many rows", SpreadsheetSource{Path: path, Sheet: "DATA", Range: "A1:I99"}, apperrors.ErrTypeRangeOutOfBounds},
		{"too many columns", SpreadsheetSource{Path: path, Sheet: "DATA", Range: "A1:Z41"}, apperrors.ErrTypeRangeOutOfBounds},
		{"malformed range", SpreadsheetSource{Path: path, Sheet: "DATA", Range: "A1:??"}, apperrors.ErrTypeRangeOutOfBounds},
		{"skip beyond data", SpreadsheetSource{Path: path, Sheet: "DATA", SkipRows: 100}, apperrors.ErrTypeRangeOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSpreadsheet(tt.src)
			requireErrType(t, err, tt.want)
		})
	}
}

func TestLoadSpreadsheet_Idempotent(t *testing.T) {
	path := writeTrafficWorkbook(t, 5)
	src := SpreadsheetSource{Path: path, Sheet: "DATA", Range: "A1:I6", Header: true}

	a, err := LoadSpreadsheet(src)
	require.NoError(t, err)
	b, err := LoadSpreadsheet(src)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseRange(t *testing.T) {
	rect, err := parseRange("'Sheet 1'!$B$2:A10")
	require.NoError(t, err)
	assert.Equal(t, cellRect{startCol: 1, startRow: 2, endCol: 2, endRow: 10}, rect)

	rect, err = parseRange("C3")
	require.NoError(t, err)
	assert.Equal(t, cellRect{startCol: 3, startRow: 3, endCol: 3, endRow: 3}, rect)

	_, err = parseRange("A1:B2:C3")
	assert.Error(t, err)
}

func writeText(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDelimited(t *testing.T) {
	content := "\xEF\xBB\xBFANSP cost-effectiveness 2019\n" +
		"source: ACE\n" +
		"ansp;year;currency;total_costs;flight_hours\n" +
		"DFS;2019;EUR;\"1,234,567.5\";1200\n" +
		"NATS;2019;GBP;900000\n"
	path := writeText(t, "finance.csv", content)

	raw, err := LoadDelimited(DelimitedSource{Path: path, Delimiter: ';', SkipRows: 2, Header: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"ansp", "year", "currency", "total_costs", "flight_hours"}, raw.Columns.Names())
	require.Equal(t, 2, raw.Len())
	assert.Equal(t, "1,234,567.5", raw.Value(0, "total_costs").String())
	assert.True(t, raw.Value(1, "flight_hours").IsNull(), "short records are padded with nulls")
	assert.Equal(t, "finance", raw.Name)
}

func TestLoadDelimited_BOMOnHeader(t *testing.T) {
	path := writeText(t, "airports.csv", "\xEF\xBB\xBFicao,lat,lon\nEGLL,51.47,-0.4543\n")

	raw, err := LoadDelimited(DelimitedSource{Path: path, Header: true})
	require.NoError(t, err)
	assert.Equal(t, "icao", raw.Columns[0].Name)
	assert.Equal(t, "-0.4543", raw.Value(0, "lon").String())
}

func TestLoadDelimited_NoHeader(t *testing.T) {
	path := writeText(t, "pairs.csv", "a,1\nb,2\n")

	raw, err := LoadDelimited(DelimitedSource{Path: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, raw.Columns.Names())
	assert.Equal(t, 2, raw.Len())
}

func TestLoadDelimited_Missing(t *testing.T) {
	_, err := LoadDelimited(DelimitedSource{Path: filepath.Join(t.TempDir(), "nope.csv")})
	requireErrType(t, err, apperrors.ErrTypeSourceNotFound)
}

func TestUniqueNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "a_2", "a_3"}, uniqueNames([]string{"a", "b", "a", "a"}))
}
