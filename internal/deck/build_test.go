package deck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"avdeck/internal/config"
	dp "avdeck/internal/dataprocessing"
	apperrors "avdeck/internal/errors"
)

type stubSheets struct {
	values [][]interface{}
	calls  int
}

func (s *stubSheets) ReadRange(_ context.Context, _, _ string) ([][]interface{}, error) {
	s.calls++
	return s.values, nil
}

func airportSheet() *stubSheets {
	return &stubSheets{values: [][]interface{}{
		{"icao", "latitude", "longitude"},
		{"EGLL", 51.47, -0.4543},
		{"LFPG", 49.0097, 2.5479},
	}}
}

const deckManifest = `
name: aviation-2019
parameters:
  reference_currency: EUR
  analysis_year: 2019
  window_start: "2019-01-01"
  window_end: "2019-01-02"
  top_n: 2
sources:
  traffic:
    kind: xlsx
    path: traffic.xlsx
    sheet: DATA
  ansp_finance:
    kind: csv
    path: finance.csv
    delimiter: ";"
    skip_rows: 1
  ansp_countries:
    kind: csv
    path: countries.csv
    header: false
    columns: [country, ansp]
  airports:
    kind: gsheet
    spreadsheet_id: 1AbC
    range: "Coords!A1:C3"
`

func writeDeckFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "DATA"))
	header := make([]interface{}, len(trafficCols))
	for i, c := range trafficCols {
		header[i] = c
	}
	require.NoError(t, f.SetSheetRow("DATA", "A1", &header))
	src := trafficSource()
	for r, row := range src.Rows {
		line := make([]interface{}, len(row))
		for i, v := range row {
			line[i] = v.String()
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("DATA", cell, &line))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, "traffic.xlsx")))

	files := map[string]string{
		"finance.csv": "# ANSP finance\nANSP;YEAR;CURRENCY;TOTAL_COSTS;CFH\n" +
			"DFS;2019;EUR;1,000,000;20,000\n" +
			"NATS;2019;GBP;800,000;10,000\n" +
			"DSNA;2019;EUR;1,500,000;0\n" +
			"DFS;2018;EUR;900,000;19,000\n",
		"countries.csv": "Germany,DFS\n,DFS Aviation\nUnited Kingdom,NATS\n",
		"deck.yaml":     deckManifest,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return filepath.Join(dir, "deck.yaml")
}

func newTestBuilder(sheets dp.ValuesReader) *Builder {
	return NewBuilder(NewRunner(NewAviationDeck()), NewSourceLoader("", sheets), testRates(), dp.FailFast, "")
}

func TestBuilder_BuildFromManifest(t *testing.T) {
	m, err := config.LoadManifest(writeDeckFixtures(t))
	require.NoError(t, err)

	sheets := airportSheet()
	state, err := newTestBuilder(sheets).Build(context.Background(), m)
	require.NoError(t, err)

	assert.NotEmpty(t, state.ID)
	assert.Equal(t, "aviation-2019", state.Deck)
	assert.Equal(t, BuildStatusCompleted, state.GetStatus())
	assert.Len(t, state.TableIDs(), 8)
	assert.Equal(t, 1, sheets.calls)

	assert.Equal(t, []string{"2610", "2600", "600"}, columnOf(t, state, StepDailyFlights, "flights"))
	assert.Equal(t, []string{"50", "", "100"}, columnOf(t, state, StepANSPCosts, "cost_per_flight_hour"))
	assert.Equal(t, []string{"Germany", "", "United Kingdom"}, columnOf(t, state, StepANSPCosts, "country"))
	assert.Equal(t, []string{"49.0097", "51.47"}, columnOf(t, state, StepAirportMap, "latitude"))
}

func TestBuilder_SourceFailure(t *testing.T) {
	path := writeDeckFixtures(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(path), "traffic.xlsx")))
	m, err := config.LoadManifest(path)
	require.NoError(t, err)

	state, err := newTestBuilder(airportSheet()).Build(context.Background(), m)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceNotFound))
	assert.Equal(t, BuildStatusFailed, state.GetStatus())

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, SourceTraffic, appErr.Context["source_id"])
}

func TestBuilder_DefaultReferenceCurrency(t *testing.T) {
	m, err := config.LoadManifest(writeDeckFixtures(t))
	require.NoError(t, err)
	m.Parameters.ReferenceCurrency = ""

	state, err := newTestBuilder(airportSheet()).Build(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultReferenceCurrency, state.ReferenceCurrency)
}

func TestSourceLoader_SheetsNeedCredentials(t *testing.T) {
	loader := NewSourceLoader(filepath.Join(t.TempDir(), "missing.json"), nil)
	_, err := loader.LoadSource(context.Background(), config.SourceSpec{
		Kind: config.SourceGSheet, SpreadsheetID: "1AbC", Range: "Coords!A1:C3",
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	_, err = loader.LoadSource(context.Background(), config.SourceSpec{Kind: "parquet"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestBuildState_ExchangeRatesRequiresSource(t *testing.T) {
	state := NewBuildState("b", "d", testParams(), nil)
	_, err := state.ExchangeRates(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	state.WithRates(testRates())
	got, err := state.ExchangeRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.Rates["GBP"])
}
