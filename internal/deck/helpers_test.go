package deck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"avdeck/internal/config"
	dp "avdeck/internal/dataprocessing"
	"avdeck/internal/rates"
)

// rawTable builds an all-string table; empty cells are null
func rawTable(name string, header []string, rows ...[]string) *dp.Table {
	cols := make([]dp.Column, len(header))
	for i, h := range header {
		cols[i] = dp.Column{Name: h, Type: dp.String}
	}
	values := make([][]dp.Value, len(rows))
	for i, row := range rows {
		values[i] = make([]dp.Value, len(row))
		for j, cell := range row {
			if cell != "" {
				values[i][j] = dp.Str(cell)
			}
		}
	}
	return dp.NewTable(name, cols, values)
}

var trafficCols = []string{"YEAR", "MONTH_NUM", "FLT_DATE", "APT_ICAO", "APT_NAME", "STATE_NAME", "FLT_DEP_1", "FLT_ARR_1", "FLT_TOT_1"}

func trafficSource() *dp.Table {
	return rawTable("traffic", trafficCols,
		[]string{"2019", "1", "2019-01-01", "EGLL", "London - Heathrow", "United Kingdom", "600", "610", "1,210"},
		[]string{"2019", "1", "2019-01-01", "LFPG", "Paris - Charles de Gaulle", "France", "700", "700", "1,400"},
		[]string{"2019", "1", "2019-01-02", "EGLL", "London - Heathrow", "United Kingdom", "500", "500", "1,000"},
		[]string{"2019", "1", "2019-01-02", "LFPG", "Paris - Charles de Gaulle", "France", "800", "800", "1,600"},
		[]string{"2019", "1", "2019-01-03", "EDDF", "Frankfurt", "Germany", "300", "300", "600"},
		[]string{"2018", "12", "2018-12-31", "EGLL", "London - Heathrow", "United Kingdom", "100", "100", "200"},
	)
}

func financeSource(extra ...[]string) *dp.Table {
	rows := [][]string{
		{"DFS", "2019", "EUR", "1,000,000", "20,000"},
		{"NATS", "2019", "GBP", "800,000", "10,000"},
		{"DSNA", "2019", "EUR", "1,500,000", "0"},
		{"DFS", "2018", "EUR", "900,000", "19,000"},
	}
	rows = append(rows, extra...)
	return rawTable("ansp_finance", []string{"ANSP", "YEAR", "CURRENCY", "TOTAL_COSTS", "CFH"}, rows...)
}

func countriesSource() *dp.Table {
	return rawTable("ansp_countries", []string{"A", "B"},
		[]string{"Germany", "DFS"},
		[]string{"", "DFS Aviation"},
		[]string{"United Kingdom", "NATS"},
	)
}

func airportsSource() *dp.Table {
	return rawTable("airports", []string{"icao", "latitude", "longitude"},
		[]string{"EGLL", "51.47", "-0.4543"},
		[]string{"LFPG", "49.0097", "2.5479"},
	)
}

func testRates() rates.Static {
	return rates.Static{Reference: "EUR", Rates: map[string]float64{"GBP": 0.8}}
}

func testParams() config.DeckParameters {
	return config.DeckParameters{
		ReferenceCurrency: "EUR",
		AnalysisYear:      2019,
		WindowStart:       "2019-01-01",
		WindowEnd:         "2019-01-02",
		TopN:              2,
	}
}

func aviationState(sources map[string]*dp.Table) *BuildState {
	if sources == nil {
		sources = map[string]*dp.Table{
			SourceTraffic:       trafficSource(),
			SourceANSPFinance:   financeSource(),
			SourceANSPCountries: countriesSource(),
			SourceAirportCoords: airportsSource(),
		}
	}
	return NewBuildState("build-1", "aviation-2019", testParams(), sources).WithRates(testRates())
}

func columnOf(t *testing.T, state *BuildState, table, column string) []string {
	t.Helper()
	tbl, err := state.Table(table)
	require.NoError(t, err)
	out, err := tbl.Strings(column)
	require.NoError(t, err)
	return out
}
