package deck

import (
	"context"

	dp "avdeck/internal/dataprocessing"
)

// Manifest source IDs read by the aviation deck
const (
	SourceTraffic       = "traffic"
	SourceANSPFinance   = "ansp_finance"
	SourceANSPCountries = "ansp_countries"
	SourceAirportCoords = "airports"
)

// Dataset IDs produced by the aviation deck, in build order
const (
	StepTraffic             = "traffic"
	StepAirportBoxplot      = "airport_boxplot"
	StepTopAirports         = "top_airports"
	StepDailyFlights        = "daily_flights"
	StepDailyFlightsMarkers = "daily_flights_markers"
	StepANSPCosts           = "ansp_costs"
	StepAirportMap          = "airport_map"
	StepCountryTraffic      = "country_traffic"
)

// DefaultTopN applies when the manifest leaves top_n unset
const DefaultTopN = 10

// NewAviationDeck registers the eight aviation deck steps
func NewAviationDeck() *Registry {
	return NewRegistry().MustRegister(
		NewStep(StepTraffic, "Airport daily traffic", []string{SourceTraffic}, nil, buildTraffic),
		NewStep(StepAirportBoxplot, "Daily flights of the busiest airports", nil, []string{StepTraffic}, buildAirportBoxplot),
		NewStep(StepTopAirports, "Busiest airports", nil, []string{StepTraffic}, buildTopAirports),
		NewStep(StepDailyFlights, "Network daily flights", nil, []string{StepTraffic}, buildDailyFlights),
		NewStep(StepDailyFlightsMarkers, "Daily flights extremes", nil, []string{StepDailyFlights}, buildDailyFlightsMarkers),
		NewStep(StepANSPCosts, "ANSP cost per flight hour", []string{SourceANSPFinance, SourceANSPCountries}, nil, buildANSPCosts),
		NewStep(StepAirportMap, "Busiest airports map", []string{SourceAirportCoords}, []string{StepTopAirports}, buildAirportMap),
		NewStep(StepCountryTraffic, "Traffic per country", nil, []string{StepTraffic}, buildCountryTraffic),
	)
}

// coerceNumbers applies the build's coercion policy and counts nulled cells
func coerceNumbers(state *BuildState, t *dp.Table, cols ...string) (*dp.Table, error) {
	out, nulled, err := dp.CoerceNumeric(t, state.Policy, cols...)
	if err != nil {
		return nil, err
	}
	state.AddNulled(nulled)
	return out, nil
}

func coerceDates(state *BuildState, t *dp.Table, cols ...string) (*dp.Table, error) {
	out, nulled, err := dp.CoerceDate(t, state.Policy, cols...)
	if err != nil {
		return nil, err
	}
	state.AddNulled(nulled)
	return out, nil
}

func topN(state *BuildState) int {
	if state.Params.TopN > 0 {
		return state.Params.TopN
	}
	return DefaultTopN
}

// yearTraffic is the traffic table restricted to the analysis year
func yearTraffic(state *BuildState) (*dp.Table, error) {
	traffic, err := state.Table(StepTraffic)
	if err != nil {
		return nil, err
	}
	return dp.Filter(traffic, dp.InYear("date", state.Params.AnalysisYear))
}

// buildTraffic reads the airport traffic sheet by position:
// YEAR, MONTH_NUM, FLT_DATE, APT_ICAO, APT_NAME, STATE_NAME, FLT_DEP_1, FLT_ARR_1, FLT_TOT_1
func buildTraffic(_ context.Context, state *BuildState) (*dp.Table, error) {
	raw, err := state.Source(SourceTraffic)
	if err != nil {
		return nil, err
	}

	t, err := dp.Select(raw,
		dp.At(2, "date"),
		dp.At(3, "airport"),
		dp.At(4, "airport_name"),
		dp.At(5, "country"),
		dp.At(6, "departures"),
		dp.At(7, "arrivals"),
		dp.At(8, "flights"),
	)
	if err != nil {
		return nil, err
	}
	if t, err = coerceDates(state, t, "date"); err != nil {
		return nil, err
	}
	return coerceNumbers(state, t, "departures", "arrivals", "flights")
}

func buildAirportBoxplot(_ context.Context, state *BuildState) (*dp.Table, error) {
	yr, err := yearTraffic(state)
	if err != nil {
		return nil, err
	}

	top, err := dp.Aggregate(yr, dp.AggregateSpec{
		GroupBy:    []string{"airport"},
		Measures:   []dp.Measure{{Column: "flights", Reduce: dp.Sum}},
		SortBy:     "flights",
		Descending: true,
		Limit:      topN(state),
	})
	if err != nil {
		return nil, err
	}

	codes := make([]interface{}, 0, top.Len())
	for i := 0; i < top.Len(); i++ {
		codes = append(codes, top.Value(i, "airport"))
	}

	busiest, err := dp.Filter(yr, dp.In("airport", codes...))
	if err != nil {
		return nil, err
	}
	return dp.Select(busiest, dp.Col("airport", ""), dp.Col("date", ""), dp.Col("flights", ""))
}

func buildTopAirports(_ context.Context, state *BuildState) (*dp.Table, error) {
	yr, err := yearTraffic(state)
	if err != nil {
		return nil, err
	}
	if yr, err = dp.FillNull(yr, dp.Num(0), "departures", "arrivals", "flights"); err != nil {
		return nil, err
	}

	return dp.Aggregate(yr, dp.AggregateSpec{
		GroupBy: []string{"airport", "airport_name"},
		Measures: []dp.Measure{
			{Column: "departures", Reduce: dp.Sum},
			{Column: "arrivals", Reduce: dp.Sum},
			{Column: "flights", Reduce: dp.Sum},
		},
		SortBy:     "flights",
		Descending: true,
		Limit:      topN(state),
	})
}

func buildDailyFlights(_ context.Context, state *BuildState) (*dp.Table, error) {
	yr, err := yearTraffic(state)
	if err != nil {
		return nil, err
	}

	return dp.Aggregate(yr, dp.AggregateSpec{
		GroupBy:  []string{"date"},
		Measures: []dp.Measure{{Column: "flights", Reduce: dp.Sum}},
		SortBy:   "date",
	})
}

func buildDailyFlightsMarkers(_ context.Context, state *BuildState) (*dp.Table, error) {
	daily, err := state.Table(StepDailyFlights)
	if err != nil {
		return nil, err
	}

	var window *dp.DateWindow
	if from, to, ok := state.Params.Window(); ok {
		window = &dp.DateWindow{Column: "date", From: from, To: to}
	}
	return dp.Markers(daily, "date", "flights", window)
}

// buildANSPCosts reads the finance sheet by position:
// ANSP, YEAR, CURRENCY, TOTAL_COSTS (local currency), COMPOSITE_FLIGHT_HOURS.
// The country lookup holds COUNTRY, ANSP with the country cell merged over
// each country's ANSPs.
func buildANSPCosts(ctx context.Context, state *BuildState) (*dp.Table, error) {
	raw, err := state.Source(SourceANSPFinance)
	if err != nil {
		return nil, err
	}

	fin, err := dp.Select(raw,
		dp.At(0, "ansp"),
		dp.At(1, "year"),
		dp.At(2, "currency"),
		dp.At(3, "total_costs_local"),
		dp.At(4, "composite_flight_hours"),
	)
	if err != nil {
		return nil, err
	}
	if fin, err = coerceNumbers(state, fin, "year", "total_costs_local", "composite_flight_hours"); err != nil {
		return nil, err
	}
	if fin, err = dp.Filter(fin, dp.Eq("year", state.Params.AnalysisYear)); err != nil {
		return nil, err
	}

	rates, err := state.ExchangeRates(ctx)
	if err != nil {
		return nil, err
	}

	spec := dp.CurrencySpec{CurrencyColumn: "currency", AmountColumn: "total_costs_local", Output: "total_costs"}
	parts := make([]*dp.Table, 0, 2)
	for _, pred := range []dp.Predicate{
		dp.Eq("currency", state.ReferenceCurrency),
		dp.NotEq("currency", state.ReferenceCurrency),
	} {
		subset, err := dp.Filter(fin, pred)
		if err != nil {
			return nil, err
		}
		normalized, err := dp.NormalizeCurrency(subset, spec, rates)
		if err != nil {
			return nil, err
		}
		parts = append(parts, normalized)
	}
	costs, err := dp.Concat(StepANSPCosts, parts...)
	if err != nil {
		return nil, err
	}

	lookupRaw, err := state.Source(SourceANSPCountries)
	if err != nil {
		return nil, err
	}
	lookup, err := dp.Select(lookupRaw, dp.At(0, "country"), dp.At(1, "ansp"))
	if err != nil {
		return nil, err
	}
	if lookup, err = dp.ForwardFill(lookup, "country"); err != nil {
		return nil, err
	}

	joined, err := dp.LeftJoin(costs, lookup, dp.JoinSpec{LeftKey: "ansp", RightKey: "ansp", Columns: []string{"country"}})
	if err != nil {
		return nil, err
	}
	if joined, err = dp.Ratio(joined, "total_costs", "composite_flight_hours", "cost_per_flight_hour"); err != nil {
		return nil, err
	}

	return dp.Select(joined,
		dp.Col("ansp", ""),
		dp.Col("country", ""),
		dp.Col("total_costs", ""),
		dp.Col("composite_flight_hours", ""),
		dp.Col("cost_per_flight_hour", ""),
	)
}

// buildAirportMap joins the busiest airports to the coordinates sheet,
// addressed by its header names icao, latitude, longitude.
func buildAirportMap(_ context.Context, state *BuildState) (*dp.Table, error) {
	top, err := state.Table(StepTopAirports)
	if err != nil {
		return nil, err
	}
	raw, err := state.Source(SourceAirportCoords)
	if err != nil {
		return nil, err
	}

	coords, err := dp.Select(raw, dp.Col("icao", "airport"), dp.Col("latitude", ""), dp.Col("longitude", ""))
	if err != nil {
		return nil, err
	}
	if coords, err = coerceNumbers(state, coords, "latitude", "longitude"); err != nil {
		return nil, err
	}

	joined, err := dp.LeftJoin(top, coords, dp.JoinSpec{LeftKey: "airport", RightKey: "airport"})
	if err != nil {
		return nil, err
	}
	return dp.Select(joined,
		dp.Col("airport", ""),
		dp.Col("airport_name", ""),
		dp.Col("flights", ""),
		dp.Col("latitude", ""),
		dp.Col("longitude", ""),
	)
}

func buildCountryTraffic(_ context.Context, state *BuildState) (*dp.Table, error) {
	yr, err := yearTraffic(state)
	if err != nil {
		return nil, err
	}

	return dp.Aggregate(yr, dp.AggregateSpec{
		GroupBy: []string{"country"},
		Measures: []dp.Measure{
			{Column: "flights", Reduce: dp.Sum},
			{Column: "airport", Reduce: dp.CountDistinct, As: "airports"},
		},
		SortBy:     "flights",
		Descending: true,
	})
}
