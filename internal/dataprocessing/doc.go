// Package dataprocessing holds the tabular model of the deck and every
// transform applied to it.
//
// # Tables
//
// A Table is a named schema plus rows of nullable Values. Loaders produce raw
// tables whose columns are all String; coercion retypes columns to Number or
// Date. Transforms never modify their input and always return a new Table.
//
// # Pipeline
//
// A deck dataset is typically built as:
//
//	raw, err := dataprocessing.LoadSpreadsheet(dataprocessing.SpreadsheetSource{
//	    Path: "traffic.xlsx", Sheet: "DATA", Range: "A1:I41", Header: true,
//	})
//	t, err := dataprocessing.Select(raw,
//	    dataprocessing.Col("FLT_DATE", "date"),
//	    dataprocessing.Col("APT_ICAO", "airport"),
//	    dataprocessing.Col("FLT_TOT_1", "flights"))
//	t, _, err = dataprocessing.CoerceNumeric(t, dataprocessing.FailFast, "flights")
//	t, _, err = dataprocessing.CoerceDate(t, dataprocessing.FailFast, "date")
//	top, err := dataprocessing.Aggregate(t, dataprocessing.AggregateSpec{
//	    GroupBy:    []string{"airport"},
//	    Measures:   []dataprocessing.Measure{{Column: "flights", Reduce: dataprocessing.Sum}},
//	    SortBy:     "flights",
//	    Descending: true,
//	    Limit:      10,
//	})
//
// # Errors
//
// Loaders and transforms fail with the typed errors of internal/errors:
// SOURCE_NOT_FOUND, SHEET_NOT_FOUND, RANGE_OUT_OF_BOUNDS,
// COLUMN_INDEX_OUT_OF_RANGE, INVALID_NUMERIC_LITERAL, INVALID_DATE_LITERAL,
// MISSING_EXCHANGE_RATE and SCHEMA_MISMATCH.
package dataprocessing
