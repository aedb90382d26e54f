package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "avdeck/internal/errors"
)

var testRates = ExchangeRates{Reference: "EUR", Rates: map[string]float64{"GBP": 0.8, "CHF": 1.25, "XXX": 2.0}}

func financeTable() *Table {
	return mkTable("finance",
		[]Column{{"ansp", String}, {"currency", String}, {"costs", Number}},
		[]interface{}{"Test", "XXX", 1000},
		[]interface{}{"NATS", "gbp", 800},
		[]interface{}{"DFS", "EUR", 1500},
		[]interface{}{"skyguide", "CHF", nil},
	)
}

func TestNormalizeCurrency(t *testing.T) {
	out, err := NormalizeCurrency(financeTable(), CurrencySpec{CurrencyColumn: "currency", AmountColumn: "costs", Output: "costs_eur"}, testRates)
	require.NoError(t, err)

	assert.Equal(t, []string{"ansp", "currency", "costs", "costs_eur"}, out.Columns.Names())
	assert.Equal(t, Number, out.Columns[3].Type)
	assert.Equal(t, []string{"500", "1000", "1500", ""}, column(t, out, "costs_eur"))
	assert.Equal(t, 3, financeTable().Width(), "input keeps its schema")
}

func TestNormalizeCurrency_ReferenceRowsIgnoreListedRate(t *testing.T) {
	listed := ExchangeRates{Reference: "EUR", Rates: map[string]float64{"EUR": 1.1, "GBP": 0.8}}
	spec := CurrencySpec{CurrencyColumn: "currency", AmountColumn: "costs", Output: "costs_eur"}
	in := mkTable("finance", []Column{{"currency", String}, {"costs", Number}},
		[]interface{}{"EUR", 1500},
		[]interface{}{" eur", 12345.67},
		[]interface{}{"GBP", 800},
	)

	withEntry, err := NormalizeCurrency(in, spec, listed)
	require.NoError(t, err)
	assert.Equal(t, []string{"1500", "12345.67", "1000"}, column(t, withEntry, "costs_eur"))

	withoutEntry, err := NormalizeCurrency(in, spec, testRates)
	require.NoError(t, err)
	assert.Equal(t, column(t, withoutEntry, "costs_eur"), column(t, withEntry, "costs_eur"))
}

func TestNormalizeCurrency_MissingRate(t *testing.T) {
	in := mkTable("finance", []Column{{"currency", String}, {"costs", Number}},
		[]interface{}{"EUR", 10},
		[]interface{}{"SEK", 20},
	)

	_, err := NormalizeCurrency(in, CurrencySpec{CurrencyColumn: "currency", AmountColumn: "costs", Output: "eur"}, testRates)
	requireErrType(t, err, apperrors.ErrTypeMissingRate)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SEK", appErr.Context["currency"])
	assert.Equal(t, 2, appErr.Context["row"])
}

func TestNormalizeCurrency_SchemaChecks(t *testing.T) {
	spec := CurrencySpec{CurrencyColumn: "currency", AmountColumn: "ansp", Output: "x"}
	_, err := NormalizeCurrency(financeTable(), spec, testRates)
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)

	spec = CurrencySpec{CurrencyColumn: "currency", AmountColumn: "costs", Output: "ansp"}
	_, err = NormalizeCurrency(financeTable(), spec, testRates)
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)
}

func TestExchangeRates_Rate(t *testing.T) {
	r, ok := testRates.Rate(" eur ")
	assert.True(t, ok)
	assert.Equal(t, 1.0, r)

	_, ok = testRates.Rate("")
	assert.False(t, ok)

	_, ok = ExchangeRates{Reference: "EUR", Rates: map[string]float64{"BAD": 0}}.Rate("BAD")
	assert.False(t, ok)
}

func TestConcat(t *testing.T) {
	a, err := Filter(financeTable(), Eq("currency", "EUR"))
	require.NoError(t, err)
	b, err := Filter(financeTable(), NotEq("currency", "EUR"))
	require.NoError(t, err)

	out, err := Concat("all", a, b)
	require.NoError(t, err)
	assert.Equal(t, "all", out.Name)
	assert.Equal(t, []string{"DFS", "Test", "NATS", "skyguide"}, column(t, out, "ansp"))

	_, err = Concat("bad", a, wideTable())
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)

	empty, err := Concat("none")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}
