package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "avdeck/internal/errors"
)

// ExchangeRates holds units of local currency per one unit of Reference
type ExchangeRates struct {
	Reference string
	Rates     map[string]float64
}

// Rate returns the rate for a currency code. The reference currency is always 1.
func (r ExchangeRates) Rate(code string) (float64, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, false
	}
	if code == strings.ToUpper(r.Reference) {
		return 1, true
	}
	rate, ok := r.Rates[code]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// CurrencySpec names the columns used by NormalizeCurrency
type CurrencySpec struct {
	CurrencyColumn string
	AmountColumn   string
	Output         string
}

// NormalizeCurrency appends Output = amount / rate[currency].
// A non-null amount in a currency without a rate fails with MISSING_EXCHANGE_RATE.
func NormalizeCurrency(t *Table, spec CurrencySpec, rates ExchangeRates) (*Table, error) {
	curIdx, err := t.ColumnIndex(spec.CurrencyColumn)
	if err != nil {
		return nil, err
	}
	amtIdx, err := t.Require(spec.AmountColumn, Number)
	if err != nil {
		return nil, err
	}
	if t.Columns.Index(spec.Output) >= 0 {
		return nil, apperrors.NewSchemaMismatchError(t.Name, fmt.Sprintf("output column %q already exists", spec.Output))
	}

	cells := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		amount, ok := row[amtIdx].Float()
		if !ok {
			continue
		}

		code := row[curIdx].String()
		rate, ok := rates.Rate(code)
		if !ok {
			return nil, apperrors.NewMissingRateError(code, r+1)
		}

		converted, _ := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(rate)).Float64()
		cells[r] = Num(converted)
	}

	return t.withColumn(Column{Name: spec.Output, Type: Number}, cells), nil
}

// Concat appends tables with identical schemas, in argument order
func Concat(name string, tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return NewTable(name, nil, nil), nil
	}

	first := tables[0]
	total := 0
	for _, t := range tables {
		if !sameSchema(first.Columns, t.Columns) {
			return nil, apperrors.NewSchemaMismatchError(t.Name,
				fmt.Sprintf("schema %v differs from %v", t.Columns.Names(), first.Columns.Names()))
		}
		total += t.Len()
	}

	rows := make([][]Value, 0, total)
	for _, t := range tables {
		rows = append(rows, t.Rows...)
	}
	return &Table{Name: name, Columns: first.Columns, Rows: rows}, nil
}

func sameSchema(a, b Schema) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
