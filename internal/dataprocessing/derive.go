package dataprocessing

import (
	"fmt"

	apperrors "avdeck/internal/errors"
)

// Ratio appends as = numerator / denominator. The result is null when either
// side is null or the denominator is zero.
func Ratio(t *Table, numerator, denominator, as string) (*Table, error) {
	num, err := t.Require(numerator, Number)
	if err != nil {
		return nil, err
	}
	den, err := t.Require(denominator, Number)
	if err != nil {
		return nil, err
	}
	if t.Columns.Index(as) >= 0 {
		return nil, apperrors.NewSchemaMismatchError(t.Name, fmt.Sprintf("output column %q already exists", as))
	}

	cells := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		n, ok1 := row[num].Float()
		d, ok2 := row[den].Float()
		if ok1 && ok2 && d != 0 {
			cells[r] = Num(n / d)
		}
	}
	return t.withColumn(Column{Name: as, Type: Number}, cells), nil
}

// WithConstant appends a column holding v on every row
func WithConstant(t *Table, column string, v Value) *Table {
	cells := make([]Value, len(t.Rows))
	for i := range cells {
		cells[i] = v
	}
	return t.withColumn(Column{Name: column, Type: v.Kind()}, cells)
}

// AddColumns appends as = a + b, treating nulls as zero
func AddColumns(t *Table, a, b, as string) (*Table, error) {
	ia, err := t.Require(a, Number)
	if err != nil {
		return nil, err
	}
	ib, err := t.Require(b, Number)
	if err != nil {
		return nil, err
	}

	cells := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		x, _ := row[ia].Float()
		y, _ := row[ib].Float()
		cells[r] = Num(x + y)
	}
	return t.withColumn(Column{Name: as, Type: Number}, cells), nil
}
