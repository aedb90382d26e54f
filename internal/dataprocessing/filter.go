package dataprocessing

import (
	"time"
)

// Predicate is a row condition on one column
type Predicate struct {
	column string
	typ    *ColumnType
	match  func(Value) bool
}

// kindOf returns the type of the first non-null value, or nil when all are null
func kindOf(vals ...Value) *ColumnType {
	for _, v := range vals {
		if !v.IsNull() {
			k := v.Kind()
			return &k
		}
	}
	return nil
}

// Eq keeps rows whose cell equals v. Null cells never match.
// The column must have v's type.
func Eq(column string, v interface{}) Predicate {
	want := ValueOf(v)
	return Predicate{column: column, typ: kindOf(want), match: func(cell Value) bool { return cell.Equal(want) }}
}

// NotEq keeps rows whose cell differs from v. Null cells match.
// The column must have v's type.
func NotEq(column string, v interface{}) Predicate {
	want := ValueOf(v)
	return Predicate{column: column, typ: kindOf(want), match: func(cell Value) bool { return !cell.Equal(want) }}
}

// In keeps rows whose cell equals any of vals. The column must have the
// type of the first non-null value.
func In(column string, vals ...interface{}) Predicate {
	wants := make([]Value, len(vals))
	for i, v := range vals {
		wants[i] = ValueOf(v)
	}
	return Predicate{column: column, typ: kindOf(wants...), match: func(cell Value) bool {
		for _, w := range wants {
			if cell.Equal(w) {
				return true
			}
		}
		return false
	}}
}

// DateBetween keeps rows whose date lies in [from, to], compared by calendar day
func DateBetween(column string, from, to time.Time) Predicate {
	typ := Date
	lo, _ := Day(from).Time()
	hi, _ := Day(to).Time()
	return Predicate{column: column, typ: &typ, match: func(cell Value) bool {
		d, ok := cell.Time()
		return ok && !d.Before(lo) && !d.After(hi)
	}}
}

// InYear keeps rows whose date falls in the calendar year
func InYear(column string, year int) Predicate {
	return DateBetween(column,
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
}

// NumberBetween keeps rows whose number lies in [lo, hi]
func NumberBetween(column string, lo, hi float64) Predicate {
	typ := Number
	return Predicate{column: column, typ: &typ, match: func(cell Value) bool {
		f, ok := cell.Float()
		return ok && f >= lo && f <= hi
	}}
}

// Filter keeps the rows satisfying every predicate, in their original order
func Filter(t *Table, preds ...Predicate) (*Table, error) {
	indices := make([]int, len(preds))
	for i, p := range preds {
		var err error
		if p.typ != nil {
			indices[i], err = t.Require(p.column, *p.typ)
		} else {
			indices[i], err = t.ColumnIndex(p.column)
		}
		if err != nil {
			return nil, err
		}
	}

	rows := make([][]Value, 0, len(t.Rows))
	for _, row := range t.Rows {
		keep := true
		for i, p := range preds {
			if !p.match(row[indices[i]]) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}

	return &Table{Name: t.Name, Columns: t.Columns, Rows: rows}, nil
}
