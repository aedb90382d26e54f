package dataprocessing

import (
	"time"

	"github.com/aclements/go-moremath/stats"
)

// Extreme selects the maximum or the minimum
type Extreme int

const (
	Maximum Extreme = iota
	Minimum
)

// DateWindow restricts an extremum search to [From, To] on a date column
type DateWindow struct {
	Column string
	From   time.Time
	To     time.Time
}

// MarkerColumn is the column added by Markers
const MarkerColumn = "marker"

// Extremum returns every row achieving the extreme of column, in original
// order. Ties are all returned. Null cells are ignored; a table with no
// numeric cells yields an empty result.
func Extremum(t *Table, column string, which Extreme, window *DateWindow) (*Table, error) {
	scope := t
	if window != nil {
		var err error
		if scope, err = Filter(t, DateBetween(window.Column, window.From, window.To)); err != nil {
			return nil, err
		}
	}

	idx, err := scope.Require(column, Number)
	if err != nil {
		return nil, err
	}

	xs := make([]float64, 0, scope.Len())
	for _, row := range scope.Rows {
		if f, ok := row[idx].Float(); ok {
			xs = append(xs, f)
		}
	}

	rows := make([][]Value, 0)
	if len(xs) > 0 {
		lo, hi := stats.Bounds(xs)
		target := hi
		if which == Minimum {
			target = lo
		}
		for _, row := range scope.Rows {
			if f, ok := row[idx].Float(); ok && f == target {
				rows = append(rows, row)
			}
		}
	}

	return &Table{Name: t.Name, Columns: scope.Columns, Rows: rows}, nil
}

// Markers returns the minimum and maximum rows of valueCol within the window
// as (dateCol, valueCol, marker) rows, minimum rows first.
func Markers(t *Table, dateCol, valueCol string, window *DateWindow) (*Table, error) {
	if window != nil && window.Column == "" {
		w := *window
		w.Column = dateCol
		window = &w
	}

	mins, err := Extremum(t, valueCol, Minimum, window)
	if err != nil {
		return nil, err
	}
	maxs, err := Extremum(t, valueCol, Maximum, window)
	if err != nil {
		return nil, err
	}

	out := make([]*Table, 0, 2)
	for _, part := range []struct {
		t     *Table
		label string
	}{{mins, "min"}, {maxs, "max"}} {
		sel, err := Select(part.t, Col(dateCol, ""), Col(valueCol, ""))
		if err != nil {
			return nil, err
		}
		out = append(out, WithConstant(sel, MarkerColumn, Str(part.label)))
	}

	return Concat(t.Name, out...)
}
