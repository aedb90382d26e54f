package dataprocessing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"

	apperrors "avdeck/internal/errors"
)

// Reducer combines the values of one column within a group
type Reducer int

const (
	Sum Reducer = iota // nulls count as zero
	Mean
	Min
	Max
	Count         // non-null cells, or rows when Column is empty
	CountDistinct // distinct non-null cells
)

func (r Reducer) String() string {
	switch r {
	case Mean:
		return "mean"
	case Min:
		return "min"
	case Max:
		return "max"
	case Count:
		return "count"
	case CountDistinct:
		return "count_distinct"
	default:
		return "sum"
	}
}

// Measure is one output column of an aggregation
type Measure struct {
	Column string
	Reduce Reducer
	As     string
}

// AggregateSpec describes a group-by aggregation.
// SortBy may name a group column or a measure; Limit > 0 keeps the first Limit groups.
type AggregateSpec struct {
	GroupBy    []string
	Measures   []Measure
	SortBy     string
	Descending bool
	Limit      int
}

type group struct {
	keys []Value
	rows []int
}

// Aggregate produces one row per distinct combination of GroupBy values, in
// first-seen order unless SortBy is set. Rows with a null group key form their
// own group.
func Aggregate(t *Table, spec AggregateSpec) (*Table, error) {
	groupIdx := make([]int, len(spec.GroupBy))
	columns := make([]Column, 0, len(spec.GroupBy)+len(spec.Measures))
	for i, name := range spec.GroupBy {
		idx, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		groupIdx[i] = idx
		columns = append(columns, t.Columns[idx])
	}

	measureIdx := make([]int, len(spec.Measures))
	for i, m := range spec.Measures {
		measureIdx[i] = -1
		switch {
		case m.Column == "" && m.Reduce == Count:
		case m.Reduce == Count || m.Reduce == CountDistinct:
			idx, err := t.ColumnIndex(m.Column)
			if err != nil {
				return nil, err
			}
			measureIdx[i] = idx
		default:
			idx, err := t.Require(m.Column, Number)
			if err != nil {
				return nil, err
			}
			measureIdx[i] = idx
		}

		name := m.As
		if name == "" {
			name = m.Column
		}
		if Schema(columns).Index(name) >= 0 {
			return nil, apperrors.NewSchemaMismatchError(t.Name, fmt.Sprintf("duplicate output column %q", name))
		}
		columns = append(columns, Column{Name: name, Type: Number})
	}

	groups := groupRows(t, groupIdx)

	rows := make([][]Value, len(groups))
	for g, grp := range groups {
		row := make([]Value, 0, len(columns))
		row = append(row, grp.keys...)
		for i, m := range spec.Measures {
			row = append(row, reduce(t, grp.rows, measureIdx[i], m.Reduce))
		}
		rows[g] = row
	}

	out := &Table{Name: t.Name, Columns: columns, Rows: rows}
	if spec.SortBy != "" {
		var err error
		if out, err = Sort(out, spec.SortBy, spec.Descending); err != nil {
			return nil, err
		}
	}
	if spec.Limit > 0 {
		out = Head(out, spec.Limit)
	}
	return out, nil
}

func groupRows(t *Table, groupIdx []int) []*group {
	var order []*group
	byKey := make(map[string]*group)

	for r, row := range t.Rows {
		parts := make([]string, len(groupIdx))
		for i, idx := range groupIdx {
			if k, ok := row[idx].key(); ok {
				parts[i] = k
			} else {
				parts[i] = "\x01null"
			}
		}
		key := strings.Join(parts, "\x1f")

		grp, ok := byKey[key]
		if !ok {
			keys := make([]Value, len(groupIdx))
			for i, idx := range groupIdx {
				keys[i] = row[idx]
			}
			grp = &group{keys: keys}
			byKey[key] = grp
			order = append(order, grp)
		}
		grp.rows = append(grp.rows, r)
	}

	// A table without group columns still yields one total row
	if len(groupIdx) == 0 && len(order) == 0 {
		order = append(order, &group{})
	}
	return order
}

func reduce(t *Table, rows []int, idx int, r Reducer) Value {
	if idx < 0 {
		return Num(float64(len(rows)))
	}

	switch r {
	case Count:
		n := 0
		for _, row := range rows {
			if !t.Rows[row][idx].IsNull() {
				n++
			}
		}
		return Num(float64(n))
	case CountDistinct:
		seen := make(map[string]bool)
		for _, row := range rows {
			if k, ok := t.Rows[row][idx].key(); ok {
				seen[k] = true
			}
		}
		return Num(float64(len(seen)))
	}

	xs := make([]float64, 0, len(rows))
	for _, row := range rows {
		if f, ok := t.Rows[row][idx].Float(); ok {
			xs = append(xs, f)
		}
	}

	switch r {
	case Sum:
		return Num(vec.Sum(xs))
	case Mean:
		if len(xs) == 0 {
			return Null()
		}
		return Num(stats.Mean(xs))
	case Min, Max:
		if len(xs) == 0 {
			return Null()
		}
		lo, hi := stats.Bounds(xs)
		if r == Min {
			return Num(lo)
		}
		return Num(hi)
	}
	return Null()
}

// Sort orders rows by one column. Ties keep their original order; nulls go last.
func Sort(t *Table, column string, descending bool) (*Table, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}

	rows := make([][]Value, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][idx], rows[j][idx]
		if a.IsNull() || b.IsNull() {
			return !a.IsNull() && b.IsNull()
		}
		if descending {
			return Compare(a, b) > 0
		}
		return Compare(a, b) < 0
	})

	return &Table{Name: t.Name, Columns: t.Columns, Rows: rows}, nil
}

// Head keeps the first n rows
func Head(t *Table, n int) *Table {
	if n >= t.Len() {
		return t
	}
	return &Table{Name: t.Name, Columns: t.Columns, Rows: t.Rows[:n]}
}
