package dataprocessing

import (
	"fmt"

	apperrors "avdeck/internal/errors"
)

// JoinSpec names the key columns and the right-hand columns to attach.
// An empty Columns list attaches every non-key right column.
type JoinSpec struct {
	LeftKey  string
	RightKey string
	Columns  []string
}

// LeftJoin keeps every left row in order and appends the matching right columns.
// Unmatched rows get nulls. A left row matching several right rows is repeated
// once per match, in right-table order. Null keys never match.
// Right column names that clash get a "_right" suffix, then "_right_2",
// "_right_3" and so on until the name is unique.
func LeftJoin(left, right *Table, spec JoinSpec) (*Table, error) {
	lk, err := left.ColumnIndex(spec.LeftKey)
	if err != nil {
		return nil, err
	}
	rk, err := right.ColumnIndex(spec.RightKey)
	if err != nil {
		return nil, err
	}
	if left.Columns[lk].Type != right.Columns[rk].Type {
		return nil, apperrors.NewSchemaMismatchError(left.Name, fmt.Sprintf("join key %q is %s but %q is %s",
			spec.LeftKey, left.Columns[lk].Type, spec.RightKey, right.Columns[rk].Type))
	}

	attach, err := joinColumns(right, rk, spec.Columns)
	if err != nil {
		return nil, err
	}

	columns := make([]Column, 0, left.Width()+len(attach))
	columns = append(columns, left.Columns...)
	taken := make(map[string]bool, cap(columns))
	for _, c := range left.Columns {
		taken[c.Name] = true
	}
	for _, idx := range attach {
		col := right.Columns[idx]
		if taken[col.Name] {
			base := col.Name + "_right"
			col.Name = base
			for n := 2; taken[col.Name]; n++ {
				col.Name = fmt.Sprintf("%s_%d", base, n)
			}
		}
		taken[col.Name] = true
		columns = append(columns, col)
	}

	index := make(map[string][]int, right.Len())
	for r, row := range right.Rows {
		if key, ok := row[rk].key(); ok {
			index[key] = append(index[key], r)
		}
	}

	rows := make([][]Value, 0, left.Len())
	for _, row := range left.Rows {
		var matches []int
		if key, ok := row[lk].key(); ok {
			matches = index[key]
		}

		if len(matches) == 0 {
			out := make([]Value, len(columns))
			copy(out, row)
			rows = append(rows, out)
			continue
		}

		for _, m := range matches {
			out := make([]Value, 0, len(columns))
			out = append(out, row...)
			for _, idx := range attach {
				out = append(out, right.Rows[m][idx])
			}
			rows = append(rows, out)
		}
	}

	return &Table{Name: left.Name, Columns: columns, Rows: rows}, nil
}

func joinColumns(right *Table, keyIdx int, names []string) ([]int, error) {
	if len(names) == 0 {
		out := make([]int, 0, right.Width()-1)
		for i := range right.Columns {
			if i != keyIdx {
				out = append(out, i)
			}
		}
		return out, nil
	}

	out := make([]int, len(names))
	for i, name := range names {
		idx, err := right.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}
