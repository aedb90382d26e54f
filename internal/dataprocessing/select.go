package dataprocessing

import (
	"fmt"

	apperrors "avdeck/internal/errors"
)

// Selection picks one source column, by 0-based position or by name, and names the output
type Selection struct {
	Index int
	Name  string
	As    string

	byName bool
}

// At selects the column at a 0-based position
func At(index int, as string) Selection {
	return Selection{Index: index, As: as}
}

// Col selects a column by name, optionally renaming it
func Col(name, as string) Selection {
	return Selection{Name: name, As: as, byName: true}
}

// Select projects t onto the given columns in order.
// Row count, row order and cell values are preserved.
func Select(t *Table, selections ...Selection) (*Table, error) {
	indices := make([]int, len(selections))
	columns := make([]Column, len(selections))
	seen := make(map[string]bool, len(selections))

	for i, sel := range selections {
		idx := sel.Index
		if sel.byName {
			var err error
			if idx, err = t.ColumnIndex(sel.Name); err != nil {
				return nil, err
			}
		} else if idx < 0 || idx >= t.Width() {
			return nil, apperrors.NewColumnIndexError(idx, t.Width())
		}

		name := sel.As
		if name == "" {
			name = t.Columns[idx].Name
		}
		if seen[name] {
			return nil, apperrors.NewSchemaMismatchError(t.Name, fmt.Sprintf("duplicate output column %q", name))
		}
		seen[name] = true

		indices[i] = idx
		columns[i] = Column{Name: name, Type: t.Columns[idx].Type}
	}

	rows := make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]Value, len(indices))
		for i, idx := range indices {
			out[i] = row[idx]
		}
		rows[r] = out
	}

	return &Table{Name: t.Name, Columns: columns, Rows: rows}, nil
}

// Rename renames columns by old->new mapping, keeping every column
func Rename(t *Table, mapping map[string]string) (*Table, error) {
	columns := make([]Column, len(t.Columns))
	copy(columns, t.Columns)

	for from, to := range mapping {
		idx, err := t.ColumnIndex(from)
		if err != nil {
			return nil, err
		}
		columns[idx].Name = to
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c.Name] {
			return nil, apperrors.NewSchemaMismatchError(t.Name, fmt.Sprintf("duplicate output column %q", c.Name))
		}
		seen[c.Name] = true
	}

	return &Table{Name: t.Name, Columns: columns, Rows: t.Rows}, nil
}
