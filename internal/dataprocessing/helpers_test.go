package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "avdeck/internal/errors"
)

// mkTable builds a table from Go scalars; nil cells are null
func mkTable(name string, columns []Column, rows ...[]interface{}) *Table {
	values := make([][]Value, len(rows))
	for i, row := range rows {
		values[i] = make([]Value, len(row))
		for j, cell := range row {
			values[i][j] = ValueOf(cell)
		}
	}
	return NewTable(name, columns, values)
}

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func requireErrType(t *testing.T, err error, want apperrors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.IsType(err, want), "want %s, got %v", want, err)
}

func column(t *testing.T, tbl *Table, name string) []string {
	t.Helper()
	out, err := tbl.Strings(name)
	require.NoError(t, err)
	return out
}
