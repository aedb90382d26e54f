package exporter

import (
	"avdeck/internal/dataprocessing"
	"avdeck/pkg/contracts/domain"
)

// formatValue renders a cell for text output. Null cells are empty.
func formatValue(v dataprocessing.Value) string {
	return v.String()
}

// Headers returns the column names of a table
func Headers(t *dataprocessing.Table) []string {
	return t.Columns.Names()
}

// Records renders every row of a table as strings
func Records(t *dataprocessing.Table) [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		records[i] = formatRow(row)
	}
	return records
}

func formatRow(row []dataprocessing.Value) []string {
	record := make([]string, len(row))
	for j, v := range row {
		record[j] = formatValue(v)
	}
	return record
}

// Columns describes the schema of a table
func Columns(t *dataprocessing.Table) []domain.DatasetColumn {
	cols := make([]domain.DatasetColumn, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = domain.DatasetColumn{Name: c.Name, Type: c.Type.String()}
	}
	return cols
}

// Dataset converts a table into the rendering payload
func Dataset(t *dataprocessing.Table) domain.Dataset {
	rows := make([][]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]interface{}, len(row))
		for j, v := range row {
			out[j] = v.Interface()
		}
		rows[i] = out
	}
	return domain.Dataset{
		Name:    t.Name,
		Columns: Columns(t),
		Rows:    rows,
	}
}

// Summary describes a table without its rows
func Summary(t *dataprocessing.Table) domain.DatasetSummary {
	return domain.DatasetSummary{
		ID:       t.Name,
		Name:     t.Name,
		Columns:  Columns(t),
		RowCount: t.Len(),
	}
}
