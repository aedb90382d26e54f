package exporter

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "avdeck/internal/errors"
	"avdeck/internal/dataprocessing"
)

func TestWorkbookExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.xlsx")
	tables := []*dataprocessing.Table{sampleTable("top_airports"), sampleTable("daily_flights")}

	require.NoError(t, NewWorkbookExporter().Export(path, tables))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"top_airports", "daily_flights"}, f.GetSheetList())

	for _, sheet := range f.GetSheetList() {
		header, err := f.GetCellValue(sheet, "A1")
		require.NoError(t, err)
		assert.Equal(t, "airport", header)

		flights, err := f.GetCellValue(sheet, "C2", excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Equal(t, "1234.5", flights)

		date, err := f.GetCellValue(sheet, "B2")
		require.NoError(t, err)
		assert.Equal(t, "2019-01-01", date)

		missing, err := f.GetCellValue(sheet, "C3")
		require.NoError(t, err)
		assert.Equal(t, "", missing)

		style, err := f.GetCellStyle(sheet, "A1")
		require.NoError(t, err)
		assert.NotZero(t, style)
	}
}

func TestWorkbookExporter_NoTables(t *testing.T) {
	err := NewWorkbookExporter().Export(filepath.Join(t.TempDir(), "empty.xlsx"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "plain names",
			input:    []string{"traffic", "ansp_costs"},
			expected: []string{"traffic", "ansp_costs"},
		},
		{
			name:     "forbidden characters",
			input:    []string{"costs/2019", "a[b]:c"},
			expected: []string{"costs_2019", "a_b__c"},
		},
		{
			name:     "duplicates ignore case",
			input:    []string{"traffic", "Traffic", "traffic"},
			expected: []string{"traffic", "Traffic_2", "traffic_3"},
		},
		{
			name:     "empty",
			input:    []string{"  "},
			expected: []string{"dataset"},
		},
		{
			name:     "long names truncate",
			input:    []string{strings.Repeat("x", 40), strings.Repeat("x", 40)},
			expected: []string{strings.Repeat("x", 31), strings.Repeat("x", 29) + "_2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			used := make(map[string]bool)
			got := make([]string, len(tt.input))
			for i, in := range tt.input {
				got[i] = sheetName(in, used)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}
