package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avdeck/internal/config"
	apperrors "avdeck/internal/errors"
)

func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	tempDir := t.TempDir()
	writer := NewCSVWriter(&config.Paths{
		ReportsDir: filepath.Join(tempDir, "reports"),
	})
	return writer, tempDir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, utf8BOM)
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func TestCSVWriter_WriteTable(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	require.NoError(t, writer.WriteTable("top_airports.csv", sampleTable("top_airports")))

	path := filepath.Join(tempDir, "reports", "top_airports.csv")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, utf8BOM))

	assert.Equal(t, []string{
		"airport,date,flights",
		"EGLL,2019-01-01,1234.5",
		`"LFPG, Paris",2019-01-02,`,
		",,0.000125",
	}, readLines(t, path))
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	tests := []struct {
		name     string
		options  WriteOptions
		expected []string
		bom      bool
	}{
		{
			name: "headers and records",
			options: WriteOptions{
				Headers: []string{"ansp", "total_costs"},
				Records: [][]string{{"DFS", "1000000"}, {"NATS", "1000000"}},
			},
			expected: []string{"ansp,total_costs", "DFS,1000000", "NATS,1000000"},
		},
		{
			name: "bom prefix",
			options: WriteOptions{
				Headers:   []string{"country"},
				Records:   [][]string{{"Deutschland"}},
				BOMPrefix: true,
			},
			expected: []string{"country", "Deutschland"},
			bom:      true,
		},
		{
			name: "no headers",
			options: WriteOptions{
				Records: [][]string{{"a", "b"}},
			},
			expected: []string{"a,b"},
		},
		{
			name: "headers only",
			options: WriteOptions{
				Headers: []string{"date", "flights"},
			},
			expected: []string{"date,flights"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := strings.ReplaceAll(tt.name, " ", "_") + ".csv"
			require.NoError(t, writer.WriteCSV(file, tt.options))

			path := filepath.Join(tempDir, "reports", file)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.bom, bytes.HasPrefix(content, utf8BOM))
			assert.Equal(t, tt.expected, readLines(t, path))
		})
	}
}

func TestCSVWriter_AppendToCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	require.NoError(t, writer.WriteSimpleCSV("daily.csv", []string{"date", "flights"}, [][]string{{"2019-01-01", "2610"}}))
	require.NoError(t, writer.AppendToCSV("daily.csv", [][]string{{"2019-01-02", "2600"}}))

	path := filepath.Join(tempDir, "reports", "daily.csv")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(content, utf8BOM))
	assert.Equal(t, []string{"date,flights", "2019-01-01,2610", "2019-01-02,2600"}, readLines(t, path))
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	abs := filepath.Join(tempDir, "elsewhere", "out.csv")
	require.NoError(t, writer.WriteSimpleCSV(abs, []string{"x"}, nil))
	assert.FileExists(t, abs)

	assert.Equal(t, "rel/out.csv", resolvePath(nil, "rel/out.csv"))
	assert.Equal(t, filepath.Join(tempDir, "reports", "rel", "out.csv"), resolvePath(writer.paths, filepath.Join("rel", "out.csv")))
}

func TestCSVWriter_WriteErrors(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	blocker := filepath.Join(tempDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0644))

	err := writer.WriteSimpleCSV(filepath.Join(blocker, "out.csv"), []string{"x"}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, sampleTable("x"), false))
	assert.Equal(t, "airport,date,flights\nEGLL,2019-01-01,1234.5\n\"LFPG, Paris\",2019-01-02,\n,,0.000125\n", buf.String())

	buf.Reset()
	require.NoError(t, EncodeCSV(&buf, sampleTable("x"), true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
}

func TestStreamWriter(t *testing.T) {
	writer, tempDir := setupTestEnv(t)
	table := sampleTable("stream")

	stream, err := writer.CreateStreamWriter("stream.csv", Headers(table))
	require.NoError(t, err)

	for _, row := range table.Rows {
		require.NoError(t, stream.WriteRow(row))
	}
	require.NoError(t, stream.WriteRecord([]string{"EDDF", "2019-01-03", "7"}))
	assert.Equal(t, 4, stream.Rows())
	require.NoError(t, stream.Close())

	lines := readLines(t, filepath.Join(tempDir, "reports", "stream.csv"))
	require.Len(t, lines, 5)
	assert.Equal(t, "airport,date,flights", lines[0])
	assert.Equal(t, "EDDF,2019-01-03,7", lines[4])
}
