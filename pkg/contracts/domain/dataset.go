package domain

import (
	"time"
)

// DatasetFormat is a serialisation of a prepared dataset
type DatasetFormat string

const (
	DatasetFormatCSV  DatasetFormat = "csv"
	DatasetFormatJSON DatasetFormat = "json"
	DatasetFormatXLSX DatasetFormat = "xlsx"
)

// DatasetColumn describes one column of a dataset
type DatasetColumn struct {
	Name string `json:"name"`
	Type string `json:"type" validate:"oneof=string number date"`
}

// Dataset is the payload handed to the rendering layer.
// Numbers are JSON numbers, dates are YYYY-MM-DD strings and missing cells are null.
type Dataset struct {
	Name    string          `json:"name"`
	Columns []DatasetColumn `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// DatasetSummary lists a dataset without its rows
type DatasetSummary struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Columns  []DatasetColumn `json:"columns"`
	RowCount int             `json:"row_count"`
}

// StepSummary reports one build step
type StepSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Rows        int    `json:"rows"`
	NulledCells int    `json:"nulled_cells,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

// BuildSummary reports a deck build
type BuildSummary struct {
	ID          string           `json:"id"`
	Deck        string           `json:"deck"`
	Status      string           `json:"status"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     *time.Time       `json:"end_time,omitempty"`
	NulledCells int              `json:"nulled_cells"`
	Steps       []StepSummary    `json:"steps"`
	Datasets    []DatasetSummary `json:"datasets"`
	Error       string           `json:"error,omitempty"`
	ErrorType   string           `json:"error_type,omitempty"`
}
