package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewSheetNotFoundError("traffic.xlsx", "Data"),
			expected: `[SHEET_NOT_FOUND] sheet "Data" not found in traffic.xlsx`,
		},
		{
			name:     "with cause",
			err:      NewSourceNotFoundError("missing.csv", errors.New("no such file")),
			expected: `[SOURCE_NOT_FOUND] source "missing.csv" not found: no such file`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("fetch rates", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestConstructors_SetTypeAndContext(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		errType ErrorType
		key     string
		value   interface{}
	}{
		{"range", NewRangeOutOfBoundsError("a.xlsx", "A1:Z99", "too wide"), ErrTypeRangeOutOfBounds, "range", "A1:Z99"},
		{"column index", NewColumnIndexError(7, 4), ErrTypeColumnIndex, "index", 7},
		{"numeric", NewInvalidNumericError("flights", 3, "abc"), ErrTypeInvalidNumeric, "row", 3},
		{"date", NewInvalidDateError("date", 2, "31/12/2019"), ErrTypeInvalidDate, "column", "date"},
		{"rate", NewMissingRateError("XYZ", 5), ErrTypeMissingRate, "currency", "XYZ"},
		{"schema", NewSchemaMismatchError("traffic", "missing column"), ErrTypeSchemaMismatch, "table", "traffic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type)
			assert.Equal(t, tt.value, tt.err.Context[tt.key])
		})
	}
}

func TestIsType(t *testing.T) {
	inner := NewMissingRateError("GBP", 1)
	outer := NewAppError(ErrTypeSchemaMismatch, "normalise", inner)
	wrapped := fmt.Errorf("step ansp_costs: %w", outer)

	assert.True(t, IsType(wrapped, ErrTypeSchemaMismatch))
	assert.True(t, IsType(wrapped, ErrTypeMissingRate))
	assert.False(t, IsType(wrapped, ErrTypeNetwork))
	assert.False(t, IsType(errors.New("plain"), ErrTypeNetwork))
	assert.False(t, IsType(nil, ErrTypeNetwork))

	joined := errors.Join(NewSourceNotFoundError("a.csv", nil), fmt.Errorf("out: %w", NewStorageError("read-only", nil)))
	assert.True(t, IsType(joined, ErrTypeSourceNotFound))
	assert.True(t, IsType(joined, ErrTypeStorage))
	assert.False(t, IsType(joined, ErrTypeConfig))
}

func TestTypeOf(t *testing.T) {
	err := fmt.Errorf("load: %w", NewSheetNotFoundError("x.xlsx", "S"))
	require.Equal(t, ErrTypeSheetNotFound, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}
