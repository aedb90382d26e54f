package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Pipeline taxonomy. Every one of these aborts a deck build.
	ErrTypeSourceNotFound     ErrorType = "SOURCE_NOT_FOUND"
	ErrTypeSheetNotFound      ErrorType = "SHEET_NOT_FOUND"
	ErrTypeRangeOutOfBounds   ErrorType = "RANGE_OUT_OF_BOUNDS"
	ErrTypeColumnIndex        ErrorType = "COLUMN_INDEX_OUT_OF_RANGE"
	ErrTypeInvalidNumeric     ErrorType = "INVALID_NUMERIC_LITERAL"
	ErrTypeInvalidDate        ErrorType = "INVALID_DATE_LITERAL"
	ErrTypeMissingRate        ErrorType = "MISSING_EXCHANGE_RATE"
	ErrTypeSchemaMismatch     ErrorType = "SCHEMA_MISMATCH"

	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's tree holds an AppError of the given type.
// Joined errors are searched branch by branch.
func IsType(err error, errType ErrorType) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *AppError:
		return e.Type == errType || IsType(e.Cause, errType)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsType(inner, errType) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsType(e.Unwrap(), errType)
	}
	return false
}

// Helper functions for common error types

// NewSourceNotFoundError reports a source path or spreadsheet that does not resolve.
func NewSourceNotFoundError(source string, cause error) *AppError {
	return NewAppError(ErrTypeSourceNotFound, fmt.Sprintf("source %q not found", source), cause).
		WithContext("source", source)
}

// NewSheetNotFoundError reports a named sheet absent from a workbook.
func NewSheetNotFoundError(source, sheet string) *AppError {
	return NewAppError(ErrTypeSheetNotFound, fmt.Sprintf("sheet %q not found in %s", sheet, source), nil).
		WithContext("source", source).
		WithContext("sheet", sheet)
}

// NewRangeOutOfBoundsError reports a requested extent that exceeds the populated area.
func NewRangeOutOfBoundsError(source, cellRange, reason string) *AppError {
	return NewAppError(ErrTypeRangeOutOfBounds, fmt.Sprintf("range %s of %s: %s", cellRange, source, reason), nil).
		WithContext("source", source).
		WithContext("range", cellRange)
}

// NewColumnIndexError reports a positional selection beyond the table width.
func NewColumnIndexError(index, width int) *AppError {
	return NewAppError(ErrTypeColumnIndex, fmt.Sprintf("column index %d out of range [0,%d)", index, width), nil).
		WithContext("index", index).
		WithContext("width", width)
}

// NewInvalidNumericError reports a cell that stays non-numeric after separator stripping.
func NewInvalidNumericError(column string, row int, literal string) *AppError {
	return NewAppError(ErrTypeInvalidNumeric, fmt.Sprintf("column %q row %d: invalid number %q", column, row, literal), nil).
		WithContext("column", column).
		WithContext("row", row)
}

// NewInvalidDateError reports a cell that does not parse as YYYY-MM-DD.
func NewInvalidDateError(column string, row int, literal string) *AppError {
	return NewAppError(ErrTypeInvalidDate, fmt.Sprintf("column %q row %d: invalid date %q", column, row, literal), nil).
		WithContext("column", column).
		WithContext("row", row)
}

// NewMissingRateError reports a currency code absent from the exchange-rate table.
func NewMissingRateError(currency string, row int) *AppError {
	return NewAppError(ErrTypeMissingRate, fmt.Sprintf("no exchange rate for currency %q (row %d)", currency, row), nil).
		WithContext("currency", currency).
		WithContext("row", row)
}

// NewSchemaMismatchError reports a transform input lacking a declared column.
func NewSchemaMismatchError(table, message string) *AppError {
	return NewAppError(ErrTypeSchemaMismatch, fmt.Sprintf("table %q: %s", table, message), nil).
		WithContext("table", table)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
