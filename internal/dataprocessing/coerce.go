package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "avdeck/internal/errors"
)

// CoercionPolicy decides what happens to a cell that does not parse
type CoercionPolicy int

const (
	// FailFast aborts with INVALID_NUMERIC_LITERAL / INVALID_DATE_LITERAL
	FailFast CoercionPolicy = iota
	// NullOnError stores null and counts the replaced cell
	NullOnError
)

// ParsePolicy maps the configuration names fail_fast and null_on_error
func ParsePolicy(name string) (CoercionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fail_fast":
		return FailFast, nil
	case "null_on_error":
		return NullOnError, nil
	}
	return FailFast, apperrors.NewConfigError(fmt.Sprintf("unknown coercion policy %q", name), nil)
}

var (
	errInvalidNumber = errors.New("invalid number")
	errInvalidDate   = errors.New("invalid date")
)

// nullLiterals are read as missing values
var nullLiterals = map[string]bool{"": true, "NA": true, "N/A": true, "-": true, "NULL": true}

var numberCleaner = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\u202f", "")

// ParseNumber parses a numeric literal after stripping thousands separators.
// "1,234" is 1234 and "12,345.5" is 12345.5. Null literals yield a null Value.
func ParseNumber(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if nullLiterals[strings.ToUpper(s)] {
		return Null(), nil
	}
	f, err := strconv.ParseFloat(numberCleaner.Replace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Null(), errInvalidNumber
	}
	return Num(f), nil
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate parses YYYY-MM-DD. Timestamps on that layout are also accepted;
// the time of day is dropped. Bare numbers are rejected: workbook date cells
// are rendered as dates by the loaders.
func ParseDate(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if nullLiterals[strings.ToUpper(s)] {
		return Null(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}

	return Null(), errInvalidDate
}

// CoerceNumeric converts the named columns to Number.
// It returns the number of cells replaced by null under NullOnError.
func CoerceNumeric(t *Table, policy CoercionPolicy, columns ...string) (*Table, int, error) {
	return coerce(t, policy, Number, ParseNumber, columns)
}

// CoerceDate converts the named columns to Date
func CoerceDate(t *Table, policy CoercionPolicy, columns ...string) (*Table, int, error) {
	return coerce(t, policy, Date, ParseDate, columns)
}

func coerce(t *Table, policy CoercionPolicy, target ColumnType, parse func(string) (Value, error), columns []string) (*Table, int, error) {
	out := t
	nulled := 0

	for _, name := range columns {
		idx, err := out.ColumnIndex(name)
		if err != nil {
			return nil, 0, err
		}

		switch out.Columns[idx].Type {
		case target:
			continue
		case String:
		default:
			return nil, 0, apperrors.NewSchemaMismatchError(t.Name,
				fmt.Sprintf("cannot coerce %s column %q to %s", out.Columns[idx].Type, name, target))
		}

		cells := make([]Value, len(out.Rows))
		for r, row := range out.Rows {
			raw, _ := row[idx].Text()
			v, err := parse(raw)
			if err != nil {
				if policy == NullOnError {
					nulled++
					continue
				}
				if target == Date {
					return nil, 0, apperrors.NewInvalidDateError(name, r+1, raw)
				}
				return nil, 0, apperrors.NewInvalidNumericError(name, r+1, raw)
			}
			cells[r] = v
		}
		out = out.replaceColumn(idx, target, cells)
	}

	return out, nulled, nil
}

// FillNull replaces null cells of the named columns with v.
// Use it on measures before summation; display columns keep their nulls.
func FillNull(t *Table, v Value, columns ...string) (*Table, error) {
	out := t
	for _, name := range columns {
		idx, err := out.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		if !v.IsNull() && v.Kind() != out.Columns[idx].Type {
			return nil, apperrors.NewSchemaMismatchError(t.Name,
				fmt.Sprintf("fill value is %s, column %q is %s", v.Kind(), name, out.Columns[idx].Type))
		}

		cells := make([]Value, len(out.Rows))
		for r, row := range out.Rows {
			cells[r] = row[idx]
			if cells[r].IsNull() {
				cells[r] = v
			}
		}
		out = out.replaceColumn(idx, out.Columns[idx].Type, cells)
	}
	return out, nil
}

// ForwardFill carries the last non-null value of each named column down into
// following null cells, as for merged cells in a lookup sheet.
func ForwardFill(t *Table, columns ...string) (*Table, error) {
	out := t
	for _, name := range columns {
		idx, err := out.ColumnIndex(name)
		if err != nil {
			return nil, err
		}

		cells := make([]Value, len(out.Rows))
		last := Null()
		for r, row := range out.Rows {
			if !row[idx].IsNull() {
				last = row[idx]
			}
			cells[r] = last
		}
		out = out.replaceColumn(idx, out.Columns[idx].Type, cells)
	}
	return out, nil
}
