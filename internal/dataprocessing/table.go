package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "avdeck/internal/errors"
)

// DateLayout is the canonical calendar-date format of every date cell
const DateLayout = "2006-01-02"

// ColumnType is the declared type of a column
type ColumnType int

const (
	String ColumnType = iota
	Number
	Date
)

func (c ColumnType) String() string {
	switch c {
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "string"
	}
}

// Value is a single nullable cell. The zero Value is null.
type Value struct {
	kind  ColumnType
	valid bool
	str   string
	num   float64
	date  time.Time
}

// Null returns the null cell
func Null() Value { return Value{} }

// Str returns a string cell
func Str(s string) Value { return Value{kind: String, valid: true, str: s} }

// Num returns a numeric cell. NaN is stored as null.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: Number, valid: true, num: f}
}

// Day returns a date cell truncated to the calendar day in UTC
func Day(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: Date, valid: true, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ValueOf converts a Go scalar into a Value. Unsupported types become strings.
func ValueOf(x interface{}) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case string:
		return Str(v)
	case float64:
		return Num(v)
	case float32:
		return Num(float64(v))
	case int:
		return Num(float64(v))
	case int64:
		return Num(float64(v))
	case time.Time:
		return Day(v)
	default:
		return Str(fmt.Sprint(v))
	}
}

// IsNull reports whether the cell is empty
func (v Value) IsNull() bool { return !v.valid }

// Kind returns the cell's type. Null cells report String.
func (v Value) Kind() ColumnType { return v.kind }

// Float returns the numeric content
func (v Value) Float() (float64, bool) {
	if !v.valid || v.kind != Number {
		return 0, false
	}
	return v.num, true
}

// Time returns the date content
func (v Value) Time() (time.Time, bool) {
	if !v.valid || v.kind != Date {
		return time.Time{}, false
	}
	return v.date, true
}

// Text returns the string content
func (v Value) Text() (string, bool) {
	if !v.valid || v.kind != String {
		return "", false
	}
	return v.str, true
}

// String renders the cell: full-precision numbers, YYYY-MM-DD dates, "" for null
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Date:
		return v.date.Format(DateLayout)
	default:
		return v.str
	}
}

// Interface returns the cell as a JSON-friendly Go value
func (v Value) Interface() interface{} {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case Number:
		return v.num
	case Date:
		return v.date.Format(DateLayout)
	default:
		return v.str
	}
}

// Equal reports whether two cells hold the same typed content. Nulls are never equal.
func (v Value) Equal(o Value) bool {
	if !v.valid || !o.valid || v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Number:
		return v.num == o.num
	case Date:
		return v.date.Equal(o.date)
	default:
		return v.str == o.str
	}
}

// key returns a grouping key that distinguishes kinds. Null cells have no key.
func (v Value) key() (string, bool) {
	if !v.valid {
		return "", false
	}
	return strconv.Itoa(int(v.kind)) + "\x00" + v.String(), true
}

// Compare orders a before b. Nulls sort after every non-null value; mixed kinds order by kind.
func Compare(a, b Value) int {
	switch {
	case !a.valid && !b.valid:
		return 0
	case !a.valid:
		return 1
	case !b.valid:
		return -1
	case a.kind != b.kind:
		return int(a.kind) - int(b.kind)
	}

	switch a.kind {
	case Number:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case Date:
		return a.date.Compare(b.date)
	default:
		return strings.Compare(a.str, b.str)
	}
}

// Column is a named, typed column
type Column struct {
	Name string
	Type ColumnType
}

// Schema is an ordered list of columns
type Schema []Column

// Index returns the position of the named column or -1
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Table is a named, schema'd sequence of rows.
// Rows are never modified after construction; transforms return new tables.
type Table struct {
	Name    string
	Columns Schema
	Rows    [][]Value
}

// NewTable builds a table. Short rows are padded with nulls.
func NewTable(name string, columns []Column, rows [][]Value) *Table {
	width := len(columns)
	for i, row := range rows {
		if len(row) < width {
			padded := make([]Value, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return &Table{Name: name, Columns: Schema(columns), Rows: rows}
}

// Len returns the row count
func (t *Table) Len() int { return len(t.Rows) }

// Width returns the column count
func (t *Table) Width() int { return len(t.Columns) }

// Named returns a shallow copy carrying a different name
func (t *Table) Named(name string) *Table {
	return &Table{Name: name, Columns: t.Columns, Rows: t.Rows}
}

// ColumnIndex resolves a column name, failing with SCHEMA_MISMATCH when absent
func (t *Table) ColumnIndex(name string) (int, error) {
	idx := t.Columns.Index(name)
	if idx < 0 {
		return -1, apperrors.NewSchemaMismatchError(t.Name, fmt.Sprintf("missing column %q (have %s)", name, strings.Join(t.Columns.Names(), ", ")))
	}
	return idx, nil
}

// Require resolves a column and checks its declared type
func (t *Table) Require(name string, typ ColumnType) (int, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return -1, err
	}
	if t.Columns[idx].Type != typ {
		return -1, apperrors.NewSchemaMismatchError(t.Name, fmt.Sprintf("column %q is %s, want %s", name, t.Columns[idx].Type, typ))
	}
	return idx, nil
}

// Value returns the cell at row i of the named column, or null
func (t *Table) Value(i int, column string) Value {
	idx := t.Columns.Index(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Null()
	}
	return t.Rows[i][idx]
}

// Values returns a copy of one column's cells
func (t *Table) Values(column string) ([]Value, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Strings returns the textual rendering of one column
func (t *Table) Strings(column string) ([]string, error) {
	vals, err := t.Values(column)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out, nil
}

// withColumn returns a new table with one column appended
func (t *Table) withColumn(col Column, cells []Value) *Table {
	columns := make([]Column, 0, len(t.Columns)+1)
	columns = append(columns, t.Columns...)
	columns = append(columns, col)

	rows := make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]Value, 0, len(row)+1)
		out = append(out, row...)
		rows[i] = append(out, cells[i])
	}
	return &Table{Name: t.Name, Columns: columns, Rows: rows}
}

// replaceColumn returns a new table with column idx retyped and its cells replaced
func (t *Table) replaceColumn(idx int, typ ColumnType, cells []Value) *Table {
	columns := make([]Column, len(t.Columns))
	copy(columns, t.Columns)
	columns[idx].Type = typ

	rows := make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]Value, len(row))
		copy(out, row)
		out[idx] = cells[i]
		rows[i] = out
	}
	return &Table{Name: t.Name, Columns: columns, Rows: rows}
}
