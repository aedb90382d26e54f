package dataprocessing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "avdeck/internal/errors"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), ""},
		{"string", Str("EGLL"), "EGLL"},
		{"integer number", Num(1234), "1234"},
		{"fraction", Num(12345.5), "12345.5"},
		{"date", Day(time.Date(2019, 7, 5, 13, 0, 0, 0, time.UTC)), "2019-07-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestValue_NaNIsNull(t *testing.T) {
	assert.True(t, Num(math.NaN()).IsNull())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Str("a").Equal(Str("a")))
	assert.False(t, Str("1").Equal(Num(1)))
	assert.False(t, Null().Equal(Null()))
	assert.True(t, Day(day("2019-01-01")).Equal(ValueOf(day("2019-01-01"))))
}

func TestCompare_NullsLast(t *testing.T) {
	assert.Equal(t, -1, Compare(Num(1), Null()))
	assert.Equal(t, 1, Compare(Null(), Num(1)))
	assert.Equal(t, 0, Compare(Null(), Null()))
	assert.Less(t, Compare(Num(1), Num(2)), 0)
	assert.Less(t, Compare(Str("a"), Str("b")), 0)
	assert.Greater(t, Compare(Day(day("2019-02-01")), Day(day("2019-01-01"))), 0)
}

func TestNewTable_PadsShortRows(t *testing.T) {
	tbl := mkTable("t", []Column{{"a", String}, {"b", String}}, []interface{}{"x"})
	assert.Len(t, tbl.Rows[0], 2)
	assert.True(t, tbl.Rows[0][1].IsNull())
}

func TestTable_RequireChecksType(t *testing.T) {
	tbl := mkTable("t", []Column{{"a", String}})

	_, err := tbl.Require("a", Number)
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)

	_, err = tbl.ColumnIndex("missing")
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)

	assert.True(t, tbl.Value(5, "a").IsNull())
}
