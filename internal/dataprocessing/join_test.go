package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "avdeck/internal/errors"
)

func airportsTable() *Table {
	return mkTable("airports",
		[]Column{{"icao", String}, {"flights", Number}},
		[]interface{}{"EGLL", 10},
		[]interface{}{"LFPG", 20},
		[]interface{}{"EDDF", 30},
		[]interface{}{nil, 40},
		[]interface{}{"EHAM", 50},
	)
}

func coordsTable() *Table {
	return mkTable("coords",
		[]Column{{"icao", String}, {"lat", Number}, {"flights", Number}},
		[]interface{}{"LFPG", 49.0, 1},
		[]interface{}{"EGLL", 51.5, 2},
		[]interface{}{"KJFK", 40.6, 3},
	)
}

func TestLeftJoin_KeepsEveryLeftRow(t *testing.T) {
	out, err := LeftJoin(airportsTable(), coordsTable(), JoinSpec{LeftKey: "icao", RightKey: "icao", Columns: []string{"lat"}})
	require.NoError(t, err)

	assert.Equal(t, 5, out.Len())
	assert.Equal(t, []string{"icao", "flights", "lat"}, out.Columns.Names())
	assert.Equal(t, []string{"EGLL", "LFPG", "EDDF", "", "EHAM"}, column(t, out, "icao"))
	assert.Equal(t, []string{"51.5", "49", "", "", ""}, column(t, out, "lat"))
}

func TestLeftJoin_ClashingNamesAndDefaultColumns(t *testing.T) {
	out, err := LeftJoin(airportsTable(), coordsTable(), JoinSpec{LeftKey: "icao", RightKey: "icao"})
	require.NoError(t, err)

	assert.Equal(t, []string{"icao", "flights", "lat", "flights_right"}, out.Columns.Names())
	assert.Equal(t, []string{"2", "1", "", "", ""}, column(t, out, "flights_right"))
}

func TestLeftJoin_SuffixesUntilUnique(t *testing.T) {
	left := mkTable("left", []Column{{"k", String}, {"x", Number}, {"x_right", Number}, {"x_right_2", Number}},
		[]interface{}{"a", 1.0, 2.0, 3.0},
	)
	right := mkTable("right", []Column{{"k", String}, {"x", Number}, {"x_right", Number}},
		[]interface{}{"a", 10.0, 20.0},
	)

	out, err := LeftJoin(left, right, JoinSpec{LeftKey: "k", RightKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, []string{"k", "x", "x_right", "x_right_2", "x_right_3", "x_right_right"}, out.Columns.Names())
	assert.Equal(t, []string{"10"}, column(t, out, "x_right_3"))
	assert.Equal(t, []string{"20"}, column(t, out, "x_right_right"))

	_, err = Select(out, Col("x_right_3", "airport_x"))
	assert.NoError(t, err)
}

func TestLeftJoin_FansOutDuplicateRightKeys(t *testing.T) {
	right := mkTable("ansp", []Column{{"country", String}, {"ansp", String}},
		[]interface{}{"Germany", "DFS"},
		[]interface{}{"Germany", "DFS Aviation"},
		[]interface{}{"France", "DSNA"},
	)
	left := mkTable("traffic", []Column{{"country", String}, {"flights", Number}},
		[]interface{}{"Germany", 1},
		[]interface{}{"France", 2},
	)

	out, err := LeftJoin(left, right, JoinSpec{LeftKey: "country", RightKey: "country"})
	require.NoError(t, err)

	assert.Equal(t, []string{"DFS", "DFS Aviation", "DSNA"}, column(t, out, "ansp"))
	assert.Equal(t, []string{"1", "1", "2"}, column(t, out, "flights"))
}

func TestLeftJoin_Errors(t *testing.T) {
	_, err := LeftJoin(airportsTable(), coordsTable(), JoinSpec{LeftKey: "missing", RightKey: "icao"})
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)

	_, err = LeftJoin(airportsTable(), coordsTable(), JoinSpec{LeftKey: "icao", RightKey: "lat"})
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)

	_, err = LeftJoin(airportsTable(), coordsTable(), JoinSpec{LeftKey: "icao", RightKey: "icao", Columns: []string{"lon"}})
	requireErrType(t, err, apperrors.ErrTypeSchemaMismatch)
}
