package arrowtab

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colgrid/colgrid/pkg/coltypes"
)

func sampleRows() []coltypes.Row {
	return []coltypes.Row{
		{"id": int64(1), "score": "1.5", "name": "a"},
		{"id": int64(2), "score": "2.5", "name": "b"},
		{"id": int64(3), "score": "3.5", "name": "c"},
	}
}

func TestFromRowsRoundTrip(t *testing.T) {
	tbl, err := FromRows([]string{"id", "score", "name"}, sampleRows())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"id", "score", "name"}, tbl.Columns())

	row := tbl.Row(1)
	assert.Equal(t, int64(2), row["id"])
	assert.Equal(t, "2.5", row["score"])
	assert.Equal(t, "b", row["name"])
}

func TestFromRowsNulls(t *testing.T) {
	tbl, err := FromRows([]string{"a"}, []coltypes.Row{{"a": int64(1)}, {"a": nil}})
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(1), tbl.Row(0)["a"])
	assert.Nil(t, tbl.Row(1)["a"])
}

func TestCastNumericColumns(t *testing.T) {
	tbl, err := FromRows([]string{"id", "score"}, sampleRows())
	require.NoError(t, err)
	defer tbl.Release()

	tbl.CastNumericColumns(coltypes.ColumnTypes{"score": "Float64"})

	assert.Equal(t, arrow.PrimitiveTypes.Float64, tbl.ColumnType("score"))
	assert.Equal(t, 2.5, tbl.Row(1)["score"])
}

func TestCastNumericColumnsOnlyArrowTags(t *testing.T) {
	tbl, err := FromRows([]string{"score"}, sampleRows())
	require.NoError(t, err)
	defer tbl.Release()

	// "float64" is the native backend's spelling, not this backend's
	tbl.CastNumericColumns(coltypes.ColumnTypes{"score": "float64"})
	assert.Equal(t, arrow.BinaryTypes.String, tbl.ColumnType("score"))
}

func TestCastNumericColumnsTolerantOfFailure(t *testing.T) {
	tbl, err := FromRows([]string{"bad", "good"}, []coltypes.Row{
		{"bad": "not-a-number", "good": "1"},
		{"bad": "nope", "good": "2"},
	})
	require.NoError(t, err)
	defer tbl.Release()

	// Must not panic; bad column keeps its prior type, good one casts
	tbl.CastNumericColumns(coltypes.ColumnTypes{"bad": "Int64", "good": "Int64"})

	assert.Equal(t, arrow.BinaryTypes.String, tbl.ColumnType("bad"))
	assert.Equal(t, arrow.PrimitiveTypes.Int64, tbl.ColumnType("good"))
	assert.Equal(t, "not-a-number", tbl.Row(0)["bad"])
	assert.Equal(t, int64(2), tbl.Row(1)["good"])
}

func TestApplyRowFunctionIdentity(t *testing.T) {
	tbl, err := FromRows([]string{"id", "score", "name"}, sampleRows())
	require.NoError(t, err)
	defer tbl.Release()

	out, err := tbl.ApplyRowFunction(func(row coltypes.Row) (coltypes.Row, error) {
		return row, nil
	})
	require.NoError(t, err)

	assert.Equal(t, tbl.NumRows(), out.NumRows())
	for i := 0; i < tbl.NumRows(); i++ {
		assert.Equal(t, tbl.Row(i), out.Row(i))
	}
}

func TestApplyRowFunctionTransform(t *testing.T) {
	tbl, err := FromRows([]string{"id"}, sampleRows())
	require.NoError(t, err)
	defer tbl.Release()

	out, err := tbl.ApplyRowFunction(func(row coltypes.Row) (coltypes.Row, error) {
		row["id"] = row["id"].(int64) * 10
		return row, nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), out.Row(0)["id"])
	assert.Equal(t, int64(20), out.Row(1)["id"])
	assert.Equal(t, int64(30), out.Row(2)["id"])
}
