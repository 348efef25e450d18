package partition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colgrid/colgrid/pkg/coltypes"
	"github.com/colgrid/colgrid/pkg/table"
)

func TestPartitionCount(t *testing.T) {
	assert.Equal(t, 1, PartitionCount(0))
	assert.Equal(t, 1, PartitionCount(1))
	assert.Equal(t, 1, PartitionCount(MaxPartitionByteSize-1))
	// The 1+ offset applies at exact multiples: a table that fits the
	// budget exactly still gets an extra partition
	assert.Equal(t, 2, PartitionCount(MaxPartitionByteSize))
	assert.Equal(t, 2, PartitionCount(MaxPartitionByteSize+1))
	assert.Equal(t, 3, PartitionCount(2*MaxPartitionByteSize))
}

func TestFromTableEmpty(t *testing.T) {
	pt := FromTable(table.New([]string{"a"}))
	assert.Equal(t, 1, pt.NumPartitions())
	assert.Equal(t, 0, pt.NumRows())
}

func TestFromTableSmall(t *testing.T) {
	tbl, err := table.FromRows([]string{"a"}, []coltypes.Row{
		{"a": "x"}, {"a": "y"}, {"a": "z"}, {"a": "w"},
	})
	require.NoError(t, err)

	pt := FromTable(tbl)
	// Well under the byte budget: single partition
	assert.Equal(t, 1, pt.NumPartitions())
	assert.Equal(t, 4, pt.NumRows())
}

func TestRepartitionPreservesRowOrder(t *testing.T) {
	rows := make([]coltypes.Row, 10)
	for i := range rows {
		rows[i] = coltypes.Row{"n": i}
	}
	tbl, err := table.FromRows([]string{"n"}, rows)
	require.NoError(t, err)

	pt := &PartitionedTable{columns: tbl.Columns(), parts: []*table.Table{tbl}}
	pt.Repartition(3)

	assert.Equal(t, 3, pt.NumPartitions())
	assert.Equal(t, 10, pt.NumRows())

	collected := pt.Collect()
	for i := 0; i < 10; i++ {
		assert.Equal(t, i, collected.Row(i)["n"])
	}
}

func TestRepartitionMorePartitionsThanRows(t *testing.T) {
	tbl, err := table.FromRows([]string{"n"}, []coltypes.Row{{"n": 1}})
	require.NoError(t, err)

	pt := &PartitionedTable{columns: tbl.Columns(), parts: []*table.Table{tbl}}
	pt.Repartition(4)

	assert.Equal(t, 4, pt.NumPartitions())
	assert.Equal(t, 1, pt.NumRows())
}

func TestPlanExecuteIdentity(t *testing.T) {
	rows := make([]coltypes.Row, 6)
	for i := range rows {
		rows[i] = coltypes.Row{"n": i}
	}
	tbl, err := table.FromRows([]string{"n"}, rows)
	require.NoError(t, err)
	pt := FromTable(tbl)

	plan := BuildPlan(pt, func(row coltypes.Row) (coltypes.Row, error) {
		return row, nil
	})
	out, err := plan.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pt.NumPartitions(), out.NumPartitions())
	assert.Equal(t, pt.NumRows(), out.NumRows())
	collected := out.Collect()
	for i := 0; i < 6; i++ {
		assert.Equal(t, i, collected.Row(i)["n"])
	}
}

func TestPlanExecuteTransform(t *testing.T) {
	tbl, err := table.FromRows([]string{"n"}, []coltypes.Row{{"n": 1}, {"n": 2}})
	require.NoError(t, err)
	pt := FromTable(tbl)

	plan := BuildPlan(pt, func(row coltypes.Row) (coltypes.Row, error) {
		row["n"] = row["n"].(int) + 100
		return row, nil
	})
	out, err := plan.Execute(context.Background())
	require.NoError(t, err)

	collected := out.Collect()
	assert.Equal(t, 101, collected.Row(0)["n"])
	assert.Equal(t, 102, collected.Row(1)["n"])
}

func TestPlanExecuteCancelled(t *testing.T) {
	tbl, err := table.FromRows([]string{"n"}, []coltypes.Row{{"n": 1}})
	require.NoError(t, err)
	pt := FromTable(tbl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = BuildPlan(pt, func(row coltypes.Row) (coltypes.Row, error) {
		return row, nil
	}).Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildPlanIsLazy(t *testing.T) {
	tbl, err := table.FromRows([]string{"n"}, []coltypes.Row{{"n": 1}})
	require.NoError(t, err)
	pt := FromTable(tbl)

	calls := 0
	BuildPlan(pt, func(row coltypes.Row) (coltypes.Row, error) {
		calls++
		return row, nil
	})
	assert.Equal(t, 0, calls)
}
