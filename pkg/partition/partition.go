// Package partition converts an in-memory table into a partitioned
// representation sized against a fixed byte budget, and provides the
// deferred row-wise apply over the partitions. Partitions are
// contiguous row-range shards; splitting preserves row order.
package partition

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/colgrid/colgrid/pkg/coltypes"
	"github.com/colgrid/colgrid/pkg/logger"
	"github.com/colgrid/colgrid/pkg/table"
)

// MaxPartitionByteSize is the byte budget per partition. It is part of
// the observable partitioning contract: callers may assert partition
// counts against it.
const MaxPartitionByteSize = 100 * 1024 * 1024

// PartitionedTable is a table split into contiguous row-range shards.
type PartitionedTable struct {
	columns []string
	parts   []*table.Table
}

// PartitionCount derives the number of partitions for a table of the
// given deep byte size. The 1+ offset means a table sized at an exact
// multiple of the budget gets one more partition than would fill it.
// This matches the established sizing behavior that downstream
// consumers already account for.
func PartitionCount(totalBytes int64) int {
	return 1 + int(totalBytes/MaxPartitionByteSize)
}

// FromTable builds a partitioned table from a single-machine table.
// The table is first held as one partition, its deep memory footprint
// is materialized (an eager, blocking walk over every value), and the
// result is repartitioned to the derived count.
func FromTable(t *table.Table) *PartitionedTable {
	pt := &PartitionedTable{
		columns: t.Columns(),
		parts:   []*table.Table{t},
	}

	totalBytes := t.MemoryUsage()
	logMemorySnapshot(totalBytes)

	pt.Repartition(PartitionCount(totalBytes))
	return pt
}

// Repartition splits the rows into n contiguous shards of near-equal
// size. Row order across shards is unchanged. n below 1 is treated
// as 1.
func (pt *PartitionedTable) Repartition(n int) {
	if n < 1 {
		n = 1
	}

	rows := pt.NumRows()
	merged := pt.Collect()

	parts := make([]*table.Table, 0, n)
	base := rows / n
	extra := rows % n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		parts = append(parts, merged.Slice(start, start+size))
		start += size
	}
	pt.parts = parts
}

// NumPartitions returns the partition count.
func (pt *PartitionedTable) NumPartitions() int {
	return len(pt.parts)
}

// NumRows returns the total row count across partitions.
func (pt *PartitionedTable) NumRows() int {
	total := 0
	for _, p := range pt.parts {
		total += p.NumRows()
	}
	return total
}

// Columns returns the column names in table order.
func (pt *PartitionedTable) Columns() []string {
	return append([]string(nil), pt.columns...)
}

// Partition returns shard i.
func (pt *PartitionedTable) Partition(i int) *table.Table {
	return pt.parts[i]
}

// Collect merges the shards back into a single table, in order.
func (pt *PartitionedTable) Collect() *table.Table {
	out := table.New(pt.columns)
	for _, p := range pt.parts {
		for i := 0; i < p.NumRows(); i++ {
			// Re-appending materialized rows into object columns
			// cannot fail.
			_ = out.AppendRow(p.Row(i))
		}
	}
	return out
}

// Plan is a deferred row-wise apply over a partitioned table. Building
// a plan does no work; Execute forces it to completion. The split keeps
// scheduling and cancellation in the caller's hands instead of hiding
// an implicit eager trigger.
type Plan struct {
	src *PartitionedTable
	fn  coltypes.RowFunc
}

// BuildPlan prepares a deferred apply of fn across every row of pt.
func BuildPlan(pt *PartitionedTable, fn coltypes.RowFunc) *Plan {
	return &Plan{src: pt, fn: fn}
}

// Execute forces the plan to completion, applying the row function to
// every row of every partition in order. The result has the same
// partition layout and row count as the source. Cancellation is checked
// between partitions; there is no internal timeout.
func (p *Plan) Execute(ctx context.Context) (*PartitionedTable, error) {
	parts := make([]*table.Table, 0, len(p.src.parts))
	for i, part := range p.src.parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		applied, err := part.ApplyRowFunction(p.fn)
		if err != nil {
			return nil, fmt.Errorf("partition %d: %w", i, err)
		}
		parts = append(parts, applied.(*table.Table))
	}

	return &PartitionedTable{
		columns: p.src.Columns(),
		parts:   parts,
	}, nil
}

// logMemorySnapshot records the materialized table size next to the
// process footprint, which is the number operators actually watch when
// a repartition starts thrashing.
func logMemorySnapshot(tableBytes int64) {
	fields := []zap.Field{zap.Int64("table_bytes", tableBytes)}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := proc.MemoryInfo(); err == nil {
			fields = append(fields, zap.Uint64("process_rss_bytes", mi.RSS))
		}
	}

	logger.Debug("materialized table size for partitioning", fields...)
}
