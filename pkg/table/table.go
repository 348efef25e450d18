package table

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/colgrid/colgrid/pkg/backend"
	"github.com/colgrid/colgrid/pkg/coltypes"
	"github.com/colgrid/colgrid/pkg/logger"
)

// Table is the native single-machine backend: an ordered set of named
// column vectors. A Table is owned by a single caller for the duration
// of each operation; there is no internal locking.
type Table struct {
	columnOrder []string
	columns     map[string]Column
	rowCount    int
}

var _ backend.Backend = (*Table)(nil)

// New creates an empty table with the given columns, all typed as
// object until a cast re-types them.
func New(columns []string) *Table {
	t := &Table{
		columnOrder: append([]string(nil), columns...),
		columns:     make(map[string]Column, len(columns)),
	}
	for _, name := range columns {
		t.columns[name] = NewObjectColumn()
	}
	return t
}

// FromRows builds a table from materialized rows. Missing cells are
// stored as nulls.
func FromRows(columns []string, rows []coltypes.Row) (*Table, error) {
	t := New(columns)
	for _, row := range rows {
		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columnOrder...)
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int {
	return t.rowCount
}

// Dtype returns the dtype string of a column, or "" if absent.
func (t *Table) Dtype(column string) string {
	col, ok := t.columns[column]
	if !ok {
		return ""
	}
	return col.Dtype()
}

// AppendRow adds one row; columns missing from the row get nulls.
func (t *Table) AppendRow(row coltypes.Row) error {
	for _, name := range t.columnOrder {
		if err := t.columns[name].Append(row[name]); err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
	}
	t.rowCount++
	return nil
}

// Row materializes row i as a column-to-value mapping.
func (t *Table) Row(i int) coltypes.Row {
	row := make(coltypes.Row, len(t.columnOrder))
	for _, name := range t.columnOrder {
		row[name] = t.columns[name].Get(i)
	}
	return row
}

// Rows materializes every row in order.
func (t *Table) Rows() []coltypes.Row {
	rows := make([]coltypes.Row, t.rowCount)
	for i := 0; i < t.rowCount; i++ {
		rows[i] = t.Row(i)
	}
	return rows
}

// MemoryUsage returns the deep byte footprint of the whole table. This
// walks every value of every column, so it is an eager, blocking
// computation.
func (t *Table) MemoryUsage() int64 {
	var total int64
	for _, name := range t.columnOrder {
		total += t.columns[name].MemoryUsage()
	}
	return total
}

// Slice returns a new table holding rows [start, end).
func (t *Table) Slice(start, end int) *Table {
	out := New(t.columnOrder)
	for i := start; i < end; i++ {
		// Rows coming out of an existing table always re-append cleanly
		// into object columns.
		_ = out.AppendRow(t.Row(i))
	}
	return out
}

// Cast re-types a single column through the dtype-string mechanism.
// The new column is built in full before it replaces the old one, so a
// failed cast leaves the table untouched.
func (t *Table) Cast(column, dtype string) error {
	old, ok := t.columns[column]
	if !ok {
		return fmt.Errorf("column %q does not exist", column)
	}

	var target Column
	switch dtype {
	case "Int64":
		target = NewInt64Column(true)
	case "int64":
		target = NewInt64Column(false)
	case "float64":
		target = NewFloat64Column()
	default:
		return fmt.Errorf("unsupported dtype %q", dtype)
	}

	for i := 0; i < old.Len(); i++ {
		if err := target.Append(old.Get(i)); err != nil {
			return fmt.Errorf("cast column %q to %s: %w", column, dtype, err)
		}
	}

	t.columns[column] = target
	return nil
}

// CastNumericColumns casts every column whose tag is in the native
// castable set. A per-column failure is logged and skipped; the rest of
// the columns still cast and the table remains usable.
func (t *Table) CastNumericColumns(columnTypes coltypes.ColumnTypes) {
	for column, columnType := range columnTypes {
		if !coltypes.CastType.Contains(columnType) {
			continue
		}
		if err := t.Cast(column, columnType); err != nil {
			logger.Warn("column cast failed",
				zap.String("column", column),
				zap.String("dtype", columnType),
				zap.Error(err))
		}
	}
}

// ApplyRowFunction applies fn to every row, in order, and returns a new
// table with the same columns and row count. No row is skipped:
// downstream code assumes row-for-row correspondence with the input.
func (t *Table) ApplyRowFunction(fn coltypes.RowFunc) (backend.Backend, error) {
	out := New(t.columnOrder)
	for i := 0; i < t.rowCount; i++ {
		row, err := fn(t.Row(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := out.AppendRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}
