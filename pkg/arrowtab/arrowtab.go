// Package arrowtab provides the Arrow-backed table, the alternate
// backend behind the capability contract in pkg/backend. Unlike the
// native backend it stores data in Arrow arrays and casts through
// explicit Arrow type objects rather than dtype strings.
package arrowtab

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/colgrid/colgrid/pkg/backend"
	"github.com/colgrid/colgrid/pkg/coltypes"
	"github.com/colgrid/colgrid/pkg/logger"
)

// CastTypes is this backend's numeric-castable mapping: tag spelling to
// the concrete Arrow type the column is forced into. Only these two
// tags are castable here; the native backend's set does not apply.
var CastTypes = map[string]arrow.DataType{
	"Float64": arrow.PrimitiveTypes.Float64,
	"Int64":   arrow.PrimitiveTypes.Int64,
}

// Table is an Arrow record batch with row-wise accessors.
type Table struct {
	rec   arrow.Record
	alloc memory.Allocator
}

var _ backend.Backend = (*Table)(nil)

// FromRows builds an Arrow table from materialized rows. Column types
// are inferred from the first non-nil value of each column; supported
// value kinds are integers, floats, booleans and strings (which is the
// shape rows have after transcoding).
func FromRows(columns []string, rows []coltypes.Row) (*Table, error) {
	alloc := memory.NewGoAllocator()

	fields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		fields[i] = arrow.Field{Name: name, Type: inferArrowType(name, rows), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	bldr := array.NewRecordBuilder(alloc, schema)
	defer bldr.Release()

	for _, row := range rows {
		for i, name := range columns {
			if err := appendValue(bldr.Field(i), row[name]); err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
		}
	}

	return &Table{rec: bldr.NewRecord(), alloc: alloc}, nil
}

// Release frees the underlying Arrow buffers.
func (t *Table) Release() {
	if t.rec != nil {
		t.rec.Release()
		t.rec = nil
	}
}

// Columns returns the column names in schema order.
func (t *Table) Columns() []string {
	fields := t.rec.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return int(t.rec.NumRows())
}

// ColumnType returns the Arrow type of a column, or nil if absent.
func (t *Table) ColumnType(name string) arrow.DataType {
	for i, f := range t.rec.Schema().Fields() {
		if f.Name == name {
			return t.rec.Column(i).DataType()
		}
	}
	return nil
}

// Row materializes row i as a column-to-value mapping.
func (t *Table) Row(i int) coltypes.Row {
	row := make(coltypes.Row, int(t.rec.NumCols()))
	for j, f := range t.rec.Schema().Fields() {
		row[f.Name] = valueAt(t.rec.Column(j), i)
	}
	return row
}

// Rows materializes every row in order.
func (t *Table) Rows() []coltypes.Row {
	rows := make([]coltypes.Row, t.NumRows())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// CastNumericColumns casts every column whose tag appears in CastTypes
// to its explicit Arrow type. A per-column failure is logged and
// skipped; the column keeps its prior type.
func (t *Table) CastNumericColumns(columnTypes coltypes.ColumnTypes) {
	for column, columnType := range columnTypes {
		target, ok := CastTypes[columnType]
		if !ok {
			continue
		}
		if err := t.castColumn(column, target); err != nil {
			logger.Warn("column cast failed",
				zap.String("column", column),
				zap.String("arrow_type", target.String()),
				zap.Error(err))
		}
	}
}

// ApplyRowFunction applies fn to every row, in order, and returns a new
// table with the same row count.
func (t *Table) ApplyRowFunction(fn coltypes.RowFunc) (backend.Backend, error) {
	columns := t.Columns()
	rows := make([]coltypes.Row, t.NumRows())
	for i := range rows {
		row, err := fn(t.Row(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = row
	}
	return FromRows(columns, rows)
}

// castColumn rebuilds one column's array in the target type and swaps
// it into a new record. The new array is built in full before the swap,
// so a failed cast leaves the table untouched.
func (t *Table) castColumn(name string, target arrow.DataType) error {
	schema := t.rec.Schema()
	idx := -1
	for i, f := range schema.Fields() {
		if f.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("column %q does not exist", name)
	}

	old := t.rec.Column(idx)
	casted, err := buildCasted(t.alloc, old, target)
	if err != nil {
		return err
	}

	fields := make([]arrow.Field, len(schema.Fields()))
	copy(fields, schema.Fields())
	fields[idx] = arrow.Field{Name: name, Type: target, Nullable: true}

	cols := make([]arrow.Array, t.rec.NumCols())
	for j := range cols {
		cols[j] = t.rec.Column(j)
	}
	cols[idx] = casted

	t.rec = array.NewRecord(arrow.NewSchema(fields, nil), cols, t.rec.NumRows())
	return nil
}

func buildCasted(alloc memory.Allocator, src arrow.Array, target arrow.DataType) (arrow.Array, error) {
	switch target.ID() {
	case arrow.INT64:
		b := array.NewInt64Builder(alloc)
		defer b.Release()
		for i := 0; i < src.Len(); i++ {
			v := valueAt(src, i)
			if v == nil {
				b.AppendNull()
				continue
			}
			iv, err := toInt64(v)
			if err != nil {
				return nil, err
			}
			b.Append(iv)
		}
		return b.NewArray(), nil
	case arrow.FLOAT64:
		b := array.NewFloat64Builder(alloc)
		defer b.Release()
		for i := 0; i < src.Len(); i++ {
			v := valueAt(src, i)
			if v == nil {
				b.AppendNull()
				continue
			}
			fv, err := toFloat64(v)
			if err != nil {
				return nil, err
			}
			b.Append(fv)
		}
		return b.NewArray(), nil
	}
	return nil, fmt.Errorf("unsupported cast target %s", target)
}

// inferArrowType picks a column type from the first non-nil value.
// Columns with no values at all default to string.
func inferArrowType(name string, rows []coltypes.Row) arrow.DataType {
	for _, row := range rows {
		switch row[name].(type) {
		case nil:
			continue
		case int, int32, int64:
			return arrow.PrimitiveTypes.Int64
		case float32, float64, json.Number:
			return arrow.PrimitiveTypes.Float64
		case bool:
			return arrow.FixedWidthTypes.Boolean
		default:
			return arrow.BinaryTypes.String
		}
	}
	return arrow.BinaryTypes.String
}

func appendValue(b array.Builder, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch bldr := b.(type) {
	case *array.Int64Builder:
		iv, err := toInt64(v)
		if err != nil {
			return err
		}
		bldr.Append(iv)
	case *array.Float64Builder:
		fv, err := toFloat64(v)
		if err != nil {
			return err
		}
		bldr.Append(fv)
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		bldr.Append(bv)
	case *array.StringBuilder:
		sv, ok := v.(string)
		if !ok {
			sv = fmt.Sprintf("%v", v)
		}
		bldr.Append(sv)
	default:
		return fmt.Errorf("unsupported builder type %T", b)
	}
	return nil
}

func valueAt(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	}
	return nil
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Trunc(v) != v {
			return 0, fmt.Errorf("cannot cast non-integral float %v to int64", v)
		}
		return int64(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		return 0, fmt.Errorf("cannot parse %q as int64", string(v))
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as int64: %w", v, err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("cannot cast %T to int64", value)
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as float64", string(v))
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as float64: %w", v, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot cast %T to float64", value)
}
