// Package backend defines the capability contract shared by colgrid's
// tabular backends. Both the native columnar table and the Arrow table
// satisfy it, so code that casts numeric columns or applies a row
// function can be written once against the interface. Callers select
// the implementation by the concrete type of the table they hold; there
// is no runtime type sniffing inside the operations themselves.
package backend

import "github.com/colgrid/colgrid/pkg/coltypes"

// Backend is the set of operations every table implementation provides.
type Backend interface {
	// Columns returns the column names in table order.
	Columns() []string

	// NumRows returns the number of rows in the table.
	NumRows() int

	// Row materializes row i as a column-to-value mapping.
	Row(i int) coltypes.Row

	// CastNumericColumns re-types every column whose tag is castable
	// under this backend's mapping. A per-column cast failure is
	// logged and skipped; the table stays usable with that column in
	// its prior type.
	CastNumericColumns(columnTypes coltypes.ColumnTypes)

	// ApplyRowFunction applies fn to every row, in order, and returns
	// a new table with the same row count.
	ApplyRowFunction(fn coltypes.RowFunc) (Backend, error)
}
