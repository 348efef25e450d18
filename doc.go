// Package colgrid provides column-type transcoding for tabular data:
// serializing nested and opaque column values into transport-safe text,
// deserializing them back, and casting numeric columns between type
// systems across two table backends.
//
// # Architecture
//
// The core is layered leaf-first:
//
// 1. Type Classification Tables (pkg/coltypes): static partition of
// logical type tags into behavior classes. Pure data; everything else
// consults it.
//
// 2. Row Transcoder (pkg/transcode): per-row serialize/deserialize
// driven by the column-type table, plus the necessity predicates that
// let callers skip whole-table passes that would be no-ops.
//
// 3. Table Backends (pkg/table, pkg/arrowtab): a native columnar table
// and an Arrow-backed table, both satisfying the capability contract in
// pkg/backend: numeric column casting and row-wise apply.
//
// 4. Table Partitioner (pkg/partition): byte-budgeted contiguous
// sharding of a native table with an explicit two-phase deferred apply.
//
// # Quick Start
//
// Serialize the exotic columns of a table:
//
//	import (
//	    "github.com/colgrid/colgrid/pkg/coltypes"
//	    "github.com/colgrid/colgrid/pkg/table"
//	    "github.com/colgrid/colgrid/pkg/transcode"
//	)
//
//	columnTypes := coltypes.ColumnTypes{"meta": "dict", "id": "ObjectId"}
//	tbl, _ := table.FromRows([]string{"meta", "id"}, rows)
//	if transcode.ShouldSerialize(columnTypes) {
//	    out, err := tbl.ApplyRowFunction(func(row coltypes.Row) (coltypes.Row, error) {
//	        return transcode.SerializeRow(row, columnTypes)
//	    })
//	    // ...
//	}
//
// The colgrid CLI under cmd/colgrid drives the same path over JSONL
// input.
package colgrid
