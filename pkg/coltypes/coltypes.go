// Package coltypes defines the logical column-type vocabulary shared by
// every transcoding component. A logical type tag is a string label
// describing a column's intended high-level type (e.g. "dict",
// "ObjectId", "Int64"), distinct from whatever native type a backend
// stores the column as.
//
// The tag sets below are fixed wire contracts: the exact spellings are
// relied on by callers that persist column-type tables alongside data.
// They are initialized once at load time and never mutated, so they are
// safe for unsynchronized concurrent reads.
package coltypes

// Row is one record of a table: a mapping from column name to value.
// Transcoding operations mutate rows in place and hand them back.
type Row = map[string]interface{}

// RowFunc transforms a single row. Implementations must return a row
// with the same columns unless they intend to reshape the table.
type RowFunc = func(Row) (Row, error)

// ColumnTypes maps a column name to its logical type tag. It is
// supplied by an external schema-inference collaborator and treated as
// read-only here. Tags not present in any classification set get
// identity pass-through everywhere.
type ColumnTypes map[string]string

// TagSet is an immutable set of logical type tags.
type TagSet map[string]struct{}

// Contains reports whether tag is a member of the set.
func (s TagSet) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

var (
	// JSONSerializable tags mark columns holding structured values
	// (nested mappings or sequences) that must be string-encoded for
	// storage and decoded back on read.
	JSONSerializable = TagSet{
		"dict": {},
		"list": {},
	}

	// StringSerializable tags mark columns holding opaque objects whose
	// string form is sufficient for storage. Deserialization is not
	// defined for this class: the original object type cannot be
	// reconstructed from its string form.
	StringSerializable = TagSet{
		"ObjectId": {},
	}

	// Ambiguous tags record columns for which automatic type inference
	// could not settle on a single concrete type. No transcoding
	// behavior is attached; the set exists as shared vocabulary for
	// consumers that handle such columns specially.
	Ambiguous = TagSet{
		"mixed-integer": {},
		"complex":       {},
		"unknown-array": {},
	}

	// CastType tags mark columns the native backend should force into a
	// specific numeric representation via its dtype-string mechanism.
	// The Arrow backend consults its own mapping (see pkg/arrowtab).
	CastType = TagSet{
		"Int64":   {},
		"int64":   {},
		"float64": {},
	}
)
