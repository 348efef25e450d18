// Package transcode converts column values between their in-memory
// backend representation and a transport-safe encoded form, driven by a
// caller-supplied column-type table. Serialization turns structured
// values into JSON text and opaque objects into their string form;
// deserialization reverses the JSON half. Opaque objects are
// one-directional: their original type cannot be rebuilt from a string.
package transcode

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/colgrid/colgrid/pkg/coltypes"
	"github.com/colgrid/colgrid/pkg/errors"
	"github.com/colgrid/colgrid/pkg/json"
)

// SerializeRow replaces, in place, every value whose column tag calls
// for transcoding. JSON-serializable columns become JSON text via the
// codec in pkg/json; string-serializable columns become their plain
// string form. Nil values and unclassified tags pass through untouched.
// The row is returned to allow use as a coltypes.RowFunc body.
func SerializeRow(row coltypes.Row, columnTypes coltypes.ColumnTypes) (coltypes.Row, error) {
	for column, columnType := range columnTypes {
		switch {
		case coltypes.JSONSerializable.Contains(columnType):
			val := row[column]
			if val == nil {
				continue
			}
			encoded, err := json.EncodeValue(val, nil)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeEncode, "failed to serialize column").
					WithDetail("column", column)
			}
			row[column] = encoded
		case coltypes.StringSerializable.Contains(columnType):
			val := row[column]
			if val == nil {
				continue
			}
			row[column] = stringify(val)
		}
	}
	return row, nil
}

// DeserializeRow decodes, in place, every JSON-serializable column back
// into its structured shape. A string value is JSON-decoded; a typed
// numeric slice under the "list" tag is widened to a generic sequence;
// anything else (already structured, or nil) is left unchanged. A
// malformed JSON string is a fatal error for the caller, not a silent
// fallback.
func DeserializeRow(row coltypes.Row, columnTypes coltypes.ColumnTypes) (coltypes.Row, error) {
	for column, columnType := range columnTypes {
		if !coltypes.JSONSerializable.Contains(columnType) {
			continue
		}

		val := row[column]
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok {
			decoded, err := json.DecodeValue(s)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to deserialize column").
					WithDetail("column", column)
			}
			row[column] = decoded
		} else if columnType == "list" {
			if seq, ok := toGenericSequence(val); ok {
				row[column] = seq
			}
		}
	}
	return row, nil
}

// ShouldSerialize reports whether SerializeRow would do any work at all
// for this column-type table. It scans only the tags, never the data,
// so callers can skip whole-table passes that would be no-ops. It is a
// performance guard only and never changes behavior.
func ShouldSerialize(columnTypes coltypes.ColumnTypes) bool {
	for _, columnType := range columnTypes {
		if coltypes.JSONSerializable.Contains(columnType) ||
			coltypes.StringSerializable.Contains(columnType) {
			return true
		}
	}
	return false
}

// ShouldDeserialize reports whether DeserializeRow would do any work
// for this column-type table.
func ShouldDeserialize(columnTypes coltypes.ColumnTypes) bool {
	for _, columnType := range columnTypes {
		if coltypes.JSONSerializable.Contains(columnType) {
			return true
		}
	}
	return false
}

// stringify renders an opaque object in its default string form.
func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case primitive.ObjectID:
		return x.Hex()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}

// toGenericSequence converts fixed-width numeric vectors (the shape
// array-valued columns arrive in from columnar backends) into a plain
// []interface{}. Non-slice values and []interface{} itself report false.
func toGenericSequence(v interface{}) ([]interface{}, bool) {
	if _, ok := v.([]interface{}); ok {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	switch rv.Type().Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
	default:
		return nil, false
	}

	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
