// Package json provides the transport codec for JSON-serializable
// column values. It wraps goccy/go-json and layers on the three rules
// the transcoding contract needs beyond plain JSON:
//
//   - NaN passthrough: encoding a value containing NaN or ±Inf never
//     fails; such floats are emitted as null. The decoder additionally
//     tolerates a bare NaN literal in its input and yields math.NaN().
//   - precision preservation: numbers decode to json.Number and a
//     json.Number encodes verbatim, so high-precision decimals survive
//     a round trip without passing through float64.
//   - a pluggable fallback encoder for object types no universal
//     encoder understands (identifier objects, timestamps, ...).
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/colgrid/colgrid/pkg/errors"
)

// Fallback converts a value the encoder has no rule for into one it
// can encode. Returning an error aborts the whole encode.
type Fallback func(v interface{}) (interface{}, error)

// DefaultFallback handles the opaque object types colgrid meets in
// practice: BSON ObjectIDs, timestamps, and anything with a String
// method.
func DefaultFallback(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex(), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return nil, errors.New(errors.ErrorTypeEncode, "no encoding rule for value").
		WithDetail("go_type", fmt.Sprintf("%T", v))
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// EncodeValue encodes a single column value into its transport string
// form using the codec rules above. fallback may be nil, in which case
// DefaultFallback is used.
func EncodeValue(v interface{}, fallback Fallback) (string, error) {
	if fallback == nil {
		fallback = DefaultFallback
	}

	buf := getBuffer()
	defer putBuffer(buf)

	if err := encodeTo(buf, v, fallback); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func encodeTo(buf *bytes.Buffer, v interface{}, fallback Fallback) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case string:
		return writeString(buf, x)
	case json.Number:
		// Verbatim: the whole point is not to route decimals
		// through float64.
		buf.WriteString(string(x))
	case int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(x, 10))
	case float32:
		return writeFloat(buf, float64(x))
	case float64:
		return writeFloat(buf, x)
	case map[string]interface{}:
		return writeMap(buf, x, fallback)
	case []interface{}:
		buf.WriteByte('[')
		for i, elem := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeTo(buf, elem, fallback); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return encodeReflect(buf, v, fallback)
	}
	return nil
}

// writeFloat emits NaN and ±Inf as null instead of failing; JSON has
// no representation for them and the transcoder must not raise on them.
func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		buf.WriteString("null")
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	data, err := gojson.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeEncode, "failed to encode string")
	}
	buf.Write(data)
	return nil
}

// writeMap emits keys in sorted order so the same value always
// produces the same bytes.
func writeMap(buf *bytes.Buffer, m map[string]interface{}, fallback Fallback) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeTo(buf, m[k], fallback); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// encodeReflect handles typed slices, maps and pointers, then hands
// anything left over to the fallback.
func encodeReflect(buf *bytes.Buffer, v interface{}, fallback Fallback) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encodeTo(buf, rv.Elem().Interface(), fallback)
	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeTo(buf, rv.Index(i).Interface(), fallback); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return writeMap(buf, m, fallback)
	}

	substitute, err := fallback(v)
	if err != nil {
		return err
	}
	return encodeTo(buf, substitute, fallback)
}

// nanMarker is what a bare NaN literal is rewritten to before decoding;
// the NUL bytes keep it from colliding with real string data.
const nanMarker = "\x00NaN\x00"

// DecodeValue decodes the transport string form back into its
// structured shape. Numbers come back as json.Number; a bare NaN
// literal comes back as math.NaN().
func DecodeValue(s string) (interface{}, error) {
	dec := gojson.NewDecoder(bytes.NewReader(rewriteNaNLiterals([]byte(s))))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "malformed column value")
	}
	return restoreNaN(v), nil
}

// rewriteNaNLiterals replaces every NaN token outside string literals
// with a marker string the decoder will accept.
func rewriteNaNLiterals(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == 'N' && i+2 < len(data) && data[i+1] == 'a' && data[i+2] == 'N' {
			out = append(out, "\"\\u0000NaN\\u0000\""...)
			i += 2
			continue
		}
		out = append(out, c)
	}
	return out
}

func restoreNaN(v interface{}) interface{} {
	switch x := v.(type) {
	case string:
		if x == nanMarker {
			return math.NaN()
		}
	case map[string]interface{}:
		for k, elem := range x {
			x[k] = restoreNaN(elem)
		}
	case []interface{}:
		for i, elem := range x {
			x[i] = restoreNaN(elem)
		}
	}
	return v
}
