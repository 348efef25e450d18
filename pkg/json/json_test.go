package json

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/colgrid/colgrid/pkg/errors"
)

func TestEncodeValueBasicTypes(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"string", "hello", `"hello"`},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"list", []interface{}{1, "two", nil}, `[1,"two",null]`},
		{"nested map", map[string]interface{}{"a": 1, "b": []interface{}{2, 3}}, `{"a":1,"b":[2,3]}`},
		{"typed slice", []float64{1, 2.5}, "[1,2.5]"},
		{"number verbatim", json.Number("0.1000000000000000000000000001"), "0.1000000000000000000000000001"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeValue(tc.in, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeValueMapKeysSorted(t *testing.T) {
	got, err := EncodeValue(map[string]interface{}{"z": 1, "a": 2, "m": 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"m":3,"z":1}`, got)
}

func TestEncodeValueNaNPassthrough(t *testing.T) {
	got, err := EncodeValue(map[string]interface{}{"x": math.NaN()}, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"x":null}`, got)

	got, err = EncodeValue([]interface{}{math.Inf(1), math.Inf(-1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[null,null]", got)
}

func TestEncodeValueFallback(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := EncodeValue(map[string]interface{}{"id": oid}, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"`+oid.Hex()+`"}`, got)
}

func TestEncodeValueFallbackError(t *testing.T) {
	_, err := EncodeValue(map[string]interface{}{"ch": make(chan int)}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEncode))
}

func TestDecodeValueRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"name":  "row",
		"count": json.Number("3"),
		"tags":  []interface{}{json.Number("1"), json.Number("2")},
	}
	encoded, err := EncodeValue(in, nil)
	require.NoError(t, err)

	decoded, err := DecodeValue(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, decoded)
}

func TestDecodeValuePreservesPrecision(t *testing.T) {
	const long = "0.123456789012345678901234567890"
	decoded, err := DecodeValue(long)
	require.NoError(t, err)
	assert.Equal(t, json.Number(long), decoded)
}

func TestDecodeValueToleratesNaNLiteral(t *testing.T) {
	decoded, err := DecodeValue(`{"x": NaN, "s": "NaN"}`)
	require.NoError(t, err)

	m, ok := decoded.(map[string]interface{})
	require.True(t, ok)

	f, ok := m["x"].(float64)
	require.True(t, ok)
	assert.True(t, math.IsNaN(f))
	// NaN inside a string literal is data, not a token
	assert.Equal(t, "NaN", m["s"])
}

func TestDecodeValueMalformed(t *testing.T) {
	_, err := DecodeValue(`{"unterminated`)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDecode))
}
