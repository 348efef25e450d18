package coltypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagSetContains(t *testing.T) {
	assert.True(t, JSONSerializable.Contains("dict"))
	assert.True(t, JSONSerializable.Contains("list"))
	assert.False(t, JSONSerializable.Contains("ObjectId"))

	assert.True(t, StringSerializable.Contains("ObjectId"))
	assert.False(t, StringSerializable.Contains("dict"))

	assert.True(t, Ambiguous.Contains("mixed-integer"))
	assert.True(t, Ambiguous.Contains("complex"))
	assert.True(t, Ambiguous.Contains("unknown-array"))

	assert.True(t, CastType.Contains("Int64"))
	assert.True(t, CastType.Contains("int64"))
	assert.True(t, CastType.Contains("float64"))
	assert.False(t, CastType.Contains("Float64"))
}

func TestTagSetsAreDisjoint(t *testing.T) {
	sets := []TagSet{JSONSerializable, StringSerializable, Ambiguous, CastType}
	seen := map[string]int{}
	for _, s := range sets {
		for tag := range s {
			seen[tag]++
		}
	}
	for tag, n := range seen {
		assert.Equalf(t, 1, n, "tag %q appears in %d classification sets", tag, n)
	}
}

func TestUnknownTagIsNowhere(t *testing.T) {
	for _, s := range []TagSet{JSONSerializable, StringSerializable, Ambiguous, CastType} {
		assert.False(t, s.Contains("str"))
		assert.False(t, s.Contains(""))
	}
}
