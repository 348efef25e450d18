package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type opaqueHandle struct {
	Ch chan int
}

func TestIsYAMLSerializable(t *testing.T) {
	assert.True(t, IsYAMLSerializable("k", 42))
	assert.True(t, IsYAMLSerializable("k", "hello"))
	assert.True(t, IsYAMLSerializable("k", []int{1, 2, 3}))
	assert.True(t, IsYAMLSerializable("k", map[string]interface{}{"nested": true}))
	assert.True(t, IsYAMLSerializable("k", nil))
}

func TestIsYAMLSerializableRejectsOpaqueValues(t *testing.T) {
	assert.False(t, IsYAMLSerializable("k", make(chan int)))
	assert.False(t, IsYAMLSerializable("k", func() {}))
	assert.False(t, IsYAMLSerializable("k", opaqueHandle{Ch: make(chan int)}))
}
