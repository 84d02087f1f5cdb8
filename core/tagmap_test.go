package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagMap_Get(t *testing.T) {
	str := &StrSchema{}
	m := NewTagMap()
	m.Set("a", str)
	m.Set(1, str)

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Same(t, str, got)

	_, ok = m.Get(1.0)
	assert.True(t, ok)

	for _, tag := range []any{[]any{"a"}, map[string]any{"a": 1}, [1]any{[]any{}}} {
		_, ok := m.Get(tag)
		assert.False(t, ok, "%#v", tag)
	}
	assert.Equal(t, []any{"a", 1}, m.Tags())
}
