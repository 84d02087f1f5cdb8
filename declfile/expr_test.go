package declfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemagen/typeexpr"
)

func TestCompilePredicate(t *testing.T) {
	p, err := compilePredicate(`value.size >= 2 && value.size < 10`)
	require.NoError(t, err)
	assert.True(t, p.Func(map[string]any{"size": 3}))
	assert.False(t, p.Func(map[string]any{"size": 12}))
	assert.False(t, p.Func("not a mapping"))

	p, err = compilePredicate(`value > 0`)
	require.NoError(t, err)
	assert.True(t, p.Func(1.5))
	assert.False(t, p.Func(-1))

	_, err = compilePredicate(`value >`)
	assert.Error(t, err)
}

func TestDiscriminatorOf(t *testing.T) {
	d, err := discriminatorOf(DiscriminatorDecl{Field: "kind"})
	require.NoError(t, err)
	assert.Equal(t, "kind", d)

	d, err = discriminatorOf(DiscriminatorDecl{Expr: `value.meta.kind ?? "none"`})
	require.NoError(t, err)
	fn := d.(*typeexpr.Discriminator).Func
	assert.Equal(t, "cat", fn(map[string]any{"meta": map[string]any{"kind": "cat"}}))
	assert.Equal(t, "none", fn(map[string]any{"meta": map[string]any{}}))
	assert.Nil(t, fn(nil))

	_, err = discriminatorOf(DiscriminatorDecl{Field: "kind", Expr: "value.kind"})
	assert.Error(t, err)
}
