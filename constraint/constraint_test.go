package constraint

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemagen/core"
)

func TestCollect_ExpandsAndOverrides(t *testing.T) {
	hi := 5
	kvs, other := Collect([]any{Interval{Ge: 1, Lt: 10}, Len{Min: 2, Max: &hi}, "doc", Ge{3}})
	assert.Equal(t, []KV{
		{KeyGe, 3},
		{KeyLt, 10},
		{KeyMinLength, 2},
		{KeyMaxLength, 5},
	}, kvs)
	assert.Equal(t, []any{"doc"}, other)
}

func TestApply_NativeConstraint(t *testing.T) {
	in := &core.IntSchema{}
	out, ok, err := Apply(Gt{0}, in)
	require.NoError(t, err)
	require.True(t, ok)
	is := out.(*core.IntSchema)
	require.NotNil(t, is.Gt)
	assert.Equal(t, int64(0), *is.Gt)
	assert.Nil(t, in.Gt, "input must not be mutated")
}

func TestApply_FallsBackToAfterValidator(t *testing.T) {
	out, ok, err := Apply(MinLen{2}, &core.AnySchema{})
	require.NoError(t, err)
	require.True(t, ok)
	fa, isAfter := out.(*core.FunctionAfterSchema)
	require.True(t, isAfter, "got %T", out)
	assert.IsType(t, &core.AnySchema{}, fa.Schema)
	assert.Len(t, fa.Metadata.JSFunctions(), 1)

	fn := fa.Function.Function.(func(any) (any, error))
	_, err = fn("a")
	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, CodeTooShort, v.Code)
	got, err := fn("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestApply_FloatBoundOnIntUsesValidator(t *testing.T) {
	out, ok, err := Apply(Gt{1.5}, &core.IntSchema{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.IsType(t, &core.FunctionAfterSchema{}, out)
}

func TestApply_PatternBecomesChain(t *testing.T) {
	out, ok, err := Apply(Pattern{`^a`}, &core.AnySchema{})
	require.NoError(t, err)
	require.True(t, ok)
	ch := out.(*core.ChainSchema)
	require.Len(t, ch.Steps, 2)
	assert.Equal(t, `^a`, ch.Steps[1].(*core.StrSchema).Pattern)

	out, _, err = Apply(Pattern{`^a`}, &core.StrSchema{})
	require.NoError(t, err)
	assert.Equal(t, `^a`, out.(*core.StrSchema).Pattern)
}

func TestApply_StrictGoesThroughFunctionWrappers(t *testing.T) {
	inner := &core.IntSchema{}
	wrapped := &core.FunctionAfterSchema{Function: core.ValidatorFunc{Type: core.NoInfo, Function: func(v any) (any, error) { return v, nil }}, Schema: inner}
	out, ok, err := Apply(Strict{On: true}, wrapped)
	require.NoError(t, err)
	require.True(t, ok)
	got := out.(*core.FunctionAfterSchema).Schema.(*core.IntSchema)
	require.NotNil(t, got.Strict)
	assert.True(t, *got.Strict)
	assert.Nil(t, inner.Strict)
}

func TestApply_AllowInfNaN(t *testing.T) {
	out, _, err := Apply(AllowInfNaN{On: false}, &core.FloatSchema{})
	require.NoError(t, err)
	require.NotNil(t, out.(*core.FloatSchema).AllowInfNaN)

	out, _, err = Apply(AllowInfNaN{On: false}, &core.IntSchema{})
	require.NoError(t, err)
	fa := out.(*core.FunctionAfterSchema)
	_, err = fa.Function.Function.(func(any) (any, error))(math.Inf(1))
	require.Error(t, err)
}

func TestApply_UnknownAndInvalid(t *testing.T) {
	s := &core.StrSchema{}
	out, ok, err := Apply(struct{ Note string }{"x"}, s)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, s, out)

	_, _, err = Apply(Pattern{"("}, &core.StrSchema{})
	assert.True(t, core.IsCode(err, core.CodeInvalidConstraint), "got %v", err)

	_, _, err = Apply(UnionMode{"smart"}, &core.IntSchema{})
	assert.True(t, core.IsCode(err, core.CodeInvalidConstraint), "got %v", err)

	_, _, err = Apply(MinLen{-1}, &core.StrSchema{})
	assert.True(t, core.IsCode(err, core.CodeInvalidConstraint), "got %v", err)
}

func TestApply_Predicate(t *testing.T) {
	even := Predicate{Name: "even", Func: func(v any) bool { return v.(int64)%2 == 0 }}
	out, ok, err := Apply(even, &core.IntSchema{})
	require.NoError(t, err)
	require.True(t, ok)
	fn := out.(*core.FunctionAfterSchema).Function.Function.(func(any) (any, error))
	_, err = fn(int64(3))
	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, CodePredicate, v.Code)
}

func TestCheckers(t *testing.T) {
	assert.NoError(t, GreaterThan(3, 2))
	assert.Error(t, GreaterThan(2, 2))
	assert.NoError(t, GreaterThanEqual(2.0, 2))
	assert.Error(t, LessThan(int64(5), 5))
	assert.NoError(t, LessThanEqual(5, 5.0))
	assert.NoError(t, MultipleOfCheck(0.3, 0.1))
	assert.Error(t, MultipleOfCheck(7, 2))
	assert.NoError(t, MinLength("héllo", 5))
	assert.Error(t, MaxLength([]any{1, 2, 3}, 2))
	assert.Error(t, MatchPattern("abc", `^\d+$`))

	now := time.Now()
	assert.NoError(t, GreaterThan(now.Add(time.Second), now))
	assert.Error(t, LessThan(time.Minute, time.Second))

	var v *Violation
	require.ErrorAs(t, GreaterThan("x", 1), &v)
	assert.Equal(t, CodeInvalidType, v.Code)
}

type stubHandler struct{ js map[string]any }

func (h stubHandler) Call(core.Schema) (map[string]any, error)             { return h.js, nil }
func (h stubHandler) ResolveRef(js map[string]any) (map[string]any, error) { return js, nil }
func (h stubHandler) Mode() string                                         { return "validation" }

func TestJSONSchemaUpdate(t *testing.T) {
	out, _, err := Apply(MaxLen{3}, &core.FunctionAfterSchema{
		Function: core.ValidatorFunc{Type: core.NoInfo, Function: func(v any) (any, error) { return v, nil }},
		Schema:   &core.ListSchema{},
	})
	require.NoError(t, err)
	fns := out.Base().Metadata.JSFunctions()
	require.Len(t, fns, 1)
	js, err := fns[0](out, stubHandler{js: map[string]any{"type": "array"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "array", "maxItems": 3}, js)
}
