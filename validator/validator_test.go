package validator

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/reoring/schemagen/core"
)

func ptr[T any](v T) *T { return &v }

func mustNew(t *testing.T, s core.Schema, opts ...Option) *Validator {
	t.Helper()
	v, err := New(s, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	require.NoError(t, err)
	return v
}

func issuesOf(t *testing.T, err error) Issues {
	t.Helper()
	require.Error(t, err)
	iss, ok := AsIssues(err)
	require.True(t, ok, "want Issues, got %T: %v", err, err)
	return iss
}

func TestValidate_Leaves(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		s    core.Schema
		in   any
		want any
	}{
		{"int", &core.IntSchema{}, 42, 42},
		{"int from string", &core.IntSchema{}, "42", 42},
		{"int from integral float", &core.IntSchema{}, 3.0, 3},
		{"int64", &core.IntSchema{}, int64(7), 7},
		{"float from int", &core.FloatSchema{}, 2, 2.0},
		{"bool from string", &core.BoolSchema{}, "yes", true},
		{"bool from int", &core.BoolSchema{}, 0, false},
		{"str", &core.StrSchema{}, "hi", "hi"},
		{"str lowered", &core.StrSchema{ToLower: ptr(true), StripWhitespace: ptr(true)}, "  HeLLo ", "hello"},
		{"bytes from string", &core.BytesSchema{}, "ab", []byte("ab")},
		{"none", &core.NoneSchema{}, nil, nil},
		{"any", &core.AnySchema{}, struct{}{}, struct{}{}},
		{"literal", &core.LiteralSchema{Expected: []any{"a", 1}}, int64(1), 1},
		{"enum", &core.EnumSchema{Members: []any{"red", "green"}}, "green", "green"},
		{"nullable", &core.NullableSchema{Schema: &core.IntSchema{}}, nil, nil},
		{"duration", &core.TimedeltaSchema{}, "PT1M", time.Minute},
		{"duration from seconds", &core.TimedeltaSchema{}, 1.5, 1500 * time.Millisecond},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mustNew(t, tc.s).Validate(ctx, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidate_LeafErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		s    core.Schema
		in   any
		code string
		msg  string
	}{
		{"int fraction", &core.IntSchema{}, 3.5, CodeInvalidType, "Input should be a valid integer, got a number with a fractional part"},
		{"int type", &core.IntSchema{}, []any{}, CodeInvalidType, "Input should be a valid integer"},
		{"int ge", &core.IntSchema{Ge: ptr(int64(10))}, 3, CodeTooSmall, "Input should be greater than or equal to 10"},
		{"int lt", &core.IntSchema{Lt: ptr(int64(3))}, 3, CodeTooBig, "Input should be less than 3"},
		{"multiple of", &core.IntSchema{MultipleOf: ptr(int64(5))}, 12, CodeMultipleOf, "Input should be a multiple of 5"},
		{"str short", &core.StrSchema{MinLength: ptr(3)}, "ab", CodeTooShort, "Value should have at least 3 characters"},
		{"str pattern", &core.StrSchema{Pattern: "^[a-z]+$"}, "A1", CodePattern, "String should match pattern '^[a-z]+$'"},
		{"literal", &core.LiteralSchema{Expected: []any{"a", "b", "c"}}, "d", CodeInvalidEnum, "Input should be 'a', 'b' or 'c'"},
		{"finite", &core.FloatSchema{AllowInfNaN: ptr(false)}, "inf", CodeFiniteNumber, "Input should be a finite number"},
		{"uuid", &core.UUIDSchema{}, "nope", CodeInvalidFormat, "Input should be a valid UUID"},
		{"none", &core.NoneSchema{}, 1, CodeInvalidType, "Input should be a valid none"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mustNew(t, tc.s).Validate(ctx, tc.in)
			iss := issuesOf(t, err)
			require.Len(t, iss, 1)
			assert.Equal(t, tc.code, iss[0].Code)
			assert.Equal(t, tc.msg, iss[0].Message)
			assert.Equal(t, "/", iss[0].Path)
		})
	}
}

func TestValidateJSON_IntBounds(t *testing.T) {
	ctx := context.Background()
	v := mustNew(t, &core.IntSchema{})

	got, err := v.ValidateJSON(ctx, []byte(`-9223372036854775808`))
	require.NoError(t, err)
	assert.Equal(t, math.MinInt64, got)

	for _, in := range []string{`9223372036854775808`, `9223372036854775808.0`, `-9223372036854777856`} {
		_, err := v.ValidateJSON(ctx, []byte(in))
		iss := issuesOf(t, err)
		require.Len(t, iss, 1, in)
		assert.Equal(t, CodeInvalidType, iss[0].Code, in)
	}
}

func TestValidate_Strictness(t *testing.T) {
	ctx := context.Background()
	v := mustNew(t, &core.IntSchema{})

	_, err := v.Validate(ctx, "1", Strict(true))
	assert.Equal(t, CodeInvalidType, issuesOf(t, err)[0].Code)

	strictByDefault := mustNew(t, &core.IntSchema{}, StrictByDefault(true))
	_, err = strictByDefault.Validate(ctx, "1")
	assert.Error(t, err)
	got, err := strictByDefault.Validate(ctx, "1", Strict(false))
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	laxNode := mustNew(t, &core.IntSchema{Strict: ptr(false)}, StrictByDefault(true))
	got, err = laxNode.Validate(ctx, "2", Strict(true))
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestValidateJSON_TemporalStringsInStrictMode(t *testing.T) {
	v := mustNew(t, &core.DatetimeSchema{Strict: ptr(true)})
	got, err := v.ValidateJSON(context.Background(), []byte(`"2025-01-02T03:04:05Z"`))
	require.NoError(t, err)
	assert.True(t, got.(time.Time).Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))

	_, err = v.Validate(context.Background(), "2025-01-02T03:04:05Z")
	assert.Equal(t, CodeInvalidType, issuesOf(t, err)[0].Code)
}

func TestValidate_UUIDVersion(t *testing.T) {
	v := mustNew(t, &core.UUIDSchema{Version: ptr(4)})
	u := uuid.New()
	got, err := v.Validate(context.Background(), u.String())
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = v.Validate(context.Background(), "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, CodeInvalidFormat, issuesOf(t, err)[0].Code)
}

func TestValidate_Containers(t *testing.T) {
	ctx := context.Background()

	list := mustNew(t, &core.ListSchema{ItemsSchema: &core.IntSchema{}, MaxLength: ptr(3)})
	got, err := list.Validate(ctx, []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)

	_, err = list.Validate(ctx, []any{1, "x", 3, "y"})
	iss := issuesOf(t, err)
	require.Len(t, iss, 2)
	assert.Equal(t, "/1", iss[0].Path)
	assert.Equal(t, "/3", iss[1].Path)

	failFast := mustNew(t, &core.ListSchema{ItemsSchema: &core.IntSchema{}, FailFast: ptr(true)})
	_, err = failFast.Validate(ctx, []any{"x", "y"})
	assert.Len(t, issuesOf(t, err), 1)

	_, err = list.Validate(ctx, []any{1, 2, 3, 4})
	iss = issuesOf(t, err)
	assert.Equal(t, CodeTooLong, iss[0].Code)
	assert.Equal(t, "Value should have at most 3 items", iss[0].Message)

	set := mustNew(t, &core.SetSchema{ItemsSchema: &core.IntSchema{}})
	got, err = set.Validate(ctx, []any{1, "1", 2})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)

	tuple := mustNew(t, &core.TupleSchema{
		ItemsSchema:       []core.Schema{&core.StrSchema{}, &core.IntSchema{}},
		VariadicItemIndex: ptr(1),
	})
	got, err = tuple.Validate(ctx, []any{"a", 1, "2"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", 1, 2}, got)
	_, err = tuple.Validate(ctx, []any{})
	assert.Equal(t, CodeTooShort, issuesOf(t, err)[0].Code)

	fixed := mustNew(t, &core.TupleSchema{ItemsSchema: []core.Schema{&core.StrSchema{}}})
	_, err = fixed.Validate(ctx, []any{"a", "b"})
	assert.Equal(t, CodeTooLong, issuesOf(t, err)[0].Code)

	dict := mustNew(t, &core.DictSchema{KeysSchema: &core.StrSchema{}, ValuesSchema: &core.IntSchema{}})
	got, err = dict.Validate(ctx, map[string]any{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, got)
	_, err = dict.Validate(ctx, map[string]any{"a": "x"})
	assert.Equal(t, "/a", issuesOf(t, err)[0].Path)

	intKeys := mustNew(t, &core.DictSchema{KeysSchema: &core.IntSchema{}})
	got, err = intKeys.Validate(ctx, map[string]any{"1": "a"})
	require.NoError(t, err)
	assert.Equal(t, map[any]any{1: "a"}, got)
}

func TestValidate_Unions(t *testing.T) {
	ctx := context.Background()
	smart := mustNew(t, &core.UnionSchema{Choices: []core.UnionChoice{
		{Schema: &core.IntSchema{}},
		{Schema: &core.StrSchema{}},
	}})
	got, err := smart.Validate(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", got, "exact str match wins over int coercion")

	leftToRight := mustNew(t, &core.UnionSchema{Mode: "left_to_right", Choices: []core.UnionChoice{
		{Schema: &core.IntSchema{}},
		{Schema: &core.StrSchema{}},
	}})
	got, err = leftToRight.Validate(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = smart.Validate(ctx, []any{})
	iss := issuesOf(t, err)
	require.Len(t, iss, 2)
	assert.Equal(t, CodeInvalidType, iss[0].Code)

	custom := mustNew(t, &core.UnionSchema{
		Choices:            []core.UnionChoice{{Schema: &core.IntSchema{}}},
		CustomErrorType:    "not_a_number",
		CustomErrorMessage: "want a number",
	})
	_, err = custom.Validate(ctx, "x")
	iss = issuesOf(t, err)
	assert.Equal(t, Issue{Path: "/", Code: "not_a_number", Message: "want a number", Input: "x"}, iss[0])
}

func pets() *core.TaggedUnionSchema {
	cat := &core.TypedDictSchema{Fields: []*core.TypedDictField{
		{Name: "kind", Schema: &core.LiteralSchema{Expected: []any{"cat"}}},
		{Name: "lives", Schema: &core.IntSchema{}},
	}}
	dog := &core.TypedDictSchema{Fields: []*core.TypedDictField{
		{Name: "kind", Schema: &core.LiteralSchema{Expected: []any{"dog"}}},
		{Name: "breed", Schema: &core.StrSchema{}},
	}}
	choices := core.NewTagMap()
	choices.Set("cat", cat)
	choices.Set("dog", dog)
	return &core.TaggedUnionSchema{Choices: choices, Discriminator: "kind"}
}

func TestValidate_TaggedUnion(t *testing.T) {
	ctx := context.Background()
	v := mustNew(t, pets())

	got, err := v.ValidateJSON(ctx, []byte(`{"kind":"cat","lives":9}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"kind": "cat", "lives": 9}, got)

	_, err = v.ValidateJSON(ctx, []byte(`{"kind":"fish"}`))
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, CodeDiscriminatorUnknown, iss[0].Code)
	assert.Equal(t, "Input tag 'fish' found using 'kind' does not match any of the expected tags: 'cat', 'dog'", iss[0].Message)

	_, err = v.ValidateJSON(ctx, []byte(`{"lives":9}`))
	iss = issuesOf(t, err)
	assert.Equal(t, CodeDiscriminatorMissing, iss[0].Code)
	assert.Equal(t, "Unable to extract tag using discriminator 'kind'", iss[0].Message)

	_, err = v.ValidateJSON(ctx, []byte(`{"kind":"dog","breed":1}`))
	iss = issuesOf(t, err)
	assert.Equal(t, "/breed", iss[0].Path)

	for _, in := range []string{`{"kind":["cat"],"lives":9}`, `{"kind":{"a":1}}`} {
		_, err = v.ValidateJSON(ctx, []byte(in))
		iss = issuesOf(t, err)
		require.Len(t, iss, 1, in)
		assert.Equal(t, CodeDiscriminatorUnknown, iss[0].Code, in)
	}

	nullable := mustNew(t, &core.NullableSchema{Schema: pets()})
	got, err = nullable.ValidateJSON(ctx, []byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestValidate_CallableDiscriminator(t *testing.T) {
	tu := pets()
	tu.Discriminator = func(v any) any {
		m, _ := v.(map[string]any)
		if _, ok := m["breed"]; ok {
			return "dog"
		}
		return "cat"
	}
	v := mustNew(t, tu)
	_, err := v.Validate(context.Background(), map[string]any{"kind": "dog", "breed": "pug"})
	require.NoError(t, err)
	_, err = v.Validate(context.Background(), map[string]any{"kind": "dog", "lives": 1})
	iss := issuesOf(t, err)
	assert.Equal(t, CodeInvalidEnum, iss[0].Code)
	assert.Equal(t, "/kind", iss[0].Path)
}

func TestValidate_FunctionNodes(t *testing.T) {
	ctx := context.Background()
	trim := &core.FunctionBeforeSchema{
		Function: core.ValidatorFunc{Type: core.NoInfo, Function: func(v any) any {
			if s, ok := v.(string); ok && s == "" {
				return "0"
			}
			return v
		}},
		Schema: &core.IntSchema{},
	}
	got, err := mustNew(t, trim).Validate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	positive := &core.FunctionAfterSchema{
		Function: core.ValidatorFunc{Type: core.NoInfo, Function: func(v int) (int, error) {
			if v <= 0 {
				return 0, errors.New("must be positive")
			}
			return v, nil
		}},
		Schema: &core.IntSchema{},
	}
	_, err = mustNew(t, positive).Validate(ctx, "-1")
	iss := issuesOf(t, err)
	assert.Equal(t, CodeValueError, iss[0].Code)
	assert.Equal(t, "Value error, must be positive", iss[0].Message)

	wrap := &core.FunctionWrapSchema{
		Function: core.ValidatorFunc{Type: core.NoInfo, Function: func(v any, next core.ValidatorHandler) (any, error) {
			out, err := next(v)
			if err != nil {
				return -1, nil
			}
			return out, nil
		}},
		Schema: &core.IntSchema{},
	}
	got, err = mustNew(t, wrap).Validate(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	var seen []string
	withInfo := &core.FunctionPlainSchema{Function: core.ValidatorFunc{
		Type: core.WithInfo,
		Function: func(v any, info core.ValidationInfo) any {
			seen = append(seen, info.Mode(), info.Context().(string))
			return v
		},
	}}
	_, err = mustNew(t, withInfo).ValidateJSON(ctx, []byte(`1`), WithValidationContext("tenant-a"))
	require.NoError(t, err)
	assert.Equal(t, []string{ModeJSON, "tenant-a"}, seen)
}

func TestValidate_DefaultOnError(t *testing.T) {
	ctx := context.Background()
	list := mustNew(t, &core.ListSchema{ItemsSchema: &core.DefaultSchema{Schema: &core.IntSchema{}, OnError: "omit"}})
	got, err := list.Validate(ctx, []any{1, "x", 3})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 3}, got)

	fallback := mustNew(t, &core.DefaultSchema{Schema: &core.IntSchema{}, Default: 7, OnError: "default"})
	got, err = fallback.Validate(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestValidate_Definitions(t *testing.T) {
	node := &core.TypedDictSchema{Fields: []*core.TypedDictField{
		{Name: "value", Schema: &core.IntSchema{}},
		{Name: "next", Schema: &core.DefaultSchema{Schema: &core.NullableSchema{Schema: core.DefinitionRef("Node")}}},
	}}
	node.Ref = "Node"
	s := &core.DefinitionsSchema{Schema: core.DefinitionRef("Node"), Definitions: []core.Schema{node}}
	v := mustNew(t, s)

	got, err := v.ValidateJSON(context.Background(), []byte(`{"value":1,"next":{"value":"2"}}`))
	require.NoError(t, err)
	want := map[string]any{"value": 1, "next": map[string]any{"value": 2, "next": nil}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	_, err = v.ValidateJSON(context.Background(), []byte(`{"value":1,"next":{"value":"x"}}`))
	assert.Equal(t, "/next/value", issuesOf(t, err)[0].Path)
}

func TestValidateJSON_InputPolicies(t *testing.T) {
	ctx := context.Background()
	s := &core.DictSchema{ValuesSchema: &core.AnySchema{}}

	_, err := mustNew(t, s).ValidateJSON(ctx, []byte(`{"a":1,"a":2}`))
	iss := issuesOf(t, err)
	assert.Equal(t, CodeDuplicateKey, iss[0].Code)
	assert.Equal(t, "/a", iss[0].Path)

	got, err := mustNew(t, s, DuplicateKeys(DuplicateWarn)).ValidateJSON(ctx, []byte(`{"a":1,"a":2}`))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = mustNew(t, s, MaxDepth(1)).ValidateJSON(ctx, []byte(`{"a":{"b":1}}`))
	assert.Equal(t, CodeParseError, issuesOf(t, err)[0].Code)

	_, err = mustNew(t, s, MaxBytes(4)).ValidateJSON(ctx, []byte(`{"a":"long value"}`))
	assert.Equal(t, CodeTruncated, issuesOf(t, err)[0].Code)

	_, err = mustNew(t, s).ValidateJSON(ctx, []byte(`{"a":`))
	assert.Equal(t, CodeParseError, issuesOf(t, err)[0].Code)
}

func TestValidate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &core.TypedDictSchema{Fields: []*core.TypedDictField{{Name: "a", Schema: &core.IntSchema{}}}}
	_, err := mustNew(t, s).Validate(ctx, map[string]any{"a": 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RejectsInvalidSchema(t *testing.T) {
	_, err := New(&core.DefinitionsSchema{Schema: core.DefinitionRef("missing")})
	assert.Error(t, err)
}

func TestIssues_Error(t *testing.T) {
	iss := Issues{
		{Path: "/a", Code: CodeRequired},
		{Path: "/b", Code: CodeRequired},
		{Path: "/c", Code: CodeRequired},
		{Path: "/d", Code: CodeRequired},
	}
	assert.Equal(t, "required at /a; required at /b; required at /c; ... (total 4)", iss.Error())
	assert.Equal(t, "/a~1b/0", Pointer([]any{"a/b", 0}))
}
