package validator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemagen/builder"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/hooks"
	"github.com/reoring/schemagen/typeexpr"
)

func resolved(t *testing.T, rec *typeexpr.Record) *Validator {
	t.Helper()
	s, err := builder.Resolve(rec)
	require.NoError(t, err)
	return mustNew(t, s)
}

func TestModel_ValidateAndSerialize(t *testing.T) {
	user := typeexpr.Model("app", "User").
		Field("user_name", typeexpr.Str).Alias("userName").Required().
		Field("age", typeexpr.Int).Default(0).
		Field("tags", typeexpr.ListOf(typeexpr.Str)).DefaultFactory(func() any { return []any{} }).
		MustBuild()
	v := resolved(t, user)

	got, err := v.ValidateJSON(context.Background(), []byte(`{"userName":"ann","age":"41"}`))
	require.NoError(t, err)
	inst, ok := got.(*core.Instance)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "app.User", inst.Class)
	assert.Equal(t, map[string]any{"user_name": "ann", "age": 41, "tags": []any{}}, inst.Fields)
	assert.Equal(t, []string{"user_name", "age"}, inst.FieldsSet)

	out, err := v.Serialize(inst, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user_name": "ann", "age": 41, "tags": []any{}}, out)

	out, err = v.Serialize(inst, SerializeOptions{ByAlias: true, ExcludeUnset: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"userName": "ann", "age": 41}, out)

	out, err = v.Serialize(inst, SerializeOptions{ExcludeDefaults: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user_name": "ann", "age": 41, "tags": []any{}}, out)

	bare, err := v.Validate(context.Background(), map[string]any{"userName": "bo"})
	require.NoError(t, err)
	out, err = v.Serialize(bare, SerializeOptions{ExcludeDefaults: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user_name": "bo", "tags": []any{}}, out)

	again, err := v.Validate(context.Background(), inst)
	require.NoError(t, err)
	assert.Same(t, inst, again)
}

func TestModel_Errors(t *testing.T) {
	user := typeexpr.Model("app", "Account").
		Field("id", typeexpr.Int).Required().
		Field("email", typeexpr.Str).Required().
		ExtraForbid().
		MustBuild()
	v := resolved(t, user)

	_, err := v.ValidateJSON(context.Background(), []byte(`{"id":"x","other":1}`))
	iss := issuesOf(t, err)
	require.Len(t, iss, 3)
	assert.Equal(t, "/id", iss[0].Path)
	assert.Equal(t, CodeInvalidType, iss[0].Code)
	assert.Equal(t, "/email", iss[1].Path)
	assert.Equal(t, CodeRequired, iss[1].Code)
	assert.Equal(t, "Field required", iss[1].Message)
	assert.Equal(t, "/other", iss[2].Path)
	assert.Equal(t, CodeUnknownKey, iss[2].Code)

	_, err = v.Validate(context.Background(), "not a record")
	iss = issuesOf(t, err)
	assert.Equal(t, "Input should be a valid dictionary or instance of Account", iss[0].Message)
}

func TestModel_ExtraAllowKeepsExtras(t *testing.T) {
	rec := typeexpr.Model("app", "Open").
		Field("a", typeexpr.Int).Required().
		ExtraAllow().
		MustBuild()
	v := resolved(t, rec)
	got, err := v.Validate(context.Background(), map[string]any{"a": 1, "b": "x"})
	require.NoError(t, err)
	inst := got.(*core.Instance)
	assert.Equal(t, map[string]any{"b": "x"}, inst.Extra)

	out, err := v.Serialize(inst, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, out)
}

func TestModel_NestedPathsAndTaggedUnion(t *testing.T) {
	cat := typeexpr.Model("zoo", "Cat").
		Field("kind", typeexpr.LiteralOf("cat")).Required().
		Field("lives", typeexpr.Int).Required().
		MustBuild()
	dog := typeexpr.Model("zoo", "Dog").
		Field("kind", typeexpr.LiteralOf("dog")).Required().
		Field("breed", typeexpr.Str).Required().
		MustBuild()
	owner := typeexpr.Model("zoo", "Owner").
		Field("pet", typeexpr.UnionOf(cat, dog)).Discriminator("kind").
		MustBuild()
	v := resolved(t, owner)
	ctx := context.Background()

	got, err := v.ValidateJSON(ctx, []byte(`{"pet":{"kind":"dog","breed":"pug"}}`))
	require.NoError(t, err)
	pet := got.(*core.Instance).Fields["pet"].(*core.Instance)
	assert.Equal(t, "zoo.Dog", pet.Class)

	out, err := v.Serialize(got, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pet": map[string]any{"kind": "dog", "breed": "pug"}}, out)

	_, err = v.ValidateJSON(ctx, []byte(`{"pet":{"kind":"fish"}}`))
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, "/pet", iss[0].Path)
	assert.Equal(t, CodeDiscriminatorUnknown, iss[0].Code)
	assert.Equal(t, "Input tag 'fish' found using 'kind' does not match any of the expected tags: 'cat', 'dog'", iss[0].Message)

	_, err = v.ValidateJSON(ctx, []byte(`{"pet":{"kind":"cat","lives":"many"}}`))
	iss = issuesOf(t, err)
	assert.Equal(t, "/pet/lives", iss[0].Path)
}

func TestNamedTuple_PositionalOrByName(t *testing.T) {
	pair := typeexpr.NamedTuple("geo", "Pair").
		Field("left", typeexpr.Int).Required().
		Field("right", typeexpr.Int).Default(0).
		MustBuild()
	v := resolved(t, pair)
	ctx := context.Background()

	got, err := v.ValidateJSON(ctx, []byte(`[1, "2"]`))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)

	got, err = v.ValidateJSON(ctx, []byte(`{"left": 5}`))
	require.NoError(t, err)
	assert.Equal(t, []any{5, 0}, got)

	_, err = v.ValidateJSON(ctx, []byte(`{"left": 1, "right": "x"}`))
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, "/right", iss[0].Path)

	_, err = v.ValidateJSON(ctx, []byte(`[1, 2, 3]`))
	assert.Equal(t, CodeUnknownKey, issuesOf(t, err)[0].Code)

	b, err := v.DumpJSON([]any{1, 2}, SerializeOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(b))
}

func TestModel_HooksRunDuringValidationAndSerialization(t *testing.T) {
	upper := func(v string) string { return strings.ToUpper(v) }
	mask := func(v string) string { return strings.Repeat("*", len(v)) }
	initials := func(self *core.Instance) string {
		name, _ := self.Get("name")
		return name.(string)[:1]
	}
	rec := typeexpr.Model("app", "Person").
		Field("name", typeexpr.Str).Required().
		Field("pin", typeexpr.Str).Required().
		Attr("normalize", hooks.FieldValidator(upper, []string{"name"})).
		Attr("hide", hooks.FieldSerializer(mask, []string{"pin"})).
		Attr("initial", hooks.ComputedField(initials)).
		MustBuild()
	v := resolved(t, rec)

	got, err := v.Validate(context.Background(), map[string]any{"name": "ada", "pin": "1234"})
	require.NoError(t, err)
	inst := got.(*core.Instance)
	assert.Equal(t, "ADA", inst.Fields["name"])

	out, err := v.Serialize(inst, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ADA", "pin": "****", "initial": "A"}, out)
}

func TestSerialize_JSONMode(t *testing.T) {
	s := &core.TypedDictSchema{Fields: []*core.TypedDictField{
		{Name: "at", Schema: &core.DatetimeSchema{}},
		{Name: "day", Schema: &core.DateSchema{}},
		{Name: "wait", Schema: &core.TimedeltaSchema{}},
		{Name: "raw", Schema: &core.BytesSchema{}},
		{Name: "scores", Schema: &core.DictSchema{KeysSchema: &core.IntSchema{}, ValuesSchema: &core.FloatSchema{}}},
	}}
	v := mustNew(t, s)
	in := map[string]any{
		"at":     "2025-03-04T05:06:07Z",
		"day":    "2025-03-04",
		"wait":   "PT90S",
		"raw":    "hi",
		"scores": map[string]any{"1": 0.5},
	}
	got, err := v.Validate(context.Background(), in)
	require.NoError(t, err)
	m := got.(map[string]any)
	assert.Equal(t, 90*time.Second, m["wait"])

	b, err := v.DumpJSON(got, SerializeOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"at": "2025-03-04T05:06:07Z",
		"day": "2025-03-04",
		"wait": "PT1M30S",
		"raw": "hi",
		"scores": {"1": 0.5}
	}`, string(b))

	py, err := v.Serialize(got, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, py.(map[string]any)["wait"])
}

func TestSerialize_WhenUsedAndToString(t *testing.T) {
	s := &core.IntSchema{}
	s.Serialization = &core.PlainSerializerFunctionSerSchema{
		Function: func(v int) int { return v * 10 },
		WhenUsed: core.WhenJSON,
	}
	v := mustNew(t, s)
	py, err := v.Serialize(3, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, py)
	js, err := v.Serialize(3, SerializeOptions{JSON: true})
	require.NoError(t, err)
	assert.Equal(t, 30, js)

	str := &core.IntSchema{}
	str.Serialization = &core.ToStringSerSchema{}
	out, err := mustNew(t, str).Serialize(5, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "5", out)
}

func TestArguments_Call(t *testing.T) {
	add := func(a, b int, rest ...any) int {
		sum := a + b
		for _, r := range rest {
			sum += r.(int)
		}
		return sum
	}
	call := &core.CallSchema{
		ArgumentsSchema: &core.ArgumentsSchema{
			ArgumentsSchema: []*core.ArgumentsParameter{
				{Name: "a", Schema: &core.IntSchema{}},
				{Name: "b", Schema: &core.DefaultSchema{Schema: &core.IntSchema{}, Default: 1}, Mode: core.ModeKeywordOnly},
			},
			VarArgsSchema: &core.IntSchema{},
		},
		Function:     add,
		FunctionName: "add",
		ReturnSchema: &core.IntSchema{Le: ptr(int64(100))},
	}
	v := mustNew(t, call)
	ctx := context.Background()

	got, err := v.Validate(ctx, &ArgsKwargs{Args: []any{"2", "3", 4}, Kwargs: map[string]any{"b": 10}})
	require.NoError(t, err)
	assert.Equal(t, 19, got)

	got, err = v.Validate(ctx, map[string]any{"a": 5})
	require.NoError(t, err)
	assert.Equal(t, 6, got)

	_, err = v.Validate(ctx, []any{99, 1})
	assert.Equal(t, CodeTooBig, issuesOf(t, err)[0].Code)

	_, err = v.Validate(ctx, map[string]any{"b": 2})
	iss := issuesOf(t, err)
	assert.Equal(t, CodeRequired, iss[0].Code)
	assert.Equal(t, "/a", iss[0].Path)
}

func pointDataclass(seen *map[string]any) *typeexpr.Record {
	return typeexpr.Dataclass("geo", "Point").
		Field("x", typeexpr.Int).
		Field("y", typeexpr.Int).Default(0).
		Field("scale", typeexpr.Float).InitOnly().Default(1.0).
		Field("label", typeexpr.Str).KwOnly().Default("").
		Field("norm", typeexpr.Int).NoInit().Default(-1).
		PostInit(func(inst *core.Instance, initOnly map[string]any) error {
			*seen = initOnly
			x, y := inst.Fields["x"].(int), inst.Fields["y"].(int)
			inst.Fields["norm"] = x*x + y*y
			return nil
		}).
		MustBuild()
}

func TestDataclass_PositionalAndKeyword(t *testing.T) {
	var seen map[string]any
	v := resolved(t, pointDataclass(&seen))
	ctx := context.Background()

	got, err := v.ValidateJSON(ctx, []byte(`[3, 4, 2.5]`))
	require.NoError(t, err)
	inst := got.(*core.Instance)
	assert.Equal(t, "geo.Point", inst.Class)
	assert.Equal(t, map[string]any{"x": 3, "y": 4, "label": "", "norm": 25}, inst.Fields)
	assert.Equal(t, []string{"x", "y"}, inst.FieldsSet)
	assert.Equal(t, map[string]any{"scale": 2.5}, seen)

	got, err = v.Validate(ctx, map[string]any{"x": 1, "label": "p"})
	require.NoError(t, err)
	inst = got.(*core.Instance)
	assert.Equal(t, map[string]any{"x": 1, "y": 0, "label": "p", "norm": 1}, inst.Fields)
	assert.Equal(t, map[string]any{"scale": 1.0}, seen)

	out, err := v.Serialize(inst, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "y": 0, "label": "p", "norm": 1}, out)

	again, err := v.Validate(ctx, inst)
	require.NoError(t, err)
	assert.Same(t, inst, again)
}

func TestDataclass_Errors(t *testing.T) {
	var seen map[string]any
	v := resolved(t, pointDataclass(&seen))
	ctx := context.Background()

	cases := []struct {
		name string
		in   any
		path string
		code string
	}{
		{"missing", map[string]any{"y": 1}, "/x", CodeRequired},
		{"bad positional", []any{"a"}, "/0", CodeInvalidType},
		{"too many positional", []any{1, 2, 3.0, 4}, "/3", CodeUnknownKey},
		{"positional and keyword", &ArgsKwargs{Args: []any{1}, Kwargs: map[string]any{"x": 2}}, "/x", CodeValueError},
		{"not a record", "p", "/", CodeInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(ctx, tc.in)
			iss := issuesOf(t, err)
			require.Len(t, iss, 1)
			assert.Equal(t, tc.path, iss[0].Path)
			assert.Equal(t, tc.code, iss[0].Code)
		})
	}

	strict := typeexpr.Dataclass("geo", "Strict").
		ExtraForbid().
		PostInit(func(inst *core.Instance) error {
			if inst.Fields["x"].(int) < 0 {
				return errors.New("x must not be negative")
			}
			return nil
		}).
		Field("x", typeexpr.Int).
		MustBuild()
	sv := resolved(t, strict)
	_, err := sv.Validate(ctx, map[string]any{"x": 1, "norm": 2})
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, "/norm", iss[0].Path)
	assert.Equal(t, CodeUnknownKey, iss[0].Code)

	_, err = sv.Validate(ctx, []any{-1})
	iss = issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, CodeValueError, iss[0].Code)
	assert.Contains(t, iss[0].Message, "x must not be negative")
}

func TestDataclass_FieldOrder(t *testing.T) {
	_, err := typeexpr.Dataclass("geo", "Bad").
		Field("a", typeexpr.Int).Default(0).
		Field("b", typeexpr.Int).
		Build()
	assert.True(t, core.IsCode(err, core.CodeDataclassFieldOrder), "got %v", err)
}
