package schemagen_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reoring/schemagen"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/hooks"
	"github.com/reoring/schemagen/jsonschema"
	"github.com/reoring/schemagen/typeexpr"
	"github.com/reoring/schemagen/validator"
)

func pairModel(t *testing.T) *schemagen.Model {
	t.Helper()
	ns := typeexpr.NewNamespace("e2e")
	pair := typeexpr.Model("e2e", "Pair").
		Field("left", typeexpr.Int).Required().
		Field("right", typeexpr.Ref("Pair | None")).Default(nil).
		In(ns).MustBuild()
	return schemagen.NewModel(pair, schemagen.WithLogger(zap.NewNop()))
}

func TestModel_SelfReferenceRoundTrip(t *testing.T) {
	m := pairModel(t)
	ctx := context.Background()

	for name, in := range map[string]map[string]any{
		"flat":   {"left": 1, "right": nil},
		"nested": {"left": 1, "right": map[string]any{"left": 2, "right": nil}},
	} {
		t.Run(name, func(t *testing.T) {
			v, err := m.Validate(ctx, in)
			require.NoError(t, err)
			out, err := m.Dump(v, validator.SerializeOptions{})
			require.NoError(t, err)
			assert.Equal(t, in, out)

			again, err := m.Validate(ctx, out)
			require.NoError(t, err)
			out2, err := m.Dump(again, validator.SerializeOptions{})
			require.NoError(t, err)
			assert.Equal(t, out, out2)
		})
	}

	v, err := m.ValidateJSON(ctx, []byte(`{"left":1,"right":{"left":2}}`))
	require.NoError(t, err)
	inner := v.(*core.Instance).Fields["right"].(*core.Instance)
	assert.Equal(t, "e2e.Pair", inner.Class)
	data, err := m.DumpJSON(v, validator.SerializeOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"left":1,"right":{"left":2,"right":null}}`, string(data))

	_, err = m.Validate(ctx, map[string]any{"left": 1, "right": 5})
	iss, ok := schemagen.AsIssues(err)
	require.True(t, ok, "got %v", err)
	require.NotEmpty(t, iss)
	assert.Equal(t, "/right", iss[0].Path)
}

func TestModel_JSONSchema(t *testing.T) {
	js, err := pairModel(t).JSONSchema(jsonschema.ModeValidation)
	require.NoError(t, err)
	data, err := jsonschema.Marshal(js)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"$defs": {
			"Pair": {
				"type": "object",
				"title": "Pair",
				"properties": {
					"left": {"type": "integer", "title": "Left"},
					"right": {"anyOf": [{"$ref": "#/$defs/Pair"}, {"type": "null"}], "default": null}
				},
				"required": ["left"]
			}
		},
		"$ref": "#/$defs/Pair"
	}`, string(data))
}

func TestAdapter_TaggedUnion(t *testing.T) {
	cat := typeexpr.Model("zoo", "Cat").
		Field("kind", typeexpr.LiteralOf("cat")).Required().
		Field("lives", typeexpr.Int).Required().
		MustBuild()
	dog := typeexpr.Model("zoo", "Dog").
		Field("kind", typeexpr.LiteralOf("dog")).Required().
		Field("breed", typeexpr.Str).Required().
		MustBuild()
	a := schemagen.NewAdapter(typeexpr.Annotate(typeexpr.UnionOf(cat, dog), typeexpr.Discriminator{Field: "kind"}))
	ctx := context.Background()

	v, err := a.ValidateJSON(ctx, []byte(`{"kind":"dog","breed":"lab"}`))
	require.NoError(t, err)
	assert.Equal(t, "zoo.Dog", v.(*core.Instance).Class)

	_, err = a.ValidateJSON(ctx, []byte(`{"kind":"fish"}`))
	iss, ok := schemagen.AsIssues(err)
	require.True(t, ok, "got %v", err)
	require.Len(t, iss, 1)
	assert.Equal(t, validator.CodeDiscriminatorUnknown, iss[0].Code)
	assert.Contains(t, iss[0].Message, "'fish'")
	assert.Contains(t, iss[0].Message, "'cat', 'dog'")
}

func TestAdapter_PlainTypes(t *testing.T) {
	a := schemagen.NewAdapter(typeexpr.ListOf(typeexpr.Int))
	v, err := a.Validate(context.Background(), []any{"1", 2})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)

	js, err := a.JSONSchema(jsonschema.ModeValidation)
	require.NoError(t, err)
	assert.Equal(t, "array", js["type"])
	assert.Equal(t, "list[int]", a.Name())
}

func TestParametrize_SharesRecords(t *testing.T) {
	tv := typeexpr.NewTypeVar("T")
	box := typeexpr.Model("gen", "Box").
		Generic(tv).
		Field("item", tv).Required().
		MustBuild()
	cache := generics.NewCache(10)

	m, err := schemagen.Parametrize(box, []typeexpr.Expr{typeexpr.Int}, schemagen.WithGenericsCache(cache))
	require.NoError(t, err)
	assert.Equal(t, "Box[int]", m.Name())
	again, err := schemagen.Parametrize(box, []typeexpr.Expr{typeexpr.Int}, schemagen.WithGenericsCache(cache))
	require.NoError(t, err)
	assert.Same(t, m.Record(), again.Record())

	v, err := m.Validate(context.Background(), map[string]any{"item": "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.(*core.Instance).Fields["item"])

	_, err = schemagen.Parametrize(box, []typeexpr.Expr{typeexpr.Int, typeexpr.Str})
	assert.Error(t, err)
}

func TestModel_RebuildAfterForwardReference(t *testing.T) {
	ns := typeexpr.NewNamespace("late")
	holder := typeexpr.Model("late", "Holder").
		Field("item", typeexpr.Ref("Item")).Required().
		In(ns).MustBuild()
	m := schemagen.NewModel(holder)

	_, err := m.CoreSchema()
	require.Error(t, err)
	assert.True(t, schemagen.IsNotFullyDefined(err))

	ns.Define("Item", typeexpr.Model("late", "Item").Field("n", typeexpr.Int).Required().MustBuild())
	done, err := m.Rebuild(false)
	require.NoError(t, err)
	assert.True(t, done)

	v, err := m.Validate(context.Background(), map[string]any{"item": map[string]any{"n": 1}})
	require.NoError(t, err)
	assert.Equal(t, "late.Item", v.(*core.Instance).Fields["item"].(*core.Instance).Class)
}

func TestDefinitions_SharedDefs(t *testing.T) {
	point := typeexpr.Model("geo", "Point").Field("x", typeexpr.Float).Required().MustBuild()
	line := typeexpr.Model("geo", "Line").
		Field("a", point).Required().
		Field("b", point).Required().
		MustBuild()
	targets := []schemagen.Target{schemagen.NewModel(point), schemagen.NewModel(line)}

	roots, defs, err := schemagen.Definitions(jsonschema.ModeValidation, targets)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Point"}, roots["Point"])
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Line"}, roots["Line"])
	assert.Contains(t, defs, "Point")
	assert.Contains(t, defs, "Line")
}

type limits struct{ max int }

func TestServiceOf_FromValidationContext(t *testing.T) {
	check := func(v int, info core.ValidationInfo) (int, error) {
		l, err := schemagen.RequireService[*limits](info)
		if err != nil {
			return 0, err
		}
		if v > l.max {
			v = l.max
		}
		return v, nil
	}
	rec := typeexpr.Model("svc", "Order").
		Field("qty", typeexpr.Int).Required().
		Attr("cap", hooks.FieldValidator(check, []string{"qty"})).
		MustBuild()
	m := schemagen.NewModel(rec)

	ctx := schemagen.WithService(context.Background(), &limits{max: 10})
	v, err := m.Validate(ctx, map[string]any{"qty": 50})
	require.NoError(t, err)
	assert.Equal(t, 10, v.(*core.Instance).Fields["qty"])

	_, err = m.Validate(context.Background(), map[string]any{"qty": 50})
	iss, ok := schemagen.AsIssues(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, validator.CodeValueError, iss[0].Code)
	assert.Contains(t, iss[0].Message, "not provided")
}

func TestCompiled_ReusesValidators(t *testing.T) {
	c := schemagen.NewCompiled()
	m := pairModel(t)
	m2 := schemagen.NewModel(m.Record(), schemagen.WithCompiled(c))
	for i := 0; i < 3; i++ {
		_, err := m2.Validate(context.Background(), map[string]any{"left": 1})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.Len())

	done, err := m2.Rebuild(true)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, c.Len())
}
