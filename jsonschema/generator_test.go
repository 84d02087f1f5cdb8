package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/reoring/schemagen/builder"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

func ptr[T any](v T) *T { return &v }

func render(t *testing.T, s core.Schema, mode Mode, opts ...Option) string {
	t.Helper()
	js, err := New(opts...).Generate(s, mode)
	require.NoError(t, err)
	b, err := Marshal(js)
	require.NoError(t, err)
	return string(b)
}

func resolve(t *testing.T, rec *typeexpr.Record) core.Schema {
	t.Helper()
	s, err := builder.Resolve(rec)
	require.NoError(t, err)
	return s
}

func TestGenerate_Leaves(t *testing.T) {
	cases := []struct {
		name string
		in   core.Schema
		want string
	}{
		{"any", &core.AnySchema{}, `{}`},
		{"int bounds", &core.IntSchema{Ge: ptr(int64(1)), Lt: ptr(int64(10))}, `{"type":"integer","minimum":1,"exclusiveMaximum":10}`},
		{"float", &core.FloatSchema{MultipleOf: ptr(0.5)}, `{"type":"number","multipleOf":0.5}`},
		{"str", &core.StrSchema{MinLength: ptr(1), Pattern: "^a"}, `{"type":"string","minLength":1,"pattern":"^a"}`},
		{"nullable", &core.NullableSchema{Schema: &core.StrSchema{}}, `{"anyOf":[{"type":"string"},{"type":"null"}]}`},
		{"nullable none", &core.NullableSchema{Schema: &core.NoneSchema{}}, `{"type":"null"}`},
		{"set", &core.SetSchema{ItemsSchema: &core.IntSchema{}, MaxLength: ptr(3)}, `{"type":"array","items":{"type":"integer"},"uniqueItems":true,"maxItems":3}`},
		{"tuple", &core.TupleSchema{ItemsSchema: []core.Schema{&core.StrSchema{}, &core.IntSchema{}}}, `{"type":"array","prefixItems":[{"type":"string"},{"type":"integer"}],"minItems":2,"maxItems":2}`},
		{"variadic tuple", &core.TupleSchema{ItemsSchema: []core.Schema{&core.StrSchema{}, &core.IntSchema{}}, VariadicItemIndex: ptr(1)}, `{"type":"array","prefixItems":[{"type":"string"}],"minItems":1,"items":{"type":"integer"}}`},
		{"dict", &core.DictSchema{KeysSchema: &core.StrSchema{}, ValuesSchema: &core.IntSchema{}}, `{"type":"object","additionalProperties":{"type":"integer"}}`},
		{"dict pattern keys", &core.DictSchema{KeysSchema: &core.StrSchema{Pattern: "^x"}, ValuesSchema: &core.IntSchema{}}, `{"type":"object","patternProperties":{"^x":{"type":"integer"}}}`},
		{"literal one", &core.LiteralSchema{Expected: []any{"cat"}}, `{"const":"cat"}`},
		{"literal many", &core.LiteralSchema{Expected: []any{1, 2}}, `{"enum":[1,2],"type":"integer"}`},
		{"literal mixed", &core.LiteralSchema{Expected: []any{1, "a"}}, `{"enum":[1,"a"]}`},
		{"enum", &core.EnumSchema{Members: []any{"red", "green"}, SubType: "str"}, `{"enum":["red","green"],"type":"string"}`},
		{"uuid", &core.UUIDSchema{}, `{"type":"string","format":"uuid"}`},
		{"timedelta", &core.TimedeltaSchema{}, `{"type":"string","format":"duration"}`},
		{"default", &core.DefaultSchema{Schema: &core.IntSchema{}, Default: 3}, `{"type":"integer","default":3}`},
		{"chain", &core.ChainSchema{Steps: []core.Schema{&core.StrSchema{}, &core.IntSchema{}}}, `{"type":"string"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.JSONEq(t, tc.want, render(t, tc.in, ModeValidation))
		})
	}
}

func TestGenerate_ChainSerializationUsesLastStep(t *testing.T) {
	s := &core.ChainSchema{Steps: []core.Schema{&core.StrSchema{}, &core.IntSchema{}}}
	assert.JSONEq(t, `{"type":"integer"}`, render(t, s, ModeSerialization))
}

func TestGenerate_SerializerReturnType(t *testing.T) {
	s := &core.IntSchema{}
	s.Serialization = &core.PlainSerializerFunctionSerSchema{
		Function:     func(v int) string { return "" },
		ReturnSchema: &core.StrSchema{},
	}
	assert.JSONEq(t, `{"type":"integer"}`, render(t, s, ModeValidation))
	assert.JSONEq(t, `{"type":"string"}`, render(t, s, ModeSerialization))
}

func TestGenerate_SimpleModel(t *testing.T) {
	user := typeexpr.Model("app", "User").
		Field("user_name", typeexpr.Str).Required().
		Field("age", typeexpr.Int).Default(0).
		Doc("A registered user.").
		MustBuild()

	want := `{
		"type": "object",
		"title": "User",
		"description": "A registered user.",
		"properties": {
			"user_name": {"type": "string", "title": "User Name"},
			"age": {"type": "integer", "title": "Age", "default": 0}
		},
		"required": ["user_name"]
	}`
	assert.JSONEq(t, want, render(t, resolve(t, user), ModeValidation))
}

func TestGenerate_ForbidExtraAndAliases(t *testing.T) {
	rec := typeexpr.Model("app", "Login").
		Field("name", typeexpr.Str).Alias("userName").
		Field("secret", typeexpr.Str).Exclude().Required().
		ExtraForbid().
		MustBuild()
	s := resolve(t, rec)

	assert.JSONEq(t, `{
		"type": "object",
		"title": "Login",
		"additionalProperties": false,
		"properties": {
			"userName": {"type": "string", "title": "Username"},
			"secret": {"type": "string", "title": "Secret"}
		},
		"required": ["userName", "secret"]
	}`, render(t, s, ModeValidation))

	assert.JSONEq(t, `{
		"type": "object",
		"title": "Login",
		"additionalProperties": false,
		"properties": {"userName": {"type": "string", "title": "Username"}},
		"required": ["userName"]
	}`, render(t, s, ModeSerialization))

	assert.JSONEq(t, `{
		"type": "object",
		"title": "Login",
		"additionalProperties": false,
		"properties": {
			"name": {"type": "string", "title": "Name"},
			"secret": {"type": "string", "title": "Secret"}
		},
		"required": ["name", "secret"]
	}`, render(t, s, ModeValidation, ByAlias(false)))
}

func TestGenerate_Dataclass(t *testing.T) {
	rec := typeexpr.Dataclass("geo", "Point").
		Field("x", typeexpr.Int).
		Field("scale", typeexpr.Float).InitOnly().Default(1.0).
		Field("label", typeexpr.Str).KwOnly().Default("").
		Field("norm", typeexpr.Int).NoInit().Default(0).
		Doc("A point.").
		MustBuild()
	s := resolve(t, rec)

	assert.JSONEq(t, `{
		"type": "object",
		"title": "Point",
		"description": "A point.",
		"properties": {
			"x": {"type": "integer", "title": "X"},
			"scale": {"type": "number", "title": "Scale", "default": 1.0},
			"label": {"type": "string", "title": "Label", "default": ""}
		},
		"required": ["x"]
	}`, render(t, s, ModeValidation))

	assert.JSONEq(t, `{
		"type": "object",
		"title": "Point",
		"description": "A point.",
		"properties": {
			"x": {"type": "integer", "title": "X"},
			"label": {"type": "string", "title": "Label", "default": ""},
			"norm": {"type": "integer", "title": "Norm", "default": 0}
		},
		"required": ["x"]
	}`, render(t, s, ModeSerialization))
}

func TestGenerate_SelfReference(t *testing.T) {
	ns := typeexpr.NewNamespace("app")
	node := typeexpr.Model("app", "Node").
		Field("value", typeexpr.Int).Required().
		Field("next", typeexpr.Ref("Node | None")).Default(nil).
		In(ns).MustBuild()

	want := `{
		"$ref": "#/$defs/Node",
		"$defs": {
			"Node": {
				"type": "object",
				"title": "Node",
				"properties": {
					"value": {"type": "integer", "title": "Value"},
					"next": {"anyOf": [{"$ref": "#/$defs/Node"}, {"type": "null"}], "default": null}
				},
				"required": ["value"]
			}
		}
	}`
	assert.JSONEq(t, want, render(t, resolve(t, node), ModeValidation))
}

func TestGenerateDefinitions_SharedNestedRecord(t *testing.T) {
	point := typeexpr.Model("geo", "Point").
		Field("x", typeexpr.Int).Required().
		MustBuild()
	line := typeexpr.Model("geo", "Line").
		Field("start", point).Required().
		Field("end", point).Required().
		MustBuild()
	marker := typeexpr.Model("geo", "Marker").
		Field("at", point).Required().
		MustBuild()

	g := New()
	roots, defs, err := g.GenerateDefinitions([]Input{
		{Key: "line", Mode: ModeValidation, Schema: resolve(t, line)},
		{Key: "marker", Mode: ModeValidation, Schema: resolve(t, marker)},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"$ref": "#/$defs/Line"}, roots[InputKey{Key: "line", Mode: ModeValidation}])
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Marker"}, roots[InputKey{Key: "marker", Mode: ModeValidation}])

	names := make([]string, 0, len(defs))
	for k := range defs {
		names = append(names, k)
	}
	assert.ElementsMatch(t, []string{"Line", "Marker", "Point"}, names)

	lineProps := defs["Line"].(map[string]any)["properties"].(map[string]any)
	markerProps := defs["Marker"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Point"}, lineProps["start"])
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Point"}, lineProps["end"])
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Point"}, markerProps["at"])
}

func TestGenerate_CollidingNamesAreQualified(t *testing.T) {
	shopItem := typeexpr.Model("shop", "Item").Field("price", typeexpr.Float).Required().MustBuild()
	blogItem := typeexpr.Model("blog", "Item").Field("body", typeexpr.Str).Required().MustBuild()
	holder := typeexpr.Model("app", "Holder").
		Field("a", shopItem).Required().
		Field("b", blogItem).Required().
		MustBuild()

	want := `{
		"type": "object",
		"title": "Holder",
		"properties": {
			"a": {"$ref": "#/$defs/shop__Item"},
			"b": {"$ref": "#/$defs/blog__Item"}
		},
		"required": ["a", "b"],
		"$defs": {
			"shop__Item": {
				"type": "object",
				"title": "Item",
				"properties": {"price": {"type": "number", "title": "Price"}},
				"required": ["price"]
			},
			"blog__Item": {
				"type": "object",
				"title": "Item",
				"properties": {"body": {"type": "string", "title": "Body"}},
				"required": ["body"]
			}
		}
	}`
	assert.JSONEq(t, want, render(t, resolve(t, holder), ModeValidation))
}

func thing() *core.ModelSchema {
	m := &core.ModelSchema{
		Schema: &core.ModelFieldsSchema{
			Fields: []*core.ModelField{{Name: "x", Schema: &core.IntSchema{}}},
			ComputedFields: []*core.ComputedField{
				{PropertyName: "double", ReturnSchema: &core.IntSchema{}},
			},
		},
	}
	m.Ref = "app.Thing:1"
	return m
}

func TestGenerateDefinitions_ModesSuffixOnlyWhenDifferent(t *testing.T) {
	roots, defs, err := New().GenerateDefinitions([]Input{
		{Key: "thing", Mode: ModeValidation, Schema: thing()},
		{Key: "thing", Mode: ModeSerialization, Schema: thing()},
	})
	require.NoError(t, err)
	assert.Equal(t, "#/$defs/Thing-Input", roots[InputKey{"thing", ModeValidation}]["$ref"])
	assert.Equal(t, "#/$defs/Thing-Output", roots[InputKey{"thing", ModeSerialization}]["$ref"])
	assert.Len(t, defs, 2)

	plain := func() core.Schema {
		m := &core.ModelSchema{Schema: &core.ModelFieldsSchema{
			Fields: []*core.ModelField{{Name: "x", Schema: &core.IntSchema{}}},
		}}
		m.Ref = "app.Plain:2"
		return m
	}
	roots, defs, err = New().GenerateDefinitions([]Input{
		{Key: "plain", Mode: ModeValidation, Schema: plain()},
		{Key: "plain", Mode: ModeSerialization, Schema: plain()},
	})
	require.NoError(t, err)
	assert.Equal(t, "#/$defs/Plain", roots[InputKey{"plain", ModeValidation}]["$ref"])
	assert.Equal(t, "#/$defs/Plain", roots[InputKey{"plain", ModeSerialization}]["$ref"])
	assert.Len(t, defs, 1)
}

func TestGenerate_ComputedFieldsInSerialization(t *testing.T) {
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"x": {"type": "integer", "title": "X"},
			"double": {"type": "integer", "title": "Double"}
		},
		"required": ["x", "double"]
	}`, render(t, thing(), ModeSerialization))
}

func invalidHolder() core.Schema {
	return &core.ModelFieldsSchema{Fields: []*core.ModelField{
		{Name: "ok", Schema: &core.IntSchema{}},
		{Name: "conn", Schema: &core.IsInstanceSchema{ClsRepr: "net.Conn"}},
	}}
}

func TestGenerate_InvalidFieldIsSkippedWithWarning(t *testing.T) {
	g := New(WithLogger(zaptest.NewLogger(t)))
	js, err := g.Generate(invalidHolder(), ModeValidation)
	require.NoError(t, err)
	props := js["properties"].(map[string]any)
	assert.Contains(t, props, "ok")
	assert.NotContains(t, props, "conn")

	require.Len(t, g.Warnings(), 1)
	assert.Equal(t, WarnSkippedField, g.Warnings()[0].Kind)
	assert.Contains(t, g.Warnings()[0].Detail, "net.Conn")
}

func TestGenerate_InvalidFieldFailsWhenStrict(t *testing.T) {
	_, err := New(Strict(true)).Generate(invalidHolder(), ModeValidation)
	inv, ok := AsInvalid(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, inv.Message, "net.Conn")
}

func TestGenerate_UnionSkipsInvalidChoice(t *testing.T) {
	g := New()
	u := &core.UnionSchema{Choices: []core.UnionChoice{
		{Schema: &core.IntSchema{}},
		{Schema: &core.CallableSchema{}},
	}}
	js, err := g.Generate(u, ModeValidation)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "integer"}, js)
	require.Len(t, g.Warnings(), 1)
	assert.Equal(t, WarnSkippedChoice, g.Warnings()[0].Kind)

	_, err = New(Strict(true)).Generate(u, ModeValidation)
	_, ok := AsInvalid(err)
	assert.True(t, ok, "got %v", err)
}

func TestGenerate_InvalidDefinitionOnlyFailsWhenUsed(t *testing.T) {
	bad := &core.IsInstanceSchema{ClsRepr: "os.File"}
	bad.Ref = "app.File:9"
	s := &core.DefinitionsSchema{
		Schema:      &core.StrSchema{},
		Definitions: []core.Schema{bad},
	}
	assert.JSONEq(t, `{"type":"string"}`, render(t, s, ModeValidation))

	used := &core.DefinitionsSchema{
		Schema:      &core.ListSchema{ItemsSchema: core.DefinitionRef("app.File:9")},
		Definitions: []core.Schema{bad},
	}
	_, err := New().Generate(used, ModeValidation)
	_, ok := AsInvalid(err)
	assert.True(t, ok, "got %v", err)
}

func TestGenerate_DiscriminatorMapping(t *testing.T) {
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

	js, err := New().Generate(resolve(t, owner), ModeValidation)
	require.NoError(t, err)
	pet := js["properties"].(map[string]any)["pet"].(map[string]any)
	assert.Equal(t, []any{
		map[string]any{"$ref": "#/$defs/Cat"},
		map[string]any{"$ref": "#/$defs/Dog"},
	}, pet["oneOf"])
	assert.Equal(t, map[string]any{
		"propertyName": "kind",
		"mapping": map[string]any{
			"cat": "#/$defs/Cat",
			"dog": "#/$defs/Dog",
		},
	}, pet["discriminator"])
	assert.Equal(t, "Pet", pet["title"])

	defs := js["$defs"].(map[string]any)
	catProps := defs["Cat"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"const": "cat", "title": "Kind"}, catProps["kind"])
}

func TestGenerate_DefaultNextToReference(t *testing.T) {
	point := &core.ModelSchema{Schema: &core.ModelFieldsSchema{
		Fields: []*core.ModelField{{Name: "x", Schema: &core.IntSchema{}}},
	}}
	point.Ref = "geo.Point:1"
	s := &core.DefinitionsSchema{
		Schema: &core.ModelFieldsSchema{Fields: []*core.ModelField{
			{Name: "origin", Schema: &core.DefaultSchema{Schema: core.DefinitionRef("geo.Point:1"), Default: map[string]any{"x": 0}}},
		}},
		Definitions: []core.Schema{point},
	}
	js, err := New().Generate(s, ModeValidation)
	require.NoError(t, err)
	origin := js["properties"].(map[string]any)["origin"]
	assert.Equal(t, map[string]any{
		"allOf":   []any{map[string]any{"$ref": "#/$defs/Point"}},
		"default": map[string]any{"x": 0},
	}, origin)
}

func TestGenerate_NestedDefaultNumbers(t *testing.T) {
	type limits struct {
		Max   int       `json:"max"`
		Ratio float64   `json:"ratio"`
		Steps []float64 `json:"steps"`
	}
	s := &core.DefaultSchema{Schema: &core.AnySchema{}, Default: limits{Max: 3, Ratio: 0.5, Steps: []float64{1, 2.5}}}
	js, err := New().Generate(s, ModeValidation)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"max":   3,
		"ratio": 0.5,
		"steps": []any{1, 2.5},
	}, js["default"])
}

func TestGenerate_NonSerializableDefaultIsDropped(t *testing.T) {
	g := New()
	js, err := g.Generate(&core.DefaultSchema{Schema: &core.AnySchema{}, Default: make(chan int)}, ModeValidation)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, js)
	require.Len(t, g.Warnings(), 1)
	assert.Equal(t, WarnNonSerializableDefault, g.Warnings()[0].Kind)
}

func TestGenerate_Arguments(t *testing.T) {
	kw := &core.ArgumentsSchema{ArgumentsSchema: []*core.ArgumentsParameter{
		{Name: "a", Schema: &core.IntSchema{}},
		{Name: "b", Schema: &core.DefaultSchema{Schema: &core.StrSchema{}, Default: "x"}, Mode: core.ModeKeywordOnly},
	}}
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"a": {"type": "integer", "title": "A"},
			"b": {"type": "string", "default": "x", "title": "B"}
		},
		"required": ["a"],
		"additionalProperties": false
	}`, render(t, kw, ModeValidation))

	pos := &core.ArgumentsSchema{
		ArgumentsSchema: []*core.ArgumentsParameter{
			{Name: "a", Schema: &core.IntSchema{}, Mode: core.ModePositionalOnly},
		},
		VarArgsSchema: &core.StrSchema{},
	}
	assert.JSONEq(t, `{
		"type": "array",
		"prefixItems": [{"type": "integer", "title": "A"}],
		"minItems": 1,
		"items": {"type": "string"}
	}`, render(t, pos, ModeValidation))

	both := &core.ArgumentsSchema{ArgumentsSchema: []*core.ArgumentsParameter{
		{Name: "a", Schema: &core.IntSchema{}, Mode: core.ModePositionalOnly},
		{Name: "b", Schema: &core.IntSchema{}, Mode: core.ModeKeywordOnly},
	}}
	_, err := New().Generate(both, ModeValidation)
	_, ok := AsInvalid(err)
	assert.True(t, ok, "got %v", err)
}

func TestGenerate_NamedTuplePrefersArray(t *testing.T) {
	pair := typeexpr.NamedTuple("geo", "Pair").
		Field("left", typeexpr.Int).Required().
		Field("right", typeexpr.Int).Default(0).
		MustBuild()
	js, err := New().Generate(resolve(t, pair), ModeValidation)
	require.NoError(t, err)
	assert.Equal(t, "array", js["type"])
	assert.Equal(t, 1, js["minItems"])
	assert.Equal(t, 2, js["maxItems"])
}

func TestGenerate_Hooks(t *testing.T) {
	s := &core.StrSchema{}
	core.AddJSFunction(s, func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil {
			return nil, err
		}
		js["format"] = "email"
		return js, nil
	})
	core.AddJSAnnotationFunctions(s, func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil {
			return nil, err
		}
		js["examples"] = []any{h.Mode()}
		return js, nil
	})
	assert.JSONEq(t, `{"type":"string","format":"email","examples":["validation"]}`, render(t, s, ModeValidation))

	hidden := &core.IntSchema{}
	core.AddJSFunction(hidden, func(core.Schema, core.JSONSchemaHandler) (map[string]any, error) {
		return nil, core.ErrOmit
	})
	fields := &core.ModelFieldsSchema{Fields: []*core.ModelField{
		{Name: "shown", Schema: &core.IntSchema{}},
		{Name: "hidden", Schema: hidden},
	}}
	js, err := New().Generate(fields, ModeValidation)
	require.NoError(t, err)
	assert.NotContains(t, js["properties"], "hidden")
	assert.Equal(t, []string{"shown"}, js["required"])
}

func TestGenerate_HookUpdatesDefinitionThroughReference(t *testing.T) {
	item := &core.ModelSchema{Schema: &core.ModelFieldsSchema{
		Fields: []*core.ModelField{{Name: "id", Schema: &core.IntSchema{}}},
	}}
	item.Ref = "shop.Item:4"
	core.AddJSFunction(item, func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil {
			return nil, err
		}
		target, err := h.ResolveRef(js)
		if err != nil {
			return nil, err
		}
		target["title"] = "Shop item"
		return js, nil
	})
	list := &core.ListSchema{ItemsSchema: item}
	js, err := New().Generate(list, ModeValidation)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Item"}, js["items"])
	assert.Equal(t, "Shop item", js["$defs"].(map[string]any)["Item"].(map[string]any)["title"])
}

func TestGenerate_RefTemplate(t *testing.T) {
	item := &core.ModelSchema{Schema: &core.ModelFieldsSchema{}}
	item.Ref = "shop.Item:4"
	s := &core.TupleSchema{ItemsSchema: []core.Schema{item, core.DefinitionRef("shop.Item:4")}}
	js, err := New(WithRefTemplate("#/components/schemas/{model}")).Generate(s, ModeValidation)
	require.NoError(t, err)
	prefix := js["prefixItems"].([]any)
	assert.Equal(t, map[string]any{"$ref": "#/components/schemas/Item"}, prefix[0])
	assert.Equal(t, prefix[0], prefix[1])
	assert.Contains(t, js["$defs"], "Item")
}

func TestGenerator_IsSingleUse(t *testing.T) {
	g := New()
	_, err := g.Generate(&core.IntSchema{}, ModeValidation)
	require.NoError(t, err)
	_, err = g.Generate(&core.IntSchema{}, ModeValidation)
	assert.ErrorIs(t, err, ErrGeneratorUsed)
}

func TestTitleFromName(t *testing.T) {
	assert.Equal(t, "First Name", TitleFromName("first_name"))
	assert.Equal(t, "Username", TitleFromName("userName"))
	assert.Equal(t, "Private", TitleFromName("_private"))
}

func TestRefNames(t *testing.T) {
	q, s := refNames("app.Box:7[shop.Item:3,int:9f]")
	assert.Equal(t, "app.Box[shop.Item,int]", q)
	assert.Equal(t, "Box[Item,int]", s)
	assert.Equal(t, "app__Box_shop__Item_int_", normalizeName(q))
}
