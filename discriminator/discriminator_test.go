package discriminator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

func variant(name, tag string, extra ...*core.ModelField) *core.ModelSchema {
	rec := typeexpr.NewRecord(typeexpr.KindModel, "test", name)
	fields := append([]*core.ModelField{{Name: "kind", Schema: &core.LiteralSchema{Expected: []any{tag}}}}, extra...)
	return &core.ModelSchema{
		Common: core.Common{Ref: "test." + name},
		Cls:    rec,
		Schema: &core.ModelFieldsSchema{Fields: fields},
	}
}

func union(choices ...core.Schema) *core.UnionSchema {
	u := &core.UnionSchema{}
	for _, c := range choices {
		u.Choices = append(u.Choices, core.UnionChoice{Schema: c})
	}
	return u
}

func TestApply_DistinctValues(t *testing.T) {
	cat, dog, fish := variant("Cat", "cat"), variant("Dog", "dog"), variant("Fish", "fish")
	out, err := Apply(union(cat, dog, fish), "kind", nil)
	require.NoError(t, err)

	tu, ok := out.(*core.TaggedUnionSchema)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, 3, tu.Choices.Len())
	assert.Equal(t, "kind", tu.Discriminator)
	got, _ := tu.Choices.Get("dog")
	assert.Same(t, dog, got)
}

func TestApply_DuplicateValue(t *testing.T) {
	_, err := Apply(union(variant("Cat", "cat"), variant("Lion", "cat"), variant("Dog", "dog")), "kind", nil)
	assert.True(t, core.IsCode(err, core.CodeDiscriminatorDuplicateValue), "got %v", err)
	assert.Contains(t, err.Error(), "Value 'cat' for discriminator 'kind' mapped to multiple choices")
}

func TestApply_NullableArm(t *testing.T) {
	out, err := Apply(union(variant("A", "a"), variant("B", "b"), &core.NoneSchema{}), "kind", nil)
	require.NoError(t, err)
	n, ok := out.(*core.NullableSchema)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, 2, n.Schema.(*core.TaggedUnionSchema).Choices.Len())

	out, err = Apply(&core.NullableSchema{Schema: union(variant("A", "a"), variant("B", "b"))}, "kind", nil)
	require.NoError(t, err)
	assert.IsType(t, &core.NullableSchema{}, out)
}

func TestApply_MissingField(t *testing.T) {
	plain := &core.ModelSchema{
		Cls:    typeexpr.NewRecord(typeexpr.KindModel, "test", "Cat"),
		Schema: &core.ModelFieldsSchema{Fields: []*core.ModelField{{Name: "lives", Schema: &core.IntSchema{}}}},
	}
	_, err := Apply(union(plain, variant("Dog", "dog")), "kind", nil)
	assert.True(t, core.IsCode(err, core.CodeDiscriminatorNoField), "got %v", err)
	assert.Contains(t, err.Error(), "Model 'Cat' needs a discriminator field for key 'kind'")
}

func TestApply_NeedsLiteral(t *testing.T) {
	bad := &core.ModelSchema{
		Cls:    typeexpr.NewRecord(typeexpr.KindModel, "test", "Cat"),
		Schema: &core.ModelFieldsSchema{Fields: []*core.ModelField{{Name: "kind", Schema: &core.StrSchema{}}}},
	}
	_, err := Apply(union(bad, variant("Dog", "dog")), "kind", nil)
	assert.True(t, core.IsCode(err, core.CodeDiscriminatorNeedsLiteral), "got %v", err)
}

func TestApply_Aliases(t *testing.T) {
	a := variant("A", "a")
	b := variant("B", "b")
	a.Schema.(*core.ModelFieldsSchema).Fields[0].ValidationAlias = "type"
	b.Schema.(*core.ModelFieldsSchema).Fields[0].ValidationAlias = "type"
	out, err := Apply(union(a, b), "kind", nil)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"kind"}, {"type"}}, out.(*core.TaggedUnionSchema).Discriminator)

	b.Schema.(*core.ModelFieldsSchema).Fields[0].ValidationAlias = "tag"
	_, err = Apply(union(a, b), "kind", nil)
	assert.True(t, core.IsCode(err, core.CodeDiscriminatorAlias), "got %v", err)
}

func TestApply_DefinitionRefs(t *testing.T) {
	cat, dog := variant("Cat", "cat"), variant("Dog", "dog")
	u := union(core.DefinitionRef("test.Cat"), core.DefinitionRef("test.Dog"))

	_, err := Apply(u, "kind", map[string]core.Schema{"test.Cat": cat})
	assert.ErrorIs(t, err, ErrMissingDefinition)

	out, err := Apply(u, "kind", map[string]core.Schema{"test.Cat": cat, "test.Dog": dog})
	require.NoError(t, err)
	got, _ := out.(*core.TaggedUnionSchema).Choices.Get("cat")
	assert.IsType(t, &core.DefinitionReferenceSchema{}, got)
}

func TestApply_CoalescesNestedTaggedUnion(t *testing.T) {
	inner, err := Apply(union(variant("A", "a"), variant("B", "b")), "kind", nil)
	require.NoError(t, err)
	out, err := Apply(union(inner, variant("C", "c")), "kind", nil)
	require.NoError(t, err)
	tu := out.(*core.TaggedUnionSchema)
	assert.ElementsMatch(t, []any{"a", "b", "c"}, tu.Choices.Tags())
	for _, b := range tu.Choices.Branches() {
		assert.IsType(t, &core.ModelSchema{}, b)
	}
}

func TestApply_SharedBranchForSeveralValues(t *testing.T) {
	multi := variant("AB", "a")
	multi.Schema.(*core.ModelFieldsSchema).Fields[0].Schema = &core.LiteralSchema{Expected: []any{"a", "b"}}
	out, err := Apply(union(multi, variant("C", "c")), "kind", nil)
	require.NoError(t, err)
	tu := out.(*core.TaggedUnionSchema)
	a, _ := tu.Choices.Get("a")
	b, _ := tu.Choices.Get("b")
	assert.Same(t, a, b)
	assert.Len(t, tu.Choices.Branches(), 2)
}

func TestApply_InvalidVariant(t *testing.T) {
	_, err := Apply(union(&core.IntSchema{}, variant("C", "c")), "kind", nil)
	assert.True(t, core.IsCode(err, core.CodeDiscriminatorInvalidVariant), "got %v", err)

	_, err = Apply(&core.StrSchema{}, "kind", nil)
	assert.True(t, core.IsCode(err, core.CodeDiscriminatorUnionSize), "got %v", err)
}

func TestApply_Callable(t *testing.T) {
	cat, dog := variant("Cat", "cat"), variant("Dog", "dog")
	core.SetTaggedUnionTag(cat, "c")
	u := union(cat, dog)
	u.Choices[1].Tag = "d"

	d := &typeexpr.Discriminator{Func: func(v any) any { return v }}
	out, err := Apply(u, d, nil)
	require.NoError(t, err)
	tu := out.(*core.TaggedUnionSchema)
	assert.Equal(t, []any{"c", "d"}, tu.Choices.Tags())

	u.Choices[1].Tag = nil
	_, err = Apply(u, d, nil)
	assert.True(t, core.IsCode(err, core.CodeCallableDiscriminatorNoTag), "got %v", err)
}

func TestApplyAll_ResolvesPlaceholders(t *testing.T) {
	cat, dog := variant("Cat", "cat"), variant("Dog", "dog")
	u := union(core.DefinitionRef("test.Cat"), core.DefinitionRef("test.Dog"))
	core.SetDiscriminatorPlaceholder(u, "kind")
	root := &core.DefinitionsSchema{
		Schema:      &core.ListSchema{ItemsSchema: u},
		Definitions: []core.Schema{cat, dog},
	}
	deferred, err := HasDeferred(root)
	require.NoError(t, err)
	require.True(t, deferred)

	out, err := ApplyAll(root)
	require.NoError(t, err)
	inner, _ := core.Unpack(out)
	items := inner.(*core.ListSchema).ItemsSchema
	assert.IsType(t, &core.TaggedUnionSchema{}, items)

	deferred, err = HasDeferred(out)
	require.NoError(t, err)
	assert.False(t, deferred)
}

func dataclassVariant(name, tag string) *core.DataclassSchema {
	rec := typeexpr.NewRecord(typeexpr.KindDataclass, "test", name)
	return &core.DataclassSchema{
		Common: core.Common{Ref: "test." + name},
		Cls:    rec,
		Schema: &core.DataclassArgsSchema{DataclassName: name, Fields: []*core.DataclassField{
			{Name: "kind", Schema: &core.DefaultSchema{Schema: &core.LiteralSchema{Expected: []any{tag}}, Default: tag}},
		}},
		Fields: []string{"kind"},
	}
}

func TestApply_DataclassVariants(t *testing.T) {
	circle := dataclassVariant("Circle", "circle")
	out, err := Apply(union(circle, variant("Square", "square")), "kind", nil)
	require.NoError(t, err)
	tu := out.(*core.TaggedUnionSchema)
	got, ok := tu.Choices.Get("circle")
	require.True(t, ok)
	assert.Same(t, circle, got)

	bare := dataclassVariant("Bare", "bare")
	bare.Schema.(*core.DataclassArgsSchema).Fields = nil
	_, err = Apply(union(circle, bare), "kind", nil)
	assert.True(t, core.IsCode(err, core.CodeDiscriminatorNoField), "got %v", err)
	assert.Contains(t, err.Error(), "Dataclass 'Bare'")
}
