package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/typeexpr"
)

func box() (*typeexpr.Record, *typeexpr.TypeVar) {
	t := typeexpr.NewTypeVar("T")
	rec := typeexpr.Model("test", "Box").Generic(t).
		Field("value", t).Required().
		MustBuild()
	return rec, t
}

func TestInstantiate_Basic(t *testing.T) {
	rec, tv := box()
	cache := generics.NewCache(10)
	log := zaptest.NewLogger(t)

	same, err := Instantiate(rec, []typeexpr.Expr{tv}, WithCache(cache))
	require.NoError(t, err)
	assert.Same(t, rec, same)

	e, err := Instantiate(rec, []typeexpr.Expr{typeexpr.Int}, WithCache(cache), WithLogger(log))
	require.NoError(t, err)
	sub, ok := e.(*typeexpr.Record)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "Box[int]", sub.Name)
	require.True(t, sub.Complete())

	s, _ := sub.Schema()
	fs := fieldsOf(t, s)
	assert.IsType(t, &core.IntSchema{}, fs.Fields[0].Schema)

	again, err := Instantiate(rec, []typeexpr.Expr{typeexpr.Int}, WithCache(cache))
	require.NoError(t, err)
	assert.Same(t, sub, again)
}

func TestInstantiate_WrongArity(t *testing.T) {
	rec, _ := box()
	_, err := Instantiate(rec, []typeexpr.Expr{typeexpr.Int, typeexpr.Str})
	assert.True(t, core.IsCode(err, core.CodeGenericParameters), "got %v", err)

	plain := typeexpr.Model("test", "Plain").Field("x", typeexpr.Int).Required().MustBuild()
	_, err = Instantiate(plain, []typeexpr.Expr{typeexpr.Int})
	assert.True(t, core.IsCode(err, core.CodeGenericParameters), "got %v", err)
}

func TestInstantiate_PartialEqualsDirect(t *testing.T) {
	rec, tv := box()
	cache := generics.NewCache(10)

	e, err := Instantiate(rec, []typeexpr.Expr{typeexpr.ListOf(tv)}, WithCache(cache))
	require.NoError(t, err)
	partial := e.(*typeexpr.Record)
	assert.Equal(t, []*typeexpr.TypeVar{tv}, partial.Parameters())

	viaPartial, err := Instantiate(partial, []typeexpr.Expr{typeexpr.Int}, WithCache(cache))
	require.NoError(t, err)
	direct, err := Instantiate(rec, []typeexpr.Expr{typeexpr.ListOf(typeexpr.Int)}, WithCache(cache))
	require.NoError(t, err)
	assert.Same(t, direct, viaPartial)

	s, err := Resolve(direct.(*typeexpr.Record))
	require.NoError(t, err)
	list, ok := fieldsOf(t, s).Fields[0].Schema.(*core.ListSchema)
	require.True(t, ok)
	assert.IsType(t, &core.IntSchema{}, list.ItemsSchema)
}

func TestInstantiate_RecursiveGeneric(t *testing.T) {
	tv := typeexpr.NewTypeVar("T")
	ns := typeexpr.NewNamespace("test")
	chain := typeexpr.Model("test", "Chain").Generic(tv).
		Field("value", tv).Required().
		Field("next", typeexpr.Ref("Chain[T] | None")).Default(nil).
		In(ns).MustBuild()

	e, err := Instantiate(chain, []typeexpr.Expr{typeexpr.Str}, WithCache(generics.NewCache(10)))
	require.NoError(t, err)
	sub := e.(*typeexpr.Record)
	s, err := Resolve(sub)
	require.NoError(t, err)

	defs, ok := s.(*core.DefinitionsSchema)
	require.True(t, ok, "got %T", s)
	top := defs.Schema.(*core.DefinitionReferenceSchema)
	assert.Equal(t, generics.TypeRef(sub), top.SchemaRef)

	fs := fieldsOf(t, defs.Definitions[0])
	assert.IsType(t, &core.StrSchema{}, fs.Fields[0].Schema)
	next := fs.Fields[1].Schema.(*core.DefaultSchema).Schema.(*core.NullableSchema)
	assert.Equal(t, top.SchemaRef, next.Schema.(*core.DefinitionReferenceSchema).SchemaRef)
}

func TestInstantiate_GuardYieldsRecursiveRef(t *testing.T) {
	rec, _ := box()
	guard := generics.NewRecursionGuard()
	_, leave := guard.Enter(rec, []typeexpr.Expr{typeexpr.Int})
	defer leave()

	e, err := Instantiate(rec, []typeexpr.Expr{typeexpr.Int}, WithGuard(guard), WithCache(generics.NewCache(10)))
	require.NoError(t, err)
	ref, ok := e.(*typeexpr.RecursiveRef)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, generics.ArgsRef(rec, []typeexpr.Expr{typeexpr.Int}), ref.TypeRef)
}
