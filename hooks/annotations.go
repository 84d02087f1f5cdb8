package hooks

import (
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// SchemaHandler is what annotation hooks need from the schema builder.
type SchemaHandler interface {
	Generate(e typeexpr.Expr) (core.Schema, error)
	FieldName() string
}

// Annotation is Annotated metadata that rewrites the schema of the type it
// annotates.
type Annotation interface {
	ApplyHook(s core.Schema, h SchemaHandler) (core.Schema, error)
}

type (
	// BeforeValidator runs Func on the raw input before the annotated type
	// validates it.
	BeforeValidator struct{ Func any }
	// AfterValidator runs Func on the validated value.
	AfterValidator struct{ Func any }
	// WrapValidator runs Func with a handler that validates with the
	// annotated type.
	WrapValidator struct{ Func any }
	// PlainValidator replaces validation by the annotated type with Func.
	PlainValidator struct{ Func any }
)

func (v BeforeValidator) ApplyHook(s core.Schema, h SchemaHandler) (core.Schema, error) {
	return annotatedValidator(ModeBefore, v.Func, s, h)
}

func (v AfterValidator) ApplyHook(s core.Schema, h SchemaHandler) (core.Schema, error) {
	return annotatedValidator(ModeAfter, v.Func, s, h)
}

func (v WrapValidator) ApplyHook(s core.Schema, h SchemaHandler) (core.Schema, error) {
	return annotatedValidator(ModeWrap, v.Func, s, h)
}

func (v PlainValidator) ApplyHook(s core.Schema, h SchemaHandler) (core.Schema, error) {
	return annotatedValidator(ModePlain, v.Func, s, h)
}

func annotatedValidator(mode string, fn any, s core.Schema, h SchemaHandler) (core.Schema, error) {
	infoArg, err := InspectValidator(fn, mode)
	if err != nil {
		return nil, err
	}
	return ValidatorNode(mode, fn, infoArg, s, h.FieldName()), nil
}

// PlainSerializer replaces serialization of the annotated type with Func.
type PlainSerializer struct {
	Func       any
	ReturnType typeexpr.Expr
	WhenUsed   string
}

// WrapSerializer calls Func with a handler that runs the default
// serialization of the annotated type.
type WrapSerializer struct {
	Func       any
	ReturnType typeexpr.Expr
	WhenUsed   string
}

func (p PlainSerializer) ApplyHook(s core.Schema, h SchemaHandler) (core.Schema, error) {
	infoArg, err := InspectAnnotatedSerializer(p.Func, ModePlain)
	if err != nil {
		return nil, err
	}
	rs, err := returnSchema(p.Func, p.ReturnType, h)
	if err != nil {
		return nil, err
	}
	out := core.Copy(s)
	out.Base().Serialization = &core.PlainSerializerFunctionSerSchema{
		Function:     p.Func,
		InfoArg:      infoArg,
		ReturnSchema: rs,
		WhenUsed:     whenUsed(p.WhenUsed),
	}
	return out, nil
}

func (w WrapSerializer) ApplyHook(s core.Schema, h SchemaHandler) (core.Schema, error) {
	infoArg, err := InspectAnnotatedSerializer(w.Func, ModeWrap)
	if err != nil {
		return nil, err
	}
	rs, err := returnSchema(w.Func, w.ReturnType, h)
	if err != nil {
		return nil, err
	}
	out := core.Copy(s)
	out.Base().Serialization = &core.WrapSerializerFunctionSerSchema{
		Function:     w.Func,
		InfoArg:      infoArg,
		ReturnSchema: rs,
		WhenUsed:     whenUsed(w.WhenUsed),
	}
	return out, nil
}

// returnSchema generates the schema of a serializer's return type, or nil
// when the function returns any.
func returnSchema(fn any, explicit typeexpr.Expr, h SchemaHandler) (core.Schema, error) {
	rt, ok := ReturnTypeOf(fn, explicit)
	if !ok || rt == typeexpr.Any {
		return nil, nil
	}
	return h.Generate(rt)
}

func whenUsed(w string) string {
	if w == "" {
		return core.WhenAlways
	}
	return w
}
