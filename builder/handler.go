package builder

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// Handler is passed to a CoreSchemaProvider.
type Handler interface {
	// Generate builds the default schema of e without consulting e's own
	// provider, so a provider may call it with its source type.
	Generate(e typeexpr.Expr) (core.Schema, error)
	// GenerateFresh builds e from scratch, providers included.
	GenerateFresh(e typeexpr.Expr) (core.Schema, error)
	// ResolveRefSchema returns the definition a reference points at.
	ResolveRefSchema(s core.Schema) (core.Schema, error)
	// FieldName is the field being built, or "".
	FieldName() string
}

// CoreSchemaProvider is implemented by types that build their own core
// schema. An Opaque whose Go type implements it is treated the same way.
type CoreSchemaProvider interface {
	CoreSchema(source typeexpr.Expr, h Handler) (core.Schema, error)
}

// JSONSchemaProvider is implemented by types that customize their rendered
// JSON Schema.
type JSONSchemaProvider interface {
	JSONSchema(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error)
}

type callbackHandler struct {
	g *Generator
	// unpack resolves a returned reference to its definition; otherwise a
	// ref-carrying result is stored and replaced by a reference.
	unpack bool
}

func (h *callbackHandler) Generate(e typeexpr.Expr) (core.Schema, error) {
	s, err := h.g.generateInner(e)
	if err != nil {
		return nil, err
	}
	if h.unpack {
		return h.ResolveRefSchema(s)
	}
	if ref := core.Ref(s); ref != "" {
		h.g.defs.Set(ref, s)
		return core.DefinitionRef(ref), nil
	}
	return s, nil
}

func (h *callbackHandler) GenerateFresh(e typeexpr.Expr) (core.Schema, error) {
	return h.g.Generate(e)
}

func (h *callbackHandler) ResolveRefSchema(s core.Schema) (core.Schema, error) {
	dr, ok := s.(*core.DefinitionReferenceSchema)
	if !ok {
		return s, nil
	}
	def, ok := h.g.defs.Get(dr.SchemaRef)
	if !ok {
		return nil, errors.Errorf("could not find a definition for ref %q; it may be under construction", dr.SchemaRef)
	}
	return def, nil
}

func (h *callbackHandler) FieldName() string { return h.g.FieldName() }

func coreSchemaProviderOf(e typeexpr.Expr) (CoreSchemaProvider, bool) {
	if p, ok := e.(CoreSchemaProvider); ok {
		return p, true
	}
	p, ok := goTypeValue(e).(CoreSchemaProvider)
	return p, ok
}

func jsonSchemaProviderOf(e typeexpr.Expr) (JSONSchemaProvider, bool) {
	if p, ok := e.(JSONSchemaProvider); ok {
		return p, true
	}
	p, ok := goTypeValue(e).(JSONSchemaProvider)
	return p, ok
}

// goTypeValue returns a usable value of an Opaque's Go type, pointer types
// pointing at a zero value.
func goTypeValue(e typeexpr.Expr) any {
	o, ok := e.(*typeexpr.Opaque)
	if !ok || o.GoType == nil {
		return nil
	}
	if o.GoType.Kind() == reflect.Pointer {
		return reflect.New(o.GoType.Elem()).Interface()
	}
	return reflect.Zero(o.GoType).Interface()
}
