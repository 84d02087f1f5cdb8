package builder

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/reoring/schemagen/constraint"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/discriminator"
	"github.com/reoring/schemagen/hooks"
	"github.com/reoring/schemagen/typeexpr"
)

// applyAnnotations builds source and folds annotations onto it left to
// right, the first annotation innermost. transform, when set, rewrites
// the schema of source before any annotation is applied.
func (g *Generator) applyAnnotations(source typeexpr.Expr, annotations []any, transform func(core.Schema) (core.Schema, error)) (core.Schema, error) {
	annotations = constraint.Expand(annotations)
	s, err := g.Generate(source)
	if err != nil {
		return nil, err
	}
	if transform != nil {
		if s, err = transform(s); err != nil {
			return nil, err
		}
	}
	var jsFuncs []core.JSFunc
	for _, a := range annotations {
		if a == nil {
			continue
		}
		if s, err = g.applyAnnotation(s, a, &jsFuncs); err != nil {
			return nil, err
		}
	}
	if len(jsFuncs) > 0 {
		s = core.Copy(s)
		core.AddJSAnnotationFunctions(s, jsFuncs...)
	}
	return s, nil
}

func (g *Generator) applyAnnotation(s core.Schema, a any, jsFuncs *[]core.JSFunc) (core.Schema, error) {
	switch m := a.(type) {
	case typeexpr.FieldInfo:
		return g.applyFieldInfo(s, &m)
	case *typeexpr.FieldInfo:
		return g.applyFieldInfo(s, m)
	case hooks.Annotation:
		return m.ApplyHook(s, g)
	case typeexpr.Tag:
		s = core.Copy(s)
		core.SetTaggedUnionTag(s, m.Value)
		return s, nil
	case typeexpr.Discriminator, *typeexpr.Discriminator:
		return g.applyDiscriminator(s, m)
	case typeexpr.WithJSONSchema:
		*jsFuncs = append(*jsFuncs, withJSONSchema(m))
		return s, nil
	case typeexpr.Examples:
		*jsFuncs = append(*jsFuncs, withExamples(m))
		return s, nil
	case typeexpr.SkipJSONSchema:
		*jsFuncs = append(*jsFuncs, skipJSONSchema)
		return s, nil
	case typeexpr.Required, typeexpr.NotRequired:
		return s, nil
	}
	if constraint.IsKnown(a) {
		return g.applyKnown(s, a)
	}
	return s, nil
}

// applyFieldInfo applies a FieldInfo met inside Annotated: its metadata,
// its discriminator and its JSON Schema updates.
func (g *Generator) applyFieldInfo(s core.Schema, info *typeexpr.FieldInfo) (core.Schema, error) {
	var jsFuncs []core.JSFunc
	var err error
	for _, md := range constraint.Expand(info.Metadata) {
		if s, err = g.applyAnnotation(s, md, &jsFuncs); err != nil {
			return nil, err
		}
	}
	if info.Discriminator != nil {
		if s, err = g.applyDiscriminator(s, info.Discriminator); err != nil {
			return nil, err
		}
	}
	if fn := jsonSchemaUpdate(info.Title, info.Description, info.Examples, info.JSONSchemaExtra); fn != nil {
		jsFuncs = append(jsFuncs, fn)
	}
	if len(jsFuncs) > 0 {
		s = core.Copy(s)
		core.AddJSAnnotationFunctions(s, jsFuncs...)
	}
	return s, nil
}

// applyKnown applies a constraint. Nullable schemas get it on their inner
// schema. A ref-carrying schema, or a reference to a built definition, is
// copied under a derived ref so the unconstrained definition survives.
func (g *Generator) applyKnown(s core.Schema, a any) (core.Schema, error) {
	if n, ok := s.(*core.NullableSchema); ok {
		inner, err := g.applyKnown(n.Schema, a)
		if err != nil {
			return nil, err
		}
		c := core.Copy(n).(*core.NullableSchema)
		c.Schema = inner
		return c, nil
	}
	ref := core.Ref(s)
	base := s
	viaRef := false
	if dr, ok := s.(*core.DefinitionReferenceSchema); ok {
		if def, ok := g.defs.Get(dr.SchemaRef); ok {
			ref, base, viaRef = dr.SchemaRef, def, true
		}
	}
	if ref == "" {
		out, ok, err := constraint.Apply(a, s)
		if err != nil || !ok {
			return s, err
		}
		return out, nil
	}
	newRef := fmt.Sprintf("%s_%T%v", ref, a, a)
	if _, ok := g.defs.Get(newRef); ok {
		return core.DefinitionRef(newRef), nil
	}
	base = core.Copy(base)
	base.Base().Ref = ""
	out, ok, err := constraint.Apply(a, base)
	if err != nil || !ok {
		return s, err
	}
	out = core.Copy(out)
	out.Base().Ref = newRef
	if viaRef {
		g.defs.Set(newRef, out)
		return core.DefinitionRef(newRef), nil
	}
	return out, nil
}

// applyDiscriminator turns the union s into a tagged union. When a member
// is a reference to a definition still under construction the
// discriminator is parked on s and applied when the schema is cleaned.
func (g *Generator) applyDiscriminator(s core.Schema, d any) (core.Schema, error) {
	if d == nil {
		return s, nil
	}
	out, err := discriminator.Apply(s, d, g.defs.Map())
	if errors.Is(err, discriminator.ErrMissingDefinition) {
		s = core.Copy(s)
		core.SetDiscriminatorPlaceholder(s, d)
		return s, nil
	}
	return out, err
}

func modeMatches(want string, h core.JSONSchemaHandler) bool {
	return want == "" || want == h.Mode()
}

func withJSONSchema(m typeexpr.WithJSONSchema) core.JSFunc {
	return func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		if !modeMatches(m.Mode, h) {
			return h.Call(s)
		}
		out := make(map[string]any, len(m.Schema))
		for k, v := range m.Schema {
			out[k] = v
		}
		return out, nil
	}
}

func withExamples(m typeexpr.Examples) core.JSFunc {
	return func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil || !modeMatches(m.Mode, h) {
			return js, err
		}
		existing, _ := js["examples"].([]any)
		js["examples"] = append(append([]any{}, existing...), m.Values...)
		return js, nil
	}
}

func skipJSONSchema(core.Schema, core.JSONSchemaHandler) (map[string]any, error) {
	return nil, core.ErrOmit
}

// jsonSchemaUpdate overlays a rendered schema with field-level title,
// description, examples and extra keys. It returns nil when there is
// nothing to add.
func jsonSchemaUpdate(title, description string, examples []any, extra map[string]any) core.JSFunc {
	if title == "" && description == "" && examples == nil && extra == nil {
		return nil
	}
	return func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil {
			return nil, err
		}
		if title != "" {
			js["title"] = title
		}
		if description != "" {
			js["description"] = description
		}
		if examples != nil {
			js["examples"] = examples
		}
		for k, v := range extra {
			js[k] = v
		}
		return js, nil
	}
}
