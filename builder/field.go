package builder

import (
	"github.com/pkg/errors"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/hooks"
	"github.com/reoring/schemagen/typeexpr"
)

// fieldParts is a built field before it is placed in a record node.
type fieldParts struct {
	schema   core.Schema
	info     typeexpr.FieldInfo
	required *bool
	valAlias string
	serAlias string
	metadata core.Metadata
}

func (p *fieldParts) modelField(name string) *core.ModelField {
	f := &core.ModelField{Name: name, Schema: p.schema, SerializationAlias: p.serAlias, Metadata: p.metadata}
	if p.valAlias != "" {
		f.ValidationAlias = p.valAlias
	}
	if p.info.Exclude {
		f.SerializationExclude = boolPtr(true)
	}
	if p.info.Frozen {
		f.Frozen = boolPtr(true)
	}
	return f
}

func (p *fieldParts) typedDictField(name string, required bool) *core.TypedDictField {
	f := &core.TypedDictField{
		Name:               name,
		Schema:             p.schema,
		Required:           boolPtr(required),
		SerializationAlias: p.serAlias,
		Metadata:           p.metadata,
	}
	if p.valAlias != "" {
		f.ValidationAlias = p.valAlias
	}
	if p.info.Exclude {
		f.SerializationExclude = boolPtr(true)
	}
	return f
}

func (p *fieldParts) dataclassField(name string) *core.DataclassField {
	f := &core.DataclassField{Name: name, Schema: p.schema, SerializationAlias: p.serAlias, Metadata: p.metadata}
	if p.valAlias != "" {
		f.ValidationAlias = p.valAlias
	}
	if p.info.KwOnly {
		f.KwOnly = boolPtr(true)
	}
	if p.info.Init != nil && !*p.info.Init {
		f.Init = boolPtr(false)
	}
	if p.info.InitOnly {
		f.InitOnly = boolPtr(true)
	}
	if p.info.Exclude {
		f.SerializationExclude = boolPtr(true)
	}
	if p.info.Frozen {
		f.Frozen = boolPtr(true)
	}
	return f
}

func boolPtr(b bool) *bool { return &b }

// resolveField substitutes type variables, evaluates a forward reference
// when its names are already defined and splits Annotated metadata: a
// FieldInfo found there is merged under the declared one, Required and
// NotRequired markers are pulled out and the rest is returned as
// annotations, declared metadata last.
func (g *Generator) resolveField(t typeexpr.Expr, info typeexpr.FieldInfo) (typeexpr.Expr, typeexpr.FieldInfo, *bool, []any, error) {
	t = generics.ReplaceTypes(t, g.typevars)
	if f, ok := t.(*typeexpr.ForwardRef); ok {
		e, err := typeexpr.Eval(f.Source, g)
		switch {
		case err == nil:
			t = generics.ReplaceTypes(e, g.typevars)
		case !isUndefined(err):
			return nil, info, nil, nil, err
		}
	}
	inner, md := typeexpr.Unannotated(t)
	var fromAnn typeexpr.FieldInfo
	var annotations []any
	var marker *bool
	mergeInfo := func(fi typeexpr.FieldInfo) {
		annotations = append(annotations, fi.Metadata...)
		fi.Metadata = nil
		fromAnn = fromAnn.Merge(fi)
	}
	for _, m := range md {
		switch v := m.(type) {
		case typeexpr.FieldInfo:
			mergeInfo(v)
		case *typeexpr.FieldInfo:
			mergeInfo(*v)
		case typeexpr.Required:
			marker = boolPtr(true)
		case typeexpr.NotRequired:
			marker = boolPtr(false)
		default:
			annotations = append(annotations, m)
		}
	}
	declared := info.Metadata
	info.Metadata = nil
	merged := fromAnn.Merge(info)
	annotations = append(annotations, declared...)
	required := marker
	if info.Required != nil {
		required = info.Required
	} else if fromAnn.Required != nil && marker == nil {
		required = fromAnn.Required
	}
	return inner, merged, required, annotations, nil
}

func isUndefined(err error) bool {
	_, ok := core.AsUndefinedAnnotation(err)
	return ok
}

// commonField runs the field pipeline shared by models and typed dicts:
// annotations with the discriminator applied underneath them, legacy
// each-item and field validators, the default wrapper outermost among
// validators, then serializers, JSON Schema updates and aliases.
func (g *Generator) commonField(rec *typeexpr.Record, decl *typeexpr.FieldDecl, infos *hooks.Infos) (*fieldParts, error) {
	name := decl.Name
	if decl.Type == nil {
		return nil, core.Errorf(core.CodeModelFieldMissingAnnotation, "field %q of %s has no type annotation", name, rec.Name)
	}
	t, info, required, annotations, err := g.resolveField(decl.Type, decl.Info)
	if err != nil {
		return nil, errors.Wrapf(err, "field %q of %s", name, rec.Name)
	}
	var transform func(core.Schema) (core.Schema, error)
	if d := info.Discriminator; d != nil {
		transform = func(s core.Schema) (core.Schema, error) { return g.applyDiscriminator(s, d) }
	}
	pop := g.pushField(name)
	s, err := g.applyAnnotations(t, annotations, transform)
	pop()
	if err != nil {
		return nil, errors.Wrapf(err, "field %q of %s", name, rec.Name)
	}

	legacy := hooks.ForField(infos.Validators.Values(), name)
	validateDefault := info.ValidateDefault
	if hooks.RequireValidateDefault(legacy) {
		validateDefault = boolPtr(true)
	}
	each, rest := hooks.SplitEachItem(legacy)
	if s, err = hooks.ApplyEachItemValidators(s, each, name); err != nil {
		return nil, err
	}
	s = hooks.ApplyValidators(s, rest, name)
	s = hooks.ApplyValidators(s, hooks.ForField(infos.FieldValidators.Values(), name), name)
	if !info.IsRequired() {
		s = wrapDefault(info, validateDefault, s)
	}
	if s, err = g.applyFieldSerializers(s, hooks.ForField(infos.FieldSerializers.Values(), name)); err != nil {
		return nil, errors.Wrapf(err, "field %q of %s", name, rec.Name)
	}

	p := &fieldParts{schema: s, info: info, required: required}
	if fn := jsonSchemaUpdate(info.Title, info.Description, info.Examples, info.JSONSchemaExtra); fn != nil {
		p.metadata = core.Metadata{core.MetaJSAnnotationFunctions: []core.JSFunc{fn}}
	}
	p.valAlias, p.serAlias = g.aliases(name, info)
	return p, nil
}

func wrapDefault(info typeexpr.FieldInfo, validateDefault *bool, s core.Schema) core.Schema {
	d := &core.DefaultSchema{Schema: s, ValidateDefault: validateDefault}
	if info.DefaultFactory != nil {
		d.DefaultFactory = info.DefaultFactory
	} else {
		d.Default = info.Default
	}
	return d
}

// aliases returns the validation and serialization aliases of a field.
// Explicit aliases win over Alias, which wins over the alias generator.
func (g *Generator) aliases(name string, info typeexpr.FieldInfo) (string, string) {
	generated := ""
	if gen := g.Config().AliasGenerator; gen != nil {
		generated = gen(name)
	}
	return firstNonEmpty(info.ValidationAlias, info.Alias, generated), firstNonEmpty(info.SerializationAlias, info.Alias, generated)
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

// applyFieldSerializers sets the serialization of a field from the last
// of its serializers. A ref-carrying schema is stored as a definition and
// the serializer goes on a reference to it.
func (g *Generator) applyFieldSerializers(s core.Schema, ds []*hooks.Decorator[*hooks.FieldSerializerInfo]) (core.Schema, error) {
	if len(ds) == 0 {
		return s, nil
	}
	if defs, ok := s.(*core.DefinitionsSchema); ok {
		inner, err := g.applyFieldSerializers(defs.Schema, ds)
		if err != nil {
			return nil, err
		}
		c := core.Copy(defs).(*core.DefinitionsSchema)
		c.Schema = inner
		return c, nil
	}
	if ref := core.Ref(s); ref != "" {
		g.defs.Set(ref, s)
		s = core.DefinitionRef(ref)
	} else {
		s = core.Copy(s)
	}
	d := ds[len(ds)-1]
	rs, err := g.returnSchema(d.Func, d.Info.ReturnType)
	if err != nil {
		return nil, err
	}
	s.Base().Serialization = hooks.FieldSerSchema(d, rs)
	return s, nil
}

// computedFields builds the output-only properties of a record.
func (g *Generator) computedFields(infos *hooks.Infos) ([]*core.ComputedField, error) {
	var out []*core.ComputedField
	for _, d := range infos.ComputedFields.Values() {
		rt, ok := hooks.ReturnTypeOf(d.Func, d.Info.ReturnType)
		if !ok {
			return nil, core.Errorf(core.CodeModelFieldMissingAnnotation, "computed field %q is missing a return type; pass hooks.ReturnType", d.Name)
		}
		rs, err := g.Generate(generics.ReplaceTypes(rt, g.typevars))
		if err != nil {
			return nil, errors.Wrapf(err, "computed field %q", d.Name)
		}
		if rs, err = g.applyFieldSerializers(rs, hooks.ForField(infos.FieldSerializers.Values(), d.Name)); err != nil {
			return nil, err
		}
		alias := d.Info.Alias
		if gen := g.Config().AliasGenerator; alias == "" && gen != nil {
			alias = gen(d.Name)
		}
		out = append(out, &core.ComputedField{
			PropertyName: d.Name,
			ReturnSchema: rs,
			Alias:        alias,
			Function:     d.Func,
			Metadata:     core.Metadata{core.MetaJSAnnotationFunctions: []core.JSFunc{computedJSONSchema(d.Info)}},
		})
	}
	return out, nil
}

func computedJSONSchema(info *hooks.ComputedFieldInfo) core.JSFunc {
	return func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil {
			return nil, err
		}
		js["readOnly"] = true
		if info.Title != "" {
			js["title"] = info.Title
		}
		if info.Description != "" {
			js["description"] = info.Description
		}
		if info.Examples != nil {
			js["examples"] = info.Examples
		}
		for k, v := range info.JSONSchemaExtra {
			js[k] = v
		}
		return js, nil
	}
}

// parameterSchema builds one parameter of an arguments node.
func (g *Generator) parameterSchema(name string, t typeexpr.Expr, info typeexpr.FieldInfo, mode string) (*core.ArgumentsParameter, error) {
	src, info, _, annotations, err := g.resolveField(t, info)
	if err != nil {
		return nil, err
	}
	var transform func(core.Schema) (core.Schema, error)
	if d := info.Discriminator; d != nil {
		transform = func(s core.Schema) (core.Schema, error) { return g.applyDiscriminator(s, d) }
	}
	pop := g.pushField(name)
	s, err := g.applyAnnotations(src, annotations, transform)
	pop()
	if err != nil {
		return nil, err
	}
	if !info.IsRequired() {
		s = wrapDefault(info, info.ValidateDefault, s)
	}
	p := &core.ArgumentsParameter{Name: name, Schema: s, Mode: mode}
	if info.Alias != "" {
		p.Alias = info.Alias
	} else if gen := g.Config().AliasGenerator; gen != nil {
		p.Alias = gen(name)
	}
	return p, nil
}
