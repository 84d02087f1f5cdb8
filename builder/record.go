package builder

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/hooks"
	"github.com/reoring/schemagen/typeexpr"
)

// recordSchema builds rec into the definitions table and returns a
// reference to it. Meeting rec again while it is being built yields the
// reference without recursing.
func (g *Generator) recordSchema(rec *typeexpr.Record) (core.Schema, error) {
	ref := generics.TypeRef(rec)
	if s, ok := g.defs.SchemaOrRef(ref); ok {
		return s, nil
	}
	leave := g.defs.Enter(ref)
	defer leave()

	var s core.Schema
	var err error
	switch rec.Kind {
	case typeexpr.KindTypedDict:
		s, err = g.typedDictSchema(rec, ref)
	case typeexpr.KindNamedTuple:
		s, err = g.namedTupleSchema(rec, ref)
	case typeexpr.KindDataclass:
		s, err = g.dataclassSchema(rec, ref)
	default:
		s, err = g.modelSchema(rec, ref)
	}
	if err != nil {
		return nil, err
	}
	g.defs.Set(ref, s)
	g.log.Debug("definition built", zap.String("record", rec.QualName()), zap.String("ref", ref))
	return core.DefinitionRef(ref), nil
}

// recordParts is what the record kinds share: hooks, fields and the names
// hooks may target.
type recordParts struct {
	infos  *hooks.Infos
	fields []*typeexpr.FieldDecl
	cfg    typeexpr.Config
}

func (g *Generator) collectParts(rec *typeexpr.Record) (*recordParts, error) {
	infos, err := hooks.Collect(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "collect hooks of %s", rec.Name)
	}
	fields, err := rec.AllFields()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fields)+infos.ComputedFields.Len())
	for _, f := range fields {
		names = append(names, f.Name)
	}
	for _, d := range infos.ComputedFields.Values() {
		names = append(names, d.Name)
	}
	if err := hooks.CheckFieldsExist(infos.FieldValidators.Values(), names); err != nil {
		return nil, err
	}
	if err := hooks.CheckFieldsExist(infos.FieldSerializers.Values(), names); err != nil {
		return nil, err
	}
	if err := hooks.CheckFieldsExist(infos.Validators.Values(), names); err != nil {
		return nil, err
	}
	return &recordParts{infos: infos, fields: fields, cfg: rec.EffectiveConfig()}, nil
}

func (g *Generator) modelSchema(rec *typeexpr.Record, ref string) (core.Schema, error) {
	parts, err := g.collectParts(rec)
	if err != nil {
		return nil, err
	}
	mvs := parts.infos.ModelValidators.Values()
	model := &core.ModelSchema{Cls: rec, Config: parts.cfg.Core(rec.Name)}
	model.Ref = ref
	core.AddJSFunction(model, recordJSONSchema(rec, parts.cfg.Title))

	leave := g.enterRecord(rec)
	defer leave()
	if rec.Kind == typeexpr.KindRootModel {
		decl := findField(parts.fields, typeexpr.RootField)
		if decl == nil {
			return nil, core.Errorf(core.CodeModelFieldMissingAnnotation, "root model %s has no %q field", rec.Name, typeexpr.RootField)
		}
		f, err := g.commonField(rec, decl, parts.infos)
		if err != nil {
			return nil, err
		}
		root := true
		model.RootModel = &root
		model.Schema = hooks.ApplyModelValidators(f.schema, mvs, hooks.ModelInner)
	} else {
		fs := &core.ModelFieldsSchema{ModelName: rec.Name}
		for _, decl := range parts.fields {
			f, err := g.commonField(rec, decl, parts.infos)
			if err != nil {
				return nil, err
			}
			fs.Fields = append(fs.Fields, f.modelField(decl.Name))
		}
		if fs.ComputedFields, err = g.computedFields(parts.infos); err != nil {
			return nil, err
		}
		inner := hooks.ApplyValidators(fs, parts.infos.RootValidators.Values(), "")
		missing, err := core.DefineExpectedMissingRefs(inner, g.guard.Refs())
		if err != nil {
			return nil, err
		}
		if missing != nil {
			inner = missing
		}
		model.Schema = hooks.ApplyModelValidators(inner, mvs, hooks.ModelInner)
	}
	s, err := g.applyModelSerializers(model, parts.infos.ModelSerializers.Values())
	if err != nil {
		return nil, err
	}
	return keepRef(s, func(s core.Schema) core.Schema {
		return hooks.ApplyModelValidators(s, mvs, hooks.ModelOuter)
	}), nil
}

func (g *Generator) typedDictSchema(rec *typeexpr.Record, ref string) (core.Schema, error) {
	parts, err := g.collectParts(rec)
	if err != nil {
		return nil, err
	}
	owners, err := fieldOwners(rec)
	if err != nil {
		return nil, err
	}
	td := &core.TypedDictSchema{Cls: rec, Config: parts.cfg.Core(rec.Name)}
	td.Ref = ref
	core.AddJSFunction(td, recordJSONSchema(rec, parts.cfg.Title))

	leave := g.enterRecord(rec)
	defer leave()
	for _, decl := range parts.fields {
		f, err := g.commonField(rec, decl, parts.infos)
		if err != nil {
			return nil, err
		}
		required := owners[decl].IsTotal()
		if f.required != nil {
			required = *f.required
		}
		required = required && f.info.IsRequired()
		td.Fields = append(td.Fields, f.typedDictField(decl.Name, required))
	}
	if td.ComputedFields, err = g.computedFields(parts.infos); err != nil {
		return nil, err
	}
	s, err := g.applyModelSerializers(td, parts.infos.ModelSerializers.Values())
	if err != nil {
		return nil, err
	}
	return keepRef(s, func(s core.Schema) core.Schema {
		return hooks.ApplyModelValidators(s, parts.infos.ModelValidators.Values(), hooks.ModelAll)
	}), nil
}

// dataclassSchema builds a dataclass node over its constructor arguments.
// Init-only fields are validated and handed to post-init but not stored.
func (g *Generator) dataclassSchema(rec *typeexpr.Record, ref string) (core.Schema, error) {
	parts, err := g.collectParts(rec)
	if err != nil {
		return nil, err
	}
	mvs := parts.infos.ModelValidators.Values()
	dc := &core.DataclassSchema{Cls: rec, Config: parts.cfg.Core(rec.Name), PostInit: postInitOf(rec)}
	dc.Ref = ref
	core.AddJSFunction(dc, recordJSONSchema(rec, parts.cfg.Title))

	leave := g.enterRecord(rec)
	defer leave()
	args := &core.DataclassArgsSchema{DataclassName: rec.Name}
	collectInitOnly := false
	for _, decl := range parts.fields {
		f, err := g.commonField(rec, decl, parts.infos)
		if err != nil {
			return nil, err
		}
		args.Fields = append(args.Fields, f.dataclassField(decl.Name))
		if f.info.InitOnly {
			collectInitOnly = true
			continue
		}
		dc.Fields = append(dc.Fields, decl.Name)
	}
	if collectInitOnly {
		args.CollectInitOnly = boolPtr(true)
	}
	if args.ComputedFields, err = g.computedFields(parts.infos); err != nil {
		return nil, err
	}
	inner := hooks.ApplyValidators(args, parts.infos.RootValidators.Values(), "")
	missing, err := core.DefineExpectedMissingRefs(inner, g.guard.Refs())
	if err != nil {
		return nil, err
	}
	if missing != nil {
		inner = missing
	}
	dc.Schema = hooks.ApplyModelValidators(inner, mvs, hooks.ModelInner)
	s, err := g.applyModelSerializers(dc, parts.infos.ModelSerializers.Values())
	if err != nil {
		return nil, err
	}
	return keepRef(s, func(s core.Schema) core.Schema {
		return hooks.ApplyModelValidators(s, mvs, hooks.ModelOuter)
	}), nil
}

// postInitOf returns the post-init hook declared on rec or its ancestors.
func postInitOf(rec *typeexpr.Record) any {
	mro, err := rec.MRO()
	if err != nil {
		return nil
	}
	for _, r := range mro {
		if fn, ok := r.Attr(typeexpr.PostInitAttr); ok {
			return fn
		}
	}
	return nil
}

// namedTupleSchema validates a named tuple as call arguments, positional
// or by name, and returns the values in field order.
func (g *Generator) namedTupleSchema(rec *typeexpr.Record, ref string) (core.Schema, error) {
	fields, err := rec.AllFields()
	if err != nil {
		return nil, err
	}
	leave := g.enterRecord(rec)
	defer leave()
	args := &core.ArgumentsSchema{}
	core.MetadataOf(args)[core.MetaPreferPositional] = true
	for _, decl := range fields {
		t := decl.Type
		if t == nil {
			t = typeexpr.Any
		}
		p, err := g.parameterSchema(decl.Name, generics.ReplaceTypes(t, g.typevars), decl.Info, core.ModePositionalOrKeyword)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q of %s", decl.Name, rec.Name)
		}
		args.ArgumentsSchema = append(args.ArgumentsSchema, p)
	}
	call := &core.CallSchema{ArgumentsSchema: args, Function: tupleOf, FunctionName: rec.Name}
	call.Ref = ref
	return call, nil
}

func tupleOf(values ...any) []any { return values }

// fieldOwners maps each field declaration to the record declaring it.
func fieldOwners(rec *typeexpr.Record) (map[*typeexpr.FieldDecl]*typeexpr.Record, error) {
	mro, err := rec.MRO()
	if err != nil {
		return nil, err
	}
	out := map[*typeexpr.FieldDecl]*typeexpr.Record{}
	for _, r := range mro {
		for _, f := range r.Fields {
			if _, ok := out[f]; !ok {
				out[f] = r
			}
		}
	}
	return out, nil
}

func findField(fields []*typeexpr.FieldDecl, name string) *typeexpr.FieldDecl {
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// applyModelSerializers sets the serialization of a record node from the
// last model serializer.
func (g *Generator) applyModelSerializers(s core.Schema, ds []*hooks.Decorator[*hooks.ModelSerializerInfo]) (core.Schema, error) {
	if len(ds) == 0 {
		return s, nil
	}
	d := ds[len(ds)-1]
	rs, err := g.returnSchema(d.Func, d.Info.ReturnType)
	if err != nil {
		return nil, err
	}
	s = core.Copy(s)
	s.Base().Serialization = hooks.ModelSerSchema(d, rs)
	return s, nil
}

// returnSchema builds the schema of a serializer's return type, or nil
// when it returns any.
func (g *Generator) returnSchema(fn any, explicit typeexpr.Expr) (core.Schema, error) {
	rt, ok := hooks.ReturnTypeOf(fn, explicit)
	if !ok || rt == typeexpr.Any {
		return nil, nil
	}
	return g.Generate(generics.ReplaceTypes(rt, g.typevars))
}

// keepRef applies wrap to s with the ref of s moved to the outermost node.
func keepRef(s core.Schema, wrap func(core.Schema) core.Schema) core.Schema {
	ref := core.Ref(s)
	if ref == "" {
		return wrap(s)
	}
	s = core.Copy(s)
	s.Base().Ref = ""
	out := wrap(s)
	if out == s {
		s.Base().Ref = ref
		return s
	}
	out = core.Copy(out)
	out.Base().Ref = ref
	return out
}

// recordJSONSchema titles the rendered record with the configured title
// or its name and describes it with its docstring.
func recordJSONSchema(rec *typeexpr.Record, title string) core.JSFunc {
	if title == "" {
		title = rec.Name
	}
	return func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil {
			return nil, err
		}
		target, err := h.ResolveRef(js)
		if err != nil {
			return nil, err
		}
		target["title"] = title
		if doc := rec.Docstring(); doc != "" {
			if _, ok := target["description"]; !ok {
				target["description"] = doc
			}
		}
		for k, v := range rec.EffectiveConfig().JSONSchemaExtra {
			target[k] = v
		}
		return js, nil
	}
}
