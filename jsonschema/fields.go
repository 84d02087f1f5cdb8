package jsonschema

import (
	"github.com/pkg/errors"

	"github.com/reoring/schemagen/core"
)

type namedField struct {
	name     string
	required bool
	schema   core.Schema
	metadata core.Metadata
}

func (g *Generator) modelSchema(s *core.ModelSchema) (map[string]any, error) {
	leave := g.pushConfig(s.Config)
	js, err := g.GenerateInner(s.Schema)
	leave()
	if err != nil {
		return nil, err
	}
	if s.RootModel != nil && *s.RootModel {
		return js, nil
	}
	target, err := g.resolveRef(js)
	if err != nil {
		return nil, err
	}
	if s.Config != nil {
		if s.Config.Title != "" {
			if _, ok := target["title"]; !ok {
				target["title"] = s.Config.Title
			}
		}
		setExtra(target, s.Config.ExtraFieldsBehavior)
	}
	return js, nil
}

func (g *Generator) modelFieldsSchema(s *core.ModelFieldsSchema) (map[string]any, error) {
	var named []namedField
	for _, f := range s.Fields {
		if !g.fieldPresent(f.SerializationExclude) {
			continue
		}
		named = append(named, namedField{
			name:     g.aliasName(f.Name, f.ValidationAlias, f.SerializationAlias),
			required: f.Schema.Type() != "default",
			schema:   f.Schema,
			metadata: f.Metadata,
		})
	}
	named = append(named, g.computedFields(s.ComputedFields)...)
	js, err := g.namedFieldsSchema(named)
	if err != nil {
		return nil, err
	}
	if s.ExtrasSchema != nil {
		extras, err := g.GenerateInner(s.ExtrasSchema)
		if err != nil {
			return nil, err
		}
		js["additionalProperties"] = extras
	}
	setExtra(js, s.ExtraBehavior)
	return js, nil
}

func (g *Generator) typedDictSchema(s *core.TypedDictSchema) (map[string]any, error) {
	total := s.Total == nil || *s.Total
	var named []namedField
	for _, f := range s.Fields {
		if !g.fieldPresent(f.SerializationExclude) {
			continue
		}
		required := total
		if f.Required != nil {
			required = *f.Required
		}
		named = append(named, namedField{
			name:     g.aliasName(f.Name, f.ValidationAlias, f.SerializationAlias),
			required: required,
			schema:   f.Schema,
			metadata: f.Metadata,
		})
	}
	named = append(named, g.computedFields(s.ComputedFields)...)
	leave := g.pushConfig(s.Config)
	js, err := g.namedFieldsSchema(named)
	leave()
	if err != nil {
		return nil, err
	}
	if s.ExtrasSchema != nil {
		extras, err := g.GenerateInner(s.ExtrasSchema)
		if err != nil {
			return nil, err
		}
		js["additionalProperties"] = extras
	}
	extra := s.ExtraBehavior
	if extra == "" && s.Config != nil {
		extra = s.Config.ExtraFieldsBehavior
	}
	setExtra(js, extra)
	return js, nil
}

func (g *Generator) dataclassSchema(s *core.DataclassSchema) (map[string]any, error) {
	leave := g.pushConfig(s.Config)
	js, err := g.GenerateInner(s.Schema)
	leave()
	if err != nil {
		return nil, err
	}
	target, err := g.resolveRef(js)
	if err != nil {
		return nil, err
	}
	if s.Config != nil {
		if s.Config.Title != "" {
			if _, ok := target["title"]; !ok {
				target["title"] = s.Config.Title
			}
		}
		setExtra(target, s.Config.ExtraFieldsBehavior)
	}
	return js, nil
}

// dataclassArgsSchema renders the constructor arguments as an object.
// Fields kept out of the constructor only exist in serialization mode and
// init-only fields only in validation mode.
func (g *Generator) dataclassArgsSchema(s *core.DataclassArgsSchema) (map[string]any, error) {
	var named []namedField
	for _, f := range s.Fields {
		if !g.fieldPresent(f.SerializationExclude) {
			continue
		}
		if g.mode == ModeSerialization && f.InitOnly != nil && *f.InitOnly {
			continue
		}
		if g.mode != ModeSerialization && !f.InInit() {
			continue
		}
		named = append(named, namedField{
			name:     g.aliasName(f.Name, f.ValidationAlias, f.SerializationAlias),
			required: f.Schema.Type() != "default",
			schema:   f.Schema,
			metadata: f.Metadata,
		})
	}
	named = append(named, g.computedFields(s.ComputedFields)...)
	js, err := g.namedFieldsSchema(named)
	if err != nil {
		return nil, err
	}
	setExtra(js, s.ExtraBehavior)
	return js, nil
}

// computedFields lists the computed fields, which only exist in
// serialization mode.
func (g *Generator) computedFields(cfs []*core.ComputedField) []namedField {
	if g.mode != ModeSerialization {
		return nil
	}
	out := make([]namedField, 0, len(cfs))
	for _, cf := range cfs {
		name := cf.PropertyName
		if g.byAlias && cf.Alias != "" {
			name = cf.Alias
		}
		out = append(out, namedField{name: name, required: true, schema: cf.ReturnSchema, metadata: cf.Metadata})
	}
	return out
}

func (g *Generator) fieldPresent(serializationExclude *bool) bool {
	if g.mode == ModeSerialization {
		return serializationExclude == nil || !*serializationExclude
	}
	return true
}

// aliasName returns the property name of a field in the current mode.
func (g *Generator) aliasName(name string, validation any, serialization string) string {
	if !g.byAlias {
		return name
	}
	if g.mode == ModeSerialization {
		if serialization != "" {
			return serialization
		}
		return name
	}
	switch a := validation.(type) {
	case string:
		if a != "" {
			return a
		}
	case [][]any:
		for _, path := range a {
			if len(path) == 1 {
				if s, ok := path[0].(string); ok {
					return s
				}
			}
		}
	case []any:
		if len(a) == 1 {
			if s, ok := a[0].(string); ok {
				return s
			}
		}
	}
	return name
}

// namedFieldsSchema renders an object from its fields. A field without a
// title is titled after its name unless it renders a definition.
func (g *Generator) namedFieldsSchema(fields []namedField) (map[string]any, error) {
	props := make(map[string]any, len(fields))
	var required []string
	for _, f := range fields {
		js, err := g.generateField(f.schema, f.metadata)
		if errors.Is(err, core.ErrOmit) {
			continue
		}
		if inv, ok := AsInvalid(err); ok {
			if err := g.skip(WarnSkippedField, &InvalidForJSONSchemaError{Message: "field " + f.name + ": " + inv.Message}); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.name)
		}
		js = clone(js)
		if _, ok := js["title"]; !ok && titleShouldBeSet(f.schema) {
			js["title"] = TitleFromName(f.name)
		}
		props[f.name] = g.refOverrides(js)
		if f.required {
			required = append(required, f.name)
		}
	}
	js := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		js["required"] = required
	}
	return js, nil
}

// titleShouldBeSet reports whether a field of schema s gets a title
// derived from its name. Definitions carry their own titles.
func titleShouldBeSet(s core.Schema) bool {
	if s == nil {
		return true
	}
	if core.Ref(s) != "" {
		return false
	}
	switch s.(type) {
	case *core.DefaultSchema, *core.NullableSchema, *core.DefinitionsSchema:
		return titleShouldBeSet(core.InnerSchema(s))
	case *core.DefinitionReferenceSchema:
		return false
	}
	if core.IsFunctionWithInnerSchema(s) {
		return titleShouldBeSet(core.InnerSchema(s))
	}
	return true
}

// refOverrides drops keys next to a $ref that repeat the definition and
// moves the reference into an allOf when other keys remain.
func (g *Generator) refOverrides(js map[string]any) map[string]any {
	ref, ok := js["$ref"].(string)
	if !ok {
		return js
	}
	def, err := g.fromDefinitions(ref)
	if err != nil || def == nil {
		return js
	}
	out := clone(js)
	for k, v := range out {
		if k == "$ref" {
			continue
		}
		if dv, ok := def[k]; ok && canonical(dv) == canonical(v) {
			delete(out, k)
		}
	}
	if len(out) > 1 {
		delete(out, "$ref")
		out["allOf"] = []any{refValue(ref)}
	}
	return out
}

func setExtra(js map[string]any, extra string) {
	if _, ok := js["additionalProperties"]; ok {
		return
	}
	switch extra {
	case core.ExtraAllow:
		js["additionalProperties"] = true
	case core.ExtraForbid:
		js["additionalProperties"] = false
	}
}

// argumentsSchema renders call arguments as an object when they can all be
// passed by keyword and as an array when they can all be passed by
// position.
func (g *Generator) argumentsSchema(s *core.ArgumentsSchema) (map[string]any, error) {
	var kwOnly, kwOrPos, posOnly []*core.ArgumentsParameter
	for _, a := range s.ArgumentsSchema {
		switch a.Mode {
		case core.ModeKeywordOnly:
			kwOnly = append(kwOnly, a)
		case core.ModePositionalOnly:
			posOnly = append(posOnly, a)
		default:
			kwOrPos = append(kwOrPos, a)
		}
	}
	positionalPossible := len(kwOnly) == 0 && s.VarKwargsSchema == nil
	keywordPossible := len(posOnly) == 0 && s.VarArgsSchema == nil
	prefer, _ := s.Base().Metadata[core.MetaPreferPositional].(bool)
	if prefer && positionalPossible {
		return g.positionalArguments(append(posOnly, kwOrPos...), s.VarArgsSchema)
	}
	if keywordPossible {
		return g.keywordArguments(append(kwOrPos, kwOnly...), s.VarKwargsSchema)
	}
	if positionalPossible {
		return g.positionalArguments(append(posOnly, kwOrPos...), s.VarArgsSchema)
	}
	return nil, invalidf("arguments with both positional-only and keyword-only parameters")
}

func (g *Generator) argument(a *core.ArgumentsParameter) (string, map[string]any, error) {
	name := a.Name
	if g.byAlias && a.Alias != "" {
		name = a.Alias
	}
	js, err := g.GenerateInner(a.Schema)
	if err != nil {
		return "", nil, errors.Wrapf(err, "argument %q", name)
	}
	js = clone(js)
	js["title"] = TitleFromName(name)
	return name, js, nil
}

func (g *Generator) keywordArguments(args []*core.ArgumentsParameter, varKwargs core.Schema) (map[string]any, error) {
	props := make(map[string]any, len(args))
	var required []string
	for _, a := range args {
		name, js, err := g.argument(a)
		if err != nil {
			return nil, err
		}
		props[name] = js
		if a.Schema.Type() != "default" {
			required = append(required, name)
		}
	}
	js := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		js["required"] = required
	}
	if varKwargs == nil {
		js["additionalProperties"] = false
		return js, nil
	}
	extra, err := g.GenerateInner(varKwargs)
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		js["additionalProperties"] = extra
	}
	return js, nil
}

func (g *Generator) positionalArguments(args []*core.ArgumentsParameter, varArgs core.Schema) (map[string]any, error) {
	prefix := make([]any, 0, len(args))
	minItems := 0
	for _, a := range args {
		_, js, err := g.argument(a)
		if err != nil {
			return nil, err
		}
		prefix = append(prefix, js)
		if a.Schema.Type() != "default" {
			minItems++
		}
	}
	js := map[string]any{"type": "array", "prefixItems": prefix}
	if minItems > 0 {
		js["minItems"] = minItems
	}
	if varArgs == nil {
		js["maxItems"] = len(prefix)
		return js, nil
	}
	items, err := g.GenerateInner(varArgs)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		js["items"] = items
	}
	return js, nil
}
