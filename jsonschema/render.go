package jsonschema

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/reoring/schemagen/core"
)

func on[T core.Schema](fn func(*Generator, T) (map[string]any, error)) RenderFunc {
	return func(g *Generator, s core.Schema) (map[string]any, error) {
		n, ok := s.(T)
		if !ok {
			return nil, errors.Errorf("renderer for %q got %T", s.Type(), s)
		}
		return fn(g, n)
	}
}

func defaultDispatch() map[string]RenderFunc {
	return map[string]RenderFunc{
		"any":             on((*Generator).anySchema),
		"none":            on((*Generator).noneSchema),
		"bool":            on((*Generator).boolSchema),
		"int":             on((*Generator).intSchema),
		"float":           on((*Generator).floatSchema),
		"str":             on((*Generator).strSchema),
		"bytes":           on((*Generator).bytesSchema),
		"date":            on((*Generator).dateSchema),
		"time":            on((*Generator).timeSchema),
		"datetime":        on((*Generator).datetimeSchema),
		"timedelta":       on((*Generator).timedeltaSchema),
		"uuid":            on((*Generator).uuidSchema),
		"literal":         on((*Generator).literalSchema),
		"enum":            on((*Generator).enumSchema),
		"is-instance":     on((*Generator).isInstanceSchema),
		"callable":        on((*Generator).callableSchema),
		"list":            on((*Generator).listSchema),
		"set":             on((*Generator).setSchema),
		"frozenset":       on((*Generator).frozenSetSchema),
		"tuple":           on((*Generator).tupleSchema),
		"dict":            on((*Generator).dictSchema),
		"function-before": on((*Generator).functionBeforeSchema),
		"function-after":  on((*Generator).functionAfterSchema),
		"function-wrap":   on((*Generator).functionWrapSchema),
		"function-plain":  on((*Generator).functionPlainSchema),
		"default":         on((*Generator).defaultSchema),
		"nullable":        on((*Generator).nullableSchema),
		"union":           on((*Generator).unionSchema),
		"tagged-union":    on((*Generator).taggedUnionSchema),
		"chain":           on((*Generator).chainSchema),
		"model-fields":    on((*Generator).modelFieldsSchema),
		"model":           on((*Generator).modelSchema),
		"typed-dict":      on((*Generator).typedDictSchema),
		"dataclass":       on((*Generator).dataclassSchema),
		"dataclass-args":  on((*Generator).dataclassArgsSchema),
		"arguments":       on((*Generator).argumentsSchema),
		"call":            on((*Generator).callSchema),
		"definitions":     on((*Generator).definitionsSchema),
		"definition-ref":  on((*Generator).definitionRefSchema),
	}
}

func (g *Generator) anySchema(*core.AnySchema) (map[string]any, error) {
	return map[string]any{}, nil
}

func (g *Generator) noneSchema(*core.NoneSchema) (map[string]any, error) {
	return map[string]any{"type": "null"}, nil
}

func (g *Generator) boolSchema(*core.BoolSchema) (map[string]any, error) {
	return map[string]any{"type": "boolean"}, nil
}

func (g *Generator) intSchema(s *core.IntSchema) (map[string]any, error) {
	js := map[string]any{"type": "integer"}
	setInt(js, "multipleOf", s.MultipleOf)
	setInt(js, "maximum", s.Le)
	setInt(js, "minimum", s.Ge)
	setInt(js, "exclusiveMaximum", s.Lt)
	setInt(js, "exclusiveMinimum", s.Gt)
	return js, nil
}

func (g *Generator) floatSchema(s *core.FloatSchema) (map[string]any, error) {
	js := map[string]any{"type": "number"}
	setFloat(js, "multipleOf", s.MultipleOf)
	setFloat(js, "maximum", s.Le)
	setFloat(js, "minimum", s.Ge)
	setFloat(js, "exclusiveMaximum", s.Lt)
	setFloat(js, "exclusiveMinimum", s.Gt)
	return js, nil
}

func (g *Generator) strSchema(s *core.StrSchema) (map[string]any, error) {
	js := map[string]any{"type": "string"}
	setLen(js, "minLength", s.MinLength)
	setLen(js, "maxLength", s.MaxLength)
	if s.Pattern != "" {
		js["pattern"] = s.Pattern
	}
	return js, nil
}

func (g *Generator) bytesSchema(s *core.BytesSchema) (map[string]any, error) {
	js := map[string]any{"type": "string", "format": "binary"}
	setLen(js, "minLength", s.MinLength)
	setLen(js, "maxLength", s.MaxLength)
	return js, nil
}

func (g *Generator) dateSchema(*core.DateSchema) (map[string]any, error) {
	return map[string]any{"type": "string", "format": "date"}, nil
}

func (g *Generator) timeSchema(*core.TimeSchema) (map[string]any, error) {
	return map[string]any{"type": "string", "format": "time"}, nil
}

func (g *Generator) datetimeSchema(*core.DatetimeSchema) (map[string]any, error) {
	return map[string]any{"type": "string", "format": "date-time"}, nil
}

func (g *Generator) timedeltaSchema(*core.TimedeltaSchema) (map[string]any, error) {
	if g.config().SerJSONTimedelta == "float" {
		return map[string]any{"type": "number"}, nil
	}
	return map[string]any{"type": "string", "format": "duration"}, nil
}

func (g *Generator) uuidSchema(*core.UUIDSchema) (map[string]any, error) {
	return map[string]any{"type": "string", "format": "uuid"}, nil
}

func (g *Generator) literalSchema(s *core.LiteralSchema) (map[string]any, error) {
	expected := make([]any, len(s.Expected))
	for i, v := range s.Expected {
		e, err := encodeValue(v)
		if err != nil {
			return nil, invalidf("literal value %v: %v", v, err)
		}
		expected[i] = e
	}
	if len(expected) == 1 {
		return map[string]any{"const": expected[0]}, nil
	}
	js := map[string]any{"enum": expected}
	if t := commonType(s.Expected); t != "" {
		js["type"] = t
	}
	return js, nil
}

func (g *Generator) enumSchema(s *core.EnumSchema) (map[string]any, error) {
	members := make([]any, len(s.Members))
	for i, v := range s.Members {
		e, err := encodeValue(v)
		if err != nil {
			return nil, invalidf("enum member %v: %v", v, err)
		}
		members[i] = e
	}
	js := map[string]any{"enum": members}
	if len(members) == 1 {
		js["const"] = members[0]
	}
	switch s.SubType {
	case "str":
		js["type"] = "string"
	case "int":
		js["type"] = "integer"
	case "float":
		js["type"] = "number"
	default:
		if t := commonType(s.Members); t != "" {
			js["type"] = t
		}
	}
	return js, nil
}

func (g *Generator) isInstanceSchema(s *core.IsInstanceSchema) (map[string]any, error) {
	repr := s.ClsRepr
	if repr == "" {
		repr = fmt.Sprintf("%v", s.Cls)
	}
	return nil, invalidf("an instance check (%s)", repr)
}

func (g *Generator) callableSchema(*core.CallableSchema) (map[string]any, error) {
	return nil, invalidf("a callable")
}

func (g *Generator) arraySchema(items core.Schema, minLen, maxLen *int) (map[string]any, error) {
	itemsJS := map[string]any{}
	if items != nil {
		var err error
		if itemsJS, err = g.GenerateInner(items); err != nil {
			return nil, err
		}
	}
	js := map[string]any{"type": "array", "items": itemsJS}
	setLen(js, "minItems", minLen)
	setLen(js, "maxItems", maxLen)
	return js, nil
}

func (g *Generator) listSchema(s *core.ListSchema) (map[string]any, error) {
	return g.arraySchema(s.ItemsSchema, s.MinLength, s.MaxLength)
}

func (g *Generator) setSchema(s *core.SetSchema) (map[string]any, error) {
	js, err := g.arraySchema(s.ItemsSchema, s.MinLength, s.MaxLength)
	if err != nil {
		return nil, err
	}
	js["uniqueItems"] = true
	return js, nil
}

func (g *Generator) frozenSetSchema(s *core.FrozenSetSchema) (map[string]any, error) {
	js, err := g.arraySchema(s.ItemsSchema, s.MinLength, s.MaxLength)
	if err != nil {
		return nil, err
	}
	js["uniqueItems"] = true
	return js, nil
}

func (g *Generator) tupleSchema(s *core.TupleSchema) (map[string]any, error) {
	js := map[string]any{"type": "array"}
	render := func(items []core.Schema) ([]any, error) {
		out := make([]any, len(items))
		for i, it := range items {
			r, err := g.GenerateInner(it)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}
	if s.VariadicItemIndex != nil {
		vi := *s.VariadicItemIndex
		if vi > 0 {
			prefix, err := render(s.ItemsSchema[:vi])
			if err != nil {
				return nil, err
			}
			js["minItems"] = vi
			js["prefixItems"] = prefix
		}
		if vi+1 == len(s.ItemsSchema) {
			items, err := g.GenerateInner(s.ItemsSchema[vi])
			if err != nil {
				return nil, err
			}
			js["items"] = items
		} else {
			js["items"] = true
		}
	} else {
		prefix, err := render(s.ItemsSchema)
		if err != nil {
			return nil, err
		}
		if len(prefix) > 0 {
			js["prefixItems"] = prefix
		}
		js["minItems"] = len(prefix)
		js["maxItems"] = len(prefix)
	}
	setLen(js, "minItems", s.MinLength)
	setLen(js, "maxItems", s.MaxLength)
	return js, nil
}

func (g *Generator) dictSchema(s *core.DictSchema) (map[string]any, error) {
	js := map[string]any{"type": "object"}
	keys := map[string]any{}
	if s.KeysSchema != nil {
		k, err := g.GenerateInner(s.KeysSchema)
		if err != nil {
			return nil, err
		}
		keys = clone(k)
	}
	values := map[string]any{}
	if s.ValuesSchema != nil {
		v, err := g.GenerateInner(s.ValuesSchema)
		if err != nil {
			return nil, err
		}
		values = clone(v)
	}
	delete(values, "title")
	if pattern, ok := keys["pattern"]; ok {
		js["patternProperties"] = map[string]any{fmt.Sprint(pattern): values}
	} else if len(values) > 0 {
		js["additionalProperties"] = values
	}
	setLen(js, "minProperties", s.MinLength)
	setLen(js, "maxProperties", s.MaxLength)
	return js, nil
}

func (g *Generator) functionBeforeSchema(s *core.FunctionBeforeSchema) (map[string]any, error) {
	return g.GenerateInner(s.Schema)
}

func (g *Generator) functionAfterSchema(s *core.FunctionAfterSchema) (map[string]any, error) {
	return g.GenerateInner(s.Schema)
}

func (g *Generator) functionWrapSchema(s *core.FunctionWrapSchema) (map[string]any, error) {
	return g.GenerateInner(s.Schema)
}

func (g *Generator) functionPlainSchema(s *core.FunctionPlainSchema) (map[string]any, error) {
	return nil, invalidf("a plain validator function (%s)", core.FuncName(s.Function.Function))
}

func (g *Generator) defaultSchema(s *core.DefaultSchema) (map[string]any, error) {
	js, err := g.GenerateInner(s.Schema)
	if err != nil {
		return nil, err
	}
	if s.HasFactory() {
		return js, nil
	}
	def := s.Default
	if ps, ok := s.Schema.Base().Serialization.(*core.PlainSerializerFunctionSerSchema); ok && g.mode == ModeSerialization &&
		!ps.InfoArg && !ps.IsFieldSerializer && !(def == nil && (ps.WhenUsed == core.WhenUnlessNone || ps.WhenUsed == core.WhenJSONUnlessNone)) {
		out, err := core.Invoke(ps.Function, def)
		if err != nil {
			g.warn(WarnNonSerializableDefault, fmt.Sprintf("unable to serialize value %v with the plain serializer; excluding default from JSON schema", def))
			return js, nil
		}
		def = out
	}
	encoded, err := encodeValue(def)
	if err != nil {
		g.warn(WarnNonSerializableDefault, fmt.Sprintf("default value %v is not JSON serializable; excluding default from JSON schema", def))
		return js, nil
	}
	if _, ok := js["$ref"]; ok {
		return map[string]any{"allOf": []any{js}, "default": encoded}, nil
	}
	js = clone(js)
	js["default"] = encoded
	return js, nil
}

func (g *Generator) nullableSchema(s *core.NullableSchema) (map[string]any, error) {
	null := map[string]any{"type": "null"}
	inner, err := g.GenerateInner(s.Schema)
	if err != nil {
		return nil, err
	}
	if canonical(inner) == canonical(null) {
		return null, nil
	}
	return flattenedAnyOf([]map[string]any{inner, null}), nil
}

// choice renders one member of a union. It returns nil when the member is
// left out.
func (g *Generator) choice(s core.Schema) (map[string]any, error) {
	js, err := g.GenerateInner(s)
	if errors.Is(err, core.ErrOmit) {
		return nil, nil
	}
	if inv, ok := AsInvalid(err); ok {
		return nil, g.skip(WarnSkippedChoice, inv)
	}
	return js, err
}

func (g *Generator) unionSchema(s *core.UnionSchema) (map[string]any, error) {
	var generated []map[string]any
	for _, c := range s.Choices {
		js, err := g.choice(c.Schema)
		if err != nil {
			return nil, err
		}
		if js != nil {
			generated = append(generated, js)
		}
	}
	if len(generated) == 1 {
		return generated[0], nil
	}
	return flattenedAnyOf(generated), nil
}

// taggedUnionSchema renders a oneOf. When every branch is a reference the
// discriminator is rendered too, mapping each tag to its reference.
func (g *Generator) taggedUnionSchema(s *core.TaggedUnionSchema) (map[string]any, error) {
	var (
		tags      []string
		generated = map[string]map[string]any{}
		rendered  = map[core.Schema]map[string]any{}
		branches  []map[string]any
	)
	for _, e := range s.Choices.Entries() {
		js, ok := rendered[e.Schema]
		if !ok {
			var err error
			if js, err = g.choice(e.Schema); err != nil {
				return nil, err
			}
			rendered[e.Schema] = js
			if js != nil {
				branches = append(branches, js)
			}
		}
		if js == nil {
			continue
		}
		tag := fmt.Sprint(e.Tag)
		tags = append(tags, tag)
		generated[tag] = js
	}
	js := map[string]any{"oneOf": toAny(dedupe(branches))}
	prop := g.discriminatorProperty(s.Discriminator)
	if prop == "" {
		return js, nil
	}
	mapping := make(map[string]any, len(tags))
	for _, tag := range tags {
		ref, ok := generated[tag]["$ref"].(string)
		if !ok {
			return js, nil
		}
		mapping[tag] = ref
	}
	js["discriminator"] = map[string]any{"propertyName": prop, "mapping": mapping}
	return js, nil
}

// discriminatorProperty returns the property a tagged union dispatches on
// when it is a single name.
func (g *Generator) discriminatorProperty(d any) string {
	switch v := d.(type) {
	case string:
		return v
	case [][]any:
		if len(v) == 1 && len(v[0]) == 1 {
			name, _ := v[0][0].(string)
			return name
		}
	case []any:
		if len(v) == 1 {
			name, _ := v[0].(string)
			return name
		}
	}
	return ""
}

func (g *Generator) chainSchema(s *core.ChainSchema) (map[string]any, error) {
	if len(s.Steps) == 0 {
		return map[string]any{}, nil
	}
	step := s.Steps[0]
	if g.mode == ModeSerialization {
		step = s.Steps[len(s.Steps)-1]
	}
	return g.GenerateInner(step)
}

func (g *Generator) callSchema(s *core.CallSchema) (map[string]any, error) {
	return g.GenerateInner(s.ArgumentsSchema)
}

// definitionsSchema renders every definition before the schema that uses
// them. A definition that cannot be rendered only fails the document when
// it is referenced.
func (g *Generator) definitionsSchema(s *core.DefinitionsSchema) (map[string]any, error) {
	for _, d := range s.Definitions {
		_, err := g.GenerateInner(d)
		if inv, ok := AsInvalid(err); ok {
			defsRef, _ := g.cacheDefsRef(core.Ref(d))
			g.invalidDefs[defsRef] = inv
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return g.GenerateInner(s.Schema)
}

func (g *Generator) definitionRefSchema(s *core.DefinitionReferenceSchema) (map[string]any, error) {
	defsRef, jsonRef := g.cacheDefsRef(s.SchemaRef)
	if err, ok := g.invalidDefs[defsRef]; ok {
		return nil, err
	}
	return refValue(jsonRef), nil
}

// serSchema renders the output type declared by a serializer, or nil when
// the default rendering applies.
func (g *Generator) serSchema(ser core.SerSchema) (map[string]any, error) {
	switch s := ser.(type) {
	case *core.PlainSerializerFunctionSerSchema:
		if s.ReturnSchema != nil {
			return g.GenerateInner(s.ReturnSchema)
		}
	case *core.WrapSerializerFunctionSerSchema:
		if s.ReturnSchema != nil {
			return g.GenerateInner(s.ReturnSchema)
		}
	case *core.ToStringSerSchema:
		return map[string]any{"type": "string"}, nil
	}
	return nil, nil
}

func setInt(js map[string]any, key string, v *int64) {
	if v != nil {
		js[key] = *v
	}
}

func setFloat(js map[string]any, key string, v *float64) {
	if v != nil {
		js[key] = *v
	}
}

func setLen(js map[string]any, key string, v *int) {
	if v != nil {
		js[key] = *v
	}
}
