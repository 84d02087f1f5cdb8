// Package discriminator turns a union of records plus a discriminator into
// a tagged union that dispatches on the discriminator value.
package discriminator

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// ErrMissingDefinition is returned when a union member refers to a
// definition that does not exist yet. The caller can defer the
// discriminator with core.SetDiscriminatorPlaceholder and retry from
// ApplyAll once every definition is known.
var ErrMissingDefinition = errors.New("union member references a missing definition")

// Apply converts s into a tagged union using d, which is a field name, a
// typeexpr.Discriminator or a pointer to one. defs resolves definition
// references found among the choices.
func Apply(s core.Schema, d any, defs map[string]core.Schema) (core.Schema, error) {
	switch v := d.(type) {
	case string:
		return newInferrer(v, defs).apply(s)
	case *typeexpr.Discriminator:
		return applyDiscriminator(s, *v, defs)
	case typeexpr.Discriminator:
		return applyDiscriminator(s, v, defs)
	}
	return nil, core.Errorf(core.CodeDiscriminatorInvalidVariant, "unsupported discriminator %T", d)
}

func applyDiscriminator(s core.Schema, d typeexpr.Discriminator, defs map[string]core.Schema) (core.Schema, error) {
	if d.Func != nil {
		return convertCallable(s, d)
	}
	out, err := newInferrer(d.Field, defs).apply(s)
	if err != nil {
		return nil, err
	}
	if d.CustomErrorType != "" {
		tu := taggedOf(out)
		tu.CustomErrorType, tu.CustomErrorMessage = d.CustomErrorType, d.CustomErrorMessage
	}
	return out, nil
}

func taggedOf(s core.Schema) *core.TaggedUnionSchema {
	if n, ok := s.(*core.NullableSchema); ok {
		return n.Schema.(*core.TaggedUnionSchema)
	}
	return s.(*core.TaggedUnionSchema)
}

// convertCallable builds a tagged union dispatching on the result of a
// discriminator function. Every choice must carry a tag.
func convertCallable(s core.Schema, d typeexpr.Discriminator) (core.Schema, error) {
	if n, ok := s.(*core.NullableSchema); ok {
		inner, err := convertCallable(n.Schema, d)
		if err != nil {
			return nil, err
		}
		out := core.Copy(n).(*core.NullableSchema)
		out.Schema = inner
		return out, nil
	}
	u, ok := s.(*core.UnionSchema)
	if !ok {
		u = &core.UnionSchema{Choices: []core.UnionChoice{{Schema: s}}}
	}
	choices := core.NewTagMap()
	for _, c := range u.Choices {
		tag := c.Tag
		if t, ok := core.TaggedUnionTag(c.Schema); ok {
			tag = t
		}
		if tag == nil {
			return nil, core.Errorf(core.CodeCallableDiscriminatorNoTag, "`Tag` not provided for choice %s used with `Discriminator`", describe(c.Schema))
		}
		choices.Set(tag, c.Schema)
	}
	return &core.TaggedUnionSchema{
		Common:             core.Common{Ref: u.Ref, Metadata: u.Metadata, Serialization: u.Serialization},
		Choices:            choices,
		Discriminator:      d.Func,
		CustomErrorType:    d.CustomErrorType,
		CustomErrorMessage: d.CustomErrorMessage,
		Strict:             u.Strict,
	}, nil
}

// inferrer reads the literal values of the discriminator field of every
// union member.
type inferrer struct {
	field    string
	defs     map[string]core.Schema
	alias    string
	nullable bool
	choices  *core.TagMap
	pending  []core.Schema
}

func newInferrer(field string, defs map[string]core.Schema) *inferrer {
	return &inferrer{field: field, defs: defs, choices: core.NewTagMap()}
}

func (x *inferrer) apply(s core.Schema) (core.Schema, error) {
	var wrapper *core.NullableSchema
	if n, ok := s.(*core.NullableSchema); ok {
		wrapper = n
		x.nullable = true
		s = n.Schema
	}
	if d, ok := s.(*core.DefinitionsSchema); ok {
		inner, err := x.apply(d.Schema)
		if err != nil {
			return nil, err
		}
		out := core.Copy(d).(*core.DefinitionsSchema)
		out.Schema = inner
		return x.wrap(out, wrapper), nil
	}
	u, err := x.asUnion(s)
	if err != nil {
		return nil, err
	}
	for i := len(u.Choices) - 1; i >= 0; i-- {
		x.pending = append(x.pending, u.Choices[i].Schema)
	}
	for len(x.pending) > 0 {
		c := x.pending[len(x.pending)-1]
		x.pending = x.pending[:len(x.pending)-1]
		if err := x.handleChoice(c); err != nil {
			return nil, err
		}
	}
	var disc any = x.field
	if x.alias != "" && x.alias != x.field {
		disc = [][]any{{x.field}, {x.alias}}
	}
	tu := &core.TaggedUnionSchema{
		Common:             core.Common{Ref: u.Ref, Metadata: u.Metadata, Serialization: u.Serialization},
		Choices:            x.choices,
		Discriminator:      disc,
		CustomErrorType:    u.CustomErrorType,
		CustomErrorMessage: u.CustomErrorMessage,
		Strict:             u.Strict,
	}
	return x.wrap(tu, wrapper), nil
}

func (x *inferrer) wrap(s core.Schema, wrapper *core.NullableSchema) core.Schema {
	if !x.nullable {
		return s
	}
	if wrapper != nil {
		out := core.Copy(wrapper).(*core.NullableSchema)
		out.Schema = s
		return out
	}
	return &core.NullableSchema{Schema: s}
}

func (x *inferrer) asUnion(s core.Schema) (*core.UnionSchema, error) {
	switch n := s.(type) {
	case *core.UnionSchema:
		if len(n.Choices) == 0 {
			return nil, core.Errorf(core.CodeDiscriminatorUnionSize, "no choices available for the discriminated union on %q", x.field)
		}
		return n, nil
	case *core.TaggedUnionSchema:
		u := &core.UnionSchema{Common: n.Common, Strict: n.Strict, CustomErrorType: n.CustomErrorType, CustomErrorMessage: n.CustomErrorMessage}
		for _, b := range n.Choices.Branches() {
			u.Choices = append(u.Choices, core.UnionChoice{Schema: b})
		}
		return u, nil
	case *core.ModelSchema, *core.DataclassSchema, *core.TypedDictSchema, *core.DefinitionReferenceSchema:
		return &core.UnionSchema{Choices: []core.UnionChoice{{Schema: s}}}, nil
	}
	return nil, core.Errorf(core.CodeDiscriminatorUnionSize, "discriminator %q must be used with a union of two or more records, got %s", x.field, s.Type())
}

func (x *inferrer) handleChoice(c core.Schema) error {
	if dr, ok := c.(*core.DefinitionReferenceSchema); ok {
		if _, defined := x.defs[dr.SchemaRef]; !defined {
			return errors.Wrapf(ErrMissingDefinition, "ref %q", dr.SchemaRef)
		}
	}
	switch n := c.(type) {
	case *core.NoneSchema:
		x.nullable = true
		return nil
	case *core.DefinitionsSchema:
		return x.handleChoice(n.Schema)
	case *core.NullableSchema:
		x.nullable = true
		return x.handleChoice(n.Schema)
	case *core.UnionSchema:
		for i := len(n.Choices) - 1; i >= 0; i-- {
			x.pending = append(x.pending, n.Choices[i].Schema)
		}
		return nil
	case *core.TaggedUnionSchema:
		if x.shared(n) {
			branches := n.Choices.Branches()
			for i := len(branches) - 1; i >= 0; i-- {
				x.pending = append(x.pending, branches[i])
			}
			return nil
		}
	case *core.ModelSchema, *core.DataclassSchema, *core.TypedDictSchema, *core.DefinitionReferenceSchema:
	default:
		if !core.IsFunctionWithInnerSchema(c) {
			return invalidVariant(c)
		}
	}
	values, err := x.valuesForChoice(c, "")
	if err != nil {
		return err
	}
	return x.setUnique(c, values)
}

// shared reports whether an inner tagged union dispatches on the same key,
// in which case its branches are merged into the outer one.
func (x *inferrer) shared(t *core.TaggedUnionSchema) bool {
	switch d := t.Discriminator.(type) {
	case string:
		return d == x.field
	case [][]any:
		for _, path := range d {
			if len(path) == 1 && path[0] == x.field {
				return true
			}
		}
	}
	return false
}

func (x *inferrer) valuesForChoice(c core.Schema, source string) ([]any, error) {
	switch n := c.(type) {
	case *core.DefinitionsSchema:
		return x.valuesForChoice(n.Schema, source)
	case *core.FunctionPlainSchema:
		return nil, invalidVariant(c)
	case *core.FunctionBeforeSchema, *core.FunctionAfterSchema, *core.FunctionWrapSchema:
		return x.valuesForChoice(core.InnerSchema(c), source)
	case *core.TaggedUnionSchema:
		var out []any
		for _, b := range n.Choices.Branches() {
			vs, err := x.valuesForChoice(b, "")
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	case *core.UnionSchema:
		var out []any
		for _, ch := range n.Choices {
			vs, err := x.valuesForChoice(ch.Schema, "")
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	case *core.NullableSchema:
		x.nullable = true
		return x.valuesForChoice(n.Schema, "")
	case *core.ModelSchema:
		return x.valuesForChoice(n.Schema, "Model "+quote(clsName(n.Cls)))
	case *core.DataclassSchema:
		return x.valuesForChoice(n.Schema, "Dataclass "+quote(clsName(n.Cls)))
	case *core.DataclassArgsSchema:
		f := n.Field(x.field)
		if f == nil {
			return nil, x.noField(source)
		}
		return x.valuesForField(f.ValidationAlias, f.Schema, sourceOr(source))
	case *core.ModelFieldsSchema:
		f := n.Field(x.field)
		if f == nil {
			return nil, x.noField(source)
		}
		return x.valuesForField(f.ValidationAlias, f.Schema, sourceOr(source))
	case *core.TypedDictSchema:
		f := n.Field(x.field)
		if f == nil {
			return nil, x.noField(source)
		}
		return x.valuesForField(f.ValidationAlias, f.Schema, sourceOr(source))
	case *core.DefinitionReferenceSchema:
		target, ok := x.defs[n.SchemaRef]
		if !ok {
			return nil, errors.Wrapf(ErrMissingDefinition, "ref %q", n.SchemaRef)
		}
		return x.valuesForChoice(target, source)
	}
	return nil, invalidVariant(c)
}

func (x *inferrer) noField(source string) error {
	return core.Errorf(core.CodeDiscriminatorNoField, "%s needs a discriminator field for key %s", sourceOr(source), quote(x.field))
}

func (x *inferrer) valuesForField(validationAlias any, s core.Schema, source string) ([]any, error) {
	alias := x.field
	if validationAlias != nil {
		a, ok := validationAlias.(string)
		if !ok {
			return nil, core.Errorf(core.CodeDiscriminatorAliasType, "Alias %v is not supported in a discriminated union", validationAlias)
		}
		alias = a
	}
	if x.alias == "" {
		x.alias = alias
	} else if x.alias != alias {
		return nil, core.Errorf(core.CodeDiscriminatorAlias, "Aliases for discriminator %s must be the same (got %s, %s)", quote(x.field), alias, x.alias)
	}
	return x.valuesForInner(s, source)
}

func (x *inferrer) valuesForInner(s core.Schema, source string) ([]any, error) {
	switch n := s.(type) {
	case *core.LiteralSchema:
		return n.Expected, nil
	case *core.UnionSchema:
		var out []any
		for _, c := range n.Choices {
			vs, err := x.valuesForInner(c.Schema, source)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	case *core.DefaultSchema:
		return x.valuesForInner(n.Schema, source)
	case *core.FunctionAfterSchema:
		return x.valuesForInner(n.Schema, source)
	case *core.FunctionBeforeSchema, *core.FunctionWrapSchema, *core.FunctionPlainSchema:
		mode := strings.TrimPrefix(s.Type(), "function-")
		return nil, core.Errorf(core.CodeDiscriminatorValidator, "Cannot use a mode=%s validator in the discriminator field %s of %s", quote(mode), quote(x.field), source)
	}
	return nil, core.Errorf(core.CodeDiscriminatorNeedsLiteral, "%s needs field %s to be of type `Literal`", source, quote(x.field))
}

// setUnique maps every value to c. A value may only map to one choice.
func (x *inferrer) setUnique(c core.Schema, values []any) error {
	for _, v := range values {
		if existing, ok := x.choices.Get(v); ok {
			if !sameChoice(existing, c) {
				return core.Errorf(core.CodeDiscriminatorDuplicateValue, "Value %s for discriminator %s mapped to multiple choices", reprValue(v), quote(x.field))
			}
			continue
		}
		x.choices.Set(v, c)
	}
	return nil
}

func sameChoice(a, b core.Schema) bool {
	if a == b {
		return true
	}
	ra, okA := a.(*core.DefinitionReferenceSchema)
	rb, okB := b.(*core.DefinitionReferenceSchema)
	return okA && okB && ra.SchemaRef == rb.SchemaRef
}

func invalidVariant(s core.Schema) error {
	return core.Errorf(core.CodeDiscriminatorInvalidVariant, "%s is not a valid discriminated union variant; should be a record", quote(s.Type()))
}

func sourceOr(source string) string {
	if source == "" {
		return "TypedDict"
	}
	return source
}

func clsName(cls any) string {
	switch c := cls.(type) {
	case *typeexpr.Record:
		return c.Name
	case interface{ Repr() string }:
		return c.Repr()
	case nil:
		return "?"
	}
	return fmt.Sprint(cls)
}

func describe(s core.Schema) string {
	if m, ok := s.(*core.ModelSchema); ok {
		return clsName(m.Cls)
	}
	if d, ok := s.(*core.DataclassSchema); ok {
		return clsName(d.Cls)
	}
	if r := core.Ref(s); r != "" {
		return r
	}
	if dr, ok := s.(*core.DefinitionReferenceSchema); ok {
		return dr.SchemaRef
	}
	return s.Type()
}

func quote(s string) string { return "'" + s + "'" }

func reprValue(v any) string {
	if s, ok := v.(string); ok {
		return quote(s)
	}
	return fmt.Sprint(v)
}
