// Package hooks collects the validation and serialization hooks declared on
// records, inspects their signatures and turns them into function nodes of
// the core schema.
//
// Hooks are declared as record attributes holding a *Proxy:
//
//	typeexpr.Model("shop", "Order").
//		Field("sku", typeexpr.Str).Required().
//		Attr("upper_sku", hooks.FieldValidator(strings.ToUpper, []string{"sku"})).
//		MustBuild()
package hooks

import (
	"github.com/gobwas/glob"

	"github.com/reoring/schemagen/typeexpr"
)

// Validator and serializer modes.
const (
	ModeBefore = "before"
	ModeAfter  = "after"
	ModeWrap   = "wrap"
	ModePlain  = "plain"
)

// Info is the decorator-specific part of a hook.
type Info interface {
	// DecoratorRepr names the declaring helper in error messages.
	DecoratorRepr() string
}

// fieldTargets is the field selection shared by field-level hooks. Fields
// holds literal names, "*" or glob patterns.
type fieldTargets struct {
	Fields      []string
	CheckFields *bool
	patterns    map[string]glob.Glob
}

// ValidatorInfo is a legacy per-field validator.
type ValidatorInfo struct {
	fieldTargets
	Mode     string
	EachItem bool
	// Always validates the default value too.
	Always bool
}

// FieldValidatorInfo is a per-field validator.
type FieldValidatorInfo struct {
	fieldTargets
	Mode string
}

// RootValidatorInfo is a legacy whole-record validator working on the
// field value map.
type RootValidatorInfo struct {
	Mode string
}

// FieldSerializerInfo is a per-field serializer.
type FieldSerializerInfo struct {
	fieldTargets
	Mode       string
	ReturnType typeexpr.Expr
	WhenUsed   string
}

// ModelSerializerInfo replaces the serialization of a whole record.
type ModelSerializerInfo struct {
	Mode       string
	ReturnType typeexpr.Expr
	WhenUsed   string
}

// ModelValidatorInfo is a whole-record validator.
type ModelValidatorInfo struct {
	Mode string
}

// ComputedFieldInfo is an output-only property.
type ComputedFieldInfo struct {
	ReturnType      typeexpr.Expr
	Alias           string
	Title           string
	Description     string
	Examples        []any
	JSONSchemaExtra map[string]any
}

func (*ValidatorInfo) DecoratorRepr() string       { return "Validator" }
func (*FieldValidatorInfo) DecoratorRepr() string  { return "FieldValidator" }
func (*RootValidatorInfo) DecoratorRepr() string   { return "RootValidator" }
func (*FieldSerializerInfo) DecoratorRepr() string { return "FieldSerializer" }
func (*ModelSerializerInfo) DecoratorRepr() string { return "ModelSerializer" }
func (*ModelValidatorInfo) DecoratorRepr() string  { return "ModelValidator" }
func (*ComputedFieldInfo) DecoratorRepr() string   { return "ComputedField" }

func (i *ValidatorInfo) validatorMode() string      { return i.Mode }
func (i *FieldValidatorInfo) validatorMode() string { return i.Mode }
func (i *RootValidatorInfo) validatorMode() string  { return i.Mode }
func (i *ModelValidatorInfo) validatorMode() string { return i.Mode }

// FieldInfo is implemented by the hooks that target fields.
type FieldInfo interface {
	Info
	targets() *fieldTargets
}

func (t *fieldTargets) targets() *fieldTargets { return t }

// Proxy is a declared hook: the user function and what it is for. Shim,
// when set, adapts a legacy calling convention before the function is
// placed in the schema.
type Proxy struct {
	Func any
	Info Info
	Shim func(fn any) any

	err error
}

// Err reports a declaration error found when the proxy was created.
func (p *Proxy) Err() error { return p.err }

// Option configures a hook.
type Option func(*options)

type options struct {
	mode            string
	checkFields     *bool
	whenUsed        string
	returnType      typeexpr.Expr
	eachItem        bool
	always          bool
	alias           string
	title           string
	description     string
	examples        []any
	jsonSchemaExtra map[string]any
}

// Mode selects before, after, wrap or plain.
func Mode(m string) Option { return func(o *options) { o.mode = m } }

// CheckFields toggles the check that targeted fields exist.
func CheckFields(on bool) Option { return func(o *options) { o.checkFields = &on } }

// WhenUsed limits a serializer to always, unless-none, json or
// json-unless-none.
func WhenUsed(w string) Option { return func(o *options) { o.whenUsed = w } }

// ReturnType overrides the return type read from the function signature.
func ReturnType(e typeexpr.Expr) Option { return func(o *options) { o.returnType = e } }

// EachItem applies a legacy validator to the items of a collection.
func EachItem() Option { return func(o *options) { o.eachItem = true } }

// Always makes a legacy validator run on defaults as well.
func Always() Option { return func(o *options) { o.always = true } }

func Alias(a string) Option                   { return func(o *options) { o.alias = a } }
func Title(t string) Option                   { return func(o *options) { o.title = t } }
func Description(d string) Option             { return func(o *options) { o.description = d } }
func Examples(ex ...any) Option               { return func(o *options) { o.examples = ex } }
func JSONSchemaExtra(m map[string]any) Option { return func(o *options) { o.jsonSchemaExtra = m } }

func collectOptions(defaultMode string, opts []Option) options {
	o := options{mode: defaultMode, whenUsed: "always"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
