package hooks

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/reoring/schemagen/core"
)

// FieldValidator validates the named fields. fn receives the field value
// (and, for wrap, a core.ValidatorHandler) and may take a trailing
// core.ValidationInfo. The default mode is after.
func FieldValidator(fn any, fields []string, opts ...Option) *Proxy {
	o := collectOptions(ModeAfter, opts)
	info := &FieldValidatorInfo{Mode: o.mode}
	p := &Proxy{Func: fn, Info: info}
	if p.err = checkMode(o.mode, ModeBefore, ModeAfter, ModeWrap, ModePlain); p.err != nil {
		return p
	}
	if IsInstanceMethod(fn) {
		p.err = core.Errorf(core.CodeValidatorInstanceMethod, "FieldValidator cannot be applied to instance methods: %s", core.FuncName(fn))
		return p
	}
	if info.fieldTargets, p.err = newTargets("FieldValidator", fields, o.checkFields); p.err != nil {
		return p
	}
	_, p.err = InspectValidator(fn, o.mode)
	return p
}

// Validator is the legacy per-field validator. fn takes the value and
// optionally the map of fields validated so far. Supports EachItem and
// Always; the mode is before or after.
func Validator(fn any, fields []string, opts ...Option) *Proxy {
	o := collectOptions(ModeAfter, opts)
	info := &ValidatorInfo{Mode: o.mode, EachItem: o.eachItem, Always: o.always}
	p := &Proxy{Func: fn, Info: info, Shim: legacyValidatorShim}
	if p.err = checkMode(o.mode, ModeBefore, ModeAfter); p.err != nil {
		return p
	}
	if IsInstanceMethod(fn) {
		p.err = core.Errorf(core.CodeValidatorInstanceMethod, "Validator cannot be applied to instance methods: %s", core.FuncName(fn))
		return p
	}
	if info.fieldTargets, p.err = newTargets("Validator", fields, o.checkFields); p.err != nil {
		return p
	}
	p.err = checkLegacyValidator(fn)
	return p
}

// RootValidator is the legacy whole-record validator. fn takes and
// returns the map of field values. The default mode is after.
func RootValidator(fn any, opts ...Option) *Proxy {
	o := collectOptions(ModeAfter, opts)
	p := &Proxy{Func: fn, Info: &RootValidatorInfo{Mode: o.mode}, Shim: rootValidatorShim}
	if p.err = checkMode(o.mode, ModeBefore, ModeAfter); p.err != nil {
		return p
	}
	p.err = checkRootValidator(fn)
	return p
}

// ModelValidator validates a whole record. Before and wrap validators see
// the raw input; after validators receive the *core.Instance.
func ModelValidator(fn any, mode string) *Proxy {
	p := &Proxy{Func: fn, Info: &ModelValidatorInfo{Mode: mode}}
	if p.err = checkMode(mode, ModeBefore, ModeAfter, ModeWrap); p.err != nil {
		return p
	}
	_, p.err = InspectValidator(fn, mode)
	return p
}

// FieldSerializer customizes serialization of the named fields. The
// default mode is plain.
func FieldSerializer(fn any, fields []string, opts ...Option) *Proxy {
	o := collectOptions(ModePlain, opts)
	info := &FieldSerializerInfo{Mode: o.mode, ReturnType: o.returnType, WhenUsed: o.whenUsed}
	p := &Proxy{Func: fn, Info: info}
	if p.err = checkMode(o.mode, ModePlain, ModeWrap); p.err != nil {
		return p
	}
	if info.fieldTargets, p.err = newTargets("FieldSerializer", fields, o.checkFields); p.err != nil {
		return p
	}
	_, _, p.err = InspectFieldSerializer(fn, o.mode)
	return p
}

// ModelSerializer replaces the serialization of the record. fn must take
// the *core.Instance first.
func ModelSerializer(fn any, opts ...Option) *Proxy {
	o := collectOptions(ModePlain, opts)
	p := &Proxy{Func: fn, Info: &ModelSerializerInfo{Mode: o.mode, ReturnType: o.returnType, WhenUsed: o.whenUsed}}
	if p.err = checkMode(o.mode, ModePlain, ModeWrap); p.err != nil {
		return p
	}
	_, p.err = InspectModelSerializer(fn, o.mode)
	return p
}

// ComputedField declares an output-only property computed from the
// instance. fn has the shape func(*core.Instance) T or
// func(*core.Instance) (T, error).
func ComputedField(fn any, opts ...Option) *Proxy {
	o := collectOptions("", opts)
	info := &ComputedFieldInfo{
		ReturnType:      o.returnType,
		Alias:           o.alias,
		Title:           o.title,
		Description:     o.description,
		Examples:        o.examples,
		JSONSchemaExtra: o.jsonSchemaExtra,
	}
	p := &Proxy{Func: fn, Info: info}
	t, ok := funcType(fn)
	if !ok || t.NumIn() != 1 || !IsInstanceMethod(fn) || !validResults(t) {
		p.err = core.Errorf(core.CodeComputedFieldSignature, "ComputedField requires a func(*core.Instance) T, got %T", fn)
		return p
	}
	rt, ok := ReturnTypeOf(fn, o.returnType)
	if !ok {
		p.err = core.Errorf(core.CodeModelFieldMissingAnnotation, "computed field %s is missing a return type; pass ReturnType", core.FuncName(fn))
		return p
	}
	info.ReturnType = rt
	return p
}

func checkMode(mode string, allowed ...string) error {
	for _, m := range allowed {
		if m == mode {
			return nil
		}
	}
	return core.Errorf(core.CodeValidatorSignature, "mode %q is not one of %s", mode, strings.Join(allowed, ", "))
}

func newTargets(repr string, fields []string, check *bool) (fieldTargets, error) {
	if len(fields) == 0 {
		return fieldTargets{}, core.Errorf(core.CodeValidatorNoFields, "%s requires at least one field name", repr)
	}
	t := fieldTargets{Fields: fields, CheckFields: check}
	for _, f := range fields {
		if f == "" {
			return fieldTargets{}, core.Errorf(core.CodeValidatorInvalidFields, "%s field names must not be empty", repr)
		}
		if f == "*" || !isPattern(f) {
			continue
		}
		g, err := glob.Compile(f)
		if err != nil {
			return fieldTargets{}, core.Errorf(core.CodeValidatorInvalidFields, "%s field pattern %q: %v", repr, f, err)
		}
		if t.patterns == nil {
			t.patterns = map[string]glob.Glob{}
		}
		t.patterns[f] = g
	}
	return t, nil
}

func isPattern(s string) bool { return strings.ContainsAny(s, "*?[{") }
