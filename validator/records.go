package validator

import (
	"fmt"
	"reflect"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// ArgsKwargs is the validated form of call arguments. Args holds the
// declared parameters in declaration order followed by extra positional
// arguments; Kwargs holds extra keyword arguments.
type ArgsKwargs struct {
	Args   []any
	Kwargs map[string]any
}

// fieldSpec is the part of a record field that validation needs.
type fieldSpec struct {
	name     string
	schema   core.Schema
	alias    any
	required bool
}

type recordSpec struct {
	name     string
	fields   []fieldSpec
	extras   core.Schema
	behavior string
}

func (st *state) modelFields(n *core.ModelFieldsSchema, in any) (any, error) {
	rs := recordSpec{name: n.ModelName, extras: n.ExtrasSchema, behavior: n.ExtraBehavior}
	for _, f := range n.Fields {
		rs.fields = append(rs.fields, fieldSpec{name: f.Name, schema: f.Schema, alias: f.ValidationAlias, required: true})
	}
	restore := st.pushConfig(nil, n.Strict)
	defer restore()
	return st.record(rs, in)
}

func (st *state) typedDict(n *core.TypedDictSchema, in any) (any, error) {
	rs := recordSpec{name: className(n.Cls), extras: n.ExtrasSchema, behavior: n.ExtraBehavior}
	total := n.Total == nil || *n.Total
	for _, f := range n.Fields {
		required := total
		if f.Required != nil {
			required = *f.Required
		}
		rs.fields = append(rs.fields, fieldSpec{name: f.Name, schema: f.Schema, alias: f.ValidationAlias, required: required})
	}
	restore := st.pushConfig(n.Config, n.Strict)
	defer restore()
	out, err := st.record(rs, in)
	if err != nil {
		return nil, err
	}
	m := out.(map[string]any)
	if st.fields != nil {
		for k, v := range st.fields.extra {
			m[k] = v
		}
	}
	return m, nil
}

// record validates the fields of a record-shaped input and returns them
// keyed by field name. Extra keys are left in st.fields.
func (st *state) record(rs recordSpec, in any) (any, error) {
	m, ok := asFields(in)
	if !ok {
		expected := "dictionary"
		if rs.name != "" {
			expected += " or instance of " + rs.name
		}
		return nil, invalidType(expected, in)
	}
	_, fromInstance := in.(*core.Instance)
	cfg := st.config()
	byName := fromInstance || (cfg != nil && firstBool(cfg.PopulateByName))

	out := make(map[string]any, len(rs.fields))
	prevData, prevField := st.data, st.field
	st.data = out
	defer func() { st.data, st.field = prevData, prevField }()

	used := map[string]struct{}{}
	var set []string
	var errs lineErrors
	for _, f := range rs.fields {
		if err := st.ctx.Err(); err != nil {
			return nil, err
		}
		paths := aliasPaths(f.alias)
		if len(paths) == 0 || byName {
			paths = append(paths, []any{f.name})
		}
		var raw any
		var loc []any
		found := false
		for _, p := range paths {
			if raw, found = lookupPath(m, p); found {
				loc = p
				break
			}
		}
		if !found {
			if d := defaultOf(f.schema); d != nil {
				st.field = f.name
				v, err := st.defaultValue(d)
				if err != nil {
					le, ok := at(err, paths[0]...).(lineErrors)
					if !ok {
						return nil, err
					}
					errs = append(errs, le...)
					continue
				}
				out[f.name] = v
			} else if f.required {
				errs = append(errs, lineError{loc: paths[0], code: CodeRequired, input: in})
			}
			continue
		}
		if s, ok := loc[0].(string); ok {
			used[s] = struct{}{}
		}
		st.field = f.name
		v, err := st.validate(f.schema, raw)
		if err != nil {
			le, ok := at(err, loc...).(lineErrors)
			if !ok {
				return nil, err
			}
			errs = append(errs, le...)
			continue
		}
		if _, skip := v.(omitted); skip {
			continue
		}
		out[f.name] = v
		set = append(set, f.name)
	}

	behavior := rs.behavior
	if behavior == "" && cfg != nil {
		behavior = cfg.ExtraFieldsBehavior
	}
	var extra map[string]any
	if !fromInstance {
		for _, k := range sortedKeys(m) {
			if _, ok := used[k]; ok {
				continue
			}
			switch behavior {
			case core.ExtraForbid:
				errs = append(errs, lineError{loc: []any{k}, code: CodeUnknownKey, input: m[k]})
			case core.ExtraAllow:
				v, err := st.validate(rs.extras, m[k])
				if err != nil {
					le, ok := at(err, k).(lineErrors)
					if !ok {
						return nil, err
					}
					errs = append(errs, le...)
					continue
				}
				if extra == nil {
					extra = map[string]any{}
				}
				extra[k] = v
			}
		}
	} else if inst := in.(*core.Instance); behavior == core.ExtraAllow {
		extra = inst.Extra
	}
	if len(errs) > 0 {
		return nil, errs
	}
	st.fields = &fieldsOut{set: set, extra: extra}
	return out, nil
}

func (st *state) model(n *core.ModelSchema, in any) (any, error) {
	class := className(n.Cls)
	if inst, ok := in.(*core.Instance); ok && inst.Class == class {
		return inst, nil
	}
	restore := st.pushConfig(n.Config, n.Strict)
	defer restore()
	st.fields = nil
	out, err := st.validate(n.Schema, in)
	if err != nil {
		return nil, err
	}
	if firstBool(n.RootModel) {
		return &core.Instance{Class: class, Fields: map[string]any{typeexpr.RootField: out}, FieldsSet: []string{typeexpr.RootField}}, nil
	}
	switch x := out.(type) {
	case *core.Instance:
		return x, nil
	case map[string]any:
		inst := &core.Instance{Class: class, Fields: x}
		if st.fields != nil {
			inst.FieldsSet = st.fields.set
			inst.Extra = st.fields.extra
		}
		st.fields = nil
		return inst, nil
	}
	return nil, core.Errorf(core.CodeInvalidCoreSchema, "fields of %s validated to %T", class, out)
}

// DataclassArgs is the validated form of dataclass constructor arguments.
// Fields holds the stored field values; InitOnly the values only handed to
// post-init.
type DataclassArgs struct {
	Fields    map[string]any
	InitOnly  map[string]any
	FieldsSet []string
	Extra     map[string]any
}

// dataclassArgs reads fields from positional arguments first, then by
// keyword. Fields kept out of the constructor take their default.
func (st *state) dataclassArgs(n *core.DataclassArgsSchema, in any) (any, error) {
	var args []any
	var kwargs map[string]any
	switch x := in.(type) {
	case *ArgsKwargs:
		args, kwargs = x.Args, x.Kwargs
	case ArgsKwargs:
		args, kwargs = x.Args, x.Kwargs
	default:
		if items, ok := asSlice(in); ok {
			args = items
		} else if m, ok := asFields(in); ok {
			kwargs = m
		} else {
			return nil, invalidType("dictionary or instance of "+n.DataclassName, in)
		}
	}
	cfg := st.config()
	byName := cfg != nil && firstBool(cfg.PopulateByName)

	out := &DataclassArgs{Fields: map[string]any{}}
	prevData, prevField := st.data, st.field
	st.data = out.Fields
	defer func() { st.data, st.field = prevData, prevField }()

	used := map[string]struct{}{}
	var errs lineErrors
	next := 0
	for _, f := range n.Fields {
		if err := st.ctx.Err(); err != nil {
			return nil, err
		}
		st.field = f.Name
		paths := aliasPaths(f.ValidationAlias)
		if len(paths) == 0 || byName {
			paths = append(paths, []any{f.Name})
		}
		var raw any
		var loc []any
		found := false
		if f.InInit() {
			if !firstBool(f.KwOnly) && next < len(args) {
				raw, loc, found = args[next], []any{next}, true
				next++
			}
			for _, p := range paths {
				v, ok := lookupPath(kwargs, p)
				if !ok {
					continue
				}
				if k, isKey := p[0].(string); isKey {
					used[k] = struct{}{}
				}
				if found {
					errs = append(errs, lineError{loc: p, code: CodeValueError, input: v, params: map[string]any{"error": fmt.Sprintf("multiple values for argument %q", f.Name)}})
				} else {
					raw, loc, found = v, p, true
				}
				break
			}
		}
		var v any
		switch {
		case found:
			var err error
			if v, err = st.validate(f.Schema, raw); err != nil {
				le, ok := at(err, loc...).(lineErrors)
				if !ok {
					return nil, err
				}
				errs = append(errs, le...)
				continue
			}
			if _, skip := v.(omitted); skip {
				continue
			}
		case defaultOf(f.Schema) != nil:
			var err error
			if v, err = st.defaultValue(defaultOf(f.Schema)); err != nil {
				le, ok := at(err, paths[0]...).(lineErrors)
				if !ok {
					return nil, err
				}
				errs = append(errs, le...)
				continue
			}
		case f.InInit():
			errs = append(errs, lineError{loc: paths[0], code: CodeRequired, input: in})
			continue
		default:
			continue
		}
		if firstBool(f.InitOnly) {
			if out.InitOnly == nil {
				out.InitOnly = map[string]any{}
			}
			out.InitOnly[f.Name] = v
			continue
		}
		out.Fields[f.Name] = v
		if found {
			out.FieldsSet = append(out.FieldsSet, f.Name)
		}
	}
	for i := next; i < len(args); i++ {
		errs = append(errs, lineError{loc: []any{i}, code: CodeUnknownKey, input: args[i]})
	}

	behavior := n.ExtraBehavior
	if behavior == "" && cfg != nil {
		behavior = cfg.ExtraFieldsBehavior
	}
	if _, fromInstance := in.(*core.Instance); !fromInstance {
		for _, k := range sortedKeys(kwargs) {
			if _, ok := used[k]; ok {
				continue
			}
			switch behavior {
			case core.ExtraForbid:
				errs = append(errs, lineError{loc: []any{k}, code: CodeUnknownKey, input: kwargs[k]})
			case core.ExtraAllow:
				if out.Extra == nil {
					out.Extra = map[string]any{}
				}
				out.Extra[k] = kwargs[k]
			}
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// dataclass builds the instance from validated arguments and runs
// post-init on it.
func (st *state) dataclass(n *core.DataclassSchema, in any) (any, error) {
	class := className(n.Cls)
	if inst, ok := in.(*core.Instance); ok && inst.Class == class {
		return inst, nil
	}
	restore := st.pushConfig(n.Config, n.Strict)
	defer restore()
	out, err := st.validate(n.Schema, in)
	if err != nil {
		return nil, err
	}
	var inst *core.Instance
	var initOnly map[string]any
	switch x := out.(type) {
	case *DataclassArgs:
		inst = &core.Instance{Class: class, Fields: x.Fields, FieldsSet: x.FieldsSet, Extra: x.Extra}
		initOnly = x.InitOnly
	case *core.Instance:
		inst = x
	default:
		return nil, core.Errorf(core.CodeInvalidCoreSchema, "arguments of %s validated to %T", class, out)
	}
	if n.PostInit != nil {
		if err := postInit(n.PostInit, inst, initOnly); err != nil {
			return nil, userError(err, in)
		}
	}
	return inst, nil
}

// postInit calls fn with the instance, and the init-only values when fn
// takes a second argument.
func postInit(fn any, inst *core.Instance, initOnly map[string]any) error {
	args := []any{inst}
	if reflect.TypeOf(fn).NumIn() > 1 {
		if initOnly == nil {
			initOnly = map[string]any{}
		}
		args = append(args, initOnly)
	}
	_, err := core.Invoke(fn, args...)
	return err
}

func (st *state) arguments(n *core.ArgumentsSchema, in any) (any, error) {
	var args []any
	var kwargs map[string]any
	switch x := in.(type) {
	case *ArgsKwargs:
		args, kwargs = x.Args, x.Kwargs
	case ArgsKwargs:
		args, kwargs = x.Args, x.Kwargs
	default:
		if items, ok := asSlice(in); ok {
			args = items
		} else if m, ok := asFields(in); ok {
			kwargs = m
		} else {
			return nil, invalidType("arguments", in)
		}
	}
	byName := firstBool(n.PopulateByName)
	usedKw := map[string]struct{}{}
	out := &ArgsKwargs{}
	var errs lineErrors
	next := 0
	for _, p := range n.ArgumentsSchema {
		keys := []string{p.Name}
		if p.Alias != "" {
			keys = []string{p.Alias}
			if byName {
				keys = append(keys, p.Name)
			}
		}
		var raw any
		var loc any
		found := false
		if p.Mode != core.ModeKeywordOnly && next < len(args) {
			raw, loc, found = args[next], next, true
			next++
		}
		for _, k := range keys {
			v, ok := kwargs[k]
			if !ok {
				continue
			}
			if p.Mode == core.ModePositionalOnly {
				break
			}
			if found {
				errs = append(errs, lineError{loc: []any{k}, code: CodeValueError, input: v, params: map[string]any{"error": fmt.Sprintf("multiple values for argument %q", p.Name)}})
			} else {
				raw, loc, found = v, k, true
			}
			usedKw[k] = struct{}{}
			break
		}
		if !found {
			if d := defaultOf(p.Schema); d != nil {
				v, err := st.defaultValue(d)
				if err != nil {
					return nil, err
				}
				out.Args = append(out.Args, v)
				continue
			}
			errs = append(errs, lineError{loc: []any{keys[0]}, code: CodeRequired, input: in})
			continue
		}
		v, err := st.validate(p.Schema, raw)
		if err != nil {
			le, ok := at(err, loc).(lineErrors)
			if !ok {
				return nil, err
			}
			errs = append(errs, le...)
			continue
		}
		out.Args = append(out.Args, v)
	}
	for i := next; i < len(args); i++ {
		if n.VarArgsSchema == nil {
			errs = append(errs, lineError{loc: []any{i}, code: CodeUnknownKey, input: args[i]})
			continue
		}
		v, err := st.validate(n.VarArgsSchema, args[i])
		if err != nil {
			le, ok := at(err, i).(lineErrors)
			if !ok {
				return nil, err
			}
			errs = append(errs, le...)
			continue
		}
		out.Args = append(out.Args, v)
	}
	for _, k := range sortedKeys(kwargs) {
		if _, ok := usedKw[k]; ok {
			continue
		}
		if n.VarKwargsSchema == nil {
			errs = append(errs, lineError{loc: []any{k}, code: CodeUnknownKey, input: kwargs[k]})
			continue
		}
		v, err := st.validate(n.VarKwargsSchema, kwargs[k])
		if err != nil {
			le, ok := at(err, k).(lineErrors)
			if !ok {
				return nil, err
			}
			errs = append(errs, le...)
			continue
		}
		if out.Kwargs == nil {
			out.Kwargs = map[string]any{}
		}
		out.Kwargs[k] = v
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// callValue validates the arguments and calls the function with them.
// Extra keyword arguments are passed as a trailing map when the arguments
// node accepts them.
func (st *state) callValue(n *core.CallSchema, in any) (any, error) {
	v, err := st.validate(n.ArgumentsSchema, in)
	if err != nil {
		return nil, err
	}
	ak, ok := v.(*ArgsKwargs)
	if !ok {
		return nil, core.Errorf(core.CodeInvalidCoreSchema, "arguments of %s validated to %T", n.FunctionName, v)
	}
	args := ak.Args
	if as, ok := n.ArgumentsSchema.(*core.ArgumentsSchema); ok && as.VarKwargsSchema != nil {
		kw := ak.Kwargs
		if kw == nil {
			kw = map[string]any{}
		}
		args = append(append([]any{}, args...), kw)
	}
	out, err := core.Invoke(n.Function, args...)
	if err != nil {
		return nil, userError(err, in)
	}
	if n.ReturnSchema != nil {
		return st.validate(n.ReturnSchema, out)
	}
	return out, nil
}
