package validator

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/reoring/schemagen/codec"
	"github.com/reoring/schemagen/constraint"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// state carries one validation call through the node graph.
type state struct {
	v          *Validator
	ctx        context.Context
	mode       string
	context    any
	callStrict *bool
	// forceStrict is set during the strict pass of a smart union.
	forceStrict bool
	// data holds the fields validated so far on the innermost record.
	data    map[string]any
	field   string
	configs []*core.CoreConfig
	fields  *fieldsOut
}

// fieldsOut is what a record-fields node leaves for the enclosing model.
type fieldsOut struct {
	set   []string
	extra map[string]any
}

// omitted marks an item dropped by a default node with on_error "omit".
type omitted struct{}

func (st *state) config() *core.CoreConfig {
	if n := len(st.configs); n > 0 {
		return st.configs[n-1]
	}
	return nil
}

func (st *state) pushConfig(c *core.CoreConfig, strict *bool) func() {
	if c == nil && strict == nil {
		return func() {}
	}
	merged := &core.CoreConfig{}
	if c != nil {
		*merged = *c
	} else if top := st.config(); top != nil {
		*merged = *top
	}
	if strict != nil {
		merged.Strict = strict
	}
	st.configs = append(st.configs, merged)
	return func() { st.configs = st.configs[:len(st.configs)-1] }
}

// strict resolves strictness: the node, then a smart-union strict pass,
// then the call, then the enclosing record, then the Validator default.
func (st *state) strict(node *bool) bool {
	switch {
	case node != nil:
		return *node
	case st.forceStrict:
		return true
	case st.callStrict != nil:
		return *st.callStrict
	}
	if c := st.config(); c != nil && c.Strict != nil {
		return *c.Strict
	}
	return st.v.settings.strict
}

func (st *state) jsonMode() bool { return st.mode == ModeJSON }

func (st *state) validate(s core.Schema, in any) (any, error) {
	switch n := s.(type) {
	case nil, *core.AnySchema:
		return in, nil
	case *core.NoneSchema:
		if in == nil {
			return nil, nil
		}
		return nil, invalidType("none", in)
	case *core.BoolSchema:
		b, ok := toBool(in, st.strict(n.Strict))
		if !ok {
			return nil, invalidType("boolean", in)
		}
		return b, nil
	case *core.IntSchema:
		return st.intValue(n, in)
	case *core.FloatSchema:
		return st.floatValue(n, in)
	case *core.StrSchema:
		return st.strValue(n, in)
	case *core.BytesSchema:
		return st.bytesValue(n, in)
	case *core.DateSchema:
		t, err := st.temporal(in, "date", n.Strict)
		if err != nil {
			return nil, err
		}
		return t, timeBounds(t, n.Gt, n.Ge, n.Lt, n.Le)
	case *core.TimeSchema:
		t, err := st.temporal(in, "time", n.Strict)
		if err != nil {
			return nil, err
		}
		return t, timeBounds(t, n.Gt, n.Ge, n.Lt, n.Le)
	case *core.DatetimeSchema:
		t, err := st.temporal(in, "datetime", n.Strict)
		if err != nil {
			return nil, err
		}
		return t, timeBounds(t, n.Gt, n.Ge, n.Lt, n.Le)
	case *core.TimedeltaSchema:
		return st.durationValue(n, in)
	case *core.UUIDSchema:
		return st.uuidValue(n, in)
	case *core.LiteralSchema:
		for _, e := range n.Expected {
			if sameScalar(e, in) {
				return e, nil
			}
		}
		return nil, fail(CodeInvalidEnum, in, map[string]any{"expected": orList(n.Expected)})
	case *core.EnumSchema:
		return st.enumValue(n, in)
	case *core.IsInstanceSchema:
		if isInstance(n.Cls, in) {
			return in, nil
		}
		return nil, invalidType("instance of "+n.ClsRepr, in)
	case *core.CallableSchema:
		if in != nil && reflect.TypeOf(in).Kind() == reflect.Func {
			return in, nil
		}
		return nil, invalidType("callable", in)
	case *core.ListSchema:
		return st.listValue(in, n.ItemsSchema, n.MinLength, n.MaxLength, n.FailFast, n.Strict, false)
	case *core.SetSchema:
		return st.listValue(in, n.ItemsSchema, n.MinLength, n.MaxLength, n.FailFast, n.Strict, true)
	case *core.FrozenSetSchema:
		return st.listValue(in, n.ItemsSchema, n.MinLength, n.MaxLength, n.FailFast, n.Strict, true)
	case *core.TupleSchema:
		return st.tupleValue(n, in)
	case *core.DictSchema:
		return st.dictValue(n, in)
	case *core.FunctionBeforeSchema:
		v, err := st.call(n.Function, in)
		if err != nil {
			return nil, err
		}
		return st.validate(n.Schema, v)
	case *core.FunctionAfterSchema:
		v, err := st.validate(n.Schema, in)
		if err != nil {
			return nil, err
		}
		return st.call(n.Function, v)
	case *core.FunctionWrapSchema:
		handler := core.ValidatorHandler(func(v any) (any, error) { return st.validate(n.Schema, v) })
		return st.call(n.Function, in, handler)
	case *core.FunctionPlainSchema:
		return st.call(n.Function, in)
	case *core.DefaultSchema:
		v, err := st.validate(n.Schema, in)
		if err == nil {
			return v, nil
		}
		switch n.OnError {
		case "default":
			return st.defaultValue(n)
		case "omit":
			return omitted{}, nil
		}
		return nil, err
	case *core.NullableSchema:
		if in == nil {
			return nil, nil
		}
		return st.validate(n.Schema, in)
	case *core.UnionSchema:
		return st.unionValue(n, in)
	case *core.TaggedUnionSchema:
		return st.taggedUnionValue(n, in)
	case *core.ChainSchema:
		v := in
		for _, step := range n.Steps {
			var err error
			if v, err = st.validate(step, v); err != nil {
				return nil, err
			}
		}
		return v, nil
	case *core.ModelFieldsSchema:
		return st.modelFields(n, in)
	case *core.ModelSchema:
		return st.model(n, in)
	case *core.TypedDictSchema:
		return st.typedDict(n, in)
	case *core.DataclassArgsSchema:
		return st.dataclassArgs(n, in)
	case *core.DataclassSchema:
		return st.dataclass(n, in)
	case *core.ArgumentsSchema:
		return st.arguments(n, in)
	case *core.CallSchema:
		return st.callValue(n, in)
	case *core.DefinitionsSchema:
		return st.validate(n.Schema, in)
	case *core.DefinitionReferenceSchema:
		def, err := st.v.definition(n.SchemaRef)
		if err != nil {
			return nil, err
		}
		return st.validate(def, in)
	}
	return nil, core.Errorf(core.CodeInvalidCoreSchema, "cannot validate %s node", s.Type())
}

// call runs a validator function. extra goes between the value and the
// info argument.
func (st *state) call(f core.ValidatorFunc, in any, extra ...any) (any, error) {
	args := append([]any{in}, extra...)
	if f.Type == core.WithInfo {
		args = append(args, &validationInfo{st: st, field: firstNonEmpty(f.FieldName, st.field)})
	}
	out, err := core.Invoke(f.Function, args...)
	if err != nil {
		return nil, userError(err, in)
	}
	return out, nil
}

func (st *state) intValue(n *core.IntSchema, in any) (any, error) {
	i, ok := toInt(in, st.strict(n.Strict))
	if !ok {
		if f, isNum := toFloat(in, true); isNum && f != math.Trunc(f) {
			return nil, fail(CodeInvalidType, in, map[string]any{"expected": "integer, got a number with a fractional part"})
		}
		return nil, invalidType("integer", in)
	}
	if err := bounds(i, n.Gt, n.Ge, n.Lt, n.Le); err != nil {
		return nil, err
	}
	if n.MultipleOf != nil {
		if err := constraint.MultipleOfCheck(i, *n.MultipleOf); err != nil {
			return nil, userError(err, in)
		}
	}
	return i, nil
}

func (st *state) floatValue(n *core.FloatSchema, in any) (any, error) {
	f, ok := toFloat(in, st.strict(n.Strict))
	if !ok {
		return nil, invalidType("number", in)
	}
	if n.AllowInfNaN != nil && !*n.AllowInfNaN && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil, fail(CodeFiniteNumber, in, nil)
	}
	if err := bounds(f, n.Gt, n.Ge, n.Lt, n.Le); err != nil {
		return nil, err
	}
	if n.MultipleOf != nil {
		if err := constraint.MultipleOfCheck(f, *n.MultipleOf); err != nil {
			return nil, userError(err, in)
		}
	}
	return f, nil
}

func (st *state) strValue(n *core.StrSchema, in any) (any, error) {
	var s string
	switch x := in.(type) {
	case string:
		s = x
	case []byte:
		if st.strict(n.Strict) || !utf8.Valid(x) {
			return nil, invalidType("string", in)
		}
		s = string(x)
	default:
		return nil, invalidType("string", in)
	}
	cfg := st.config()
	if cfg == nil {
		cfg = &core.CoreConfig{}
	}
	if firstBool(n.StripWhitespace, cfg.StrStripWhitespace) {
		s = strings.TrimSpace(s)
	}
	if firstBool(n.ToLower, cfg.StrToLower) {
		s = strings.ToLower(s)
	}
	if firstBool(n.ToUpper, cfg.StrToUpper) {
		s = strings.ToUpper(s)
	}
	if err := lengths(s, utf8.RuneCountInString(s), firstInt(n.MinLength, cfg.StrMinLength), firstInt(n.MaxLength, cfg.StrMaxLength)); err != nil {
		return nil, err
	}
	if n.Pattern != "" {
		re, err := st.v.pattern(n.Pattern)
		if err != nil {
			return nil, core.Errorf(core.CodeInvalidCoreSchema, "pattern %q: %v", n.Pattern, err)
		}
		if !re.MatchString(s) {
			return nil, fail(CodePattern, s, map[string]any{"pattern": n.Pattern})
		}
	}
	return s, nil
}

func (st *state) bytesValue(n *core.BytesSchema, in any) (any, error) {
	var b []byte
	switch x := in.(type) {
	case []byte:
		b = x
	case string:
		if st.strict(n.Strict) && !st.jsonMode() {
			return nil, invalidType("bytes", in)
		}
		b = []byte(x)
	default:
		return nil, invalidType("bytes", in)
	}
	if err := lengths(b, len(b), n.MinLength, n.MaxLength); err != nil {
		return nil, err
	}
	return b, nil
}

// temporal reads a date, time or datetime. Strings are always accepted
// from JSON; in-memory input needs lax mode for strings and numbers.
func (st *state) temporal(in any, kind string, node *bool) (time.Time, error) {
	strict := st.strict(node)
	switch x := in.(type) {
	case time.Time:
		if kind == "date" {
			if h, m, s := x.Clock(); h != 0 || m != 0 || s != 0 || x.Nanosecond() != 0 {
				return time.Time{}, fail(CodeInvalidFormat, in, map[string]any{"format": "date, the time part should be zero"})
			}
		}
		return x, nil
	case string:
		if strict && !st.jsonMode() {
			break
		}
		var t time.Time
		var err error
		switch kind {
		case "date":
			t, err = codec.Date().Decode(x)
		case "time":
			t, err = codec.TimeOfDay().Decode(x)
		default:
			t, err = codec.DateTime().Decode(x)
		}
		if err != nil {
			return time.Time{}, fail(CodeInvalidFormat, in, map[string]any{"format": kind})
		}
		return t, nil
	}
	if kind == "datetime" && !strict {
		if f, ok := toFloat(in, true); ok {
			return unixTime(f), nil
		}
	}
	return time.Time{}, invalidType(kind, in)
}

// unixTime reads seconds, or milliseconds when the number is too large to
// be seconds.
func unixTime(f float64) time.Time {
	if math.Abs(f) > 2e10 {
		f /= 1000
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func (st *state) durationValue(n *core.TimedeltaSchema, in any) (any, error) {
	strict := st.strict(n.Strict)
	var d time.Duration
	switch x := in.(type) {
	case time.Duration:
		d = x
	case string:
		if strict && !st.jsonMode() {
			return nil, invalidType("timedelta", in)
		}
		var err error
		if d, err = codec.Duration().Decode(x); err != nil {
			return nil, fail(CodeInvalidFormat, in, map[string]any{"format": "duration"})
		}
	default:
		f, ok := toFloat(in, true)
		if !ok || (strict && !st.jsonMode()) {
			return nil, invalidType("timedelta", in)
		}
		d = time.Duration(f * float64(time.Second))
	}
	if err := bounds(d, n.Gt, n.Ge, n.Lt, n.Le); err != nil {
		return nil, err
	}
	return d, nil
}

func (st *state) uuidValue(n *core.UUIDSchema, in any) (any, error) {
	var u uuid.UUID
	switch x := in.(type) {
	case uuid.UUID:
		u = x
	case string:
		if st.strict(n.Strict) && !st.jsonMode() {
			return nil, invalidType("UUID", in)
		}
		var err error
		if u, err = codec.UUID().Decode(x); err != nil {
			return nil, fail(CodeInvalidFormat, in, map[string]any{"format": "UUID"})
		}
	default:
		return nil, invalidType("UUID", in)
	}
	if n.Version != nil && int(u.Version()) != *n.Version {
		return nil, fail(CodeInvalidFormat, in, map[string]any{"format": fmt.Sprintf("UUID version %d", *n.Version)})
	}
	return u, nil
}

func (st *state) enumValue(n *core.EnumSchema, in any) (any, error) {
	if m, ok := in.(typeexpr.EnumMember); ok {
		in = m.Value
	}
	for _, m := range n.Members {
		if sameScalar(m, in) {
			return m, nil
		}
	}
	if !st.strict(n.Strict) {
		if s, ok := in.(string); ok && n.SubType != "str" {
			for _, m := range n.Members {
				if fmt.Sprint(m) == s {
					return m, nil
				}
			}
		}
	}
	return nil, fail(CodeInvalidEnum, in, map[string]any{"expected": orList(n.Members)})
}

// isInstance checks in against a Go type, a record declaration (matched
// by class name) or, for other declarations, any non-nil value.
func isInstance(cls, in any) bool {
	if in == nil {
		return false
	}
	switch c := cls.(type) {
	case reflect.Type:
		t := reflect.TypeOf(in)
		if c.Kind() == reflect.Interface {
			return t.Implements(c)
		}
		return t == c || t.AssignableTo(c)
	case interface{ QualName() string }:
		inst, ok := in.(*core.Instance)
		return ok && inst.Class == c.QualName()
	}
	return true
}

func (st *state) listValue(in any, items core.Schema, minLen, maxLen *int, failFast, node *bool, unique bool) (any, error) {
	raw, ok := asSlice(in)
	if !ok {
		expected := "list"
		if unique {
			expected = "set"
		}
		return nil, invalidType(expected, in)
	}
	out := make([]any, 0, len(raw))
	seen := map[string]struct{}{}
	var errs lineErrors
	for i, item := range raw {
		v, err := st.validate(items, item)
		if err != nil {
			if le, ok := at(err, i).(lineErrors); ok {
				errs = append(errs, le...)
				if firstBool(failFast) {
					break
				}
				continue
			}
			return nil, err
		}
		if _, skip := v.(omitted); skip {
			continue
		}
		if unique {
			k := setKey(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, v)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if err := lengths(out, len(out), minLen, maxLen); err != nil {
		return nil, err
	}
	return out, nil
}

func (st *state) tupleValue(n *core.TupleSchema, in any) (any, error) {
	raw, ok := asSlice(in)
	if !ok {
		return nil, invalidType("tuple", in)
	}
	schemaAt := func(i int) (core.Schema, bool) {
		if n.VariadicItemIndex == nil {
			if i < len(n.ItemsSchema) {
				return n.ItemsSchema[i], true
			}
			return nil, false
		}
		vi := *n.VariadicItemIndex
		suffix := len(n.ItemsSchema) - vi - 1
		switch {
		case i < vi:
			return n.ItemsSchema[i], true
		case i >= len(raw)-suffix:
			return n.ItemsSchema[len(n.ItemsSchema)-(len(raw)-i)], true
		}
		return n.ItemsSchema[vi], true
	}
	fixed := len(n.ItemsSchema)
	if n.VariadicItemIndex != nil {
		fixed--
	}
	if len(raw) < fixed {
		return nil, fail(CodeTooShort, in, lengthParams("min_length", fixed, len(raw), raw))
	}
	if n.VariadicItemIndex == nil && len(raw) > fixed {
		return nil, fail(CodeTooLong, in, lengthParams("max_length", fixed, len(raw), raw))
	}
	out := make([]any, 0, len(raw))
	var errs lineErrors
	for i, item := range raw {
		s, _ := schemaAt(i)
		v, err := st.validate(s, item)
		if err != nil {
			if le, ok := at(err, i).(lineErrors); ok {
				errs = append(errs, le...)
				if firstBool(n.FailFast) {
					break
				}
				continue
			}
			return nil, err
		}
		out = append(out, v)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if err := lengths(out, len(out), n.MinLength, n.MaxLength); err != nil {
		return nil, err
	}
	return out, nil
}

func (st *state) dictValue(n *core.DictSchema, in any) (any, error) {
	entries, ok := mapEntries(in)
	if !ok {
		return nil, invalidType("dictionary", in)
	}
	keys := make([]any, 0, len(entries))
	vals := make([]any, 0, len(entries))
	allStrings := true
	var errs lineErrors
	for _, e := range entries {
		seg := any(fmt.Sprint(e.key))
		k, err := st.validate(n.KeysSchema, e.key)
		if err != nil {
			le, ok := at(err, seg).(lineErrors)
			if !ok {
				return nil, err
			}
			errs = append(errs, le...)
			continue
		}
		if k != nil && !reflect.TypeOf(k).Comparable() {
			errs = append(errs, at(invalidType("hashable key", k), seg).(lineErrors)...)
			continue
		}
		v, err := st.validate(n.ValuesSchema, e.value)
		if err != nil {
			le, ok := at(err, seg).(lineErrors)
			if !ok {
				return nil, err
			}
			errs = append(errs, le...)
			continue
		}
		if _, skip := v.(omitted); skip {
			continue
		}
		if _, isStr := k.(string); !isStr {
			allStrings = false
		}
		keys = append(keys, k)
		vals = append(vals, v)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if err := lengths(keys, len(keys), n.MinLength, n.MaxLength); err != nil {
		return nil, err
	}
	if allStrings {
		out := make(map[string]any, len(keys))
		for i, k := range keys {
			out[k.(string)] = vals[i]
		}
		return out, nil
	}
	out := make(map[any]any, len(keys))
	for i, k := range keys {
		out[k] = vals[i]
	}
	return out, nil
}

// unionValue tries the choices left to right. Smart mode makes a strict
// pass first so that an exact match wins over a coercion.
func (st *state) unionValue(n *core.UnionSchema, in any) (any, error) {
	prev := st.forceStrict
	defer func() { st.forceStrict = prev }()
	if n.Mode != "left_to_right" && !st.strict(n.Strict) {
		st.forceStrict = true
		v, err := st.firstMatch(n, in)
		st.forceStrict = prev
		if err == nil {
			return v, nil
		}
		if _, ok := err.(lineErrors); !ok {
			return nil, err
		}
	}
	if firstBool(n.Strict) {
		st.forceStrict = true
	}
	v, err := st.firstMatch(n, in)
	if err == nil {
		return v, nil
	}
	le, ok := err.(lineErrors)
	if !ok {
		return nil, err
	}
	if n.CustomErrorType != "" {
		return nil, lineErrors{{code: n.CustomErrorType, input: in, msg: n.CustomErrorMessage}}
	}
	if len(le) == 0 {
		return nil, fail(CodeUnionNoMatch, in, nil)
	}
	return nil, le
}

func (st *state) firstMatch(n *core.UnionSchema, in any) (any, error) {
	var errs lineErrors
	for _, c := range n.Choices {
		v, err := st.validate(c.Schema, in)
		if err == nil {
			return v, nil
		}
		le, ok := err.(lineErrors)
		if !ok {
			return nil, err
		}
		errs = append(errs, le...)
	}
	return nil, errs
}

func (st *state) taggedUnionValue(n *core.TaggedUnionSchema, in any) (any, error) {
	if in == nil {
		return nil, invalidType("object", in)
	}
	tag, found, name, err := discriminate(n.Discriminator, in)
	if err != nil {
		return nil, userError(err, in)
	}
	if !found {
		if _, ok := asFields(in); !ok {
			if _, byKey := n.Discriminator.(string); byKey {
				return nil, invalidType("object", in)
			}
		}
		return nil, st.customOr(n, fail(CodeDiscriminatorMissing, in, map[string]any{"discriminator": name}))
	}
	key := scalar(tag)
	branch, ok := n.Choices.Get(key)
	if !ok || !isTagScalar(key) {
		return nil, st.customOr(n, fail(CodeDiscriminatorUnknown, in, map[string]any{
			"tag":           fmt.Sprint(tag),
			"discriminator": name,
			"expected":      n.Choices.Tags(),
		}))
	}
	return st.validate(branch, in)
}

// isTagScalar reports whether a tag read from input can name a branch.
func isTagScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, float32, float64,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func (st *state) customOr(n *core.TaggedUnionSchema, le lineErrors) lineErrors {
	if n.CustomErrorType == "" {
		return le
	}
	return lineErrors{{code: n.CustomErrorType, input: le[0].input, msg: n.CustomErrorMessage}}
}

// discriminate extracts the tag of in. name describes the discriminator
// for messages.
func discriminate(d, in any) (tag any, found bool, name string, err error) {
	switch x := d.(type) {
	case string:
		m, ok := asFields(in)
		if !ok {
			return nil, false, x, nil
		}
		tag, found = m[x]
		return tag, found && tag != nil, x, nil
	case [][]any:
		names := make([]string, len(x))
		for i, p := range x {
			names[i] = pathName(p)
		}
		name = strings.Join(names, " | ")
		for _, p := range x {
			if tag, found = lookupPath(in, p); found && tag != nil {
				return tag, true, name, nil
			}
		}
		return nil, false, name, nil
	}
	name = core.FuncName(d)
	tag, err = core.Invoke(d, in)
	return tag, err == nil && tag != nil, name, err
}

func pathName(p []any) string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ".")
}

func (st *state) defaultValue(d *core.DefaultSchema) (any, error) {
	var v any
	if d.DefaultFactory != nil {
		v = d.DefaultFactory()
	} else {
		v = deepCopy(d.Default)
	}
	validate := d.ValidateDefault
	if validate == nil {
		if c := st.config(); c != nil {
			validate = c.ValidateDefault
		}
	}
	if firstBool(validate) {
		return st.validate(d.Schema, v)
	}
	return v, nil
}

// defaultOf finds the default node of a field schema.
func defaultOf(s core.Schema) *core.DefaultSchema {
	for s != nil {
		if d, ok := s.(*core.DefaultSchema); ok {
			return d
		}
		if !core.IsFunctionWithInnerSchema(s) {
			return nil
		}
		s = core.InnerSchema(s)
	}
	return nil
}

func bounds[T any](v any, gt, ge, lt, le *T) error {
	checks := []struct {
		key   string
		bound *T
		check func(v, b any) error
	}{
		{"gt", gt, constraint.GreaterThan},
		{"ge", ge, constraint.GreaterThanEqual},
		{"lt", lt, constraint.LessThan},
		{"le", le, constraint.LessThanEqual},
	}
	for _, c := range checks {
		if c.bound == nil {
			continue
		}
		if err := c.check(v, *c.bound); err != nil {
			return userError(err, v)
		}
	}
	return nil
}

func timeBounds(t time.Time, gt, ge, lt, le *time.Time) error {
	return bounds(t, gt, ge, lt, le)
}

func lengths(v any, n int, minLen, maxLen *int) error {
	if minLen != nil && n < *minLen {
		return fail(CodeTooShort, v, lengthParams("min_length", *minLen, n, v))
	}
	if maxLen != nil && n > *maxLen {
		return fail(CodeTooLong, v, lengthParams("max_length", *maxLen, n, v))
	}
	return nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
