package constraint

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/reoring/schemagen/core"
)

// KV is one collected constraint.
type KV struct {
	Key   string
	Value any
}

// Expand flattens grouped annotations (Interval, Len, nested []any) into
// single markers, keeping order.
func Expand(annotations []any) []any {
	var out []any
	for _, a := range annotations {
		switch g := a.(type) {
		case Grouped:
			out = append(out, Expand(g.Expand())...)
		case []any:
			out = append(out, Expand(g)...)
		default:
			out = append(out, a)
		}
	}
	return out
}

// Collect splits annotations into known constraints and everything else.
// A key set twice keeps its first position and its last value.
func Collect(annotations []any) ([]KV, []any) {
	var kvs []KV
	var other []any
	index := map[string]int{}
	for _, a := range Expand(annotations) {
		m, ok := a.(Marker)
		if !ok {
			other = append(other, a)
			continue
		}
		k, v := m.Constraint()
		if i, seen := index[k]; seen {
			kvs[i].Value = v
			continue
		}
		index[k] = len(kvs)
		kvs = append(kvs, KV{Key: k, Value: v})
	}
	return kvs, other
}

// Check validates a constraint value on its own.
func Check(key string, value any) error {
	bad := func(format string, args ...any) error {
		return core.Errorf(core.CodeInvalidConstraint, "constraint %q: %s", key, fmt.Sprintf(format, args...))
	}
	switch key {
	case KeyGt, KeyGe, KeyLt, KeyLe:
		switch value.(type) {
		case time.Time, time.Duration:
			return nil
		}
		if _, ok := toFloat(value); !ok {
			return bad("bound must be a number, time or duration, got %T", value)
		}
	case KeyMultipleOf:
		f, ok := toFloat(value)
		if !ok {
			return bad("must be a number, got %T", value)
		}
		if f <= 0 {
			return bad("must be positive, got %v", value)
		}
	case KeyMinLength, KeyMaxLength:
		n, ok := value.(int)
		if !ok {
			return bad("must be an int, got %T", value)
		}
		if n < 0 {
			return bad("must not be negative, got %d", n)
		}
	case KeyPattern:
		s, ok := value.(string)
		if !ok {
			return bad("must be a string, got %T", value)
		}
		if _, err := CompilePattern(s); err != nil {
			return bad("invalid regular expression: %v", err)
		}
	case KeyStrict, KeyAllowInfNaN, KeyFailFast, KeyStripWhitespace, KeyToLower, KeyToUpper:
		if _, ok := value.(bool); !ok {
			return bad("must be a bool, got %T", value)
		}
	case KeyUnionMode:
		if value != "smart" && value != "left_to_right" {
			return bad("must be 'smart' or 'left_to_right', got %v", value)
		}
	default:
		if !Known(key) {
			return core.Errorf(core.CodeInvalidConstraint, "unknown constraint %q", key)
		}
	}
	return nil
}

// Apply folds one annotation onto s. Constraints the node holds natively
// are set on a copy of it. Numeric and length constraints it cannot hold
// become after-validators that also update the rendered JSON Schema;
// string transforms become a trailing str step of a chain. ok is false
// when annotation is not known metadata, in which case s is untouched.
func Apply(annotation any, s core.Schema) (out core.Schema, ok bool, err error) {
	kvs, other := Collect([]any{annotation})
	out = core.Copy(s)
	var steps []core.Schema
	for _, kv := range kvs {
		if err := Check(kv.Key, kv.Value); err != nil {
			return nil, false, err
		}
		if kv.Key == KeyStrict && core.IsFunctionWithInnerSchema(out) {
			inner, _, err := Apply(annotation, core.InnerSchema(out))
			if err != nil {
				return nil, false, err
			}
			setInner(out, inner)
			return out, true, nil
		}
		if Allows(kv.Key, out.Type()) {
			set, err := setNative(out, kv.Key, kv.Value)
			if err != nil && !IsNumeric(kv.Key) {
				return nil, false, err
			}
			if set && err == nil {
				continue
			}
		}
		switch {
		case isChain(kv.Key):
			str := &core.StrSchema{}
			if _, err := setNative(str, kv.Key, kv.Value); err != nil {
				return nil, false, err
			}
			steps = append(steps, str)
		case IsNumeric(kv.Key) || IsLength(kv.Key):
			jsKey := jsonSchemaKey(kv.Key, out)
			check, _ := Checker(kv.Key, kv.Value)
			out = afterValidator(check, out)
			core.AddJSFunction(out, updateJSONSchema(jsKey, kv.Value))
		case kv.Key == KeyAllowInfNaN:
			if on, _ := kv.Value.(bool); !on {
				out = afterValidator(ForbidInfNaN, out)
			}
		default:
			return nil, false, core.Errorf(core.CodeInvalidConstraint, "unable to apply constraint %q to schema %q", kv.Key, out.Type())
		}
	}
	for _, a := range other {
		switch m := a.(type) {
		case Predicate:
			out = afterValidator(predicateCheck(m), out)
		case *Predicate:
			out = afterValidator(predicateCheck(*m), out)
		case Not:
			out = afterValidator(notCheck(m), out)
		case *Not:
			out = afterValidator(notCheck(*m), out)
		default:
			return s, false, nil
		}
	}
	if len(steps) > 0 {
		return &core.ChainSchema{Steps: append([]core.Schema{out}, steps...)}, true, nil
	}
	return out, true, nil
}

// IsKnown reports whether Apply understands annotation.
func IsKnown(annotation any) bool {
	kvs, other := Collect([]any{annotation})
	for _, a := range other {
		switch a.(type) {
		case Predicate, *Predicate, Not, *Not:
		default:
			return false
		}
	}
	return len(kvs) > 0 || len(other) > 0
}

func isChain(key string) bool {
	_, ok := chainConstraints[key]
	return ok
}

func afterValidator(fn CheckFunc, s core.Schema) core.Schema {
	return &core.FunctionAfterSchema{
		Function: core.ValidatorFunc{Type: core.NoInfo, Function: (func(any) (any, error))(fn)},
		Schema:   s,
	}
}

func setInner(s, inner core.Schema) {
	switch n := s.(type) {
	case *core.FunctionBeforeSchema:
		n.Schema = inner
	case *core.FunctionAfterSchema:
		n.Schema = inner
	case *core.FunctionWrapSchema:
		n.Schema = inner
	}
}

var jsonSchemaNumeric = map[string]string{
	KeyMultipleOf: "multipleOf",
	KeyLe:         "maximum",
	KeyGe:         "minimum",
	KeyLt:         "exclusiveMaximum",
	KeyGt:         "exclusiveMinimum",
}

// jsonSchemaKey picks the JSON Schema keyword for a constraint applied
// through a validator, looking through function wrappers for the shape.
func jsonSchemaKey(key string, s core.Schema) string {
	if k, ok := jsonSchemaNumeric[key]; ok {
		return k
	}
	inner := s
	for core.IsFunctionWithInnerSchema(inner) {
		inner = core.InnerSchema(inner)
	}
	suffix := "Length"
	switch inner.(type) {
	case *core.ListSchema, *core.SetSchema, *core.FrozenSetSchema, *core.TupleSchema:
		suffix = "Items"
	case *core.DictSchema:
		suffix = "Properties"
	}
	if key == KeyMinLength {
		return "min" + suffix
	}
	return "max" + suffix
}

func updateJSONSchema(key string, value any) core.JSFunc {
	return func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil {
			return nil, err
		}
		target, err := h.ResolveRef(js)
		if err != nil {
			return nil, err
		}
		target[key] = value
		return js, nil
	}
}

// setNative assigns a constraint to the node field whose key matches. It
// reports false when the node type has no such field.
func setNative(s core.Schema, key string, value any) (bool, error) {
	field := key
	if key == KeyUnionMode {
		field = "mode"
	}
	rv := reflect.ValueOf(s).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("json")
		if name, _, _ := strings.Cut(tag, ","); name != field {
			continue
		}
		if err := assign(rv.Field(i), value); err != nil {
			return false, core.Errorf(core.CodeInvalidConstraint, "constraint %q on %s schema: %v", key, s.Type(), err)
		}
		return true, nil
	}
	return false, nil
}

func assign(f reflect.Value, value any) error {
	if f.Kind() == reflect.String {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", value)
		}
		f.SetString(s)
		return nil
	}
	if f.Kind() != reflect.Ptr {
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}
	et := f.Type().Elem()
	p := reflect.New(et)
	switch {
	case et == reflect.TypeOf(time.Time{}) || et == reflect.TypeOf(time.Duration(0)):
		v := reflect.ValueOf(value)
		if v.Type() != et {
			return fmt.Errorf("want %s, got %T", et, value)
		}
		p.Elem().Set(v)
	case et.Kind() == reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", value)
		}
		p.Elem().SetBool(b)
	case et.Kind() == reflect.Int || et.Kind() == reflect.Int64:
		n, ok := toInt(value)
		if !ok {
			fv, isFloat := toFloat(value)
			if !isFloat || fv != float64(int64(fv)) {
				return fmt.Errorf("want integer, got %v", value)
			}
			n = int64(fv)
		}
		p.Elem().SetInt(n)
	case et.Kind() == reflect.Float64:
		fv, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("want number, got %T", value)
		}
		p.Elem().SetFloat(fv)
	default:
		return fmt.Errorf("unsupported field type %s", et)
	}
	f.Set(p)
	return nil
}
