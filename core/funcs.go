package core

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Calling conventions of a validator function.
const (
	NoInfo   = "no-info"
	WithInfo = "with-info"
)

// ValidatorFunc describes a user function attached to a function-* node.
// Function is any Go func; the backend calls it through reflection with the
// value first and, for WithInfo, a ValidationInfo last. Wrap functions take
// a ValidatorHandler after the value.
type ValidatorFunc struct {
	Type      string `json:"type"`
	Function  any    `json:"function"`
	FieldName string `json:"field_name,omitempty"`
}

// ValidationInfo is handed to with-info validators.
type ValidationInfo interface {
	// Context is the caller-supplied validation context.
	Context() any
	// Data holds the fields validated so far on the enclosing record.
	Data() map[string]any
	FieldName() string
	// Mode is "python" for in-memory input and "json" for decoded JSON.
	Mode() string
}

// SerializationInfo is handed to with-info serializers.
type SerializationInfo interface {
	Mode() string
	ByAlias() bool
	ExcludeNone() bool
	FieldName() string
}

// ValidatorHandler continues validation with the inner schema of a wrap
// validator.
type ValidatorHandler func(v any) (any, error)

// SerializerHandler continues serialization with the default serializer.
type SerializerHandler func(v any) (any, error)

// Instance is a validated record value. It is the receiver handed to
// instance-method hooks.
type Instance struct {
	Class     string
	Fields    map[string]any
	FieldsSet []string
	Extra     map[string]any
}

// Get returns a field value.
func (i *Instance) Get(name string) (any, bool) {
	if i == nil {
		return nil, false
	}
	v, ok := i.Fields[name]
	return v, ok
}

// SerSchema describes how a validated value is turned back into output form.
type SerSchema interface {
	SerType() string
}

// When a serializer applies.
const (
	WhenAlways         = "always"
	WhenUnlessNone     = "unless-none"
	WhenJSON           = "json"
	WhenJSONUnlessNone = "json-unless-none"
)

// PlainSerializerFunctionSerSchema replaces default serialization with
// Function.
type PlainSerializerFunctionSerSchema struct {
	Function          any    `json:"function"`
	IsFieldSerializer bool   `json:"is_field_serializer,omitempty"`
	InfoArg           bool   `json:"info_arg,omitempty"`
	ReturnSchema      Schema `json:"return_schema,omitempty"`
	WhenUsed          string `json:"when_used,omitempty"`
}

// WrapSerializerFunctionSerSchema calls Function with a handler that runs
// default serialization.
type WrapSerializerFunctionSerSchema struct {
	Function          any    `json:"function"`
	IsFieldSerializer bool   `json:"is_field_serializer,omitempty"`
	InfoArg           bool   `json:"info_arg,omitempty"`
	Schema            Schema `json:"schema,omitempty"`
	ReturnSchema      Schema `json:"return_schema,omitempty"`
	WhenUsed          string `json:"when_used,omitempty"`
}

// ToStringSerSchema serializes with fmt formatting.
type ToStringSerSchema struct {
	WhenUsed string `json:"when_used,omitempty"`
}

func (*PlainSerializerFunctionSerSchema) SerType() string { return "function-plain" }
func (*WrapSerializerFunctionSerSchema) SerType() string  { return "function-wrap" }
func (*ToStringSerSchema) SerType() string                { return "to-string" }

// FuncName returns a readable name for a Go function value.
func FuncName(fn any) string {
	if fn == nil {
		return "<nil>"
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return v.Type().String()
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return v.Type().String()
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Invoke calls the Go function fn with args. Arguments are converted to
// the parameter types where Go allows it and nil becomes the zero value.
// A trailing error result is returned as the error; other results beyond
// the first are dropped.
func Invoke(fn any, args ...any) (any, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%T is not a function", fn)
	}
	t := v.Type()
	if (!t.IsVariadic() && t.NumIn() != len(args)) || (t.IsVariadic() && len(args) < t.NumIn()-1) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", FuncName(fn), t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if t.IsVariadic() && i >= t.NumIn()-1 {
			pt = t.In(t.NumIn() - 1).Elem()
		} else {
			pt = t.In(i)
		}
		av, err := argValue(a, pt)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", FuncName(fn), i+1, err)
		}
		in[i] = av
	}
	out := v.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	}
	last := out[len(out)-1]
	if t.Out(len(out)-1) == errorType {
		if err := asError(last); err != nil {
			return nil, err
		}
	}
	return out[0].Interface(), nil
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func argValue(a any, pt reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(pt), nil
	}
	av := reflect.ValueOf(a)
	if av.Type().AssignableTo(pt) {
		return av, nil
	}
	if av.Type().ConvertibleTo(pt) && convertible(av.Kind(), pt.Kind()) {
		return av.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, pt)
}

// convertible limits conversions to same-family kinds so that a string is
// never produced from an integer.
func convertible(from, to reflect.Kind) bool {
	family := func(k reflect.Kind) int {
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return 1
		case reflect.Float32, reflect.Float64:
			return 2
		}
		return 3
	}
	if family(from) == 3 || family(to) == 3 {
		return from == to
	}
	return family(from) == family(to) || (family(from) == 1 && family(to) == 2)
}
