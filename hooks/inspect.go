package hooks

import (
	"reflect"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

var (
	instanceType = reflect.TypeOf((*core.Instance)(nil))
	valInfoType  = reflect.TypeOf((*core.ValidationInfo)(nil)).Elem()
	serInfoType  = reflect.TypeOf((*core.SerializationInfo)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

func funcType(fn any) (reflect.Type, bool) {
	if fn == nil {
		return nil, false
	}
	t := reflect.TypeOf(fn)
	if t.Kind() != reflect.Func {
		return nil, false
	}
	return t, true
}

// IsInstanceMethod reports whether fn takes the record instance first.
func IsInstanceMethod(fn any) bool {
	t, ok := funcType(fn)
	return ok && t.NumIn() > 0 && t.In(0) == instanceType
}

// accepts reports whether a parameter of type p can receive an info value
// of type info.
func accepts(p, info reflect.Type) bool {
	return p.Kind() == reflect.Interface && info.Implements(p)
}

func validResults(t reflect.Type) bool {
	switch t.NumOut() {
	case 1:
		return true
	case 2:
		return t.Out(1) == errorType
	}
	return false
}

// InspectValidator checks the signature of a validator for mode and
// reports whether it takes a ValidationInfo last. Wrap validators take a
// handler after the value.
func InspectValidator(fn any, mode string) (bool, error) {
	t, ok := funcType(fn)
	if !ok {
		return false, core.Errorf(core.CodeValidatorSignature, "validator must be a function, got %T", fn)
	}
	base := 1
	if mode == ModeWrap {
		base = 2
	}
	bad := func() (bool, error) {
		return false, core.Errorf(core.CodeValidatorSignature, "unrecognized validator function signature for %s with mode=%s: %s", core.FuncName(fn), mode, t)
	}
	if t.IsVariadic() || !validResults(t) {
		return bad()
	}
	switch t.NumIn() {
	case base:
		return false, nil
	case base + 1:
		if !accepts(t.In(base), valInfoType) {
			return bad()
		}
		return true, nil
	}
	return bad()
}

// InspectFieldSerializer checks a field serializer and reports whether it
// takes the instance first and whether it takes a SerializationInfo last.
func InspectFieldSerializer(fn any, mode string) (isFieldSerializer, infoArg bool, err error) {
	t, ok := funcType(fn)
	if !ok {
		return false, false, core.Errorf(core.CodeFieldSerializerSignature, "serializer must be a function, got %T", fn)
	}
	isFieldSerializer = IsInstanceMethod(fn)
	n := t.NumIn()
	if isFieldSerializer {
		n--
	}
	infoArg, ok = serializerArity(t, n, mode)
	if !ok {
		return false, false, core.Errorf(core.CodeFieldSerializerSignature, "unrecognized field serializer function signature for %s with mode=%s: %s", core.FuncName(fn), mode, t)
	}
	return isFieldSerializer, infoArg, nil
}

// InspectAnnotatedSerializer checks a serializer given through Annotated
// metadata.
func InspectAnnotatedSerializer(fn any, mode string) (bool, error) {
	t, ok := funcType(fn)
	if !ok {
		return false, core.Errorf(core.CodeFieldSerializerSignature, "serializer must be a function, got %T", fn)
	}
	infoArg, ok := serializerArity(t, t.NumIn(), mode)
	if !ok {
		return false, core.Errorf(core.CodeFieldSerializerSignature, "unrecognized field serializer function signature for %s with mode=%s: %s", core.FuncName(fn), mode, t)
	}
	return infoArg, nil
}

// InspectModelSerializer checks a model serializer, which must take the
// instance first.
func InspectModelSerializer(fn any, mode string) (bool, error) {
	t, ok := funcType(fn)
	if !ok {
		return false, core.Errorf(core.CodeModelSerializerSignature, "serializer must be a function, got %T", fn)
	}
	if !IsInstanceMethod(fn) {
		return false, core.Errorf(core.CodeModelSerializerInstanceMethod, "ModelSerializer must be applied to instance methods: %s", core.FuncName(fn))
	}
	infoArg, ok := serializerArity(t, t.NumIn(), mode)
	if !ok {
		return false, core.Errorf(core.CodeModelSerializerSignature, "unrecognized model serializer function signature for %s with mode=%s: %s", core.FuncName(fn), mode, t)
	}
	return infoArg, nil
}

// serializerArity checks the n value-side parameters of a serializer.
// Model serializers count the instance as the value.
func serializerArity(t reflect.Type, n int, mode string) (infoArg, ok bool) {
	if t.IsVariadic() || t.NumOut() == 0 || t.NumOut() > 2 || (t.NumOut() == 2 && t.Out(1) != errorType) {
		return false, false
	}
	base := 1
	if mode == ModeWrap {
		base = 2
	}
	switch n {
	case base:
		return false, true
	case base + 1:
		return true, accepts(t.In(t.NumIn()-1), serInfoType)
	}
	return false, false
}

// ReturnTypeOf returns explicit when set, otherwise the type annotation of
// the first result of fn. ok is false when fn returns an interface other
// than any, which carries no usable type.
func ReturnTypeOf(fn any, explicit typeexpr.Expr) (typeexpr.Expr, bool) {
	if explicit != nil {
		return explicit, true
	}
	t, ok := funcType(fn)
	if !ok || t.NumOut() == 0 || t.Out(0) == errorType {
		return nil, false
	}
	out := t.Out(0)
	if out.Kind() == reflect.Interface {
		if out.NumMethod() == 0 {
			return typeexpr.Any, true
		}
		return nil, false
	}
	return typeexpr.FromGoType(out), true
}
