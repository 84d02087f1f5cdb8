package hooks

import (
	"fmt"
	"reflect"

	"github.com/reoring/schemagen/core"
)

var valuesType = reflect.TypeOf(map[string]any(nil))

func checkLegacyValidator(fn any) error {
	t, ok := funcType(fn)
	if !ok || t.IsVariadic() || !validResults(t) || t.NumIn() < 1 || t.NumIn() > 2 || (t.NumIn() == 2 && !valuesType.AssignableTo(t.In(1))) {
		return core.Errorf(core.CodeValidatorSignature, "unsupported Validator signature for %s: want func(v) or func(v, values map[string]any), got %T", core.FuncName(fn), fn)
	}
	return nil
}

func checkRootValidator(fn any) error {
	t, ok := funcType(fn)
	if !ok || t.IsVariadic() || !validResults(t) || t.NumIn() != 1 || !valuesType.AssignableTo(t.In(0)) {
		return core.Errorf(core.CodeValidatorSignature, "unsupported RootValidator signature for %s: want func(values map[string]any) map[string]any, got %T", core.FuncName(fn), fn)
	}
	return nil
}

// legacyValidatorShim adapts func(v) and func(v, values) to the with-info
// convention; values is the data validated so far.
func legacyValidatorShim(fn any) any {
	takesValues := reflect.TypeOf(fn).NumIn() == 2
	return func(v any, info core.ValidationInfo) (any, error) {
		if takesValues {
			var data map[string]any
			if info != nil {
				data = info.Data()
			}
			return core.Invoke(fn, v, data)
		}
		return core.Invoke(fn, v)
	}
}

// rootValidatorShim adapts func(values) to a no-info validator over the
// field value map.
func rootValidatorShim(fn any) any {
	return func(v any) (any, error) {
		values, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("root validator %s expects the field values, got %T", core.FuncName(fn), v)
		}
		return core.Invoke(fn, values)
	}
}
