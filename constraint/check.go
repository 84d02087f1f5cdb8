package constraint

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"
)

// Violation codes reported by the runtime checks.
const (
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeMultipleOf   = "multiple_of"
	CodeTooShort     = "too_short"
	CodeTooLong      = "too_long"
	CodePattern      = "pattern"
	CodeFiniteNumber = "finite_number"
	CodePredicate    = "predicate_failed"
	CodeInvalidType  = "invalid_type"
)

// Violation is a failed constraint check.
type Violation struct {
	Code    string
	Message string
	Params  map[string]any
}

func (v *Violation) Error() string { return v.Message }

func violation(code string, params map[string]any, format string, args ...any) *Violation {
	return &Violation{Code: code, Message: fmt.Sprintf(format, args...), Params: params}
}

// CheckFunc checks one value, returning it unchanged on success.
type CheckFunc func(v any) (any, error)

// Checker returns the runtime check for a numeric or length constraint.
func Checker(key string, bound any) (CheckFunc, bool) {
	switch key {
	case KeyGt:
		return func(v any) (any, error) { return v, GreaterThan(v, bound) }, true
	case KeyGe:
		return func(v any) (any, error) { return v, GreaterThanEqual(v, bound) }, true
	case KeyLt:
		return func(v any) (any, error) { return v, LessThan(v, bound) }, true
	case KeyLe:
		return func(v any) (any, error) { return v, LessThanEqual(v, bound) }, true
	case KeyMultipleOf:
		return func(v any) (any, error) { return v, MultipleOfCheck(v, bound) }, true
	case KeyMinLength:
		n, _ := bound.(int)
		return func(v any) (any, error) { return v, MinLength(v, n) }, true
	case KeyMaxLength:
		n, _ := bound.(int)
		return func(v any) (any, error) { return v, MaxLength(v, n) }, true
	}
	return nil, false
}

func compareOrFail(v, bound any) (int, error) {
	c, ok := Compare(v, bound)
	if !ok {
		return 0, violation(CodeInvalidType, map[string]any{"got": fmt.Sprintf("%T", v)}, "Unable to apply constraint to value of type %T", v)
	}
	return c, nil
}

func GreaterThan(v, bound any) error {
	c, err := compareOrFail(v, bound)
	if err != nil {
		return err
	}
	if c <= 0 {
		return violation(CodeTooSmall, map[string]any{"gt": bound}, "Input should be greater than %v", bound)
	}
	return nil
}

func GreaterThanEqual(v, bound any) error {
	c, err := compareOrFail(v, bound)
	if err != nil {
		return err
	}
	if c < 0 {
		return violation(CodeTooSmall, map[string]any{"ge": bound}, "Input should be greater than or equal to %v", bound)
	}
	return nil
}

func LessThan(v, bound any) error {
	c, err := compareOrFail(v, bound)
	if err != nil {
		return err
	}
	if c >= 0 {
		return violation(CodeTooBig, map[string]any{"lt": bound}, "Input should be less than %v", bound)
	}
	return nil
}

func LessThanEqual(v, bound any) error {
	c, err := compareOrFail(v, bound)
	if err != nil {
		return err
	}
	if c > 0 {
		return violation(CodeTooBig, map[string]any{"le": bound}, "Input should be less than or equal to %v", bound)
	}
	return nil
}

// MultipleOfCheck requires v to be an integer multiple of m.
func MultipleOfCheck(v, m any) error {
	fv, ok1 := toFloat(v)
	fm, ok2 := toFloat(m)
	if !ok1 || !ok2 || fm == 0 {
		return violation(CodeInvalidType, nil, "Unable to apply constraint 'multiple_of' to value of type %T", v)
	}
	if iv, ok := toInt(v); ok {
		if im, ok := toInt(m); ok {
			if iv%im != 0 {
				return violation(CodeMultipleOf, map[string]any{"multiple_of": m}, "Input should be a multiple of %v", m)
			}
			return nil
		}
	}
	q := fv / fm
	if math.Abs(q-math.Round(q)) > 1e-9 {
		return violation(CodeMultipleOf, map[string]any{"multiple_of": m}, "Input should be a multiple of %v", m)
	}
	return nil
}

func MinLength(v any, n int) error {
	l, ok := Length(v)
	if !ok {
		return violation(CodeInvalidType, nil, "Unable to apply constraint 'min_length' to value of type %T", v)
	}
	if l < n {
		return violation(CodeTooShort, map[string]any{"min_length": n, "actual_length": l}, "Value should have at least %d items, not %d", n, l)
	}
	return nil
}

func MaxLength(v any, n int) error {
	l, ok := Length(v)
	if !ok {
		return violation(CodeInvalidType, nil, "Unable to apply constraint 'max_length' to value of type %T", v)
	}
	if l > n {
		return violation(CodeTooLong, map[string]any{"max_length": n, "actual_length": l}, "Value should have at most %d items, not %d", n, l)
	}
	return nil
}

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

// CompilePattern compiles and caches a pattern.
func CompilePattern(p string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, ok := patternCache[p]
	patternMu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	patternMu.Lock()
	patternCache[p] = re
	patternMu.Unlock()
	return re, nil
}

// MatchPattern requires s to contain a match of p.
func MatchPattern(s, p string) error {
	re, err := CompilePattern(p)
	if err != nil {
		return err
	}
	if !re.MatchString(s) {
		return violation(CodePattern, map[string]any{"pattern": p}, "String should match pattern '%s'", p)
	}
	return nil
}

// ForbidInfNaN rejects infinite and NaN floats.
func ForbidInfNaN(v any) (any, error) {
	if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil, violation(CodeFiniteNumber, nil, "Input should be a finite number")
	}
	return v, nil
}

func predicateCheck(p Predicate) CheckFunc {
	return func(v any) (any, error) {
		if !p.Func(v) {
			return nil, violation(CodePredicate, map[string]any{"predicate": p.Name}, "Predicate %s failed", p.Name)
		}
		return v, nil
	}
}

func notCheck(n Not) CheckFunc {
	return func(v any) (any, error) {
		if n.Func(v) {
			return nil, violation(CodePredicate, map[string]any{"predicate": n.Name}, "Not of %s failed", n.Name)
		}
		return v, nil
	}
}

// Compare orders two numbers, times or durations. ok is false when the
// values are not comparable.
func Compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case time.Duration:
		y, ok := b.(time.Duration)
		if !ok {
			return 0, false
		}
		return cmpOrdered(x, y), true
	}
	if ia, ok := toInt(a); ok {
		if ib, ok := toInt(b); ok {
			return cmpOrdered(ia, ib), true
		}
	}
	fa, ok1 := toFloat(a)
	fb, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	return cmpOrdered(fa, fb), true
}

func cmpOrdered[T int64 | float64 | time.Duration](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Length returns the length of strings (in runes), byte slices, slices,
// arrays and maps.
func Length(v any) (int, bool) {
	switch x := v.(type) {
	case string:
		return utf8.RuneCountInString(x), true
	case []byte:
		return len(x), true
	case nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
