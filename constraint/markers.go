// Package constraint is the registry of known annotation metadata: bound,
// length, pattern and strictness markers, the node kinds that accept each
// of them, and the checks that back constraints a node cannot hold itself.
package constraint

// Constraint keys. They match the key names of the core schema nodes.
const (
	KeyGt              = "gt"
	KeyGe              = "ge"
	KeyLt              = "lt"
	KeyLe              = "le"
	KeyMultipleOf      = "multiple_of"
	KeyMinLength       = "min_length"
	KeyMaxLength       = "max_length"
	KeyPattern         = "pattern"
	KeyStripWhitespace = "strip_whitespace"
	KeyToLower         = "to_lower"
	KeyToUpper         = "to_upper"
	KeyStrict          = "strict"
	KeyAllowInfNaN     = "allow_inf_nan"
	KeyFailFast        = "fail_fast"
	KeyUnionMode       = "union_mode"
)

// Marker is an annotation carrying exactly one constraint.
type Marker interface {
	Constraint() (key string, value any)
}

// Grouped is an annotation standing for several markers.
type Grouped interface {
	Expand() []any
}

type (
	// Gt requires values greater than Value. Value is a number, a
	// time.Time or a time.Duration.
	Gt         struct{ Value any }
	Ge         struct{ Value any }
	Lt         struct{ Value any }
	Le         struct{ Value any }
	MultipleOf struct{ Value any }
	MinLen     struct{ N int }
	MaxLen     struct{ N int }
	// Pattern requires strings to match the regular expression.
	Pattern         struct{ Regex string }
	StripWhitespace struct{}
	ToLower         struct{}
	ToUpper         struct{}
	Strict          struct{ On bool }
	AllowInfNaN     struct{ On bool }
	FailFast        struct{ On bool }
	// UnionMode is "smart" or "left_to_right".
	UnionMode struct{ Mode string }
)

func (m Gt) Constraint() (string, any)              { return KeyGt, m.Value }
func (m Ge) Constraint() (string, any)              { return KeyGe, m.Value }
func (m Lt) Constraint() (string, any)              { return KeyLt, m.Value }
func (m Le) Constraint() (string, any)              { return KeyLe, m.Value }
func (m MultipleOf) Constraint() (string, any)      { return KeyMultipleOf, m.Value }
func (m MinLen) Constraint() (string, any)          { return KeyMinLength, m.N }
func (m MaxLen) Constraint() (string, any)          { return KeyMaxLength, m.N }
func (m Pattern) Constraint() (string, any)         { return KeyPattern, m.Regex }
func (m StripWhitespace) Constraint() (string, any) { return KeyStripWhitespace, true }
func (m ToLower) Constraint() (string, any)         { return KeyToLower, true }
func (m ToUpper) Constraint() (string, any)         { return KeyToUpper, true }
func (m Strict) Constraint() (string, any)          { return KeyStrict, m.On }
func (m AllowInfNaN) Constraint() (string, any)     { return KeyAllowInfNaN, m.On }
func (m FailFast) Constraint() (string, any)        { return KeyFailFast, m.On }
func (m UnionMode) Constraint() (string, any)       { return KeyUnionMode, m.Mode }

// Interval groups the four bounds; nil bounds are skipped.
type Interval struct{ Gt, Ge, Lt, Le any }

func (i Interval) Expand() []any {
	var out []any
	if i.Gt != nil {
		out = append(out, Gt{i.Gt})
	}
	if i.Ge != nil {
		out = append(out, Ge{i.Ge})
	}
	if i.Lt != nil {
		out = append(out, Lt{i.Lt})
	}
	if i.Le != nil {
		out = append(out, Le{i.Le})
	}
	return out
}

// Len bounds a length; Max nil means unbounded.
type Len struct {
	Min int
	Max *int
}

func (l Len) Expand() []any {
	var out []any
	if l.Min > 0 {
		out = append(out, MinLen{l.Min})
	}
	if l.Max != nil {
		out = append(out, MaxLen{*l.Max})
	}
	return out
}

// Predicate requires Func to hold. Name appears in error messages.
type Predicate struct {
	Name string
	Func func(v any) bool
}

// Not requires Func to fail.
type Not struct {
	Name string
	Func func(v any) bool
}
