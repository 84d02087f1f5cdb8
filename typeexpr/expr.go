// Package typeexpr holds the declaration side of schemagen: type
// annotations, records and their fields, configuration and the namespaces
// forward references are resolved in.
package typeexpr

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
)

// Expr is a type annotation.
type Expr interface {
	Repr() string
}

// Prim is a primitive leaf type. Prims are compared by identity; use the
// package-level values.
type Prim struct{ name string }

func (p *Prim) Repr() string { return p.name }

var (
	Any       = &Prim{"Any"}
	None      = &Prim{"None"}
	Bool      = &Prim{"bool"}
	Int       = &Prim{"int"}
	Float     = &Prim{"float"}
	Str       = &Prim{"str"}
	Bytes     = &Prim{"bytes"}
	Date      = &Prim{"date"}
	Time      = &Prim{"time"}
	DateTime  = &Prim{"datetime"}
	Timedelta = &Prim{"timedelta"}
	UUID      = &Prim{"UUID"}
)

// ContainerKind selects the collection shape of a Container.
type ContainerKind int

const (
	KindList ContainerKind = iota
	KindSet
	KindFrozenSet
	KindDict
	KindTuple
)

var containerNames = map[ContainerKind]string{
	KindList:      "list",
	KindSet:       "set",
	KindFrozenSet: "frozenset",
	KindDict:      "dict",
	KindTuple:     "tuple",
}

// Container is a parametrized collection. Dict carries key and value args.
// A tuple with Variadic set repeats its last arg: tuple[int, ...].
type Container struct {
	Kind     ContainerKind
	Args     []Expr
	Variadic bool
}

func (c *Container) Repr() string {
	args := reprAll(c.Args)
	if c.Variadic {
		args = append(args, "...")
	}
	if len(args) == 0 {
		return containerNames[c.Kind]
	}
	return containerNames[c.Kind] + "[" + strings.Join(args, ", ") + "]"
}

// Item returns the item type of a list, set or frozenset (Any when bare).
func (c *Container) Item() Expr {
	if len(c.Args) == 0 {
		return Any
	}
	return c.Args[0]
}

func ListOf(item Expr) *Container      { return &Container{Kind: KindList, Args: []Expr{item}} }
func SetOf(item Expr) *Container       { return &Container{Kind: KindSet, Args: []Expr{item}} }
func FrozenSetOf(item Expr) *Container { return &Container{Kind: KindFrozenSet, Args: []Expr{item}} }
func DictOf(k, v Expr) *Container      { return &Container{Kind: KindDict, Args: []Expr{k, v}} }
func TupleOf(items ...Expr) *Container { return &Container{Kind: KindTuple, Args: items} }

// VarTupleOf is tuple[item, ...].
func VarTupleOf(item Expr) *Container {
	return &Container{Kind: KindTuple, Args: []Expr{item}, Variadic: true}
}

// Union is an ordered set of alternatives. Build unions with UnionOf so
// that nested unions are flattened and duplicates removed.
type Union struct {
	Members []Expr
}

func (u *Union) Repr() string {
	return strings.Join(reprAll(u.Members), " | ")
}

// UnionOf flattens nested unions and drops duplicate members, keeping the
// first occurrence. A single remaining member is returned as is.
func UnionOf(members ...Expr) Expr {
	var flat []Expr
	seen := map[string]struct{}{}
	var add func(e Expr)
	add = func(e Expr) {
		if u, ok := e.(*Union); ok {
			for _, m := range u.Members {
				add(m)
			}
			return
		}
		k := Key(e)
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		flat = append(flat, e)
	}
	for _, m := range members {
		add(m)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &Union{Members: flat}
}

// Optional is UnionOf(e, None).
func Optional(e Expr) Expr { return UnionOf(e, None) }

// Literal accepts exactly one of Values.
type Literal struct {
	Values []any
}

func (l *Literal) Repr() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = reprValue(v)
	}
	return "Literal[" + strings.Join(parts, ", ") + "]"
}

// LiteralOf builds a Literal.
func LiteralOf(values ...any) *Literal { return &Literal{Values: values} }

// Annotated attaches metadata to a type. Metadata is folded onto the built
// schema left to right.
type Annotated struct {
	Type     Expr
	Metadata []any
}

func (a *Annotated) Repr() string {
	parts := []string{a.Type.Repr()}
	for _, m := range a.Metadata {
		parts = append(parts, reprValue(m))
	}
	return "Annotated[" + strings.Join(parts, ", ") + "]"
}

// Annotate wraps t with metadata, merging into an existing Annotated.
func Annotate(t Expr, metadata ...any) *Annotated {
	if a, ok := t.(*Annotated); ok {
		md := append(append([]any{}, a.Metadata...), metadata...)
		return &Annotated{Type: a.Type, Metadata: md}
	}
	return &Annotated{Type: t, Metadata: metadata}
}

// ForwardRef is a type written as source text, resolved lazily against a
// namespace.
type ForwardRef struct {
	Source string
}

func (f *ForwardRef) Repr() string { return fmt.Sprintf("ForwardRef(%q)", f.Source) }

// Ref builds a ForwardRef.
func Ref(src string) *ForwardRef { return &ForwardRef{Source: src} }

var nextID atomic.Uint64

// TypeVar is a generic type parameter. TypeVars compare by identity.
type TypeVar struct {
	Name        string
	Bound       Expr
	Constraints []Expr
	Default     Expr
	id          uint64
}

// NewTypeVar declares a type parameter.
func NewTypeVar(name string) *TypeVar {
	return &TypeVar{Name: name, id: nextID.Add(1)}
}

// WithBound sets the upper bound.
func (t *TypeVar) WithBound(e Expr) *TypeVar { t.Bound = e; return t }

// WithConstraints restricts the parameter to one of cs.
func (t *TypeVar) WithConstraints(cs ...Expr) *TypeVar { t.Constraints = cs; return t }

// WithDefault sets the type used when the parameter is left unbound.
func (t *TypeVar) WithDefault(e Expr) *TypeVar { t.Default = e; return t }

func (t *TypeVar) Repr() string { return "~" + t.Name }

// EnumMember is one named value of an Enum.
type EnumMember struct {
	Name  string
	Value any
}

// Enum is a closed set of named values.
type Enum struct {
	Name    string
	Module  string
	Doc     string
	Members []EnumMember
	id      uint64
}

// NewEnum declares an enumeration.
func NewEnum(module, name string, members ...EnumMember) *Enum {
	return &Enum{Name: name, Module: module, Members: members, id: nextID.Add(1)}
}

func (e *Enum) Repr() string { return e.Name }

// ID returns the declaration sequence number of e.
func (e *Enum) ID() uint64 { return e.id }

// Values returns the member values in declaration order.
func (e *Enum) Values() []any {
	out := make([]any, len(e.Members))
	for i, m := range e.Members {
		out[i] = m.Value
	}
	return out
}

// ParamMode is how a callable parameter may be passed.
type ParamMode string

const (
	PositionalOnly      ParamMode = "positional_only"
	PositionalOrKeyword ParamMode = "positional_or_keyword"
	KeywordOnly         ParamMode = "keyword_only"
)

// Param is one parameter of a Callable.
type Param struct {
	Name       string
	Type       Expr
	Mode       ParamMode
	Default    any
	HasDefault bool
}

// Callable is a function type. With Func set it describes a concrete
// function whose arguments are validated before the call; without it the
// annotation only requires a callable value.
type Callable struct {
	Name      string
	Params    []Param
	VarArgs   Expr
	VarKwargs Expr
	Return    Expr
	Func      any
}

func (c *Callable) Repr() string {
	if c.Name != "" {
		return c.Name
	}
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.Type.Repr()
	}
	ret := "Any"
	if c.Return != nil {
		ret = c.Return.Repr()
	}
	return "Callable[[" + strings.Join(parts, ", ") + "], " + ret + "]"
}

// Opaque is a type the builder knows nothing about. Depending on the
// arbitrary-types policy it becomes an is-instance check, any, or an error.
type Opaque struct {
	Name   string
	GoType reflect.Type
}

func (o *Opaque) Repr() string { return o.Name }

// Parametrized is a generic record applied to type arguments, as written.
// The builder resolves it through the instantiation cache.
type Parametrized struct {
	Origin *Record
	Args   []Expr
}

func (p *Parametrized) Repr() string {
	return p.Origin.Name + "[" + strings.Join(reprAll(p.Args), ", ") + "]"
}

// RecursiveRef stands in for a generic record that is still being
// instantiated further up the stack. TypeRef is the ref of its definition.
type RecursiveRef struct {
	TypeRef string
}

func (r *RecursiveRef) Repr() string { return "RecursiveRef(" + r.TypeRef + ")" }

// IsNone reports whether e is the None type.
func IsNone(e Expr) bool { return e == None }

// Members returns the alternatives of a union, or e itself.
func Members(e Expr) []Expr {
	if u, ok := e.(*Union); ok {
		return u.Members
	}
	return []Expr{e}
}

// Unannotated strips Annotated wrappers and returns the collected metadata.
func Unannotated(e Expr) (Expr, []any) {
	var md []any
	for {
		a, ok := e.(*Annotated)
		if !ok {
			return e, md
		}
		md = append(append([]any{}, a.Metadata...), md...)
		e = a.Type
	}
}

// Key returns a structural identity key for e. Records, enums and type
// variables contribute their identity; everything else its structure.
// Union member order is part of the key.
func Key(e Expr) string {
	switch v := e.(type) {
	case nil:
		return "<nil>"
	case *Prim:
		return v.name
	case *Container:
		k := containerNames[v.Kind] + "[" + keyAll(v.Args)
		if v.Variadic {
			k += ",..."
		}
		return k + "]"
	case *Union:
		return "Union[" + keyAll(v.Members) + "]"
	case *Literal:
		parts := make([]string, len(v.Values))
		for i, val := range v.Values {
			parts[i] = fmt.Sprintf("%T:%v", val, val)
		}
		return "Literal[" + strings.Join(parts, ",") + "]"
	case *Annotated:
		parts := make([]string, len(v.Metadata))
		for i, m := range v.Metadata {
			parts[i] = metadataKey(m)
		}
		return "Annotated[" + Key(v.Type) + ";" + strings.Join(parts, ",") + "]"
	case *ForwardRef:
		return "'" + v.Source + "'"
	case *TypeVar:
		return fmt.Sprintf("~%s#%d", v.Name, v.id)
	case *Enum:
		return fmt.Sprintf("enum:%s#%d", v.Name, v.id)
	case *Record:
		return fmt.Sprintf("record:%s#%d", v.Name, v.id)
	case *Parametrized:
		return fmt.Sprintf("record:%s#%d[%s]", v.Origin.Name, v.Origin.id, keyAll(v.Args))
	case *RecursiveRef:
		return "recursive:" + v.TypeRef
	case *Callable:
		parts := make([]string, len(v.Params))
		for i, p := range v.Params {
			parts[i] = p.Name + ":" + Key(p.Type)
		}
		k := "Callable[" + strings.Join(parts, ",") + "->" + Key(v.Return) + "]"
		if v.Func != nil {
			k += fmt.Sprintf("@%x", reflect.ValueOf(v.Func).Pointer())
		}
		return k
	case *Opaque:
		if v.GoType != nil {
			return "opaque:" + v.GoType.String()
		}
		return "opaque:" + v.Name
	}
	return fmt.Sprintf("%T:%p", e, e)
}

func metadataKey(m any) string {
	rv := reflect.ValueOf(m)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice:
		return fmt.Sprintf("%T@%x", m, rv.Pointer())
	}
	return fmt.Sprintf("%T:%v", m, m)
}

func keyAll(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = Key(e)
	}
	return strings.Join(parts, ",")
}

func reprAll(es []Expr) []string {
	out := make([]string, len(es))
	for i, e := range es {
		if e == nil {
			out[i] = "<nil>"
			continue
		}
		out[i] = e.Repr()
	}
	return out
}

func reprValue(v any) string {
	switch x := v.(type) {
	case string:
		return "'" + x + "'"
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case interface{ Repr() string }:
		return x.Repr()
	}
	return fmt.Sprint(v)
}
