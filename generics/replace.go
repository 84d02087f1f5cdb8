package generics

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// ReplaceTypes substitutes the type variables of e found in m. Containers,
// unions, annotated types, callables and parametrized records are rebuilt;
// unions go through typeexpr.UnionOf so that substituted members that
// become equal collapse.
func ReplaceTypes(e typeexpr.Expr, m map[*typeexpr.TypeVar]typeexpr.Expr) typeexpr.Expr {
	return typeexpr.Substitute(e, m)
}

// TypevarsMap returns the substitutions a parametrized record was built
// with, including those of parametrized ancestors. Non-generic records
// yield nil.
func TypevarsMap(rec *typeexpr.Record) map[*typeexpr.TypeVar]typeexpr.Expr {
	if rec == nil {
		return nil
	}
	mro, err := rec.MRO()
	if err != nil {
		mro = []*typeexpr.Record{rec}
	}
	var m map[*typeexpr.TypeVar]typeexpr.Expr
	for _, r := range mro {
		if r.Generic == nil {
			continue
		}
		if m == nil {
			m = map[*typeexpr.TypeVar]typeexpr.Expr{}
		}
		for i, p := range r.Generic.Origin.TypeParams {
			if _, ok := m[p]; ok || i >= len(r.Generic.Args) {
				continue
			}
			m[p] = typeexpr.Substitute(r.Generic.Args[i], m)
		}
	}
	return m
}

// CheckParameters verifies that parent takes exactly len(args) type
// arguments.
func CheckParameters(parent *typeexpr.Record, args []typeexpr.Expr) error {
	params := parent.Parameters()
	if len(params) == 0 {
		return core.Errorf(core.CodeGenericParameters, "%s cannot be parametrized because it does not have any type parameters", parent.Name)
	}
	if len(args) != len(params) {
		word := "many"
		if len(args) < len(params) {
			word = "few"
		}
		return core.Errorf(core.CodeGenericParameters, "too %s parameters for %s; actual %d, expected %d", word, parent.Name, len(args), len(params))
	}
	return nil
}

// IsIdentity reports whether args are exactly the free parameters of
// parent, in which case parametrizing returns parent itself.
func IsIdentity(parent *typeexpr.Record, args []typeexpr.Expr) bool {
	params := parent.Parameters()
	if len(params) != len(args) {
		return false
	}
	for i, p := range params {
		if tv, ok := args[i].(*typeexpr.TypeVar); !ok || tv != p {
			return false
		}
	}
	return true
}

// ParametrizedName returns the display name of origin applied to args,
// for example "Response[int, str]".
func ParametrizedName(origin *typeexpr.Record, args []typeexpr.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = displayType(a)
	}
	return origin.Name + "[" + strings.Join(parts, ", ") + "]"
}

func displayType(e typeexpr.Expr) string {
	switch v := e.(type) {
	case *typeexpr.Record:
		return v.Name
	case *typeexpr.TypeVar:
		return v.Name
	}
	return e.Repr()
}

// TypeRef returns the definition ref of a record: module.Name:<id>, with
// [arg:<id>, ...] appended for parametrized records. Parametrizations use
// the origin's identity so that every spelling of the same arguments maps
// to one ref.
func TypeRef(rec *typeexpr.Record) string {
	if rec.Generic != nil {
		return ArgsRef(rec.Generic.Origin, rec.Generic.Args)
	}
	return fmt.Sprintf("%s:%d", rec.QualName(), rec.ID())
}

// ArgsRef is TypeRef for origin applied to args.
func ArgsRef(origin *typeexpr.Record, args []typeexpr.Expr) string {
	ref := fmt.Sprintf("%s:%d", origin.QualName(), origin.ID())
	if len(args) == 0 {
		return ref
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = argRef(a)
	}
	return ref + "[" + strings.Join(parts, ",") + "]"
}

func argRef(e typeexpr.Expr) string {
	switch v := e.(type) {
	case *typeexpr.Record:
		return TypeRef(v)
	case *typeexpr.Parametrized:
		return ArgsRef(v.Origin, v.Args)
	}
	h := fnv.New64a()
	h.Write([]byte(typeexpr.Key(e)))
	return fmt.Sprintf("%s:%x", displayType(e), h.Sum64())
}
