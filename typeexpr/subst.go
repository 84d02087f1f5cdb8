package typeexpr

// Substitute replaces the type variables of e found in m. Unions are
// rebuilt through UnionOf, so a substitution that makes members equal
// collapses them. A generic record synthesized with free parameters is
// turned back into a Parametrized of its origin. e is returned unchanged
// when nothing was substituted.
func Substitute(e Expr, m map[*TypeVar]Expr) Expr {
	if len(m) == 0 || e == nil {
		return e
	}
	switch v := e.(type) {
	case *TypeVar:
		if r, ok := m[v]; ok {
			return r
		}
		return v
	case *Container:
		args, changed := substituteAll(v.Args, m)
		if !changed {
			return v
		}
		return &Container{Kind: v.Kind, Args: args, Variadic: v.Variadic}
	case *Union:
		members, changed := substituteAll(v.Members, m)
		if !changed {
			return v
		}
		return UnionOf(members...)
	case *Annotated:
		t := Substitute(v.Type, m)
		if t == v.Type {
			return v
		}
		return &Annotated{Type: t, Metadata: v.Metadata}
	case *Parametrized:
		args, changed := substituteAll(v.Args, m)
		if !changed {
			return v
		}
		return &Parametrized{Origin: v.Origin, Args: args}
	case *Record:
		if v.Generic == nil || len(v.Generic.Parameters) == 0 {
			return v
		}
		args, changed := substituteAll(v.Generic.Args, m)
		if !changed {
			return v
		}
		return &Parametrized{Origin: v.Generic.Origin, Args: args}
	case *Callable:
		changed := false
		params := make([]Param, len(v.Params))
		for i, p := range v.Params {
			params[i] = p
			if t := Substitute(p.Type, m); t != p.Type {
				params[i].Type, changed = t, true
			}
		}
		ret := Substitute(v.Return, m)
		if !changed && ret == v.Return {
			return v
		}
		c := *v
		c.Params, c.Return = params, ret
		return &c
	}
	return e
}

func substituteAll(es []Expr, m map[*TypeVar]Expr) ([]Expr, bool) {
	out := make([]Expr, len(es))
	changed := false
	for i, e := range es {
		out[i] = Substitute(e, m)
		if out[i] != e {
			changed = true
		}
	}
	return out, changed
}

// FreeTypeVars returns the type variables occurring in es, in order of
// first appearance.
func FreeTypeVars(es ...Expr) []*TypeVar {
	var out []*TypeVar
	seen := map[*TypeVar]bool{}
	var visit func(e Expr)
	visit = func(e Expr) {
		switch v := e.(type) {
		case *TypeVar:
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		case *Container:
			for _, a := range v.Args {
				visit(a)
			}
		case *Union:
			for _, a := range v.Members {
				visit(a)
			}
		case *Annotated:
			visit(v.Type)
		case *Parametrized:
			for _, a := range v.Args {
				visit(a)
			}
		case *Record:
			if v.Generic != nil {
				for _, p := range v.Generic.Parameters {
					visit(p)
				}
			}
		case *Callable:
			for _, p := range v.Params {
				visit(p.Type)
			}
			if v.Return != nil {
				visit(v.Return)
			}
		}
	}
	for _, e := range es {
		visit(e)
	}
	return out
}
