package builder

import (
	"go.uber.org/zap"

	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/typeexpr"
)

// Instantiate applies the generic record parent to args. It returns parent
// itself when args are its own parameters, a RecursiveRef when the same
// parametrization is already being built in this build and otherwise the
// synthesized record, cached so that every spelling of the same arguments
// yields the same record.
//
// When parent is itself a partial parametrization, args fill its remaining
// parameters and the result is keyed by the origin and the substituted
// arguments, so Box[List[T]][int] and Box[List[int]] are one record.
func Instantiate(parent *typeexpr.Record, args []typeexpr.Expr, opts ...Option) (typeexpr.Expr, error) {
	if err := generics.CheckParameters(parent, args); err != nil {
		return nil, err
	}
	if generics.IsIdentity(parent, args) {
		return parent, nil
	}
	st := newSettings(opts)
	if rec, ok := st.cache.GetEarly(parent, args); ok {
		return rec, nil
	}

	origin, resolved := parent, args
	if parent.Generic != nil {
		origin = parent.Generic.Origin
		m := make(map[*typeexpr.TypeVar]typeexpr.Expr, len(args))
		for i, p := range parent.Generic.Parameters {
			m[p] = args[i]
		}
		resolved = make([]typeexpr.Expr, len(parent.Generic.Args))
		for i, a := range parent.Generic.Args {
			resolved[i] = generics.ReplaceTypes(a, m)
		}
	}

	self, leave := st.guard.Enter(origin, resolved)
	if self != nil {
		st.log.Debug("recursive parametrization", zap.String("ref", self.TypeRef))
		return self, nil
	}
	defer leave()

	if rec, ok := st.cache.GetLate(parent, args, origin, resolved); ok {
		return rec, nil
	}
	if !origin.Complete() {
		if _, err := Rebuild(origin, false, append(st.options(), RaiseErrors(false))...); err != nil {
			return nil, err
		}
	}

	rec := typeexpr.NewRecord(origin.Kind, origin.Module, generics.ParametrizedName(origin, resolved))
	rec.Bases = []*typeexpr.Record{origin}
	rec.Namespace = origin.Namespace
	rec.Total = origin.Total
	rec.Generic = &typeexpr.GenericMeta{
		Origin:     origin,
		Args:       resolved,
		Parameters: typeexpr.FreeTypeVars(resolved...),
	}
	if _, err := Complete(rec, append(st.options(), RaiseErrors(false))...); err != nil {
		return nil, err
	}
	st.cache.Set(parent, args, origin, resolved, rec)
	st.log.Debug("parametrized record created",
		zap.String("record", rec.Name),
		zap.Bool("complete", rec.Complete()))
	return rec, nil
}
