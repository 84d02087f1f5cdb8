package declfile

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"

	"github.com/reoring/schemagen/constraint"
	"github.com/reoring/schemagen/typeexpr"
)

// exprEnv exposes the input as value. Value stays untyped so member access
// and comparisons are checked at run time.
type exprEnv struct {
	Value any `expr:"value"`
}

func compile(src string, opts ...expr.Option) (*vm.Program, error) {
	opts = append([]expr.Option{expr.Env(exprEnv{})}, opts...)
	prog, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "compile %q", src)
	}
	return prog, nil
}

// compilePredicate turns a boolean expression into a predicate constraint.
// An expression failing at run time counts as not satisfied.
func compilePredicate(src string) (constraint.Predicate, error) {
	prog, err := compile(src, expr.AsBool())
	if err != nil {
		return constraint.Predicate{}, err
	}
	return constraint.Predicate{
		Name: src,
		Func: func(v any) bool {
			out, err := expr.Run(prog, exprEnv{Value: v})
			if err != nil {
				return false
			}
			ok, _ := out.(bool)
			return ok
		},
	}, nil
}

// discriminatorOf returns the field name, or a callable discriminator
// running the expression. An expression failing at run time yields no
// tag.
func discriminatorOf(d DiscriminatorDecl) (any, error) {
	switch {
	case d.Expr != "" && d.Field != "":
		return nil, errors.New("discriminator takes a field or an expr, not both")
	case d.Expr == "":
		if d.CustomErrorType == "" && d.CustomErrorMessage == "" {
			return d.Field, nil
		}
		return &typeexpr.Discriminator{Field: d.Field, CustomErrorType: d.CustomErrorType, CustomErrorMessage: d.CustomErrorMessage}, nil
	}
	prog, err := compile(d.Expr)
	if err != nil {
		return nil, err
	}
	return &typeexpr.Discriminator{
		Func: func(v any) any {
			out, err := expr.Run(prog, exprEnv{Value: v})
			if err != nil {
				return nil
			}
			return out
		},
		CustomErrorType:    d.CustomErrorType,
		CustomErrorMessage: d.CustomErrorMessage,
	}, nil
}
