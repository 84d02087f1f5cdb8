package typeexpr

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/reoring/schemagen/core"
)

// Grammar of type source text:
//
//	expr  = term { "|" term }
//	term  = "..." | string | number | name [ "[" [ expr { "," expr } ] "]" ]
//	name  = ident { "." ident }
type exprAST struct {
	Members []*termAST `parser:"@@ ( '|' @@ )*"`
}

type termAST struct {
	Ellipsis bool     `parser:"  @Ellipsis"`
	Str      *string  `parser:"| @String"`
	Number   *string  `parser:"| @Number"`
	Name     *nameAST `parser:"| @@"`
}

type nameAST struct {
	Parts   []string   `parser:"@Ident ( '.' @Ident )*"`
	HasArgs bool       `parser:"( @'['"`
	Args    []*exprAST `parser:"  ( @@ ( ',' @@ )* )? ']' )?"`
}

var (
	exprLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
		{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
		{Name: "Ellipsis", Pattern: `\.\.\.`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Punct", Pattern: `[\[\],|.]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})
	exprParser = participle.MustBuild[exprAST](
		participle.Lexer(exprLexer),
		participle.Unquote("String"),
		participle.Elide("Whitespace"),
	)
)

// Lookup resolves a bare or dotted name to a type.
type Lookup interface {
	Lookup(name string) (Expr, bool)
}

// Eval parses src and resolves its names through scope. Builtin names
// (int, list, Optional, Literal, ...) are used when scope has no binding.
// An unknown name yields a *core.UndefinedAnnotationError.
func Eval(src string, scope Lookup) (Expr, error) {
	ast, err := exprParser.ParseString("", src)
	if err != nil {
		return nil, errors.Wrapf(err, "parse type %q", src)
	}
	return evalExpr(ast, scope)
}

func evalExpr(a *exprAST, scope Lookup) (Expr, error) {
	members := make([]Expr, 0, len(a.Members))
	for _, t := range a.Members {
		e, err := evalTerm(t, scope)
		if err != nil {
			return nil, err
		}
		members = append(members, e)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return UnionOf(members...), nil
}

func evalTerm(t *termAST, scope Lookup) (Expr, error) {
	switch {
	case t.Ellipsis:
		return nil, errors.New("'...' is only valid as the last tuple argument")
	case t.Str != nil:
		// A quoted name inside an expression is itself a forward reference.
		return Eval(*t.Str, scope)
	case t.Number != nil:
		return nil, errors.Errorf("number %s is only valid inside Literal[...]", *t.Number)
	}
	return evalName(t.Name, scope)
}

func evalName(n *nameAST, scope Lookup) (Expr, error) {
	name := strings.Join(n.Parts, ".")
	if name == "Literal" || name == "typing.Literal" {
		return evalLiteral(n.Args)
	}
	var base Expr
	if scope != nil {
		if e, ok := scope.Lookup(name); ok {
			base = e
		}
	}
	if base == nil {
		if g, ok := builtinGenerics[name]; ok {
			return g(n, scope)
		}
		if p, ok := builtinTypes[name]; ok {
			base = p
		}
	}
	if base == nil {
		return nil, &core.UndefinedAnnotationError{Name: name, Message: "name '" + name + "' is not defined"}
	}
	if !n.HasArgs {
		return base, nil
	}
	args, err := evalArgs(n.Args, scope)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case *Record:
		return b.Of(args...), nil
	case *Parametrized:
		return &Parametrized{Origin: b.Origin, Args: substituteArgs(b, args)}, nil
	}
	return nil, errors.Errorf("%s is not generic", name)
}

// substituteArgs applies args to the free parameters of an already
// parametrized record written in a namespace, e.g. Box[list[T]][int].
func substituteArgs(p *Parametrized, args []Expr) []Expr {
	free := FreeTypeVars(p.Args...)
	m := map[*TypeVar]Expr{}
	for i, tv := range free {
		if i < len(args) {
			m[tv] = args[i]
		}
	}
	out := make([]Expr, len(p.Args))
	for i, a := range p.Args {
		out[i] = Substitute(a, m)
	}
	return out
}

func evalArgs(in []*exprAST, scope Lookup) ([]Expr, error) {
	out := make([]Expr, 0, len(in))
	for _, a := range in {
		e, err := evalExpr(a, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func evalLiteral(args []*exprAST) (Expr, error) {
	var values []any
	for _, a := range args {
		for _, t := range a.Members {
			switch {
			case t.Str != nil:
				values = append(values, *t.Str)
			case t.Number != nil:
				if i, err := strconv.ParseInt(*t.Number, 10, 64); err == nil {
					values = append(values, i)
				} else {
					f, err := strconv.ParseFloat(*t.Number, 64)
					if err != nil {
						return nil, errors.Wrap(err, "literal number")
					}
					values = append(values, f)
				}
			case t.Name != nil && len(t.Name.Parts) == 1 && !t.Name.HasArgs:
				switch t.Name.Parts[0] {
				case "True":
					values = append(values, true)
				case "False":
					values = append(values, false)
				case "None":
					values = append(values, nil)
				default:
					return nil, errors.Errorf("invalid Literal value %s", t.Name.Parts[0])
				}
			default:
				return nil, errors.New("invalid Literal value")
			}
		}
	}
	if len(values) == 0 {
		return nil, errors.New("Literal requires at least one value")
	}
	return LiteralOf(values...), nil
}

var builtinTypes = map[string]Expr{
	"Any":       Any,
	"None":      None,
	"NoneType":  None,
	"bool":      Bool,
	"int":       Int,
	"float":     Float,
	"str":       Str,
	"bytes":     Bytes,
	"date":      Date,
	"time":      Time,
	"datetime":  DateTime,
	"timedelta": Timedelta,
	"UUID":      UUID,
	"uuid.UUID": UUID,
	"list":      ListOf(Any),
	"set":       SetOf(Any),
	"frozenset": FrozenSetOf(Any),
	"dict":      DictOf(Any, Any),
	"tuple":     VarTupleOf(Any),
	"Callable":  &Callable{},
}

type genericFunc func(n *nameAST, scope Lookup) (Expr, error)

var builtinGenerics map[string]genericFunc

func init() {
	container := func(kind ContainerKind, arity int) genericFunc {
		return func(n *nameAST, scope Lookup) (Expr, error) {
			if !n.HasArgs {
				return builtinTypes[containerNames[kind]], nil
			}
			args, err := evalArgs(n.Args, scope)
			if err != nil {
				return nil, err
			}
			if len(args) != arity {
				return nil, errors.Errorf("%s expects %d type argument(s), got %d", containerNames[kind], arity, len(args))
			}
			return &Container{Kind: kind, Args: args}, nil
		}
	}
	tuple := func(n *nameAST, scope Lookup) (Expr, error) {
		if !n.HasArgs {
			return VarTupleOf(Any), nil
		}
		if k := len(n.Args); k == 2 && len(n.Args[1].Members) == 1 && n.Args[1].Members[0].Ellipsis {
			item, err := evalExpr(n.Args[0], scope)
			if err != nil {
				return nil, err
			}
			return VarTupleOf(item), nil
		}
		args, err := evalArgs(n.Args, scope)
		if err != nil {
			return nil, err
		}
		return TupleOf(args...), nil
	}
	union := func(n *nameAST, scope Lookup) (Expr, error) {
		args, err := evalArgs(n.Args, scope)
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, errors.New("Union requires at least one type argument")
		}
		return UnionOf(args...), nil
	}
	optional := func(n *nameAST, scope Lookup) (Expr, error) {
		args, err := evalArgs(n.Args, scope)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, errors.New("Optional requires exactly one type argument")
		}
		return Optional(args[0]), nil
	}
	builtinGenerics = map[string]genericFunc{
		"list":      container(KindList, 1),
		"List":      container(KindList, 1),
		"set":       container(KindSet, 1),
		"Set":       container(KindSet, 1),
		"frozenset": container(KindFrozenSet, 1),
		"FrozenSet": container(KindFrozenSet, 1),
		"dict":      container(KindDict, 2),
		"Dict":      container(KindDict, 2),
		"tuple":     tuple,
		"Tuple":     tuple,
		"Union":     union,
		"Optional":  optional,
	}
}
