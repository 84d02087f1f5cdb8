package builder

import (
	"fmt"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// unionSchema builds the members of u in order. A None member makes the
// result nullable instead of being a choice; tags attached to members
// with Tag are carried on their choices.
func (g *Generator) unionSchema(u *typeexpr.Union) (core.Schema, error) {
	var choices []core.Schema
	nullable := false
	for _, m := range u.Members {
		if typeexpr.IsNone(m) {
			nullable = true
			continue
		}
		s, err := g.Generate(m)
		if err != nil {
			return nil, err
		}
		choices = append(choices, s)
	}
	var s core.Schema
	switch len(choices) {
	case 0:
		return &core.NoneSchema{}, nil
	case 1:
		s = choices[0]
	default:
		us := &core.UnionSchema{}
		for _, c := range choices {
			tag, _ := core.TaggedUnionTag(c)
			us.Choices = append(us.Choices, core.UnionChoice{Schema: c, Tag: tag})
		}
		s = us
	}
	if nullable {
		return &core.NullableSchema{Schema: s}, nil
	}
	return s, nil
}

func (g *Generator) parametrizedSchema(p *typeexpr.Parametrized) (core.Schema, error) {
	e, err := Instantiate(p.Origin, p.Args, g.settings.options()...)
	if err != nil {
		return nil, err
	}
	return g.Generate(e)
}

// enumSchema builds an enum node stored as a definition. SubType is set
// when every member value has the same primitive kind.
func (g *Generator) enumSchema(e *typeexpr.Enum) (core.Schema, error) {
	ref := fmt.Sprintf("%s.%s:%d", e.Module, e.Name, e.ID())
	if s, ok := g.defs.SchemaOrRef(ref); ok {
		return s, nil
	}
	s := &core.EnumSchema{Cls: e, Members: e.Values(), SubType: enumSubType(e.Values())}
	s.Ref = ref
	core.AddJSFunction(s, enumJSONSchema(e))
	g.defs.Set(ref, s)
	return core.DefinitionRef(ref), nil
}

func enumSubType(values []any) string {
	kind := ""
	for _, v := range values {
		var k string
		switch v.(type) {
		case string:
			k = "str"
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			k = "int"
		case float32, float64:
			k = "float"
		default:
			return ""
		}
		if kind != "" && kind != k {
			return ""
		}
		kind = k
	}
	return kind
}

func enumJSONSchema(e *typeexpr.Enum) core.JSFunc {
	return func(s core.Schema, h core.JSONSchemaHandler) (map[string]any, error) {
		js, err := h.Call(s)
		if err != nil {
			return nil, err
		}
		target, err := h.ResolveRef(js)
		if err != nil {
			return nil, err
		}
		target["title"] = e.Name
		if e.Doc != "" {
			target["description"] = e.Doc
		}
		return js, nil
	}
}

// callableSchema validates the arguments of a concrete function and calls
// it, or only checks for a callable when there is no function.
func (g *Generator) callableSchema(c *typeexpr.Callable) (core.Schema, error) {
	if c.Func == nil {
		return &core.CallableSchema{}, nil
	}
	args := &core.ArgumentsSchema{PopulateByName: g.Config().PopulateByName}
	for _, p := range c.Params {
		mode := string(p.Mode)
		if mode == "" {
			mode = core.ModePositionalOrKeyword
		}
		info := typeexpr.FieldInfo{Default: p.Default, HasDefault: p.HasDefault}
		ps, err := g.parameterSchema(p.Name, p.Type, info, mode)
		if err != nil {
			return nil, err
		}
		args.ArgumentsSchema = append(args.ArgumentsSchema, ps)
	}
	var err error
	if c.VarArgs != nil {
		if args.VarArgsSchema, err = g.Generate(c.VarArgs); err != nil {
			return nil, err
		}
	}
	if c.VarKwargs != nil {
		if args.VarKwargsSchema, err = g.Generate(c.VarKwargs); err != nil {
			return nil, err
		}
	}
	call := &core.CallSchema{ArgumentsSchema: args, Function: c.Func, FunctionName: c.Name}
	if call.FunctionName == "" {
		call.FunctionName = core.FuncName(c.Func)
	}
	if c.Return != nil {
		if call.ReturnSchema, err = g.Generate(c.Return); err != nil {
			return nil, err
		}
	}
	return call, nil
}
