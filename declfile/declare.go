package declfile

import (
	"github.com/pkg/errors"

	"github.com/reoring/schemagen/alias"
	"github.com/reoring/schemagen/constraint"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// Declared holds the records and enums of a declared file, bound in one
// namespace.
type Declared struct {
	Namespace *typeexpr.Namespace
	Records   map[string]*typeexpr.Record
	Enums     map[string]*typeexpr.Enum
	// Order lists record names in declaration order.
	Order []string
}

// Declare turns the declarations into records bound in a fresh namespace
// named after the module. Records may reference records declared later;
// bases must be declared first.
func (f *File) Declare() (*Declared, error) {
	ns := typeexpr.NewNamespace(f.Module)
	d := &Declared{
		Namespace: ns,
		Records:   map[string]*typeexpr.Record{},
		Enums:     map[string]*typeexpr.Enum{},
	}
	for _, e := range f.Enums {
		members := make([]typeexpr.EnumMember, len(e.Members))
		for i, m := range e.Members {
			members[i] = typeexpr.EnumMember{Name: m.Name, Value: m.Value}
		}
		en := typeexpr.NewEnum(f.Module, e.Name, members...)
		ns.Define(e.Name, en)
		d.Enums[e.Name] = en
	}
	var base typeexpr.Config
	if f.Config != nil {
		cfg, err := f.Config.resolve()
		if err != nil {
			return nil, errors.Wrap(err, "module config")
		}
		base = cfg
	}
	for _, rd := range f.Records {
		rec, err := d.declare(f.Module, rd, base)
		if err != nil {
			return nil, errors.Wrapf(err, "record %s", rd.Name)
		}
		ns.Define(rec.Name, rec)
		d.Records[rec.Name] = rec
		d.Order = append(d.Order, rec.Name)
	}
	return d, nil
}

// Type evaluates type source text against the declared names, for example
// "list[Cat]".
func (d *Declared) Type(src string) (typeexpr.Expr, error) {
	return typeexpr.Eval(src, d.Namespace)
}

// Record returns the record declared as name.
func (d *Declared) Record(name string) (*typeexpr.Record, error) {
	rec, ok := d.Records[name]
	if !ok {
		return nil, errors.Errorf("no record named %q", name)
	}
	return rec, nil
}

func (d *Declared) declare(module string, rd RecordDecl, base typeexpr.Config) (*typeexpr.Record, error) {
	if rd.Name == "" {
		return nil, errors.New("record without a name")
	}
	scope := d.Namespace.Child()
	var params []*typeexpr.TypeVar
	for _, p := range rd.Params {
		tv := typeexpr.NewTypeVar(p)
		scope.Define(p, tv)
		params = append(params, tv)
	}

	var b *typeexpr.RecordBuilder
	switch rd.Kind {
	case "", KindModel:
		b = typeexpr.Model(module, rd.Name)
	case KindTypedDict:
		b = typeexpr.TypedDict(module, rd.Name)
	case KindNamedTuple:
		b = typeexpr.NamedTuple(module, rd.Name)
	case KindDataclass:
		b = typeexpr.Dataclass(module, rd.Name)
	case KindRootModel:
		if rd.Root == "" {
			return nil, errors.New("root model without a root type")
		}
		root, err := typeOf(rd.Root, scope)
		if err != nil {
			return nil, err
		}
		b = typeexpr.RootModel(module, rd.Name, root)
	default:
		return nil, errors.Errorf("unknown record kind %q", rd.Kind)
	}
	b.In(scope).Doc(rd.Doc).Generic(params...)
	for _, name := range rd.Bases {
		parent, ok := d.Records[name]
		if !ok {
			return nil, errors.Errorf("base %q must be declared before %s", name, rd.Name)
		}
		b.Base(parent)
	}
	cfg := base
	if rd.Config != nil {
		over, err := rd.Config.resolve()
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(over)
	}
	b.Config(cfg)
	if rd.Total != nil {
		b.Total(*rd.Total)
	}
	for _, fd := range rd.Fields {
		t, info, err := fieldOf(fd, scope)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", fd.Name)
		}
		b.FieldWith(fd.Name, t, info)
	}
	return b.Build()
}

func (c *ConfigDecl) resolve() (typeexpr.Config, error) {
	cfg := c.Config
	if c.AliasGenerator != "" {
		gen, ok := alias.ByName(c.AliasGenerator)
		if !ok {
			return cfg, errors.Errorf("unknown alias generator %q", c.AliasGenerator)
		}
		cfg.AliasGenerator = gen
	}
	return cfg, nil
}

// typeOf evaluates src now when every name is known and otherwise leaves a
// forward reference for the build to resolve.
func typeOf(src string, scope *typeexpr.Namespace) (typeexpr.Expr, error) {
	t, err := typeexpr.Eval(src, scope)
	if _, undefined := core.AsUndefinedAnnotation(err); undefined {
		return typeexpr.Ref(src), nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func fieldOf(fd FieldDecl, scope *typeexpr.Namespace) (typeexpr.Expr, typeexpr.FieldInfo, error) {
	info := typeexpr.FieldInfo{
		Alias:              fd.Alias,
		ValidationAlias:    fd.ValidationAlias,
		SerializationAlias: fd.SerializationAlias,
		Title:              fd.Title,
		Description:        fd.Description,
		Examples:           fd.Examples,
		Exclude:            fd.Exclude,
		Frozen:             fd.Frozen,
		ValidateDefault:    fd.ValidateDefault,
		JSONSchemaExtra:    fd.JSONSchemaExtra,
		Required:           fd.Required,
		Init:               fd.Init,
		InitOnly:           fd.InitOnly,
		KwOnly:             fd.KwOnly,
	}
	if fd.HasDefault {
		info.Default, info.HasDefault = fd.Default, true
	}

	var t typeexpr.Expr
	var err error
	switch {
	case fd.Type != "" && len(fd.Union) > 0:
		return nil, info, errors.New("type and union are exclusive")
	case fd.Type != "":
		if t, err = typeOf(fd.Type, scope); err != nil {
			return nil, info, err
		}
	case len(fd.Union) > 0:
		members := make([]typeexpr.Expr, len(fd.Union))
		for i, m := range fd.Union {
			if members[i], err = typeOf(m.Type, scope); err != nil {
				return nil, info, err
			}
			if m.Tag != "" {
				members[i] = typeexpr.Annotate(members[i], typeexpr.Tag{Value: m.Tag})
			}
		}
		t = typeexpr.UnionOf(members...)
	default:
		return nil, info, core.Errorf(core.CodeModelFieldMissingAnnotation, "field %q requires a type", fd.Name)
	}

	if fd.Discriminator != nil {
		disc, err := discriminatorOf(*fd.Discriminator)
		if err != nil {
			return nil, info, err
		}
		info.Discriminator = disc
	}
	info.Metadata = fd.Constraints.markers()
	if fd.Predicate != "" {
		p, err := compilePredicate(fd.Predicate)
		if err != nil {
			return nil, info, err
		}
		info.Metadata = append(info.Metadata, p)
	}
	return t, info, nil
}

func (c ConstraintsDecl) markers() []any {
	var out []any
	for _, b := range []struct {
		v any
		m func(any) any
	}{
		{c.Gt, func(v any) any { return constraint.Gt{Value: v} }},
		{c.Ge, func(v any) any { return constraint.Ge{Value: v} }},
		{c.Lt, func(v any) any { return constraint.Lt{Value: v} }},
		{c.Le, func(v any) any { return constraint.Le{Value: v} }},
		{c.MultipleOf, func(v any) any { return constraint.MultipleOf{Value: v} }},
	} {
		if b.v != nil {
			out = append(out, b.m(b.v))
		}
	}
	if c.MinLength != nil {
		out = append(out, constraint.MinLen{N: *c.MinLength})
	}
	if c.MaxLength != nil {
		out = append(out, constraint.MaxLen{N: *c.MaxLength})
	}
	if c.Pattern != "" {
		out = append(out, constraint.Pattern{Regex: c.Pattern})
	}
	if c.Strict != nil {
		out = append(out, constraint.Strict{On: *c.Strict})
	}
	if c.StripWhitespace {
		out = append(out, constraint.StripWhitespace{})
	}
	if c.ToLower {
		out = append(out, constraint.ToLower{})
	}
	if c.ToUpper {
		out = append(out, constraint.ToUpper{})
	}
	return out
}
