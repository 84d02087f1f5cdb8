// Package builder turns type expressions and record declarations into core
// schemas. A Generator holds the state of one build: the definitions
// table, the config and namespace stacks and the type variable
// substitutions of the record being built.
package builder

import (
	"go.uber.org/zap"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/typeexpr"
)

// Generator builds core schemas for one logical build.
type Generator struct {
	settings
	defs     *Definitions
	configs  []typeexpr.Config
	ns       typeexpr.NamespaceStack
	models   []*typeexpr.Record
	fields   []string
	typevars map[*typeexpr.TypeVar]typeexpr.Expr
}

// New returns a Generator with an empty definitions table.
func New(opts ...Option) *Generator {
	g := &Generator{settings: newSettings(opts), defs: newDefinitions()}
	g.typevars = g.settings.typevars
	if g.settings.config != nil {
		g.configs = append(g.configs, *g.settings.config)
	}
	g.ns.Push(g.settings.ns)
	return g
}

// Definitions returns the definitions table of the build.
func (g *Generator) Definitions() *Definitions { return g.defs }

// Config returns the config in effect.
func (g *Generator) Config() typeexpr.Config {
	if len(g.configs) == 0 {
		return typeexpr.Config{}
	}
	return g.configs[len(g.configs)-1]
}

// FieldName returns the name of the field being built, or "".
func (g *Generator) FieldName() string {
	if len(g.fields) == 0 {
		return ""
	}
	return g.fields[len(g.fields)-1]
}

func (g *Generator) pushField(name string) func() {
	g.fields = append(g.fields, name)
	return func() { g.fields = g.fields[:len(g.fields)-1] }
}

// enterRecord makes rec's config, namespace and substitutions current.
func (g *Generator) enterRecord(rec *typeexpr.Record) func() {
	prev := g.typevars
	g.typevars = generics.TypevarsMap(rec)
	g.configs = append(g.configs, rec.EffectiveConfig())
	ns := rec.Namespace
	if ns == nil && rec.Generic != nil {
		ns = rec.Generic.Origin.Namespace
	}
	g.ns.Push(ns)
	g.models = append(g.models, rec)
	return func() {
		g.models = g.models[:len(g.models)-1]
		g.ns.Pop()
		g.configs = g.configs[:len(g.configs)-1]
		g.typevars = prev
	}
}

// Lookup resolves a name in a forward reference: the type parameters of
// the innermost record first, then the active namespaces, then the names
// of the records being built.
func (g *Generator) Lookup(name string) (typeexpr.Expr, bool) {
	if n := len(g.models); n > 0 {
		for _, tv := range origin(g.models[n-1]).TypeParams {
			if tv.Name == name {
				return tv, true
			}
		}
	}
	if e, ok := g.ns.Lookup(name); ok {
		return e, true
	}
	for i := len(g.models) - 1; i >= 0; i-- {
		if o := origin(g.models[i]); o.Name == name {
			return o, true
		}
	}
	return nil, false
}

func origin(rec *typeexpr.Record) *typeexpr.Record {
	if rec.Generic != nil {
		return rec.Generic.Origin
	}
	return rec
}

// Generate returns the schema of e. Records and other ref-carrying types
// come back as references into the definitions table.
func (g *Generator) Generate(e typeexpr.Expr) (core.Schema, error) {
	s, err := g.fromProperty(e)
	if err != nil {
		return nil, err
	}
	if s == nil {
		if s, err = g.generateInner(e); err != nil {
			return nil, err
		}
	}
	if p, ok := jsonSchemaProviderOf(e); ok {
		s = g.addJSFunction(s, p.JSONSchema)
	}
	return s, nil
}

// fromProperty returns the schema a type supplies itself: a reference to a
// definition already built, the stored schema of a complete record or the
// result of a CoreSchemaProvider. It returns nil when there is none.
func (g *Generator) fromProperty(e typeexpr.Expr) (core.Schema, error) {
	if rec, ok := e.(*typeexpr.Record); ok {
		ref := generics.TypeRef(rec)
		if s, ok := g.defs.SchemaOrRef(ref); ok {
			g.log.Debug("definition reused", zap.String("ref", ref))
			return s, nil
		}
		if rec.Generic != nil {
			return nil, nil
		}
		if s, complete := rec.Schema(); complete {
			return g.adopt(s), nil
		}
		return nil, nil
	}
	p, ok := coreSchemaProviderOf(e)
	if !ok {
		return nil, nil
	}
	s, err := p.CoreSchema(e, &callbackHandler{g: g, unpack: true})
	if err != nil {
		return nil, err
	}
	return g.adopt(s), nil
}

// adopt merges the definitions carried by s into the table and turns a
// ref-carrying s into a reference.
func (g *Generator) adopt(s core.Schema) core.Schema {
	inner, defs := core.Unpack(s)
	g.defs.Merge(defs)
	if ref := core.Ref(inner); ref != "" {
		g.defs.Set(ref, inner)
		return core.DefinitionRef(ref)
	}
	return inner
}

func (g *Generator) generateInner(e typeexpr.Expr) (core.Schema, error) {
	switch v := e.(type) {
	case nil:
		return &core.AnySchema{}, nil
	case *typeexpr.Annotated:
		return g.applyAnnotations(v.Type, v.Metadata, nil)
	case *typeexpr.ForwardRef:
		return g.forwardRef(v)
	case *typeexpr.Record:
		return g.recordSchema(v)
	case *typeexpr.RecursiveRef:
		return core.DefinitionRef(v.TypeRef), nil
	}
	return g.matchType(e)
}

func (g *Generator) forwardRef(f *typeexpr.ForwardRef) (core.Schema, error) {
	e, err := typeexpr.Eval(f.Source, g)
	if err != nil {
		return nil, err
	}
	return g.Generate(generics.ReplaceTypes(e, g.typevars))
}

func (g *Generator) matchType(e typeexpr.Expr) (core.Schema, error) {
	switch v := e.(type) {
	case *typeexpr.Prim:
		return primSchema(v), nil
	case *typeexpr.Container:
		return g.containerSchema(v)
	case *typeexpr.Literal:
		return &core.LiteralSchema{Expected: append([]any{}, v.Values...)}, nil
	case *typeexpr.Union:
		return g.unionSchema(v)
	case *typeexpr.Parametrized:
		return g.parametrizedSchema(v)
	case *typeexpr.TypeVar:
		return g.typeVarSchema(v)
	case *typeexpr.Enum:
		return g.enumSchema(v)
	case *typeexpr.Callable:
		return g.callableSchema(v)
	}
	return g.arbitrarySchema(e)
}

func primSchema(p *typeexpr.Prim) core.Schema {
	switch p {
	case typeexpr.None:
		return &core.NoneSchema{}
	case typeexpr.Bool:
		return &core.BoolSchema{}
	case typeexpr.Int:
		return &core.IntSchema{}
	case typeexpr.Float:
		return &core.FloatSchema{}
	case typeexpr.Str:
		return &core.StrSchema{}
	case typeexpr.Bytes:
		return &core.BytesSchema{}
	case typeexpr.Date:
		return &core.DateSchema{}
	case typeexpr.Time:
		return &core.TimeSchema{}
	case typeexpr.DateTime:
		return &core.DatetimeSchema{}
	case typeexpr.Timedelta:
		return &core.TimedeltaSchema{}
	case typeexpr.UUID:
		return &core.UUIDSchema{}
	}
	return &core.AnySchema{}
}

func (g *Generator) containerSchema(c *typeexpr.Container) (core.Schema, error) {
	switch c.Kind {
	case typeexpr.KindDict:
		k, v := typeexpr.Expr(typeexpr.Any), typeexpr.Expr(typeexpr.Any)
		if len(c.Args) == 2 {
			k, v = c.Args[0], c.Args[1]
		}
		ks, err := g.Generate(k)
		if err != nil {
			return nil, err
		}
		vs, err := g.Generate(v)
		if err != nil {
			return nil, err
		}
		return &core.DictSchema{KeysSchema: ks, ValuesSchema: vs}, nil
	case typeexpr.KindTuple:
		return g.tupleSchema(c)
	}
	items, err := g.Generate(c.Item())
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case typeexpr.KindSet:
		return &core.SetSchema{ItemsSchema: items}, nil
	case typeexpr.KindFrozenSet:
		return &core.FrozenSetSchema{ItemsSchema: items}, nil
	}
	return &core.ListSchema{ItemsSchema: items}, nil
}

// tupleSchema handles tuple[int, str], tuple[int, ...] and bare tuple,
// which is tuple[Any, ...].
func (g *Generator) tupleSchema(c *typeexpr.Container) (core.Schema, error) {
	args, variadic := c.Args, c.Variadic
	if len(args) == 0 {
		args, variadic = []typeexpr.Expr{typeexpr.Any}, true
	}
	items := make([]core.Schema, 0, len(args))
	for _, a := range args {
		s, err := g.Generate(a)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	t := &core.TupleSchema{ItemsSchema: items}
	if variadic {
		idx := len(items) - 1
		t.VariadicItemIndex = &idx
	}
	return t, nil
}

// typeVarSchema handles a type variable with no substitution: its bound,
// else the union of its constraints, else its default, else any. A bound
// serializes like any so that subtypes keep their own fields.
func (g *Generator) typeVarSchema(tv *typeexpr.TypeVar) (core.Schema, error) {
	if r, ok := g.typevars[tv]; ok && !mentions(r, tv) {
		return g.Generate(r)
	}
	switch {
	case tv.Bound != nil:
		s, err := g.Generate(tv.Bound)
		if err != nil {
			return nil, err
		}
		s = core.Copy(s)
		s.Base().Serialization = &core.WrapSerializerFunctionSerSchema{
			Function: passThrough,
			Schema:   &core.AnySchema{},
		}
		return s, nil
	case len(tv.Constraints) > 0:
		return g.Generate(typeexpr.UnionOf(tv.Constraints...))
	case tv.Default != nil:
		return g.Generate(tv.Default)
	}
	return &core.AnySchema{}, nil
}

// mentions reports whether tv occurs in e, as it does in the arguments of
// a partial parametrization such as Box[list[T]].
func mentions(e typeexpr.Expr, tv *typeexpr.TypeVar) bool {
	for _, v := range typeexpr.FreeTypeVars(e) {
		if v == tv {
			return true
		}
	}
	return false
}

func passThrough(v any, next core.SerializerHandler) (any, error) { return next(v) }

// arbitrarySchema handles types the builder has no schema for, following
// the arbitrary-types policy of the config in effect.
func (g *Generator) arbitrarySchema(e typeexpr.Expr) (core.Schema, error) {
	switch g.Config().ArbitraryTypes {
	case typeexpr.ArbitraryForbid:
		return nil, core.Errorf(core.CodeSchemaForUnknownType, "unable to generate a schema for %s; set ArbitraryTypes to \"instance\" to check the Go type instead", e.Repr())
	case typeexpr.ArbitraryInstance:
		if o, ok := e.(*typeexpr.Opaque); ok && o.GoType != nil {
			return &core.IsInstanceSchema{Cls: o.GoType, ClsRepr: o.Name}, nil
		}
		return &core.IsInstanceSchema{Cls: e, ClsRepr: e.Repr()}, nil
	}
	return &core.AnySchema{}, nil
}

// addJSFunction attaches fn to the node s stands for. When s is a
// reference the stored definition is copied and replaced so that schemas
// shared with other builds stay untouched.
func (g *Generator) addJSFunction(s core.Schema, fn core.JSFunc) core.Schema {
	if dr, ok := s.(*core.DefinitionReferenceSchema); ok {
		if def, ok := g.defs.Get(dr.SchemaRef); ok {
			def = core.Copy(def)
			core.AddJSFunction(def, fn)
			g.defs.Set(dr.SchemaRef, def)
			return s
		}
	}
	s = core.Copy(s)
	core.AddJSFunction(s, fn)
	return s
}
