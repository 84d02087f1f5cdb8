package typeexpr

import (
	"strings"

	"github.com/reoring/schemagen/core"
)

// RecordBuilder declares a record fluently:
//
//	pair := typeexpr.Model("shapes", "Pair").
//		Field("left", typeexpr.Int).Required().
//		Field("right", typeexpr.Ref("Pair | None")).Default(nil).
//		MustBuild()
type RecordBuilder struct {
	rec *Record
	ns  *Namespace
	err error
}

// FieldStep configures the field most recently added to a RecordBuilder.
type FieldStep struct {
	b *RecordBuilder
	f *FieldDecl
}

// Model starts a model declaration.
func Model(module, name string) *RecordBuilder {
	return &RecordBuilder{rec: NewRecord(KindModel, module, name)}
}

// RootModel declares a record whose single root field stands for the
// whole value.
func RootModel(module, name string, root Expr) *RecordBuilder {
	b := &RecordBuilder{rec: NewRecord(KindRootModel, module, name)}
	b.rec.Fields = append(b.rec.Fields, &FieldDecl{Name: RootField, Type: root})
	return b
}

// TypedDict starts a typed dict declaration.
func TypedDict(module, name string) *RecordBuilder {
	return &RecordBuilder{rec: NewRecord(KindTypedDict, module, name)}
}

// NamedTuple starts a named tuple declaration.
func NamedTuple(module, name string) *RecordBuilder {
	return &RecordBuilder{rec: NewRecord(KindNamedTuple, module, name)}
}

// Dataclass starts a dataclass declaration. Its fields are accepted
// positionally, in declaration order, or by keyword.
func Dataclass(module, name string) *RecordBuilder {
	return &RecordBuilder{rec: NewRecord(KindDataclass, module, name)}
}

// PostInit sets the dataclass post-init hook; see PostInitAttr.
func (b *RecordBuilder) PostInit(fn any) *RecordBuilder {
	return b.Attr(PostInitAttr, fn)
}

// Field declares a field. Redeclaring a name replaces the earlier
// declaration in place.
func (b *RecordBuilder) Field(name string, t Expr) *FieldStep {
	if existing := b.rec.Field(name); existing != nil {
		existing.Type = t
		existing.Info = FieldInfo{}
		return &FieldStep{b: b, f: existing}
	}
	f := &FieldDecl{Name: name, Type: t}
	b.rec.Fields = append(b.rec.Fields, f)
	return &FieldStep{b: b, f: f}
}

// FieldWith declares a field with a prepared FieldInfo.
func (b *RecordBuilder) FieldWith(name string, t Expr, info FieldInfo) *RecordBuilder {
	b.Field(name, t).f.Info = info
	return b
}

// Base adds parent records.
func (b *RecordBuilder) Base(parents ...*Record) *RecordBuilder {
	b.rec.Bases = append(b.rec.Bases, parents...)
	return b
}

// Generic declares the type parameters of the record.
func (b *RecordBuilder) Generic(params ...*TypeVar) *RecordBuilder {
	b.rec.TypeParams = append(b.rec.TypeParams, params...)
	return b
}

// Doc sets the docstring, used as the JSON Schema description.
func (b *RecordBuilder) Doc(doc string) *RecordBuilder {
	b.rec.Doc = doc
	return b
}

// Config merges cfg into the record's config.
func (b *RecordBuilder) Config(cfg Config) *RecordBuilder {
	b.rec.Config = b.rec.Config.Merge(cfg)
	return b
}

// ExtraForbid rejects unknown keys.
func (b *RecordBuilder) ExtraForbid() *RecordBuilder {
	b.rec.Config.Extra = ExtraForbid
	return b
}

// ExtraIgnore drops unknown keys.
func (b *RecordBuilder) ExtraIgnore() *RecordBuilder {
	b.rec.Config.Extra = ExtraIgnore
	return b
}

// ExtraAllow keeps unknown keys on the instance.
func (b *RecordBuilder) ExtraAllow() *RecordBuilder {
	b.rec.Config.Extra = ExtraAllow
	return b
}

// Total sets the typed dict default for field requiredness.
func (b *RecordBuilder) Total(total bool) *RecordBuilder {
	b.rec.Total = &total
	return b
}

// Attr declares a namespace entry, typically a hook. Redeclaring a name
// replaces the earlier entry in place. A value reporting an error through
// Err() fails Build with that error.
func (b *RecordBuilder) Attr(name string, v any) *RecordBuilder {
	if e, ok := v.(interface{ Err() error }); ok && b.err == nil {
		if err := e.Err(); err != nil {
			b.err = err
		}
	}
	b.rec.SetAttr(name, v)
	return b
}

// In binds the record in ns when it is built; forward references in its
// fields resolve against ns.
func (b *RecordBuilder) In(ns *Namespace) *RecordBuilder {
	b.ns = ns
	return b
}

// Build validates the declaration and returns the record.
func (b *RecordBuilder) Build() (*Record, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := b.rec
	for _, f := range r.Fields {
		if strings.HasPrefix(f.Name, "_") {
			return nil, core.Errorf(core.CodeReservedName, "field %q of %s must not start with an underscore", f.Name, r.Name)
		}
		if _, clash := r.Attr(f.Name); clash {
			return nil, core.Errorf(core.CodeReservedName, "field %q of %s shadows a declared attribute", f.Name, r.Name)
		}
		if f.Type == nil {
			return nil, core.Errorf(core.CodeModelFieldMissingAnnotation, "field %q of %s requires a type annotation", f.Name, r.Name)
		}
	}
	if r.Kind == KindRootModel {
		if len(r.Fields) != 1 || r.Fields[0].Name != RootField {
			return nil, core.Errorf(core.CodeReservedName, "root model %s must declare exactly the %q field", r.Name, RootField)
		}
	}
	if r.Kind == KindDataclass {
		if err := checkDataclassOrder(r); err != nil {
			return nil, err
		}
	}
	if _, err := r.MRO(); err != nil {
		return nil, err
	}
	if b.ns != nil {
		b.ns.Define(r.Name, r)
	}
	return r, nil
}

// checkDataclassOrder rejects a required positional field following one
// with a default, which would make the positional form ambiguous.
func checkDataclassOrder(r *Record) error {
	defaulted := ""
	for _, f := range r.Fields {
		if f.Info.KwOnly || (f.Info.Init != nil && !*f.Info.Init) {
			continue
		}
		if !f.Info.IsRequired() {
			defaulted = f.Name
			continue
		}
		if defaulted != "" {
			return core.Errorf(core.CodeDataclassFieldOrder, "required field %q of %s follows field %q with a default", f.Name, r.Name, defaulted)
		}
	}
	return nil
}

// MustBuild is Build that panics on error.
func (b *RecordBuilder) MustBuild() *Record {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

// Required marks a typed dict field as required regardless of Total.
func (f *FieldStep) Required() *RecordBuilder {
	t := true
	f.f.Info.Required = &t
	return f.b
}

// NotRequired marks a typed dict field as optional regardless of Total.
func (f *FieldStep) NotRequired() *RecordBuilder {
	t := false
	f.f.Info.Required = &t
	return f.b
}

// Default sets a default value, making the field optional.
func (f *FieldStep) Default(v any) *RecordBuilder {
	f.f.Info.Default, f.f.Info.HasDefault, f.f.Info.DefaultFactory = v, true, nil
	return f.b
}

// DefaultFactory sets a factory producing the default on each use.
func (f *FieldStep) DefaultFactory(fn func() any) *RecordBuilder {
	f.f.Info.DefaultFactory, f.f.Info.Default, f.f.Info.HasDefault = fn, nil, false
	return f.b
}

// Alias sets the external name for both validation and serialization.
func (f *FieldStep) Alias(a string) *FieldStep { f.f.Info.Alias = a; return f }

func (f *FieldStep) ValidationAlias(a string) *FieldStep { f.f.Info.ValidationAlias = a; return f }
func (f *FieldStep) SerializationAlias(a string) *FieldStep {
	f.f.Info.SerializationAlias = a
	return f
}
func (f *FieldStep) Title(t string) *FieldStep       { f.f.Info.Title = t; return f }
func (f *FieldStep) Description(d string) *FieldStep { f.f.Info.Description = d; return f }
func (f *FieldStep) Examples(ex ...any) *FieldStep   { f.f.Info.Examples = ex; return f }
func (f *FieldStep) Exclude() *FieldStep             { f.f.Info.Exclude = true; return f }
func (f *FieldStep) Frozen() *FieldStep              { f.f.Info.Frozen = true; return f }

// Discriminator sets the discriminator of a union-typed field: a field name
// or a *Discriminator.
func (f *FieldStep) Discriminator(d any) *FieldStep { f.f.Info.Discriminator = d; return f }

// NoInit keeps a dataclass field out of the constructor.
func (f *FieldStep) NoInit() *FieldStep {
	init := false
	f.f.Info.Init = &init
	return f
}

// InitOnly passes a dataclass field to post-init without storing it.
func (f *FieldStep) InitOnly() *FieldStep { f.f.Info.InitOnly = true; return f }

// KwOnly makes a dataclass field keyword-only.
func (f *FieldStep) KwOnly() *FieldStep { f.f.Info.KwOnly = true; return f }

// ValidateDefault validates the default like any other input.
func (f *FieldStep) ValidateDefault() *FieldStep {
	t := true
	f.f.Info.ValidateDefault = &t
	return f
}

// JSONSchemaExtra merges extra keys into the field's rendered schema.
func (f *FieldStep) JSONSchemaExtra(extra map[string]any) *FieldStep {
	f.f.Info.JSONSchemaExtra = extra
	return f
}

// With appends constraints or markers to the field.
func (f *FieldStep) With(metadata ...any) *FieldStep {
	f.f.Info.Metadata = append(f.f.Info.Metadata, metadata...)
	return f
}

func (f *FieldStep) Field(name string, t Expr) *FieldStep   { return f.b.Field(name, t) }
func (f *FieldStep) Attr(name string, v any) *RecordBuilder { return f.b.Attr(name, v) }
func (f *FieldStep) Build() (*Record, error)                { return f.b.Build() }
func (f *FieldStep) MustBuild() *Record                     { return f.b.MustBuild() }
func (f *FieldStep) In(ns *Namespace) *RecordBuilder        { return f.b.In(ns) }
func (f *FieldStep) Config(cfg Config) *RecordBuilder       { return f.b.Config(cfg) }
func (f *FieldStep) Doc(doc string) *RecordBuilder          { return f.b.Doc(doc) }
func (f *FieldStep) PostInit(fn any) *RecordBuilder         { return f.b.PostInit(fn) }
