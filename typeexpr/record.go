package typeexpr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/reoring/schemagen/core"
)

// RecordKind selects how a record is validated and rendered.
type RecordKind int

const (
	KindModel      RecordKind = iota // Named fields, validated into an instance.
	KindRootModel                    // A single "root" field standing for the whole value.
	KindTypedDict                    // Named fields, validated into a plain map.
	KindNamedTuple                   // Named positional fields, validated as call arguments.
	KindDataclass                    // Fields given positionally or by keyword, validated into an instance.
)

// RootField is the field name of a root model.
const RootField = "root"

// PostInitAttr names the dataclass attribute holding the post-init hook, a
// func(*core.Instance) error or func(*core.Instance, map[string]any) error.
// The map carries the init-only values.
const PostInitAttr = "__post_init__"

// FieldInfo carries everything declared about a field besides its type.
// A FieldInfo found in Annotated metadata is merged into the declaration.
type FieldInfo struct {
	Default            any
	HasDefault         bool
	DefaultFactory     func() any
	Alias              string
	ValidationAlias    string
	SerializationAlias string
	Title              string
	Description        string
	Examples           []any
	Exclude            bool
	Frozen             bool
	// Discriminator is a field name or a *Discriminator.
	Discriminator   any
	ValidateDefault *bool
	JSONSchemaExtra map[string]any
	// Required overrides a typed dict's total setting.
	Required *bool
	// Init false keeps a dataclass field out of the constructor; it takes
	// its default. InitOnly fields reach post-init but are not stored.
	// KwOnly fields cannot be given positionally.
	Init     *bool
	InitOnly bool
	KwOnly   bool
	// Metadata holds constraints and markers, applied like Annotated
	// metadata after the field type's own.
	Metadata []any
}

// IsRequired reports whether the field has no default.
func (f FieldInfo) IsRequired() bool { return !f.HasDefault && f.DefaultFactory == nil }

// Merge returns f overlaid with every value set in o. Metadata accumulates.
func (f FieldInfo) Merge(o FieldInfo) FieldInfo {
	out := f
	if o.HasDefault {
		out.Default, out.HasDefault, out.DefaultFactory = o.Default, true, nil
	}
	if o.DefaultFactory != nil {
		out.DefaultFactory, out.Default, out.HasDefault = o.DefaultFactory, nil, false
	}
	if o.Alias != "" {
		out.Alias = o.Alias
	}
	if o.ValidationAlias != "" {
		out.ValidationAlias = o.ValidationAlias
	}
	if o.SerializationAlias != "" {
		out.SerializationAlias = o.SerializationAlias
	}
	if o.Title != "" {
		out.Title = o.Title
	}
	if o.Description != "" {
		out.Description = o.Description
	}
	if o.Examples != nil {
		out.Examples = o.Examples
	}
	out.Exclude = out.Exclude || o.Exclude
	out.Frozen = out.Frozen || o.Frozen
	if o.Discriminator != nil {
		out.Discriminator = o.Discriminator
	}
	if o.ValidateDefault != nil {
		out.ValidateDefault = o.ValidateDefault
	}
	if o.JSONSchemaExtra != nil {
		out.JSONSchemaExtra = o.JSONSchemaExtra
	}
	if o.Required != nil {
		out.Required = o.Required
	}
	if o.Init != nil {
		out.Init = o.Init
	}
	out.InitOnly = out.InitOnly || o.InitOnly
	out.KwOnly = out.KwOnly || o.KwOnly
	out.Metadata = append(append([]any{}, f.Metadata...), o.Metadata...)
	return out
}

// FieldDecl is one declared field.
type FieldDecl struct {
	Name string
	Type Expr
	Info FieldInfo
}

// Attr is a non-field entry of a record's declared namespace, such as a
// hook.
type Attr struct {
	Name  string
	Value any
}

// GenericMeta describes a record synthesized from a generic origin.
// Parameters are the type variables still free in Args.
type GenericMeta struct {
	Origin     *Record
	Args       []Expr
	Parameters []*TypeVar
}

// Record is a declared record type. Declarations are plain data; the
// builder turns them into a schema and stores the result back on the
// record.
type Record struct {
	Kind       RecordKind
	Name       string
	Module     string
	Doc        string
	Bases      []*Record
	Fields     []*FieldDecl
	Attrs      []Attr
	Config     Config
	TypeParams []*TypeVar
	// Total is the typed dict default for field requiredness (true when nil).
	Total     *bool
	Namespace *Namespace
	Generic   *GenericMeta

	id    uint64
	state recordState
}

type recordState struct {
	mu          sync.Mutex
	schema      core.Schema
	complete    bool
	pending     string
	placeholder any
	artifacts   map[string]any
}

// NewRecord declares an empty record.
func NewRecord(kind RecordKind, module, name string) *Record {
	return &Record{Kind: kind, Module: module, Name: name, id: nextID.Add(1)}
}

// ID returns the declaration sequence number of r. It is stable for the
// life of the process and part of r's schema ref.
func (r *Record) ID() uint64 { return r.id }

func (r *Record) Repr() string { return r.Name }

// QualName returns module.Name.
func (r *Record) QualName() string {
	if r.Module == "" {
		return r.Name
	}
	return r.Module + "." + r.Name
}

// Of applies r to type arguments.
func (r *Record) Of(args ...Expr) *Parametrized {
	return &Parametrized{Origin: r, Args: args}
}

// Parameters returns the free type variables of r.
func (r *Record) Parameters() []*TypeVar {
	if r.Generic != nil {
		return r.Generic.Parameters
	}
	return r.TypeParams
}

// IsGeneric reports whether r still has free type variables.
func (r *Record) IsGeneric() bool { return len(r.Parameters()) > 0 }

// Attr returns the value declared directly on r under name.
func (r *Record) Attr(name string) (any, bool) {
	for _, a := range r.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// SetAttr declares name on r, replacing an earlier declaration in place.
func (r *Record) SetAttr(name string, v any) {
	for i := range r.Attrs {
		if r.Attrs[i].Name == name {
			r.Attrs[i].Value = v
			return
		}
	}
	r.Attrs = append(r.Attrs, Attr{Name: name, Value: v})
}

// Field returns the field declared directly on r.
func (r *Record) Field(name string) *FieldDecl {
	for _, f := range r.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// MRO returns the C3 linearization of r, r first.
func (r *Record) MRO() ([]*Record, error) {
	var seqs [][]*Record
	for _, b := range r.Bases {
		m, err := b.MRO()
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, m)
	}
	seqs = append(seqs, append([]*Record{}, r.Bases...))
	out := []*Record{r}
	for {
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return out, nil
		}
		var next *Record
		for _, s := range seqs {
			if !inTail(s[0], seqs) {
				next = s[0]
				break
			}
		}
		if next == nil {
			return nil, core.Errorf(core.CodeInconsistentMRO, "cannot create a consistent method resolution order for the bases of %s", r.Name)
		}
		out = append(out, next)
		for i, s := range seqs {
			if s[0] == next {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(c *Record, seqs [][]*Record) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}

// AllFields returns the fields of r and its ancestors. Ancestors are
// visited base first; a field redeclared further down replaces the
// inherited declaration but keeps its position.
func (r *Record) AllFields() ([]*FieldDecl, error) {
	mro, err := r.MRO()
	if err != nil {
		return nil, err
	}
	var out []*FieldDecl
	index := map[string]int{}
	for i := len(mro) - 1; i >= 0; i-- {
		for _, f := range mro[i].Fields {
			if j, ok := index[f.Name]; ok {
				out[j] = f
				continue
			}
			index[f.Name] = len(out)
			out = append(out, f)
		}
	}
	return out, nil
}

// EffectiveConfig merges the configs along the MRO, base first.
func (r *Record) EffectiveConfig() Config {
	mro, err := r.MRO()
	if err != nil {
		return r.Config
	}
	var c Config
	for i := len(mro) - 1; i >= 0; i-- {
		c = c.Merge(mro[i].Config)
	}
	return c
}

// IsTotal reports the typed dict default for field requiredness.
func (r *Record) IsTotal() bool { return r.Total == nil || *r.Total }

// Docstring returns the cleaned doc of r.
func (r *Record) Docstring() string { return cleanDoc(r.Doc) }

// Schema returns the stored core schema and whether r is complete.
func (r *Record) Schema() (core.Schema, bool) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.schema, r.state.complete
}

// SetSchema stores a complete core schema on r and drops derived artifacts.
func (r *Record) SetSchema(s core.Schema) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.schema = s
	r.state.complete = true
	r.state.pending = ""
	r.state.placeholder = nil
	r.state.artifacts = nil
}

// SetIncomplete records that building r is blocked on the name missing.
// The placeholder is returned from Placeholder until the next SetSchema.
func (r *Record) SetIncomplete(missing string, placeholder any) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.schema = nil
	r.state.complete = false
	r.state.pending = missing
	r.state.placeholder = placeholder
	r.state.artifacts = nil
}

// Complete reports whether r has a complete schema.
func (r *Record) Complete() bool {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.complete
}

// Pending returns the unresolved name blocking r, if any.
func (r *Record) Pending() string {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.pending
}

// Placeholder returns what SetIncomplete stored.
func (r *Record) Placeholder() any {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.placeholder
}

// Artifact returns a value derived from the current schema, such as a
// compiled validator.
func (r *Record) Artifact(key string) (any, bool) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	v, ok := r.state.artifacts[key]
	return v, ok
}

// SetArtifact caches a value derived from the current schema.
func (r *Record) SetArtifact(key string, v any) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.artifacts == nil {
		r.state.artifacts = map[string]any{}
	}
	r.state.artifacts[key] = v
}

func (r *Record) String() string { return fmt.Sprintf("<record %s>", r.QualName()) }

// cleanDoc trims common indentation the way docstrings are cleaned.
func cleanDoc(doc string) string {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "    "), "\n")
	indent := -1
	for _, l := range lines[1:] {
		t := strings.TrimLeft(l, " ")
		if t == "" {
			continue
		}
		if n := len(l) - len(t); indent < 0 || n < indent {
			indent = n
		}
	}
	out := []string{strings.TrimSpace(lines[0])}
	for _, l := range lines[1:] {
		if indent > 0 && len(l) >= indent {
			l = l[indent:]
		}
		out = append(out, strings.TrimRight(l, " "))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}
