package core

// Metadata is the side-channel attached to every node. Keys are owned by the
// package that writes them; the accessors below cover the ones shared across
// the builder, the passes and the JSON Schema renderer.
type Metadata map[string]any

// Well-known metadata keys.
const (
	MetaJSFunctions           = "pydantic_js_functions"
	MetaJSAnnotationFunctions = "pydantic_js_annotation_functions"
	MetaInvalid               = "invalid"
	MetaDiscriminator         = "pydantic.internal.union_discriminator"
	MetaTaggedUnionTag        = "pydantic.internal.tagged_union_tag"
	// MetaPreferPositional asks the JSON Schema renderer to render an
	// arguments node as an array when both shapes are possible.
	MetaPreferPositional = "pydantic_js_prefer_positional_arguments"
)

// JSONSchemaHandler is handed to JSON Schema hooks. Call continues with the
// default rendering of a node; ResolveRef follows a {"$ref": ...} value to
// the stored definition so hooks can modify it in place.
type JSONSchemaHandler interface {
	Call(s Schema) (map[string]any, error)
	ResolveRef(js map[string]any) (map[string]any, error)
	Mode() string
}

// JSFunc customizes the JSON Schema rendered for a node.
type JSFunc func(s Schema, h JSONSchemaHandler) (map[string]any, error)

// MetadataOf returns the metadata of s, allocating it when missing.
func MetadataOf(s Schema) Metadata {
	b := s.Base()
	if b.Metadata == nil {
		b.Metadata = Metadata{}
	}
	return b.Metadata
}

// JSFunctions returns the node-level JSON Schema hooks.
func (m Metadata) JSFunctions() []JSFunc {
	fs, _ := m[MetaJSFunctions].([]JSFunc)
	return fs
}

// JSAnnotationFunctions returns hooks contributed by annotated metadata.
func (m Metadata) JSAnnotationFunctions() []JSFunc {
	fs, _ := m[MetaJSAnnotationFunctions].([]JSFunc)
	return fs
}

// AddJSFunction appends a node-level hook.
func AddJSFunction(s Schema, fn JSFunc) {
	m := MetadataOf(s)
	m[MetaJSFunctions] = append(append([]JSFunc{}, m.JSFunctions()...), fn)
}

// AddJSAnnotationFunctions appends annotation hooks.
func AddJSAnnotationFunctions(s Schema, fns ...JSFunc) {
	if len(fns) == 0 {
		return
	}
	m := MetadataOf(s)
	m[MetaJSAnnotationFunctions] = append(append([]JSFunc{}, m.JSAnnotationFunctions()...), fns...)
}

// IsInvalid reports whether s was marked as referencing an undefined ref.
func IsInvalid(s Schema) bool {
	m := s.Base().Metadata
	if m == nil {
		return false
	}
	v, _ := m[MetaInvalid].(bool)
	return v
}

// MarkInvalid flags s as referencing an undefined ref.
func MarkInvalid(s Schema) { MetadataOf(s)[MetaInvalid] = true }

// SetDiscriminatorPlaceholder records a discriminator that could not be
// applied yet because a union member was still being defined.
func SetDiscriminatorPlaceholder(s Schema, d any) {
	MetadataOf(s)[MetaDiscriminator] = d
}

// PopDiscriminatorPlaceholder removes and returns a deferred discriminator.
func PopDiscriminatorPlaceholder(s Schema) (any, bool) {
	m := s.Base().Metadata
	if m == nil {
		return nil, false
	}
	d, ok := m[MetaDiscriminator]
	if ok {
		delete(m, MetaDiscriminator)
	}
	return d, ok
}

// TaggedUnionTag returns the tag attached to a union member.
func TaggedUnionTag(s Schema) (any, bool) {
	m := s.Base().Metadata
	if m == nil {
		return nil, false
	}
	t, ok := m[MetaTaggedUnionTag]
	return t, ok && t != nil
}

// SetTaggedUnionTag attaches a tag used by callable discriminators.
func SetTaggedUnionTag(s Schema, tag any) { MetadataOf(s)[MetaTaggedUnionTag] = tag }
