package typeexpr

// Tag names a union member for a callable discriminator:
//
//	UnionOf(Annotate(cat, Tag{"cat"}), Annotate(dog, Tag{"dog"}))
type Tag struct{ Value string }

// Discriminator selects the branch of a union. Field names the property
// holding the tag; Func instead computes the tag from the raw input and
// requires every member to carry a Tag. A Func returning nil means no
// branch matched.
type Discriminator struct {
	Field              string
	Func               func(v any) any
	CustomErrorType    string
	CustomErrorMessage string
}

// WithJSONSchema replaces the JSON Schema rendered for the annotated type.
// Mode limits it to "validation" or "serialization"; empty means both.
type WithJSONSchema struct {
	Schema map[string]any
	Mode   string
}

// Examples adds example values to the rendered JSON Schema.
type Examples struct {
	Values []any
	Mode   string
}

// SkipJSONSchema leaves the annotated member out of the rendered JSON
// Schema. Inside a union only that member is dropped.
type SkipJSONSchema struct{}

// Required and NotRequired override a typed dict's total setting for one
// field.
type (
	Required    struct{}
	NotRequired struct{}
)
