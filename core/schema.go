package core

import "time"

// Schema is one node of the core schema graph. The value returned by Type is
// the wire tag understood by the backend; it fully determines which fields
// of the concrete struct are meaningful.
type Schema interface {
	Type() string
	Base() *Common
}

// Common carries the keys shared by every node.
type Common struct {
	Ref           string    `json:"ref,omitempty"`
	Metadata      Metadata  `json:"metadata,omitempty"`
	Serialization SerSchema `json:"serialization,omitempty"`
}

// Base returns the shared keys of a node.
func (c *Common) Base() *Common { return c }

// Ref returns the ref of a node, or "" when it has none.
func Ref(s Schema) string {
	if s == nil {
		return ""
	}
	return s.Base().Ref
}

// ---- leaves ----

type AnySchema struct{ Common }

type NoneSchema struct {
	Common
	Strict *bool `json:"strict,omitempty"`
}

type BoolSchema struct {
	Common
	Strict *bool `json:"strict,omitempty"`
}

type IntSchema struct {
	Common
	MultipleOf *int64 `json:"multiple_of,omitempty"`
	Le         *int64 `json:"le,omitempty"`
	Ge         *int64 `json:"ge,omitempty"`
	Lt         *int64 `json:"lt,omitempty"`
	Gt         *int64 `json:"gt,omitempty"`
	Strict     *bool  `json:"strict,omitempty"`
}

type FloatSchema struct {
	Common
	AllowInfNaN *bool    `json:"allow_inf_nan,omitempty"`
	MultipleOf  *float64 `json:"multiple_of,omitempty"`
	Le          *float64 `json:"le,omitempty"`
	Ge          *float64 `json:"ge,omitempty"`
	Lt          *float64 `json:"lt,omitempty"`
	Gt          *float64 `json:"gt,omitempty"`
	Strict      *bool    `json:"strict,omitempty"`
}

type StrSchema struct {
	Common
	Pattern         string `json:"pattern,omitempty"`
	MaxLength       *int   `json:"max_length,omitempty"`
	MinLength       *int   `json:"min_length,omitempty"`
	StripWhitespace *bool  `json:"strip_whitespace,omitempty"`
	ToLower         *bool  `json:"to_lower,omitempty"`
	ToUpper         *bool  `json:"to_upper,omitempty"`
	Strict          *bool  `json:"strict,omitempty"`
}

type BytesSchema struct {
	Common
	MaxLength *int  `json:"max_length,omitempty"`
	MinLength *int  `json:"min_length,omitempty"`
	Strict    *bool `json:"strict,omitempty"`
}

type DateSchema struct {
	Common
	Le     *time.Time `json:"le,omitempty"`
	Ge     *time.Time `json:"ge,omitempty"`
	Lt     *time.Time `json:"lt,omitempty"`
	Gt     *time.Time `json:"gt,omitempty"`
	Strict *bool      `json:"strict,omitempty"`
}

type TimeSchema struct {
	Common
	Le     *time.Time `json:"le,omitempty"`
	Ge     *time.Time `json:"ge,omitempty"`
	Lt     *time.Time `json:"lt,omitempty"`
	Gt     *time.Time `json:"gt,omitempty"`
	Strict *bool      `json:"strict,omitempty"`
}

type DatetimeSchema struct {
	Common
	Le     *time.Time `json:"le,omitempty"`
	Ge     *time.Time `json:"ge,omitempty"`
	Lt     *time.Time `json:"lt,omitempty"`
	Gt     *time.Time `json:"gt,omitempty"`
	Strict *bool      `json:"strict,omitempty"`
}

type TimedeltaSchema struct {
	Common
	Le     *time.Duration `json:"le,omitempty"`
	Ge     *time.Duration `json:"ge,omitempty"`
	Lt     *time.Duration `json:"lt,omitempty"`
	Gt     *time.Duration `json:"gt,omitempty"`
	Strict *bool          `json:"strict,omitempty"`
}

type UUIDSchema struct {
	Common
	Version *int  `json:"version,omitempty"`
	Strict  *bool `json:"strict,omitempty"`
}

// LiteralSchema accepts exactly one of Expected.
type LiteralSchema struct {
	Common
	Expected []any `json:"expected"`
}

// EnumSchema accepts the values of an enumeration. Cls is the declaring
// enum type and SubType is "str", "int", "float" or "" for mixed members.
type EnumSchema struct {
	Common
	Cls     any    `json:"cls"`
	Members []any  `json:"members"`
	SubType string `json:"sub_type,omitempty"`
	Strict  *bool  `json:"strict,omitempty"`
}

// IsInstanceSchema accepts values whose dynamic type matches Cls.
type IsInstanceSchema struct {
	Common
	Cls     any    `json:"cls"`
	ClsRepr string `json:"cls_repr,omitempty"`
}

type CallableSchema struct{ Common }

// ---- containers ----

type ListSchema struct {
	Common
	ItemsSchema Schema `json:"items_schema,omitempty"`
	MinLength   *int   `json:"min_length,omitempty"`
	MaxLength   *int   `json:"max_length,omitempty"`
	FailFast    *bool  `json:"fail_fast,omitempty"`
	Strict      *bool  `json:"strict,omitempty"`
}

type SetSchema struct {
	Common
	ItemsSchema Schema `json:"items_schema,omitempty"`
	MinLength   *int   `json:"min_length,omitempty"`
	MaxLength   *int   `json:"max_length,omitempty"`
	FailFast    *bool  `json:"fail_fast,omitempty"`
	Strict      *bool  `json:"strict,omitempty"`
}

type FrozenSetSchema struct {
	Common
	ItemsSchema Schema `json:"items_schema,omitempty"`
	MinLength   *int   `json:"min_length,omitempty"`
	MaxLength   *int   `json:"max_length,omitempty"`
	FailFast    *bool  `json:"fail_fast,omitempty"`
	Strict      *bool  `json:"strict,omitempty"`
}

// TupleSchema validates positional items. When VariadicItemIndex is set the
// item at that index may repeat zero or more times.
type TupleSchema struct {
	Common
	ItemsSchema       []Schema `json:"items_schema"`
	VariadicItemIndex *int     `json:"variadic_item_index,omitempty"`
	MinLength         *int     `json:"min_length,omitempty"`
	MaxLength         *int     `json:"max_length,omitempty"`
	FailFast          *bool    `json:"fail_fast,omitempty"`
	Strict            *bool    `json:"strict,omitempty"`
}

type DictSchema struct {
	Common
	KeysSchema   Schema `json:"keys_schema,omitempty"`
	ValuesSchema Schema `json:"values_schema,omitempty"`
	MinLength    *int   `json:"min_length,omitempty"`
	MaxLength    *int   `json:"max_length,omitempty"`
	Strict       *bool  `json:"strict,omitempty"`
}

// ---- function wrappers ----

type FunctionBeforeSchema struct {
	Common
	Function ValidatorFunc `json:"function"`
	Schema   Schema        `json:"schema"`
}

type FunctionAfterSchema struct {
	Common
	Function ValidatorFunc `json:"function"`
	Schema   Schema        `json:"schema"`
}

type FunctionWrapSchema struct {
	Common
	Function ValidatorFunc `json:"function"`
	Schema   Schema        `json:"schema"`
}

type FunctionPlainSchema struct {
	Common
	Function ValidatorFunc `json:"function"`
}

// ---- wrappers ----

// DefaultSchema supplies Default (or the result of DefaultFactory) when the
// value is missing.
type DefaultSchema struct {
	Common
	Schema          Schema     `json:"schema"`
	Default         any        `json:"default"`
	DefaultFactory  func() any `json:"default_factory,omitempty"`
	OnError         string     `json:"on_error,omitempty"`
	ValidateDefault *bool      `json:"validate_default,omitempty"`
}

// HasFactory reports whether the default is produced by a factory.
func (d *DefaultSchema) HasFactory() bool { return d.DefaultFactory != nil }

type NullableSchema struct {
	Common
	Schema Schema `json:"schema"`
	Strict *bool  `json:"strict,omitempty"`
}

// UnionChoice is one member of a union. Tag is nil unless the member was
// annotated with a tag for callable discriminators.
type UnionChoice struct {
	Schema Schema
	Tag    any
}

type UnionSchema struct {
	Common
	Choices            []UnionChoice `json:"choices"`
	AutoCollapse       *bool         `json:"auto_collapse,omitempty"`
	CustomErrorType    string        `json:"custom_error_type,omitempty"`
	CustomErrorMessage string        `json:"custom_error_message,omitempty"`
	Mode               string        `json:"mode,omitempty"`
	Strict             *bool         `json:"strict,omitempty"`
}

// Schemas returns the member schemas without tags.
func (u *UnionSchema) Schemas() []Schema {
	out := make([]Schema, len(u.Choices))
	for i, c := range u.Choices {
		out[i] = c.Schema
	}
	return out
}

// TaggedUnionSchema dispatches on a discriminator value. Discriminator is a
// field name (string), a list of alias paths ([][]any) or a func(any) any.
type TaggedUnionSchema struct {
	Common
	Choices            *TagMap `json:"choices"`
	Discriminator      any     `json:"discriminator"`
	CustomErrorType    string  `json:"custom_error_type,omitempty"`
	CustomErrorMessage string  `json:"custom_error_message,omitempty"`
	Strict             *bool   `json:"strict,omitempty"`
	FromAttributes     *bool   `json:"from_attributes,omitempty"`
}

type ChainSchema struct {
	Common
	Steps []Schema `json:"steps"`
}

// ---- records ----

// ModelField is one named field of a model-fields node.
type ModelField struct {
	Name                 string   `json:"-"`
	Schema               Schema   `json:"schema"`
	ValidationAlias      any      `json:"validation_alias,omitempty"`
	SerializationAlias   string   `json:"serialization_alias,omitempty"`
	SerializationExclude *bool    `json:"serialization_exclude,omitempty"`
	Frozen               *bool    `json:"frozen,omitempty"`
	Metadata             Metadata `json:"metadata,omitempty"`
}

func (*ModelField) Type() string { return "model-field" }

// TypedDictField is one named field of a typed-dict node.
type TypedDictField struct {
	Name                 string   `json:"-"`
	Schema               Schema   `json:"schema"`
	Required             *bool    `json:"required,omitempty"`
	ValidationAlias      any      `json:"validation_alias,omitempty"`
	SerializationAlias   string   `json:"serialization_alias,omitempty"`
	SerializationExclude *bool    `json:"serialization_exclude,omitempty"`
	Metadata             Metadata `json:"metadata,omitempty"`
}

func (*TypedDictField) Type() string { return "typed-dict-field" }

// ComputedField is an output-only property evaluated during serialization.
type ComputedField struct {
	PropertyName string   `json:"property_name"`
	ReturnSchema Schema   `json:"return_schema"`
	Alias        string   `json:"alias,omitempty"`
	Function     any      `json:"-"`
	Metadata     Metadata `json:"metadata,omitempty"`
}

func (*ComputedField) Type() string { return "computed-field" }

type ModelFieldsSchema struct {
	Common
	Fields         []*ModelField    `json:"fields"`
	ModelName      string           `json:"model_name,omitempty"`
	ComputedFields []*ComputedField `json:"computed_fields,omitempty"`
	ExtrasSchema   Schema           `json:"extras_schema,omitempty"`
	ExtraBehavior  string           `json:"extra_behavior,omitempty"`
	Strict         *bool            `json:"strict,omitempty"`
	FromAttributes *bool            `json:"from_attributes,omitempty"`
}

// Field returns the named field, or nil.
func (m *ModelFieldsSchema) Field(name string) *ModelField {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ModelSchema wraps the inner fields schema of a record. Cls is the record
// declaration the node was generated from.
type ModelSchema struct {
	Common
	Cls        any         `json:"cls"`
	Schema     Schema      `json:"schema"`
	CustomInit *bool       `json:"custom_init,omitempty"`
	RootModel  *bool       `json:"root_model,omitempty"`
	PostInit   string      `json:"post_init,omitempty"`
	Config     *CoreConfig `json:"config,omitempty"`
	Strict     *bool       `json:"strict,omitempty"`
}

type TypedDictSchema struct {
	Common
	Cls            any               `json:"cls,omitempty"`
	Fields         []*TypedDictField `json:"fields"`
	ComputedFields []*ComputedField  `json:"computed_fields,omitempty"`
	ExtrasSchema   Schema            `json:"extras_schema,omitempty"`
	ExtraBehavior  string            `json:"extra_behavior,omitempty"`
	Total          *bool             `json:"total,omitempty"`
	Strict         *bool             `json:"strict,omitempty"`
	Config         *CoreConfig       `json:"config,omitempty"`
}

// Field returns the named field, or nil.
func (t *TypedDictSchema) Field(name string) *TypedDictField {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// DataclassField is one field of a dataclass-args node. A field with Init
// false is never read from input and takes its default; an InitOnly field is
// handed to post-init instead of being stored.
type DataclassField struct {
	Name                 string   `json:"name"`
	Schema               Schema   `json:"schema"`
	KwOnly               *bool    `json:"kw_only,omitempty"`
	Init                 *bool    `json:"init,omitempty"`
	InitOnly             *bool    `json:"init_only,omitempty"`
	ValidationAlias      any      `json:"validation_alias,omitempty"`
	SerializationAlias   string   `json:"serialization_alias,omitempty"`
	SerializationExclude *bool    `json:"serialization_exclude,omitempty"`
	Frozen               *bool    `json:"frozen,omitempty"`
	Metadata             Metadata `json:"metadata,omitempty"`
}

func (*DataclassField) Type() string { return "dataclass-field" }

// InInit reports whether the field is read from input.
func (f *DataclassField) InInit() bool { return f.Init == nil || *f.Init }

// DataclassArgsSchema validates the constructor arguments of a dataclass,
// given positionally or by keyword.
type DataclassArgsSchema struct {
	Common
	DataclassName   string            `json:"dataclass_name"`
	Fields          []*DataclassField `json:"fields"`
	ComputedFields  []*ComputedField  `json:"computed_fields,omitempty"`
	CollectInitOnly *bool             `json:"collect_init_only,omitempty"`
	ExtraBehavior   string            `json:"extra_behavior,omitempty"`
}

// Field returns the named field, or nil.
func (d *DataclassArgsSchema) Field(name string) *DataclassField {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// DataclassSchema builds an instance of Cls from its validated arguments.
// Fields lists the stored field names in order. PostInit, when set, is a
// func(*Instance) error or func(*Instance, map[string]any) error called
// with the instance and the init-only values.
type DataclassSchema struct {
	Common
	Cls      any         `json:"cls"`
	Schema   Schema      `json:"schema"`
	Fields   []string    `json:"fields"`
	PostInit any         `json:"post_init,omitempty"`
	Config   *CoreConfig `json:"config,omitempty"`
	Strict   *bool       `json:"strict,omitempty"`
	Frozen   *bool       `json:"frozen,omitempty"`
}

// Parameter modes of an arguments node.
const (
	ModePositionalOnly      = "positional_only"
	ModePositionalOrKeyword = "positional_or_keyword"
	ModeKeywordOnly         = "keyword_only"
)

type ArgumentsParameter struct {
	Name   string `json:"name"`
	Schema Schema `json:"schema"`
	Mode   string `json:"mode,omitempty"`
	Alias  string `json:"alias,omitempty"`
}

type ArgumentsSchema struct {
	Common
	ArgumentsSchema []*ArgumentsParameter `json:"arguments_schema"`
	PopulateByName  *bool                 `json:"populate_by_name,omitempty"`
	VarArgsSchema   Schema                `json:"var_args_schema,omitempty"`
	VarKwargsSchema Schema                `json:"var_kwargs_schema,omitempty"`
}

// CallSchema validates arguments, calls Function and validates the result
// with ReturnSchema when it is set.
type CallSchema struct {
	Common
	ArgumentsSchema Schema `json:"arguments_schema"`
	Function        any    `json:"function"`
	FunctionName    string `json:"function_name,omitempty"`
	ReturnSchema    Schema `json:"return_schema,omitempty"`
}

// ---- references ----

// DefinitionsSchema bundles named definitions with the schema that uses them.
type DefinitionsSchema struct {
	Common
	Schema      Schema   `json:"schema"`
	Definitions []Schema `json:"definitions"`
}

// DefinitionReferenceSchema points into the active definitions table.
type DefinitionReferenceSchema struct {
	Common
	SchemaRef string `json:"schema_ref"`
}

func (*AnySchema) Type() string                 { return "any" }
func (*NoneSchema) Type() string                { return "none" }
func (*BoolSchema) Type() string                { return "bool" }
func (*IntSchema) Type() string                 { return "int" }
func (*FloatSchema) Type() string               { return "float" }
func (*StrSchema) Type() string                 { return "str" }
func (*BytesSchema) Type() string               { return "bytes" }
func (*DateSchema) Type() string                { return "date" }
func (*TimeSchema) Type() string                { return "time" }
func (*DatetimeSchema) Type() string            { return "datetime" }
func (*TimedeltaSchema) Type() string           { return "timedelta" }
func (*UUIDSchema) Type() string                { return "uuid" }
func (*LiteralSchema) Type() string             { return "literal" }
func (*EnumSchema) Type() string                { return "enum" }
func (*IsInstanceSchema) Type() string          { return "is-instance" }
func (*CallableSchema) Type() string            { return "callable" }
func (*ListSchema) Type() string                { return "list" }
func (*SetSchema) Type() string                 { return "set" }
func (*FrozenSetSchema) Type() string           { return "frozenset" }
func (*TupleSchema) Type() string               { return "tuple" }
func (*DictSchema) Type() string                { return "dict" }
func (*FunctionBeforeSchema) Type() string      { return "function-before" }
func (*FunctionAfterSchema) Type() string       { return "function-after" }
func (*FunctionWrapSchema) Type() string        { return "function-wrap" }
func (*FunctionPlainSchema) Type() string       { return "function-plain" }
func (*DefaultSchema) Type() string             { return "default" }
func (*NullableSchema) Type() string            { return "nullable" }
func (*UnionSchema) Type() string               { return "union" }
func (*TaggedUnionSchema) Type() string         { return "tagged-union" }
func (*ChainSchema) Type() string               { return "chain" }
func (*ModelFieldsSchema) Type() string         { return "model-fields" }
func (*ModelSchema) Type() string               { return "model" }
func (*TypedDictSchema) Type() string           { return "typed-dict" }
func (*DataclassArgsSchema) Type() string       { return "dataclass-args" }
func (*DataclassSchema) Type() string           { return "dataclass" }
func (*ArgumentsSchema) Type() string           { return "arguments" }
func (*CallSchema) Type() string                { return "call" }
func (*DefinitionsSchema) Type() string         { return "definitions" }
func (*DefinitionReferenceSchema) Type() string { return "definition-ref" }

// DefinitionRef returns a reference node pointing at ref.
func DefinitionRef(ref string) *DefinitionReferenceSchema {
	return &DefinitionReferenceSchema{SchemaRef: ref}
}

// IsFunctionWithInnerSchema reports whether s is a before/after/wrap
// function node, the three kinds that delegate to an inner schema.
func IsFunctionWithInnerSchema(s Schema) bool {
	switch s.(type) {
	case *FunctionBeforeSchema, *FunctionAfterSchema, *FunctionWrapSchema:
		return true
	}
	return false
}

// InnerSchema returns the single wrapped child of wrapper nodes (function,
// default, nullable, definitions, model, dataclass), or nil.
func InnerSchema(s Schema) Schema {
	switch n := s.(type) {
	case *FunctionBeforeSchema:
		return n.Schema
	case *FunctionAfterSchema:
		return n.Schema
	case *FunctionWrapSchema:
		return n.Schema
	case *DefaultSchema:
		return n.Schema
	case *NullableSchema:
		return n.Schema
	case *DefinitionsSchema:
		return n.Schema
	case *ModelSchema:
		return n.Schema
	case *DataclassSchema:
		return n.Schema
	}
	return nil
}

// IsListLike reports whether s is a list, set or frozenset node.
func IsListLike(s Schema) bool {
	switch s.(type) {
	case *ListSchema, *SetSchema, *FrozenSetSchema:
		return true
	}
	return false
}
