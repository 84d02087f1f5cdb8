// Package declfile reads record declarations from YAML files and declares
// them as typeexpr records, so that schemas can be built without writing
// Go code.
//
//	module: zoo
//	records:
//	  - name: Cat
//	    fields:
//	      - {name: kind, type: 'Literal["cat"]'}
//	      - {name: lives, type: int, default: 9, constraints: {ge: 0}}
package declfile

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/reoring/schemagen/typeexpr"
)

// Record kinds accepted in the kind key.
const (
	KindModel      = "model"
	KindRootModel  = "root_model"
	KindTypedDict  = "typed_dict"
	KindNamedTuple = "named_tuple"
	KindDataclass  = "dataclass"
)

// File is a parsed declaration file.
type File struct {
	Module  string       `yaml:"module"`
	Config  *ConfigDecl  `yaml:"config,omitempty"`
	Enums   []EnumDecl   `yaml:"enums,omitempty"`
	Records []RecordDecl `yaml:"records"`
}

// ConfigDecl is a record config. AliasGenerator names a generator of the
// alias package: camel, pascal or snake.
type ConfigDecl struct {
	typeexpr.Config `yaml:",inline"`
	AliasGenerator  string `yaml:"alias_generator,omitempty"`
}

// EnumDecl declares an enum with ordered members.
type EnumDecl struct {
	Name    string           `yaml:"name"`
	Members []EnumMemberDecl `yaml:"members"`
}

type EnumMemberDecl struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// RecordDecl declares one record. Root is the type of a root model; Params
// names the type variables of a generic record.
type RecordDecl struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind,omitempty"`
	Doc    string      `yaml:"doc,omitempty"`
	Bases  []string    `yaml:"bases,omitempty"`
	Params []string    `yaml:"params,omitempty"`
	Config *ConfigDecl `yaml:"config,omitempty"`
	Total  *bool       `yaml:"total,omitempty"`
	Root   string      `yaml:"root,omitempty"`
	Fields []FieldDecl `yaml:"fields,omitempty"`
}

// FieldDecl declares one field. Type is type source text such as
// "list[Cat] | None". Union lists tagged members instead, for use with an
// expression discriminator. A present default key, even null, makes the
// field optional.
type FieldDecl struct {
	Name               string             `yaml:"name"`
	Type               string             `yaml:"type,omitempty"`
	Union              []UnionMemberDecl  `yaml:"union,omitempty"`
	Default            any                `yaml:"default,omitempty"`
	HasDefault         bool               `yaml:"-"`
	Required           *bool              `yaml:"required,omitempty"`
	Alias              string             `yaml:"alias,omitempty"`
	ValidationAlias    string             `yaml:"validation_alias,omitempty"`
	SerializationAlias string             `yaml:"serialization_alias,omitempty"`
	Title              string             `yaml:"title,omitempty"`
	Description        string             `yaml:"description,omitempty"`
	Examples           []any              `yaml:"examples,omitempty"`
	Exclude            bool               `yaml:"exclude,omitempty"`
	Frozen             bool               `yaml:"frozen,omitempty"`
	ValidateDefault    *bool              `yaml:"validate_default,omitempty"`
	Discriminator      *DiscriminatorDecl `yaml:"discriminator,omitempty"`
	Constraints        ConstraintsDecl    `yaml:"constraints,omitempty"`
	Predicate          string             `yaml:"predicate,omitempty"`
	JSONSchemaExtra    map[string]any     `yaml:"json_schema_extra,omitempty"`
	// Dataclass fields only.
	Init     *bool `yaml:"init,omitempty"`
	InitOnly bool  `yaml:"init_only,omitempty"`
	KwOnly   bool  `yaml:"kw_only,omitempty"`
}

// UnmarshalYAML records whether the default key is present, since a null
// default still makes the field optional.
func (f *FieldDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain FieldDecl
	if err := n.Decode((*plain)(f)); err != nil {
		return err
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "default" {
			f.HasDefault = true
		}
	}
	return nil
}

// UnionMemberDecl is one member of a tagged union.
type UnionMemberDecl struct {
	Type string `yaml:"type"`
	Tag  string `yaml:"tag,omitempty"`
}

// DiscriminatorDecl is either a field name or an expression computing the
// tag from the input, bound as value:
//
//	discriminator: kind
//	discriminator: {expr: 'value.kind ?? "cat"'}
type DiscriminatorDecl struct {
	Field              string `yaml:"field,omitempty"`
	Expr               string `yaml:"expr,omitempty"`
	CustomErrorType    string `yaml:"custom_error_type,omitempty"`
	CustomErrorMessage string `yaml:"custom_error_message,omitempty"`
}

// UnmarshalYAML accepts a bare field name as well as the mapping form.
func (d *DiscriminatorDecl) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		d.Field = n.Value
		return nil
	}
	type plain DiscriminatorDecl
	return n.Decode((*plain)(d))
}

// ConstraintsDecl carries the known constraints of a field.
type ConstraintsDecl struct {
	Gt              any    `yaml:"gt,omitempty"`
	Ge              any    `yaml:"ge,omitempty"`
	Lt              any    `yaml:"lt,omitempty"`
	Le              any    `yaml:"le,omitempty"`
	MultipleOf      any    `yaml:"multiple_of,omitempty"`
	MinLength       *int   `yaml:"min_length,omitempty"`
	MaxLength       *int   `yaml:"max_length,omitempty"`
	Pattern         string `yaml:"pattern,omitempty"`
	Strict          *bool  `yaml:"strict,omitempty"`
	StripWhitespace bool   `yaml:"strip_whitespace,omitempty"`
	ToLower         bool   `yaml:"to_lower,omitempty"`
	ToUpper         bool   `yaml:"to_upper,omitempty"`
}

// Parse decodes a declaration file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse declarations")
	}
	if f.Module == "" {
		f.Module = "main"
	}
	return &f, nil
}

// Load reads and decodes the declaration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return f, nil
}
