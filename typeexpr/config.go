package typeexpr

import "github.com/reoring/schemagen/core"

// ExtraPolicy controls how keys that match no declared field are handled.
type ExtraPolicy string

const (
	ExtraDefault ExtraPolicy = ""       // Inherit; behaves like ExtraIgnore.
	ExtraIgnore  ExtraPolicy = "ignore" // Drop unknown keys.
	ExtraForbid  ExtraPolicy = "forbid" // Reject unknown keys with an error.
	ExtraAllow   ExtraPolicy = "allow"  // Preserve unknown keys on the instance.
)

// ArbitraryTypes controls what the builder does with types it has no
// schema for.
type ArbitraryTypes string

const (
	ArbitraryAny      ArbitraryTypes = ""         // Accept anything.
	ArbitraryInstance ArbitraryTypes = "instance" // Check the dynamic Go type.
	ArbitraryForbid   ArbitraryTypes = "forbid"   // Fail schema generation.
)

// AliasGenerator derives an external name from a field name.
type AliasGenerator func(field string) string

// Config is the per-record configuration. Unset pointer fields inherit
// from the enclosing config; field-level annotations override all of them.
type Config struct {
	Title              string         `mapstructure:"title" yaml:"title,omitempty"`
	Strict             *bool          `mapstructure:"strict" yaml:"strict,omitempty"`
	Extra              ExtraPolicy    `mapstructure:"extra" yaml:"extra,omitempty"`
	StrStripWhitespace *bool          `mapstructure:"str_strip_whitespace" yaml:"str_strip_whitespace,omitempty"`
	StrToLower         *bool          `mapstructure:"str_to_lower" yaml:"str_to_lower,omitempty"`
	StrToUpper         *bool          `mapstructure:"str_to_upper" yaml:"str_to_upper,omitempty"`
	StrMinLength       *int           `mapstructure:"str_min_length" yaml:"str_min_length,omitempty"`
	StrMaxLength       *int           `mapstructure:"str_max_length" yaml:"str_max_length,omitempty"`
	PopulateByName     *bool          `mapstructure:"populate_by_name" yaml:"populate_by_name,omitempty"`
	ValidateDefault    *bool          `mapstructure:"validate_default" yaml:"validate_default,omitempty"`
	FromAttributes     *bool          `mapstructure:"from_attributes" yaml:"from_attributes,omitempty"`
	ArbitraryTypes     ArbitraryTypes `mapstructure:"arbitrary_types" yaml:"arbitrary_types,omitempty"`
	DeferBuild         bool           `mapstructure:"defer_build" yaml:"defer_build,omitempty"`
	SerJSONTimedelta   string         `mapstructure:"ser_json_timedelta" yaml:"ser_json_timedelta,omitempty"`
	JSONSchemaExtra    map[string]any `mapstructure:"json_schema_extra" yaml:"json_schema_extra,omitempty"`
	AliasGenerator     AliasGenerator `mapstructure:"-" yaml:"-"`
}

// Merge returns c overlaid with every field set in over.
func (c Config) Merge(over Config) Config {
	out := c
	if over.Title != "" {
		out.Title = over.Title
	}
	if over.Strict != nil {
		out.Strict = over.Strict
	}
	if over.Extra != ExtraDefault {
		out.Extra = over.Extra
	}
	if over.StrStripWhitespace != nil {
		out.StrStripWhitespace = over.StrStripWhitespace
	}
	if over.StrToLower != nil {
		out.StrToLower = over.StrToLower
	}
	if over.StrToUpper != nil {
		out.StrToUpper = over.StrToUpper
	}
	if over.StrMinLength != nil {
		out.StrMinLength = over.StrMinLength
	}
	if over.StrMaxLength != nil {
		out.StrMaxLength = over.StrMaxLength
	}
	if over.PopulateByName != nil {
		out.PopulateByName = over.PopulateByName
	}
	if over.ValidateDefault != nil {
		out.ValidateDefault = over.ValidateDefault
	}
	if over.FromAttributes != nil {
		out.FromAttributes = over.FromAttributes
	}
	if over.ArbitraryTypes != ArbitraryAny {
		out.ArbitraryTypes = over.ArbitraryTypes
	}
	if over.DeferBuild {
		out.DeferBuild = true
	}
	if over.SerJSONTimedelta != "" {
		out.SerJSONTimedelta = over.SerJSONTimedelta
	}
	if over.JSONSchemaExtra != nil {
		out.JSONSchemaExtra = over.JSONSchemaExtra
	}
	if over.AliasGenerator != nil {
		out.AliasGenerator = over.AliasGenerator
	}
	return out
}

// Core returns the backend-facing part of c. Title defaults to title when
// the config sets none.
func (c Config) Core(title string) *core.CoreConfig {
	if c.Title != "" {
		title = c.Title
	}
	cc := &core.CoreConfig{
		Title:              title,
		Strict:             c.Strict,
		StrStripWhitespace: c.StrStripWhitespace,
		StrToLower:         c.StrToLower,
		StrToUpper:         c.StrToUpper,
		StrMinLength:       c.StrMinLength,
		StrMaxLength:       c.StrMaxLength,
		PopulateByName:     c.PopulateByName,
		ValidateDefault:    c.ValidateDefault,
		FromAttributes:     c.FromAttributes,
		SerJSONTimedelta:   c.SerJSONTimedelta,
	}
	if c.Extra != ExtraDefault {
		cc.ExtraFieldsBehavior = string(c.Extra)
	}
	return cc
}

// IsStrict reports whether strict mode is on.
func (c Config) IsStrict() bool { return c.Strict != nil && *c.Strict }
