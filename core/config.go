package core

// Extra field behaviors of record nodes.
const (
	ExtraIgnore = "ignore"
	ExtraForbid = "forbid"
	ExtraAllow  = "allow"
)

// CoreConfig is the backend-facing subset of a record's configuration.
// Field-level constraints always take precedence over these defaults.
type CoreConfig struct {
	Title               string `json:"title,omitempty"`
	Strict              *bool  `json:"strict,omitempty"`
	ExtraFieldsBehavior string `json:"extra_fields_behavior,omitempty"`
	StrStripWhitespace  *bool  `json:"str_strip_whitespace,omitempty"`
	StrToLower          *bool  `json:"str_to_lower,omitempty"`
	StrToUpper          *bool  `json:"str_to_upper,omitempty"`
	StrMinLength        *int   `json:"str_min_length,omitempty"`
	StrMaxLength        *int   `json:"str_max_length,omitempty"`
	PopulateByName      *bool  `json:"populate_by_name,omitempty"`
	ValidateDefault     *bool  `json:"validate_default,omitempty"`
	FromAttributes      *bool  `json:"from_attributes,omitempty"`
	SerJSONTimedelta    string `json:"ser_json_timedelta,omitempty"`
}
