package schemagen

import (
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/validator"
)

// Issue and Issues are the validation errors of Validate and ValidateJSON.
type (
	Issue  = validator.Issue
	Issues = validator.Issues
)

// AsIssues extracts Issues from an error.
func AsIssues(err error) (Issues, bool) { return validator.AsIssues(err) }

// IsNotFullyDefined reports whether err is a schema that still waits for an
// undefined name; define it and call Rebuild.
func IsNotFullyDefined(err error) bool {
	_, ok := core.AsNotFullyDefined(err)
	return ok
}
