package jsonschema

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidForJSONSchemaError reports a node that has no JSON Schema
// rendering, such as an instance check or a plain validator function.
type InvalidForJSONSchemaError struct {
	Message string
}

func (e *InvalidForJSONSchemaError) Error() string { return e.Message }

func invalidf(format string, args ...any) *InvalidForJSONSchemaError {
	return &InvalidForJSONSchemaError{Message: "cannot generate a JSON schema for " + fmt.Sprintf(format, args...)}
}

// AsInvalid reports whether err is or wraps an InvalidForJSONSchemaError.
func AsInvalid(err error) (*InvalidForJSONSchemaError, bool) {
	var e *InvalidForJSONSchemaError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ErrGeneratorUsed is returned when a Generator is asked for a second
// document. Definitions are tracked per generator, so each one renders once.
var ErrGeneratorUsed = errors.New("this JSON schema generator has already been used to generate a JSON schema")

// Warning kinds.
const (
	WarnSkippedChoice          = "skipped-choice"
	WarnSkippedField           = "skipped-field"
	WarnNonSerializableDefault = "non-serializable-default"
)

// Warning is a non-fatal problem found while rendering. The affected part
// of the document was left out.
type Warning struct {
	Kind   string
	Detail string
}

func (w Warning) String() string { return w.Kind + ": " + w.Detail }
