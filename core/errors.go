package core

import (
	"errors"
	"fmt"
)

// Usage error codes (stable, machine readable).
const (
	CodeInvalidConstraint             = "invalid-constraint"
	CodeValidatorSignature            = "validator-signature"
	CodeFieldSerializerSignature      = "field-serializer-signature"
	CodeModelSerializerSignature      = "model-serializer-signature"
	CodeValidatorInstanceMethod       = "validator-instance-method"
	CodeModelSerializerInstanceMethod = "model-serializer-instance-method"
	CodeMultipleFieldSerializers      = "multiple-field-serializers"
	CodeDecoratorMissingField         = "decorator-missing-field"
	CodeValidatorNoFields             = "validator-no-fields"
	CodeValidatorInvalidFields        = "validator-invalid-fields"
	CodeValidatorEachItem             = "validator-each-item"
	CodeReservedName                  = "reserved-name"
	CodeGenericParameters             = "generic-parameters"
	CodeSchemaForUnknownType          = "schema-for-unknown-type"
	CodeModelFieldMissingAnnotation   = "model-field-missing-annotation"
	CodeDiscriminatorNoField          = "discriminator-no-field"
	CodeDiscriminatorAlias            = "discriminator-alias"
	CodeDiscriminatorAliasType        = "discriminator-alias-type"
	CodeDiscriminatorNeedsLiteral     = "discriminator-needs-literal"
	CodeDiscriminatorDuplicateValue   = "discriminator-duplicate-value"
	CodeDiscriminatorInvalidVariant   = "discriminator-invalid-variant"
	CodeDiscriminatorUnionSize        = "discriminator-union-size"
	CodeDiscriminatorValidator        = "discriminator-validator"
	CodeCallableDiscriminatorNoTag    = "callable-discriminator-no-tag"
	CodeInvalidCoreSchema             = "invalid-core-schema"
	CodeUndefinedAnnotation           = "undefined-annotation"
	CodeClassNotFullyDefined          = "class-not-fully-defined"
	CodeInconsistentMRO               = "inconsistent-mro"
	CodeComputedFieldSignature        = "computed-field-signature"
	CodeDataclassFieldOrder           = "dataclass-field-order"
)

// ErrOmit is returned by a JSON Schema hook to leave its node out of the
// rendered schema.
var ErrOmit = errors.New("omitted from JSON schema")

// SchemaError is a schema-generation usage error: a structural problem with
// the user's declarations. It is never recoverable by retrying.
type SchemaError struct {
	Code    string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s [code=%s]", e.Message, e.Code)
}

// Errorf builds a SchemaError.
func Errorf(code, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err carries a SchemaError with the given code.
func IsCode(err error, code string) bool {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// UndefinedAnnotationError reports a forward reference that could not be
// resolved in the active namespaces. Builds that hit it can be retried once
// Name is defined.
type UndefinedAnnotationError struct {
	Name    string
	Message string
}

func (e *UndefinedAnnotationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("name %q is not defined", e.Name)
}

// Code returns CodeUndefinedAnnotation.
func (e *UndefinedAnnotationError) Code() string { return CodeUndefinedAnnotation }

// AsUndefinedAnnotation extracts an UndefinedAnnotationError from err.
func AsUndefinedAnnotation(err error) (*UndefinedAnnotationError, bool) {
	var ue *UndefinedAnnotationError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// NotFullyDefinedError is returned when an incomplete record is used.
type NotFullyDefinedError struct {
	TypeName string
	// Missing is the unresolved name, when known.
	Missing string
}

func (e *NotFullyDefinedError) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("`%s` is not fully defined; you should define `%s`, then call Rebuild", e.TypeName, e.Missing)
	}
	return fmt.Sprintf("`%s` is not fully defined; you should define all referenced types, then call Rebuild", e.TypeName)
}

// Code returns CodeClassNotFullyDefined.
func (e *NotFullyDefinedError) Code() string { return CodeClassNotFullyDefined }

// AsNotFullyDefined extracts a NotFullyDefinedError from err.
func AsNotFullyDefined(err error) (*NotFullyDefinedError, bool) {
	var ne *NotFullyDefinedError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
