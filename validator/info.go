package validator

import (
	"context"

	"github.com/reoring/schemagen/core"
)

type validationInfo struct {
	st    *state
	field string
}

var _ core.ValidationInfo = (*validationInfo)(nil)

func (i *validationInfo) Context() any      { return i.st.context }
func (i *validationInfo) FieldName() string { return i.field }
func (i *validationInfo) Mode() string      { return i.st.mode }

// Ctx returns the context.Context the validation call was started with.
func (i *validationInfo) Ctx() context.Context { return i.st.ctx }

// Data returns a copy so that hooks cannot change fields already
// validated.
func (i *validationInfo) Data() map[string]any {
	out := make(map[string]any, len(i.st.data))
	for k, v := range i.st.data {
		out[k] = v
	}
	return out
}

type serializationInfo struct {
	ss    *serState
	field string
}

var _ core.SerializationInfo = (*serializationInfo)(nil)

func (i *serializationInfo) Mode() string {
	if i.ss.opts.JSON {
		return ModeJSON
	}
	return ModePython
}

func (i *serializationInfo) ByAlias() bool     { return i.ss.opts.ByAlias }
func (i *serializationInfo) ExcludeNone() bool { return i.ss.opts.ExcludeNone }
func (i *serializationInfo) FieldName() string { return i.field }
