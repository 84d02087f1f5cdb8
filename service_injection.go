package schemagen

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/reoring/schemagen/core"
)

// serviceKey is a unique key per type parameter T for context storage.
type serviceKey[T any] struct{}

// WithService stores a typed service instance in the context handed to
// Validate, for use by validation hooks.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, any(svc))
}

// Service retrieves a typed service instance from context.
func Service[T any](ctx context.Context) (T, bool) {
	var zero T
	v := ctx.Value(serviceKey[T]{})
	if v == nil {
		return zero, false
	}
	if tv, ok := v.(T); ok {
		return tv, true
	}
	return zero, false
}

// ServiceOf retrieves a typed service from the context of the validation
// call a hook runs in.
func ServiceOf[T any](info core.ValidationInfo) (T, bool) {
	var zero T
	c, ok := info.(interface{ Ctx() context.Context })
	if !ok || c.Ctx() == nil {
		return zero, false
	}
	return Service[T](c.Ctx())
}

// RequireService is ServiceOf returning an error, which a hook can return
// as is to fail validation.
func RequireService[T any](info core.ValidationInfo) (T, error) {
	if v, ok := ServiceOf[T](info); ok {
		return v, nil
	}
	var zero T
	return zero, errors.Errorf("service %s not provided", reflect.TypeOf((*T)(nil)).Elem())
}
