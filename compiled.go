package schemagen

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/validator"
)

// Compiled caches validators by the schema they were built from. It is safe
// for concurrent use.
type Compiled struct {
	validators *xsync.MapOf[core.Schema, *validator.Validator]
}

// DefaultCompiled is shared by Models and Adapters built without validator
// options.
var DefaultCompiled = NewCompiled()

func NewCompiled() *Compiled {
	return &Compiled{validators: xsync.NewMapOf[core.Schema, *validator.Validator]()}
}

// Len reports the number of cached validators.
func (c *Compiled) Len() int { return c.validators.Size() }

// Get returns the validator for s, compiling it on first use.
func (c *Compiled) Get(s core.Schema, opts ...validator.Option) (*validator.Validator, error) {
	if v, ok := c.validators.Load(s); ok {
		return v, nil
	}
	v, err := validator.New(s, opts...)
	if err != nil {
		return nil, err
	}
	v, _ = c.validators.LoadOrStore(s, v)
	return v, nil
}

// Forget drops the validator compiled for s.
func (c *Compiled) Forget(s core.Schema) { c.validators.Delete(s) }
