package schemagen

import (
	"go.uber.org/zap"

	"github.com/reoring/schemagen/builder"
	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/jsonschema"
	"github.com/reoring/schemagen/typeexpr"
	"github.com/reoring/schemagen/validator"
)

// Option configures a Model, an Adapter or Parametrize.
type Option func(*options)

type options struct {
	log        *zap.Logger
	cache      *generics.Cache
	ns         *typeexpr.Namespace
	config     *typeexpr.Config
	compiled   *Compiled
	validate   []validator.Option
	jsonSchema []jsonschema.Option
}

func newOptions(opts []Option) options {
	o := options{log: zap.NewNop(), cache: builder.DefaultCache}
	for _, fn := range opts {
		fn(&o)
	}
	if o.compiled == nil {
		if len(o.validate) == 0 {
			o.compiled = DefaultCompiled
		} else {
			o.compiled = NewCompiled()
		}
	}
	return o
}

func (o options) builderOptions() []builder.Option {
	out := []builder.Option{builder.WithLogger(o.log), builder.WithCache(o.cache)}
	if o.ns != nil {
		out = append(out, builder.WithNamespace(o.ns))
	}
	if o.config != nil {
		out = append(out, builder.WithConfig(*o.config))
	}
	return out
}

func (o options) validatorOptions() []validator.Option {
	return append([]validator.Option{validator.WithLogger(o.log)}, o.validate...)
}

func (o options) generator() *jsonschema.Generator {
	return jsonschema.New(append([]jsonschema.Option{jsonschema.WithLogger(o.log)}, o.jsonSchema...)...)
}

// WithLogger sets the logger handed to the builder, the validator and the
// renderer.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithGenericsCache replaces builder.DefaultCache for parametrizations.
func WithGenericsCache(c *generics.Cache) Option { return func(o *options) { o.cache = c } }

// WithNamespace adds a namespace consulted when resolving forward
// references, after the record's own.
func WithNamespace(ns *typeexpr.Namespace) Option { return func(o *options) { o.ns = ns } }

// WithConfig sets the config an Adapter builds with. Records carry their own.
func WithConfig(c typeexpr.Config) Option { return func(o *options) { o.config = &c } }

// WithCompiled shares a compiled-validator cache. Models sharing one must
// use the same validator options.
func WithCompiled(c *Compiled) Option { return func(o *options) { o.compiled = c } }

// WithValidatorOptions passes options to validator.New. Unless WithCompiled
// is given, the compiled validators are then kept in a private cache.
func WithValidatorOptions(opts ...validator.Option) Option {
	return func(o *options) { o.validate = append(o.validate, opts...) }
}

// WithJSONSchemaOptions passes options to jsonschema.New.
func WithJSONSchemaOptions(opts ...jsonschema.Option) Option {
	return func(o *options) { o.jsonSchema = append(o.jsonSchema, opts...) }
}
