package schemagen

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/reoring/schemagen/builder"
	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/jsonschema"
	"github.com/reoring/schemagen/typeexpr"
	"github.com/reoring/schemagen/validator"
)

// surface is what Model and Adapter share once they have a schema.
type surface struct {
	opts    options
	resolve func() (core.Schema, error)
}

func (s *surface) validator() (*validator.Validator, error) {
	cs, err := s.resolve()
	if err != nil {
		return nil, err
	}
	return s.opts.compiled.Get(cs, s.opts.validatorOptions()...)
}

// Validate validates an in-memory value. Records come back as
// *core.Instance.
func (s *surface) Validate(ctx context.Context, in any, opts ...validator.CallOption) (any, error) {
	v, err := s.validator()
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, in, opts...)
}

// ValidateJSON decodes data and validates it in JSON mode.
func (s *surface) ValidateJSON(ctx context.Context, data []byte, opts ...validator.CallOption) (any, error) {
	v, err := s.validator()
	if err != nil {
		return nil, err
	}
	return v.ValidateJSON(ctx, data, opts...)
}

// Dump serializes a validated value to plain data.
func (s *surface) Dump(value any, opts validator.SerializeOptions) (any, error) {
	v, err := s.validator()
	if err != nil {
		return nil, err
	}
	return v.Serialize(value, opts)
}

// DumpJSON serializes a validated value and encodes it as JSON.
func (s *surface) DumpJSON(value any, opts validator.SerializeOptions) ([]byte, error) {
	v, err := s.validator()
	if err != nil {
		return nil, err
	}
	return v.DumpJSON(value, opts)
}

// JSONSchema renders the schema in mode. Omitted parts are logged as
// warnings.
func (s *surface) JSONSchema(mode jsonschema.Mode) (map[string]any, error) {
	cs, err := s.resolve()
	if err != nil {
		return nil, err
	}
	g := s.opts.generator()
	js, err := g.Generate(cs, mode)
	if err != nil {
		return nil, err
	}
	for _, w := range g.Warnings() {
		s.opts.log.Warn("json schema omission", zap.String("kind", w.Kind), zap.String("detail", w.Detail))
	}
	return js, nil
}

// Model binds a record to its completed schema.
type Model struct {
	*surface
	rec *typeexpr.Record
}

// NewModel wraps rec. The record is completed lazily, so forward references
// may be defined after NewModel returns.
func NewModel(rec *typeexpr.Record, opts ...Option) *Model {
	m := &Model{rec: rec}
	m.surface = &surface{opts: newOptions(opts), resolve: m.CoreSchema}
	return m
}

// Record returns the wrapped record.
func (m *Model) Record() *typeexpr.Record { return m.rec }

// Name returns the record name, parametrized names included.
func (m *Model) Name() string { return m.rec.Name }

// CoreSchema returns the record's schema, building it first when it is
// incomplete. It fails with core.NotFullyDefinedError while a name is
// still undefined.
func (m *Model) CoreSchema() (core.Schema, error) {
	return builder.Resolve(m.rec, m.opts.builderOptions()...)
}

// Rebuild builds the record again and reports whether it is complete.
// Unless force is set a complete record is left as is. Undefined forward
// references are returned as errors.
func (m *Model) Rebuild(force bool) (bool, error) {
	prev, _ := m.rec.Schema()
	c, err := builder.Rebuild(m.rec, force, m.opts.builderOptions()...)
	if err != nil {
		return false, err
	}
	if prev != nil && c.Schema != prev {
		m.opts.compiled.Forget(prev)
	}
	return c.Done(), nil
}

// Adapter validates, serializes and renders a type expression that is not
// a record, such as list[int] or a union of records.
type Adapter struct {
	*surface
	expr typeexpr.Expr

	mu     sync.Mutex
	schema core.Schema
}

// NewAdapter wraps e. Its schema is built on first use.
func NewAdapter(e typeexpr.Expr, opts ...Option) *Adapter {
	a := &Adapter{expr: e}
	a.surface = &surface{opts: newOptions(opts), resolve: a.CoreSchema}
	return a
}

// Name returns the source form of the wrapped expression.
func (a *Adapter) Name() string { return a.expr.Repr() }

// CoreSchema builds the schema of the wrapped expression once. A failed
// build is retried on the next call.
func (a *Adapter) CoreSchema() (core.Schema, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.schema != nil {
		return a.schema, nil
	}
	s, err := builder.New(a.opts.builderOptions()...).BuildSchema(a.expr)
	if err != nil {
		return nil, errors.Wrapf(err, "adapter %s", a.expr.Repr())
	}
	a.schema = s
	return s, nil
}

// Parametrize applies the generic record rec to args and wraps the result.
// Every spelling of the same arguments yields the same record.
func Parametrize(rec *typeexpr.Record, args []typeexpr.Expr, opts ...Option) (*Model, error) {
	o := newOptions(opts)
	e, err := builder.Instantiate(rec, args, o.builderOptions()...)
	if err != nil {
		return nil, err
	}
	r, ok := e.(*typeexpr.Record)
	if !ok {
		return nil, errors.Errorf("%s[...] is still being parametrized", rec.Name)
	}
	return NewModel(r, opts...), nil
}

// Target is anything Definitions can render: a Model or an Adapter.
type Target interface {
	Name() string
	CoreSchema() (core.Schema, error)
}

// Definitions renders several targets into one document. It returns the
// rendering of each target, keyed by name, and the shared $defs.
func Definitions(mode jsonschema.Mode, targets []Target, opts ...Option) (map[string]map[string]any, map[string]any, error) {
	o := newOptions(opts)
	inputs := make([]jsonschema.Input, 0, len(targets))
	for _, t := range targets {
		s, err := t.CoreSchema()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "definitions for %s", t.Name())
		}
		inputs = append(inputs, jsonschema.Input{Key: t.Name(), Mode: mode, Schema: s})
	}
	g := o.generator()
	byKey, defs, err := g.GenerateDefinitions(inputs)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string]map[string]any, len(byKey))
	for k, js := range byKey {
		out[k.Key] = js
	}
	return out, defs, nil
}
