// Package validator is a reference backend for core schemas. It interprets
// the node graph directly to validate input and to serialize validated
// values, with issues reported as JSON-pointer located Issues.
package validator

import (
	"context"
	"errors"
	"regexp"

	json "github.com/goccy/go-json"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/internal/engine"
)

// Mode names handed to hooks through ValidationInfo.Mode.
const (
	ModePython = "python"
	ModeJSON   = "json"
)

// Validator validates and serializes values against one core schema. It is
// safe for concurrent use.
type Validator struct {
	root     core.Schema
	defs     map[string]core.Schema
	settings settings
	patterns *xsync.MapOf[string, *regexp.Regexp]
}

// New checks s and prepares a Validator for it.
func New(s core.Schema, opts ...Option) (*Validator, error) {
	if _, err := core.ValidateCoreSchema(s); err != nil {
		return nil, err
	}
	defs, err := core.CollectDefinitions(s)
	if err != nil {
		return nil, err
	}
	st := newSettings(opts)
	st.log.Debug("validator compiled", zap.String("root", s.Type()), zap.Int("definitions", len(defs)))
	return &Validator{
		root:     s,
		defs:     defs,
		settings: st,
		patterns: xsync.NewMapOf[string, *regexp.Regexp](),
	}, nil
}

// Schema returns the core schema the Validator was built from.
func (v *Validator) Schema() core.Schema { return v.root }

// Validate validates an in-memory value. Records come back as
// *core.Instance, lists and tuples as []any and string-keyed dicts as
// map[string]any.
func (v *Validator) Validate(ctx context.Context, input any, opts ...CallOption) (any, error) {
	return v.run(ctx, ModePython, input, opts)
}

// ValidateJSON decodes data and validates the result in JSON mode.
// Malformed input, duplicate keys and size limits are reported as Issues.
func (v *Validator) ValidateJSON(ctx context.Context, data []byte, opts ...CallOption) (any, error) {
	input, err := v.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return v.run(ctx, ModeJSON, input, opts)
}

// DecodeJSON decodes data with the Validator's duplicate-key, depth and
// size policies. Numbers are kept as json.Number.
func (v *Validator) DecodeJSON(data []byte) (any, error) {
	src := engine.WrapWithEnforcement(engine.NewBytes(data), engine.EnforceOptions{
		OnDuplicate: v.settings.onDuplicate,
		MaxDepth:    v.settings.maxDepth,
		MaxBytes:    v.settings.maxBytes,
		IssueSink: func(si engine.SimpleIssue) {
			v.settings.log.Warn("json input issue", zap.String("code", si.Code), zap.String("path", si.Path), zap.String("message", si.Message))
		},
	})
	out, err := engine.Decode(src, engine.NumberJSONNumber)
	if err == nil {
		return out, nil
	}
	var ie *engine.IssueError
	if errors.As(err, &ie) {
		le := lineErrors{{loc: splitPointer(ie.Path), code: ie.Code, params: ie.Params, cause: err}}
		if ie.Code == CodeParseError {
			le[0].params = map[string]any{"error": ie.Message}
		}
		return nil, le.issues()
	}
	return nil, fail(CodeParseError, nil, map[string]any{"error": err.Error()}).issues()
}

func (v *Validator) run(ctx context.Context, mode string, input any, opts []CallOption) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c := call{}
	for _, o := range opts {
		o(&c)
	}
	st := &state{v: v, ctx: ctx, mode: mode, context: c.context, callStrict: c.strict}
	out, err := st.validate(v.root, input)
	if err != nil {
		var le lineErrors
		if errors.As(err, &le) {
			return nil, le.issues()
		}
		return nil, err
	}
	return out, nil
}

// Serialize turns a validated value back into plain data: records become
// maps keyed by field name (or alias with ByAlias) and computed fields and
// serializer hooks are applied.
func (v *Validator) Serialize(value any, opts SerializeOptions) (any, error) {
	ss := &serState{v: v, opts: opts}
	return ss.serialize(v.root, value)
}

// DumpJSON serializes value in JSON mode and encodes it.
func (v *Validator) DumpJSON(value any, opts SerializeOptions) ([]byte, error) {
	opts.JSON = true
	out, err := v.Serialize(value, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (v *Validator) pattern(p string) (*regexp.Regexp, error) {
	if re, ok := v.patterns.Load(p); ok {
		return re, nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	v.patterns.Store(p, re)
	return re, nil
}

func (v *Validator) definition(ref string) (core.Schema, error) {
	s, ok := v.defs[ref]
	if !ok {
		return nil, core.Errorf(core.CodeInvalidCoreSchema, "definition %q not found", ref)
	}
	return s, nil
}
