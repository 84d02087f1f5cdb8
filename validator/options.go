package validator

import (
	"go.uber.org/zap"

	"github.com/reoring/schemagen/internal/engine"
)

// Duplicate-key policies for JSON input.
const (
	DuplicateIgnore = "ignore"
	DuplicateWarn   = "warn"
	DuplicateError  = "error"
)

// Option configures a Validator.
type Option func(*settings)

type settings struct {
	log         *zap.Logger
	onDuplicate engine.DuplicateStrictness
	maxDepth    int
	maxBytes    int64
	strict      bool
}

func newSettings(opts []Option) settings {
	s := settings{log: zap.NewNop(), onDuplicate: engine.DupError}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// DuplicateKeys sets how ValidateJSON treats repeated object keys:
// DuplicateIgnore keeps the last value, DuplicateWarn also logs it and
// DuplicateError (the default) fails with a duplicate_key issue.
func DuplicateKeys(policy string) Option {
	return func(s *settings) {
		if p, ok := engine.ParseDuplicateStrictness(policy); ok {
			s.onDuplicate = p
		}
	}
}

// MaxDepth limits the nesting of JSON input. Zero means unlimited.
func MaxDepth(n int) Option { return func(s *settings) { s.maxDepth = n } }

// MaxBytes limits the size of JSON input. Zero means unlimited.
func MaxBytes(n int64) Option { return func(s *settings) { s.maxBytes = n } }

// StrictByDefault turns on strict mode for every call. Node and config
// strictness still take precedence.
func StrictByDefault(on bool) Option { return func(s *settings) { s.strict = on } }

// CallOption configures one validation call.
type CallOption func(*call)

type call struct {
	context any
	strict  *bool
}

// WithValidationContext passes v to with-info validators as
// ValidationInfo.Context.
func WithValidationContext(v any) CallOption { return func(c *call) { c.context = v } }

// Strict overrides strictness for one call.
func Strict(on bool) CallOption { return func(c *call) { c.strict = &on } }

// SerializeOptions controls Serialize and DumpJSON.
type SerializeOptions struct {
	// JSON produces JSON-compatible values: strings for temporal, uuid and
	// bytes values and string-keyed maps.
	JSON            bool
	ByAlias         bool
	ExcludeNone     bool
	ExcludeUnset    bool
	ExcludeDefaults bool
}
