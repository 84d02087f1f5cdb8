package builder

import (
	"go.uber.org/zap"

	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/typeexpr"
)

// DefaultCache is the parametrization cache used when no WithCache option
// is given.
var DefaultCache = generics.NewCache(generics.DefaultLimit)

// Option configures a Generator, Complete, Rebuild or Instantiate.
type Option func(*settings)

type settings struct {
	log         *zap.Logger
	cache       *generics.Cache
	guard       *generics.RecursionGuard
	ns          *typeexpr.Namespace
	typevars    map[*typeexpr.TypeVar]typeexpr.Expr
	config      *typeexpr.Config
	raiseErrors *bool
}

func newSettings(opts []Option) settings {
	s := settings{}
	for _, o := range opts {
		o(&s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.cache == nil {
		s.cache = DefaultCache
	}
	if s.guard == nil {
		s.guard = generics.NewRecursionGuard()
	}
	return s
}

// options turns s back into options, for builds nested in this one.
func (s settings) options() []Option {
	return []Option{WithLogger(s.log), WithCache(s.cache), WithGuard(s.guard)}
}

func (s settings) raise(def bool) bool {
	if s.raiseErrors == nil {
		return def
	}
	return *s.raiseErrors
}

// WithLogger sets the logger for build events.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCache sets the parametrization cache.
func WithCache(c *generics.Cache) Option { return func(s *settings) { s.cache = c } }

// WithGuard shares a recursion guard with an enclosing build.
func WithGuard(g *generics.RecursionGuard) Option { return func(s *settings) { s.guard = g } }

// WithNamespace sets the outermost namespace for forward references.
func WithNamespace(ns *typeexpr.Namespace) Option { return func(s *settings) { s.ns = ns } }

// WithTypevars sets the type variable substitutions in effect.
func WithTypevars(m map[*typeexpr.TypeVar]typeexpr.Expr) Option {
	return func(s *settings) { s.typevars = m }
}

// WithConfig sets the outermost config.
func WithConfig(c typeexpr.Config) Option { return func(s *settings) { s.config = &c } }

// RaiseErrors selects whether an undefined forward reference fails
// Complete and Rebuild or leaves the record incomplete.
func RaiseErrors(on bool) Option { return func(s *settings) { s.raiseErrors = &on } }
