package builder

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/typeexpr"
)

// Completion is the outcome of building a record.
type Completion struct {
	// Schema is the cleaned core schema, nil when the record is incomplete.
	Schema core.Schema
	// Pending is the name that blocked the build, when known.
	Pending string
}

// Done reports whether the record got a schema.
func (c Completion) Done() bool { return c.Schema != nil }

// Complete builds rec and stores the schema on it. A record configured with
// DeferBuild is left incomplete. An undefined forward reference leaves the
// record incomplete with a Mock as placeholder, unless RaiseErrors(true) is
// given, in which case the error is returned.
func Complete(rec *typeexpr.Record, opts ...Option) (Completion, error) {
	return complete(rec, false, false, opts)
}

// Rebuild builds rec again. Unless force is set a complete record is left
// as is. Undefined forward references are returned as errors unless
// RaiseErrors(false) is given.
func Rebuild(rec *typeexpr.Record, force bool, opts ...Option) (Completion, error) {
	if !force {
		if s, ok := rec.Schema(); ok {
			return Completion{Schema: s}, nil
		}
	}
	return complete(rec, true, true, opts)
}

// Resolve returns the schema of rec, rebuilding it first when it is
// incomplete. It fails with core.NotFullyDefinedError while a name is still
// undefined.
func Resolve(rec *typeexpr.Record, opts ...Option) (core.Schema, error) {
	if s, ok := rec.Schema(); ok {
		return s, nil
	}
	c, err := Rebuild(rec, false, append(opts, RaiseErrors(false))...)
	if err != nil {
		return nil, err
	}
	if !c.Done() {
		return nil, &core.NotFullyDefinedError{TypeName: rec.Name, Missing: c.Pending}
	}
	return c.Schema, nil
}

func complete(rec *typeexpr.Record, raiseDefault, ignoreDefer bool, opts []Option) (Completion, error) {
	st := newSettings(opts)
	if !ignoreDefer && rec.EffectiveConfig().DeferBuild {
		rec.SetIncomplete("", newMock(rec, "", st))
		st.log.Debug("build deferred", zap.String("record", rec.QualName()))
		return Completion{}, nil
	}
	g := New(opts...)
	s, err := g.generateInner(rec)
	if err != nil {
		ue, ok := core.AsUndefinedAnnotation(err)
		if !ok || st.raise(raiseDefault) {
			return Completion{}, err
		}
		rec.SetIncomplete(ue.Name, newMock(rec, ue.Name, st))
		st.log.Debug("record incomplete",
			zap.String("record", rec.QualName()),
			zap.String("missing", ue.Name))
		return Completion{Pending: ue.Name}, nil
	}
	s, err = g.CleanSchema(s)
	if errors.Is(err, errCollectedInvalid) {
		rec.SetIncomplete("", newMock(rec, "", st))
		st.log.Debug("record waits for an enclosing parametrization", zap.String("record", rec.QualName()))
		return Completion{}, nil
	}
	if err != nil {
		return Completion{}, errors.Wrapf(err, "build %s", rec.QualName())
	}
	rec.SetSchema(s)
	st.log.Debug("record complete",
		zap.String("record", rec.QualName()),
		zap.Int("definitions", g.defs.Len()))
	return Completion{Schema: s}, nil
}

// Mock stands in for the schema of an incomplete record. Resolve retries
// the build with the options of the failed attempt.
type Mock struct {
	rec     *typeexpr.Record
	missing string
	opts    []Option
}

func newMock(rec *typeexpr.Record, missing string, st settings) *Mock {
	opts := []Option{WithLogger(st.log), WithCache(st.cache)}
	if st.ns != nil {
		opts = append(opts, WithNamespace(st.ns))
	}
	if st.config != nil {
		opts = append(opts, WithConfig(*st.config))
	}
	return &Mock{rec: rec, missing: missing, opts: opts}
}

// Missing returns the name the failed build was blocked on, if known.
func (m *Mock) Missing() string { return m.missing }

// Resolve rebuilds the record and returns its schema.
func (m *Mock) Resolve() (core.Schema, error) {
	return Resolve(m.rec, m.opts...)
}
