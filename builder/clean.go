package builder

import (
	"github.com/pkg/errors"

	"github.com/reoring/schemagen/core"
	"github.com/reoring/schemagen/discriminator"
	"github.com/reoring/schemagen/generics"
	"github.com/reoring/schemagen/typeexpr"
)

// errCollectedInvalid means the schema still references definitions of an
// enclosing build; the record is retried once that build is done.
var errCollectedInvalid = errors.New("schema references definitions that are not built yet")

// CleanSchema finalizes s: the definitions of the build are attached, the
// references simplified, deferred discriminators applied and the result
// checked.
func (g *Generator) CleanSchema(s core.Schema) (core.Schema, error) {
	s, err := core.SimplifyReferences(g.collectDefinitions(s))
	if err != nil {
		return nil, errors.Wrap(err, "simplify references")
	}
	if s, err = core.MarkInvalidRefs(s); err != nil {
		return nil, err
	}
	invalid, err := core.CollectInvalid(s)
	if err != nil {
		return nil, err
	}
	if invalid {
		return nil, errCollectedInvalid
	}
	if s, err = discriminator.ApplyAll(s); err != nil {
		return nil, err
	}
	return core.ValidateCoreSchema(s)
}

func (g *Generator) collectDefinitions(s core.Schema) core.Schema {
	if ref := core.Ref(s); ref != "" {
		g.defs.Set(ref, s)
		s = core.DefinitionRef(ref)
	}
	if g.defs.Len() == 0 {
		return s
	}
	return &core.DefinitionsSchema{Schema: s, Definitions: g.defs.Values()}
}

// BuildSchema builds and cleans the schema of a standalone type, such as
// the target of an adapter.
func (g *Generator) BuildSchema(e typeexpr.Expr) (core.Schema, error) {
	s, err := g.Generate(generics.ReplaceTypes(e, g.typevars))
	if err != nil {
		return nil, err
	}
	out, err := g.CleanSchema(s)
	if errors.Is(err, errCollectedInvalid) {
		return nil, &core.NotFullyDefinedError{TypeName: e.Repr()}
	}
	return out, err
}
