package discriminator

import (
	"github.com/reoring/schemagen/core"
)

// ApplyAll applies every discriminator that was deferred with
// core.SetDiscriminatorPlaceholder, innermost first, resolving references
// against the definitions found anywhere in s. References are simplified
// afterwards since converted unions may have dropped their last use of a
// definition.
func ApplyAll(s core.Schema) (core.Schema, error) {
	defs, err := core.CollectDefinitions(s)
	if err != nil {
		return nil, err
	}
	applied := false
	var inner core.WalkFunc
	inner = func(n core.Schema, recurse core.Recurse) (core.Schema, error) {
		n, err := recurse(n, inner)
		if err != nil {
			return nil, err
		}
		if _, ok := n.(*core.TaggedUnionSchema); ok {
			return n, nil
		}
		d, ok := core.PopDiscriminatorPlaceholder(n)
		if !ok || d == nil {
			return n, nil
		}
		applied = true
		out, err := Apply(n, d, defs)
		if err != nil {
			return nil, err
		}
		if r := core.Ref(out); r != "" {
			defs[r] = out
		}
		return out, nil
	}
	out, err := core.Walk(s, inner)
	if err != nil {
		return nil, err
	}
	if !applied {
		return out, nil
	}
	return core.SimplifyReferences(out)
}

// HasDeferred reports whether s still holds a deferred discriminator.
func HasDeferred(s core.Schema) (bool, error) {
	found := false
	var check core.WalkFunc
	check = func(n core.Schema, recurse core.Recurse) (core.Schema, error) {
		if m := n.Base().Metadata; m != nil {
			if _, ok := m[core.MetaDiscriminator]; ok {
				found = true
				return n, nil
			}
		}
		return recurse(n, check)
	}
	_, err := core.Walk(s, check)
	return found, err
}
