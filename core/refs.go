package core

// CollectDefinitions returns every node carrying a ref, keyed by that ref.
func CollectDefinitions(s Schema) (map[string]Schema, error) {
	defs := map[string]Schema{}
	var collect WalkFunc
	collect = func(n Schema, recurse Recurse) (Schema, error) {
		if r := Ref(n); r != "" {
			defs[r] = n
		}
		return recurse(n, collect)
	}
	if _, err := Walk(s, collect); err != nil {
		return nil, err
	}
	return defs, nil
}

// Unpack splits a definitions node into its inner schema and definitions.
// Other nodes are returned as is.
func Unpack(s Schema) (Schema, []Schema) {
	if d, ok := s.(*DefinitionsSchema); ok {
		return d.Schema, d.Definitions
	}
	return s, nil
}

type orderedDefs struct {
	order []string
	byRef map[string]Schema
}

func (o *orderedDefs) set(ref string, s Schema) {
	if _, ok := o.byRef[ref]; !ok {
		o.order = append(o.order, ref)
	}
	o.byRef[ref] = s
}

// SimplifyReferences hoists every ref-carrying node into a single top-level
// definitions node, collapses reference chains to a single hop and inlines
// definitions referenced exactly once outside of recursion. Definitions no
// longer referenced are dropped.
func SimplifyReferences(s Schema) (Schema, error) {
	defs := &orderedDefs{byRef: map[string]Schema{}}
	counts := map[string]int{}
	inRecursion := map[string]bool{}
	active := map[string]int{}

	var collect WalkFunc
	collect = func(n Schema, recurse Recurse) (Schema, error) {
		if d, ok := n.(*DefinitionsSchema); ok {
			for _, def := range d.Definitions {
				nd, err := recurse(def, collect)
				if err != nil {
					return nil, err
				}
				if r := Ref(nd); r != "" {
					defs.set(r, nd)
				}
			}
			return collect(d.Schema, recurse)
		}
		ref := Ref(n)
		if ref == "" {
			return recurse(n, collect)
		}
		nn, err := recurse(n, collect)
		if err != nil {
			return nil, err
		}
		defs.set(ref, nn)
		return DefinitionRef(ref), nil
	}
	s, err := Walk(s, collect)
	if err != nil {
		return nil, err
	}

	// resolve follows ref -> ref chains made of bare reference definitions.
	resolve := func(ref string) string {
		seen := map[string]bool{}
		for {
			d, ok := defs.byRef[ref].(*DefinitionReferenceSchema)
			if !ok || seen[ref] || d.Serialization != nil || len(d.Metadata) > 0 {
				return ref
			}
			seen[ref] = true
			ref = d.SchemaRef
		}
	}

	var count WalkFunc
	count = func(n Schema, recurse Recurse) (Schema, error) {
		dr, ok := n.(*DefinitionReferenceSchema)
		if !ok {
			return recurse(n, count)
		}
		ref := resolve(dr.SchemaRef)
		counts[ref]++
		if counts[ref] >= 2 {
			if active[ref] != 0 {
				inRecursion[ref] = true
			}
			return n, nil
		}
		target, ok := defs.byRef[ref]
		if !ok {
			return n, nil
		}
		active[ref]++
		if _, err := recurse(target, count); err != nil {
			return nil, err
		}
		active[ref]--
		return n, nil
	}
	if s, err = Walk(s, count); err != nil {
		return nil, err
	}

	canInline := func(dr *DefinitionReferenceSchema, ref string) bool {
		if counts[ref] > 1 || inRecursion[ref] || dr.Serialization != nil {
			return false
		}
		if _, ok := defs.byRef[ref]; !ok {
			return false
		}
		for _, k := range []string{MetaJSFunctions, MetaJSAnnotationFunctions, MetaDiscriminator, MetaTaggedUnionTag} {
			if _, ok := dr.Metadata[k]; ok {
				return false
			}
		}
		return true
	}

	var inline WalkFunc
	inline = func(n Schema, recurse Recurse) (Schema, error) {
		dr, ok := n.(*DefinitionReferenceSchema)
		if !ok {
			return recurse(n, inline)
		}
		ref := resolve(dr.SchemaRef)
		if !canInline(dr, ref) {
			if ref != dr.SchemaRef {
				c := Copy(dr).(*DefinitionReferenceSchema)
				c.SchemaRef = ref
				return c, nil
			}
			return n, nil
		}
		target := Copy(defs.byRef[ref])
		delete(defs.byRef, ref)
		counts[ref]--
		if dr.Serialization != nil {
			target.Base().Serialization = dr.Serialization
		}
		return recurse(target, inline)
	}
	if s, err = Walk(s, inline); err != nil {
		return nil, err
	}

	var kept []Schema
	for _, ref := range defs.order {
		d, ok := defs.byRef[ref]
		if !ok || counts[ref] <= 0 {
			continue
		}
		if _, isRef := d.(*DefinitionReferenceSchema); isRef && resolve(ref) != ref {
			continue
		}
		kept = append(kept, d)
	}
	if len(kept) > 0 {
		s = &DefinitionsSchema{Schema: s, Definitions: kept}
	}
	return s, nil
}

// DefineExpectedMissingRefs adds invalid placeholder definitions for refs
// in allowed that s references but does not define. It returns nil when
// nothing had to be added.
func DefineExpectedMissingRefs(s Schema, allowed []string) (Schema, error) {
	if len(allowed) == 0 {
		return nil, nil
	}
	defs, err := CollectDefinitions(s)
	if err != nil {
		return nil, err
	}
	var missing []Schema
	for _, ref := range allowed {
		if _, ok := defs[ref]; ok {
			continue
		}
		missing = append(missing, &NoneSchema{Common: Common{Ref: ref, Metadata: Metadata{MetaInvalid: true}}})
	}
	if len(missing) == 0 {
		return nil, nil
	}
	return &DefinitionsSchema{Schema: s, Definitions: missing}, nil
}

// MarkInvalidRefs flags every reference whose target is not defined
// anywhere in s.
func MarkInvalidRefs(s Schema) (Schema, error) {
	defs, err := CollectDefinitions(s)
	if err != nil {
		return nil, err
	}
	var mark WalkFunc
	mark = func(n Schema, recurse Recurse) (Schema, error) {
		if dr, ok := n.(*DefinitionReferenceSchema); ok {
			if _, defined := defs[dr.SchemaRef]; !defined {
				c := Copy(dr)
				MarkInvalid(c)
				return c, nil
			}
			return n, nil
		}
		return recurse(n, mark)
	}
	return Walk(s, mark)
}

// CollectInvalid reports whether any node of s is marked invalid.
func CollectInvalid(s Schema) (bool, error) {
	invalid := false
	var check WalkFunc
	check = func(n Schema, recurse Recurse) (Schema, error) {
		if IsInvalid(n) {
			invalid = true
			return n, nil
		}
		return recurse(n, check)
	}
	_, err := Walk(s, check)
	return invalid, err
}
