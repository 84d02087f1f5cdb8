package core

import "fmt"

// WalkFunc visits one node. It may return a replacement without descending,
// or call recurse to continue into the children of the (possibly modified)
// node.
type WalkFunc func(s Schema, recurse Recurse) (Schema, error)

// Recurse walks the children of s with f and returns a copy of s holding the
// rewritten children.
type Recurse func(s Schema, f WalkFunc) (Schema, error)

type walker struct {
	defs    map[string]Schema
	visited map[Schema]struct{}
}

// Walk applies f to s in pre-order. Definition references are not followed.
func Walk(s Schema, f WalkFunc) (Schema, error) {
	w := &walker{}
	return w.walk(s, f)
}

// WalkWithDefinitions is Walk that also follows definition references into
// defs. Each target is visited at most once per call, tracked by identity,
// and the rewritten target is stored back into defs.
func WalkWithDefinitions(s Schema, defs map[string]Schema, f WalkFunc) (Schema, error) {
	w := &walker{defs: defs, visited: map[Schema]struct{}{}}
	return w.walk(s, f)
}

func (w *walker) walk(s Schema, f WalkFunc) (Schema, error) {
	if s == nil {
		return nil, nil
	}
	return f(s, w.children)
}

func (w *walker) children(s Schema, f WalkFunc) (Schema, error) {
	if s == nil {
		return nil, nil
	}
	s = Copy(s)
	if ser := s.Base().Serialization; ser != nil {
		nser, err := w.ser(ser, f)
		if err != nil {
			return nil, err
		}
		s.Base().Serialization = nser
	}
	var err error
	switch n := s.(type) {
	case *AnySchema, *NoneSchema, *BoolSchema, *IntSchema, *FloatSchema, *StrSchema,
		*BytesSchema, *DateSchema, *TimeSchema, *DatetimeSchema, *TimedeltaSchema,
		*UUIDSchema, *LiteralSchema, *EnumSchema, *IsInstanceSchema, *CallableSchema,
		*FunctionPlainSchema:
	case *ListSchema:
		n.ItemsSchema, err = w.walk(n.ItemsSchema, f)
	case *SetSchema:
		n.ItemsSchema, err = w.walk(n.ItemsSchema, f)
	case *FrozenSetSchema:
		n.ItemsSchema, err = w.walk(n.ItemsSchema, f)
	case *TupleSchema:
		n.ItemsSchema, err = w.list(n.ItemsSchema, f)
	case *DictSchema:
		if n.KeysSchema, err = w.walk(n.KeysSchema, f); err == nil {
			n.ValuesSchema, err = w.walk(n.ValuesSchema, f)
		}
	case *FunctionBeforeSchema:
		n.Schema, err = w.walk(n.Schema, f)
	case *FunctionAfterSchema:
		n.Schema, err = w.walk(n.Schema, f)
	case *FunctionWrapSchema:
		n.Schema, err = w.walk(n.Schema, f)
	case *DefaultSchema:
		n.Schema, err = w.walk(n.Schema, f)
	case *NullableSchema:
		n.Schema, err = w.walk(n.Schema, f)
	case *ModelSchema:
		n.Schema, err = w.walk(n.Schema, f)
	case *DataclassSchema:
		n.Schema, err = w.walk(n.Schema, f)
	case *UnionSchema:
		choices := make([]UnionChoice, len(n.Choices))
		for i, c := range n.Choices {
			ns, e := w.walk(c.Schema, f)
			if e != nil {
				return nil, e
			}
			choices[i] = UnionChoice{Schema: ns, Tag: c.Tag}
		}
		n.Choices = choices
	case *TaggedUnionSchema:
		n.Choices, err = w.tagged(n.Choices, f)
	case *ChainSchema:
		n.Steps, err = w.list(n.Steps, f)
	case *ModelFieldsSchema:
		fields := make([]*ModelField, len(n.Fields))
		for i, fd := range n.Fields {
			c := *fd
			if c.Schema, err = w.walk(fd.Schema, f); err != nil {
				return nil, err
			}
			fields[i] = &c
		}
		n.Fields = fields
		if n.ComputedFields, err = w.computed(n.ComputedFields, f); err == nil {
			n.ExtrasSchema, err = w.walk(n.ExtrasSchema, f)
		}
	case *TypedDictSchema:
		fields := make([]*TypedDictField, len(n.Fields))
		for i, fd := range n.Fields {
			c := *fd
			if c.Schema, err = w.walk(fd.Schema, f); err != nil {
				return nil, err
			}
			fields[i] = &c
		}
		n.Fields = fields
		if n.ComputedFields, err = w.computed(n.ComputedFields, f); err == nil {
			n.ExtrasSchema, err = w.walk(n.ExtrasSchema, f)
		}
	case *DataclassArgsSchema:
		fields := make([]*DataclassField, len(n.Fields))
		for i, fd := range n.Fields {
			c := *fd
			if c.Schema, err = w.walk(fd.Schema, f); err != nil {
				return nil, err
			}
			fields[i] = &c
		}
		n.Fields = fields
		n.ComputedFields, err = w.computed(n.ComputedFields, f)
	case *ArgumentsSchema:
		params := make([]*ArgumentsParameter, len(n.ArgumentsSchema))
		for i, p := range n.ArgumentsSchema {
			c := *p
			if c.Schema, err = w.walk(p.Schema, f); err != nil {
				return nil, err
			}
			params[i] = &c
		}
		n.ArgumentsSchema = params
		if n.VarArgsSchema, err = w.walk(n.VarArgsSchema, f); err == nil {
			n.VarKwargsSchema, err = w.walk(n.VarKwargsSchema, f)
		}
	case *CallSchema:
		if n.ArgumentsSchema, err = w.walk(n.ArgumentsSchema, f); err == nil {
			n.ReturnSchema, err = w.walk(n.ReturnSchema, f)
		}
	case *DefinitionsSchema:
		if n.Definitions, err = w.list(n.Definitions, f); err == nil {
			n.Schema, err = w.walk(n.Schema, f)
		}
	case *DefinitionReferenceSchema:
		err = w.follow(n.SchemaRef, f)
	default:
		return nil, fmt.Errorf("walk: unexpected schema type %q", s.Type())
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (w *walker) follow(ref string, f WalkFunc) error {
	if w.defs == nil {
		return nil
	}
	target, ok := w.defs[ref]
	if !ok || target == nil {
		return nil
	}
	if _, seen := w.visited[target]; seen {
		return nil
	}
	w.visited[target] = struct{}{}
	nt, err := w.walk(target, f)
	if err != nil {
		return err
	}
	if nt != nil {
		w.visited[nt] = struct{}{}
	}
	w.defs[ref] = nt
	return nil
}

func (w *walker) list(in []Schema, f WalkFunc) ([]Schema, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]Schema, len(in))
	for i, s := range in {
		ns, err := w.walk(s, f)
		if err != nil {
			return nil, err
		}
		out[i] = ns
	}
	return out, nil
}

func (w *walker) tagged(m *TagMap, f WalkFunc) (*TagMap, error) {
	out := NewTagMap()
	done := map[Schema]Schema{}
	for _, e := range m.Entries() {
		if ns, ok := done[e.Schema]; ok {
			out.Set(e.Tag, ns)
			continue
		}
		ns, err := w.walk(e.Schema, f)
		if err != nil {
			return nil, err
		}
		done[e.Schema] = ns
		out.Set(e.Tag, ns)
	}
	return out, nil
}

func (w *walker) computed(in []*ComputedField, f WalkFunc) ([]*ComputedField, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]*ComputedField, len(in))
	for i, cf := range in {
		c := *cf
		rs, err := w.walk(cf.ReturnSchema, f)
		if err != nil {
			return nil, err
		}
		c.ReturnSchema = rs
		out[i] = &c
	}
	return out, nil
}

func (w *walker) ser(s SerSchema, f WalkFunc) (SerSchema, error) {
	var err error
	switch n := copySer(s).(type) {
	case *PlainSerializerFunctionSerSchema:
		n.ReturnSchema, err = w.walk(n.ReturnSchema, f)
		return n, err
	case *WrapSerializerFunctionSerSchema:
		if n.Schema, err = w.walk(n.Schema, f); err == nil {
			n.ReturnSchema, err = w.walk(n.ReturnSchema, f)
		}
		return n, err
	default:
		return n, nil
	}
}
