package core

import "reflect"

// Copy returns a shallow copy of s. The metadata map is copied as well so
// that metadata edits on the copy do not leak into the original.
func Copy(s Schema) Schema {
	if s == nil {
		return nil
	}
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return s
	}
	cp := reflect.New(v.Elem().Type())
	cp.Elem().Set(v.Elem())
	out := cp.Interface().(Schema)
	if m := out.Base().Metadata; m != nil {
		nm := make(Metadata, len(m))
		for k, val := range m {
			nm[k] = val
		}
		out.Base().Metadata = nm
	}
	return out
}

// copySer returns a shallow copy of a serialization schema.
func copySer(s SerSchema) SerSchema {
	switch n := s.(type) {
	case *PlainSerializerFunctionSerSchema:
		c := *n
		return &c
	case *WrapSerializerFunctionSerSchema:
		c := *n
		return &c
	case *ToStringSerSchema:
		c := *n
		return &c
	}
	return s
}
