package core

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ToMap renders s in the wire shape understood by the backend: nested maps
// keyed by the node's tag and key names. Go functions are rendered by name.
func ToMap(s Schema) map[string]any {
	if s == nil {
		return nil
	}
	m := structToMap(reflect.ValueOf(s))
	m["type"] = s.Type()
	if d, ok := s.(*DefaultSchema); ok && d.HasFactory() {
		delete(m, "default")
	}
	return m
}

// DumpJSON renders s as indented JSON.
func DumpJSON(s Schema) ([]byte, error) {
	return json.MarshalIndent(ToMap(s), "", "  ")
}

// DumpYAML renders s as YAML.
func DumpYAML(s Schema) ([]byte, error) {
	return yaml.Marshal(ToMap(s))
}

func structToMap(v reflect.Value) map[string]any {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	out := map[string]any{}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if sf.Anonymous {
			for k, val := range structToMap(fv.Addr()) {
				out[k] = val
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name, omitEmpty := jsonName(sf)
		if name == "-" {
			continue
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		if (fv.Kind() == reflect.Interface || fv.Kind() == reflect.Ptr) && fv.IsNil() && omitEmpty {
			continue
		}
		out[name] = dumpValue(fv.Interface())
	}
	return out
}

func jsonName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name, false
	}
	parts := strings.Split(tag, ",")
	omit := false
	for _, p := range parts[1:] {
		if p == "omitempty" {
			omit = true
		}
	}
	return parts[0], omit
}

func dumpValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Schema:
		return ToMap(x)
	case SerSchema:
		m := structToMap(reflect.ValueOf(x))
		m["type"] = x.SerType()
		return m
	case *TagMap:
		out := map[string]any{}
		for _, e := range x.Entries() {
			out[fmt.Sprint(e.Tag)] = dumpValue(e.Schema)
		}
		return out
	case []UnionChoice:
		out := make([]any, len(x))
		for i, c := range x {
			if c.Tag != nil {
				out[i] = []any{ToMap(c.Schema), c.Tag}
			} else {
				out[i] = ToMap(c.Schema)
			}
		}
		return out
	case ValidatorFunc:
		m := map[string]any{"type": x.Type, "function": FuncName(x.Function)}
		if x.FieldName != "" {
			m["field_name"] = x.FieldName
		}
		return m
	case []*ModelField:
		out := map[string]any{}
		for _, f := range x {
			m := structToMap(reflect.ValueOf(f))
			m["type"] = f.Type()
			out[f.Name] = m
		}
		return out
	case []*TypedDictField:
		out := map[string]any{}
		for _, f := range x {
			m := structToMap(reflect.ValueOf(f))
			m["type"] = f.Type()
			out[f.Name] = m
		}
		return out
	case []*DataclassField:
		out := make([]any, len(x))
		for i, f := range x {
			m := structToMap(reflect.ValueOf(f))
			m["type"] = f.Type()
			out[i] = m
		}
		return out
	case []*ComputedField:
		out := make([]any, len(x))
		for i, f := range x {
			m := structToMap(reflect.ValueOf(f))
			m["type"] = f.Type()
			out[i] = m
		}
		return out
	case []*ArgumentsParameter:
		out := make([]any, len(x))
		for i, p := range x {
			out[i] = structToMap(reflect.ValueOf(p))
		}
		return out
	case *CoreConfig:
		return structToMap(reflect.ValueOf(x))
	case Metadata:
		out := map[string]any{}
		for k, val := range x {
			out[k] = dumpValue(val)
		}
		return out
	case []JSFunc:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = FuncName(f)
		}
		return out
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	case interface{ Repr() string }:
		return x.Repr()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		return FuncName(v)
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return dumpValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = dumpValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := map[string]any{}
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = dumpValue(iter.Value().Interface())
		}
		return out
	case reflect.Struct:
		return fmt.Sprintf("%v", v)
	}
	return v
}
