package typeexpr

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
	bytesType    = reflect.TypeOf([]byte(nil))

	reflectMu      sync.Mutex
	reflectRecords = map[reflect.Type]*Record{}
)

// TypeOf derives a type annotation from the Go type T. Structs become
// models (embedded structs become bases), pointers become optional, and
// named types without a schema mapping become Opaque.
func TypeOf[T any]() Expr {
	return FromGoType(reflect.TypeOf((*T)(nil)).Elem())
}

// FromGoType is TypeOf for a reflect.Type. Struct records are memoized per
// type so that self-referencing structs terminate.
func FromGoType(t reflect.Type) Expr {
	reflectMu.Lock()
	defer reflectMu.Unlock()
	return fromGoType(t)
}

func fromGoType(t reflect.Type) Expr {
	switch t {
	case timeType:
		return DateTime
	case durationType:
		return Timedelta
	case uuidType:
		return UUID
	case bytesType:
		return Bytes
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.String:
		return Str
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return Any
		}
	case reflect.Pointer:
		return Optional(fromGoType(t.Elem()))
	case reflect.Slice:
		return ListOf(fromGoType(t.Elem()))
	case reflect.Array:
		items := make([]Expr, t.Len())
		for i := range items {
			items[i] = fromGoType(t.Elem())
		}
		return TupleOf(items...)
	case reflect.Map:
		return DictOf(fromGoType(t.Key()), fromGoType(t.Elem()))
	case reflect.Struct:
		return structRecord(t)
	}
	return &Opaque{Name: t.String(), GoType: t}
}

func structRecord(t reflect.Type) *Record {
	if r, ok := reflectRecords[t]; ok {
		return r
	}
	name := t.Name()
	if name == "" {
		name = "Anonymous"
	}
	module := t.PkgPath()
	if i := strings.LastIndexByte(module, '/'); i >= 0 {
		module = module[i+1:]
	}
	r := NewRecord(KindModel, module, name)
	reflectRecords[t] = r
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		key := ResolveStructKey(sf)
		if key == "-" {
			continue
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !hasExplicitName(sf) {
			r.Bases = append(r.Bases, structRecord(sf.Type))
			continue
		}
		if !sf.IsExported() {
			continue
		}
		f := &FieldDecl{Name: key, Type: fromGoType(sf.Type)}
		applyStructTag(&f.Info, sf)
		r.Fields = append(r.Fields, f)
	}
	return r
}

// ResolveStructKey resolves the external key of a struct field.
// Priority: schemagen:"name=..." > json tag name > field name; "-" disables
// the field.
func ResolveStructKey(sf reflect.StructField) string {
	if st := sf.Tag.Get("schemagen"); st != "" {
		for _, p := range strings.Split(st, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if jt[:i] != "" {
				return jt[:i]
			}
			return sf.Name
		}
		return jt
	}
	return sf.Name
}

func hasExplicitName(sf reflect.StructField) bool {
	jt := sf.Tag.Get("json")
	return jt != "" && !strings.HasPrefix(jt, ",")
}

// applyStructTag reads optional-ness and documentation from struct tags:
// json omitempty or a pointer type makes the field optional with a nil
// default, and schemagen:"title=...,description=...,alias=..." fills the
// remaining info.
func applyStructTag(info *FieldInfo, sf reflect.StructField) {
	if strings.Contains(sf.Tag.Get("json"), ",omitempty") || sf.Type.Kind() == reflect.Pointer {
		info.Default, info.HasDefault = reflect.Zero(sf.Type).Interface(), true
		if sf.Type.Kind() == reflect.Pointer {
			info.Default = nil
		}
	}
	for _, p := range strings.Split(sf.Tag.Get("schemagen"), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			if k == "required" {
				info.Default, info.HasDefault = nil, false
			}
			continue
		}
		switch k {
		case "title":
			info.Title = v
		case "description":
			info.Description = v
		case "alias":
			info.Alias = v
		}
	}
}
