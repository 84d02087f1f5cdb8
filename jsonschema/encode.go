package jsonschema

import (
	"bytes"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reoring/schemagen/core"
)

// Marshal encodes a rendered document with two-space indentation. Object
// keys come out sorted.
func Marshal(js map[string]any) ([]byte, error) {
	return json.MarshalIndent(js, "", "  ")
}

// canonical returns a comparable encoding of v. Equal JSON values give
// equal strings.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// encodeValue turns a Go value into its JSON form: strings, numbers,
// booleans, nil, []any and map[string]any.
func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return x, nil
	case *core.Instance:
		if x == nil {
			return nil, nil
		}
		return encodeValue(x.Fields)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return fromNumbers(out), nil
}

// fromNumbers replaces the json.Number leaves of a decoded tree with int or
// float64, matching the plain values encodeValue passes through.
func fromNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		for i, e := range x {
			x[i] = fromNumbers(e)
		}
	case map[string]any:
		for k, e := range x {
			x[k] = fromNumbers(e)
		}
	}
	return v
}

// jsonType names the JSON type of a Go value, or "" when there is none.
func jsonType(v any) string {
	if v == nil {
		return "null"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return ""
}

// commonType returns the JSON type shared by all values, or "".
func commonType(values []any) string {
	t := ""
	for i, v := range values {
		vt := jsonType(v)
		if vt == "" || vt == "null" || (i > 0 && vt != t) {
			return ""
		}
		t = vt
	}
	return t
}

// TitleFromName derives a title from a field or parameter name:
// "first_name" becomes "First Name".
func TitleFromName(name string) string {
	return strings.TrimSpace(cases.Title(language.Und).String(strings.ReplaceAll(name, "_", " ")))
}

// dedupe drops schemas equal to an earlier one, keeping order.
func dedupe(schemas []map[string]any) []map[string]any {
	seen := map[string]bool{}
	out := make([]map[string]any, 0, len(schemas))
	for _, s := range schemas {
		c := canonical(s)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, s)
	}
	return out
}

// flattenedAnyOf joins schemas into an anyOf, splicing in the members of
// nested anyOf-only schemas.
func flattenedAnyOf(schemas []map[string]any) map[string]any {
	var members []map[string]any
	for _, s := range schemas {
		if inner, ok := s["anyOf"].([]any); ok && len(s) == 1 {
			for _, m := range inner {
				if mm, ok := m.(map[string]any); ok {
					members = append(members, mm)
				}
			}
			continue
		}
		members = append(members, s)
	}
	members = dedupe(members)
	if len(members) == 1 {
		return members[0]
	}
	return map[string]any{"anyOf": toAny(members)}
}

func toAny(ms []map[string]any) []any {
	out := make([]any, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

func skipsNone(ser core.SerSchema) bool {
	var when string
	switch s := ser.(type) {
	case *core.PlainSerializerFunctionSerSchema:
		when = s.WhenUsed
	case *core.WrapSerializerFunctionSerSchema:
		when = s.WhenUsed
	case *core.ToStringSerSchema:
		when = s.WhenUsed
	}
	return when == core.WhenUnlessNone || when == core.WhenJSONUnlessNone
}
