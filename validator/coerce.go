package validator

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/schemagen/core"
)

// toInt reads an integer. Lax mode also takes integral floats and numeric
// strings.
func toInt(v any, strict bool) (int, bool) {
	switch x := v.(type) {
	case bool:
		return 0, false
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true
		}
		if strict {
			return 0, false
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float32:
		if strict {
			return 0, false
		}
		return floatToInt(float64(x))
	case float64:
		if strict {
			return 0, false
		}
		return floatToInt(x)
	case string:
		if strict {
			return 0, false
		}
		i, err := strconv.Atoi(strings.TrimSpace(x))
		return i, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int(u), true
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int(f), true
}

// toFloat reads a number. Integers are accepted in strict mode too.
func toFloat(v any, strict bool) (float64, bool) {
	switch x := v.(type) {
	case bool:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		if strict {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	if i, ok := toInt(v, true); ok {
		return float64(i), true
	}
	return 0, false
}

func toBool(v any, strict bool) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	if strict {
		return false, false
	}
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes", "y", "on", "t":
			return true, true
		case "false", "0", "no", "n", "off", "f":
			return false, true
		}
		return false, false
	}
	if i, ok := toInt(v, true); ok && (i == 0 || i == 1) {
		return i == 1, true
	}
	return false, false
}

// scalar folds numeric representations so that equal numbers compare
// equal: integers become int64 and other numbers float64.
func scalar(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return string(x)
	case float32:
		return scalar(float64(x))
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < math.MaxInt64 {
			return int64(x)
		}
		return x
	case bool, string, nil:
		return x
	}
	if i, ok := toInt(v, true); ok {
		return int64(i)
	}
	return v
}

func sameScalar(a, b any) bool {
	a, b = scalar(a), scalar(b)
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if a == nil || !reflect.TypeOf(a).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// asSlice returns the items of a list-like input. Strings and byte slices
// are not lists.
func asSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case string, []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

type entry struct {
	key   any
	value any
}

// mapEntries returns the entries of a map input, sorted by key text.
func mapEntries(v any) ([]entry, bool) {
	if m, ok := v.(map[string]any); ok {
		out := make([]entry, 0, len(m))
		for _, k := range sortedKeys(m) {
			out = append(out, entry{k, m[k]})
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if v == nil || rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, entry{iter.Key().Interface(), iter.Value().Interface()})
	}
	sort.Slice(out, func(i, j int) bool { return fmt.Sprint(out[i].key) < fmt.Sprint(out[j].key) })
	return out, true
}

// asFields returns the field values of a record-shaped input: a
// string-keyed map or a validated instance.
func asFields(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case *core.Instance:
		if x == nil {
			return nil, false
		}
		out := make(map[string]any, len(x.Fields)+len(x.Extra))
		for k, val := range x.Extra {
			out[k] = val
		}
		for k, val := range x.Fields {
			out[k] = val
		}
		return out, true
	}
	es, ok := mapEntries(v)
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(es))
	for _, e := range es {
		k, ok := e.key.(string)
		if !ok {
			return nil, false
		}
		out[k] = e.value
	}
	return out, true
}

// lookupPath follows an alias path of string keys and integer indexes.
func lookupPath(v any, path []any) (any, bool) {
	cur := v
	for _, seg := range path {
		switch s := seg.(type) {
		case string:
			m, ok := asFields(cur)
			if !ok {
				return nil, false
			}
			if cur, ok = m[s]; !ok {
				return nil, false
			}
		case int:
			items, ok := asSlice(cur)
			if !ok {
				return nil, false
			}
			if s < 0 {
				s += len(items)
			}
			if s < 0 || s >= len(items) {
				return nil, false
			}
			cur = items[s]
		default:
			return nil, false
		}
	}
	return cur, true
}

// aliasPaths normalizes a validation alias: a string, one path ([]any) or
// several paths ([][]any).
func aliasPaths(alias any) [][]any {
	switch a := alias.(type) {
	case string:
		if a != "" {
			return [][]any{{a}}
		}
	case []any:
		if len(a) > 0 {
			return [][]any{a}
		}
	case [][]any:
		return a
	case []string:
		if len(a) > 0 {
			p := make([]any, len(a))
			for i, s := range a {
				p[i] = s
			}
			return [][]any{p}
		}
	}
	return nil
}

// deepCopy copies maps and slices so that shared defaults are never
// mutated through a validated value.
func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = deepCopy(val)
		}
		return out
	}
	return v
}

// setKey identifies a set member by its canonical JSON encoding.
func setKey(v any) string {
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%#v", v)
}

func className(cls any) string {
	switch c := cls.(type) {
	case interface{ QualName() string }:
		return c.QualName()
	case nil:
		return ""
	case string:
		return c
	}
	return fmt.Sprint(cls)
}

func firstBool(vs ...*bool) bool {
	for _, v := range vs {
		if v != nil {
			return *v
		}
	}
	return false
}

func firstInt(vs ...*int) *int {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}
