package validator

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/schemagen/constraint"
	"github.com/reoring/schemagen/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType          = "invalid_type"
	CodeRequired             = "required"
	CodeUnknownKey           = "unknown_key"
	CodeDuplicateKey         = "duplicate_key"
	CodeTooSmall             = "too_small"
	CodeTooBig               = "too_big"
	CodeTooShort             = "too_short"
	CodeTooLong              = "too_long"
	CodePattern              = "pattern"
	CodeMultipleOf           = "multiple_of"
	CodeFiniteNumber         = "finite_number"
	CodeInvalidEnum          = "invalid_enum"
	CodeInvalidFormat        = "invalid_format"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeUnionNoMatch         = "union_no_match"
	CodeValueError           = "value_error"
	CodePredicateFailed      = "predicate_failed"
	CodeParseError           = "parse_error"
	CodeTruncated            = "truncated"
	CodeInvalidSchema        = "invalid_schema"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Input is the offending value when it is known.
	Input any
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(iss)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if n := len(iss); n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Pointer renders a location as a JSON pointer.
func Pointer(loc []any) string {
	if len(loc) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, seg := range loc {
		b.WriteByte('/')
		switch s := seg.(type) {
		case int:
			b.WriteString(strconv.Itoa(s))
		case string:
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1"))
		default:
			b.WriteString(fmt.Sprint(s))
		}
	}
	return b.String()
}

func splitPointer(p string) []any {
	if p == "" || p == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	loc := make([]any, len(parts))
	for i, s := range parts {
		loc[i] = strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
	}
	return loc
}

// lineError is an issue whose location is relative to the node that
// produced it. Locations grow as errors travel up.
type lineError struct {
	loc    []any
	code   string
	params map[string]any
	input  any
	cause  error
	msg    string
}

type lineErrors []lineError

func (l lineErrors) Error() string { return l.issues().Error() }

func fail(code string, input any, params map[string]any) lineErrors {
	return lineErrors{{code: code, input: input, params: params}}
}

func invalidType(expected string, input any) lineErrors {
	return fail(CodeInvalidType, input, map[string]any{"expected": expected})
}

// at prefixes the location of every error in err with segs.
func at(err error, segs ...any) error {
	le, ok := err.(lineErrors)
	if !ok {
		return err
	}
	out := make(lineErrors, len(le))
	for i, e := range le {
		e.loc = append(append([]any{}, segs...), e.loc...)
		out[i] = e
	}
	return out
}

// userError classifies an error returned by a user function.
func userError(err error, input any) lineErrors {
	var le lineErrors
	if errors.As(err, &le) {
		return le
	}
	var iss Issues
	if errors.As(err, &iss) {
		out := make(lineErrors, len(iss))
		for i, is := range iss {
			out[i] = lineError{loc: splitPointer(is.Path), code: is.Code, params: is.Params, input: is.Input, cause: is.Cause}
		}
		return out
	}
	var v *constraint.Violation
	if errors.As(err, &v) {
		return lineErrors{{code: v.Code, params: violationParams(v.Params, input), input: input, cause: err}}
	}
	return lineErrors{{code: CodeValueError, params: map[string]any{"error": err.Error()}, input: input, cause: err}}
}

func (l lineErrors) issues() Issues {
	out := make(Issues, len(l))
	for i, e := range l {
		msg := e.msg
		if msg == "" {
			msg = i18n.T(e.code, messageData(e.params))
		}
		out[i] = Issue{
			Path:    Pointer(e.loc),
			Code:    e.code,
			Message: msg,
			Cause:   e.cause,
			Input:   e.input,
			Params:  e.params,
		}
	}
	return out
}

var boundOps = map[string]string{
	"gt": "greater than",
	"ge": "greater than or equal to",
	"lt": "less than",
	"le": "less than or equal to",
}

// boundParams describes a failed bound check under key (gt, ge, lt or le).
func boundParams(key string, bound any) map[string]any {
	return map[string]any{key: bound, "op": boundOps[key], "bound": bound}
}

// lengthParams describes a failed length check of input.
func lengthParams(key string, n, actual int, input any) map[string]any {
	unit := "items"
	switch input.(type) {
	case string:
		unit = "characters"
	case []byte:
		unit = "bytes"
	}
	p := map[string]any{key: n, "actual_length": actual, "unit": unit}
	if key == "min_length" {
		p["min"] = n
	} else {
		p["max"] = n
	}
	return p
}

// violationParams adds the message placeholders to the params of a
// constraint violation.
func violationParams(p map[string]any, input any) map[string]any {
	for key := range boundOps {
		if b, ok := p[key]; ok {
			return boundParams(key, b)
		}
	}
	for _, key := range []string{"min_length", "max_length"} {
		if n, ok := p[key].(int); ok {
			actual, _ := p["actual_length"].(int)
			return lengthParams(key, n, actual, input)
		}
	}
	return p
}

func messageData(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		switch x := v.(type) {
		case string:
			out[k] = x
		case []any:
			out[k] = joinRepr(x, ", ")
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out
}

// repr quotes strings the way messages show expected values.
func repr(v any) string {
	if s, ok := v.(string); ok {
		return "'" + s + "'"
	}
	return fmt.Sprint(v)
}

func joinRepr(vs []any, sep string) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = repr(v)
	}
	return strings.Join(parts, sep)
}

// orList renders "'a', 'b' or 'c'".
func orList(vs []any) string {
	if len(vs) <= 1 {
		return joinRepr(vs, "")
	}
	return joinRepr(vs[:len(vs)-1], ", ") + " or " + repr(vs[len(vs)-1])
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
