// Package alias provides alias generators that convert field names between
// snake_case, camelCase and PascalCase.
package alias

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reoring/schemagen/typeexpr"
)

var (
	camelShape   = regexp.MustCompile(`^[a-z]+[A-Za-z0-9]*$`)
	digitLetter  = regexp.MustCompile(`\d[a-z]`)
	leadingUpper = regexp.MustCompile(`^_*[A-Z]`)

	acronymWord = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	lowerUpper  = regexp.MustCompile(`([a-z])([A-Z])`)
	digitUpper  = regexp.MustCompile(`([0-9])([A-Z])`)
	lowerDigit  = regexp.MustCompile(`([a-z])([0-9])`)
)

// ToPascal converts a snake_case name to PascalCase: "http_response_code"
// becomes "HttpResponseCode".
func ToPascal(snake string) string {
	title := cases.Title(language.Und)
	parts := strings.Split(snake, "_")
	for i, p := range parts {
		parts[i] = title.String(p)
	}
	titled := []rune(strings.Join(parts, "_"))

	var b strings.Builder
	for i, r := range titled {
		if r == '_' && i > 0 && i+1 < len(titled) && isAlnum(titled[i-1]) && (unicode.IsDigit(titled[i+1]) || isUpper(titled[i+1])) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamel converts a snake_case name to camelCase. Names already in
// camelCase are returned unchanged.
func ToCamel(snake string) string {
	if camelShape.MatchString(snake) && !digitLetter.MatchString(snake) {
		return snake
	}
	return leadingUpper.ReplaceAllStringFunc(ToPascal(snake), strings.ToLower)
}

// ToSnake converts a camelCase, PascalCase or kebab-case name to
// snake_case: "HTTPResponse" becomes "http_response".
func ToSnake(camel string) string {
	s := acronymWord.ReplaceAllString(camel, "${1}_${2}")
	s = lowerUpper.ReplaceAllString(s, "${1}_${2}")
	s = digitUpper.ReplaceAllString(s, "${1}_${2}")
	s = lowerDigit.ReplaceAllString(s, "${1}_${2}")
	return cases.Lower(language.Und).String(strings.ReplaceAll(s, "-", "_"))
}

// ByName returns the generator registered as name: "camel", "pascal" or
// "snake".
func ByName(name string) (typeexpr.AliasGenerator, bool) {
	switch strings.ToLower(name) {
	case "camel":
		return ToCamel, true
	case "pascal":
		return ToPascal, true
	case "snake":
		return ToSnake, true
	}
	return nil, false
}

func isAlnum(r rune) bool { return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) }

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
