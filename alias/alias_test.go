package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPascal(t *testing.T) {
	for in, want := range map[string]string{
		"snake_case":         "SnakeCase",
		"http_response_code": "HttpResponseCode",
		"_private":           "_Private",
		"already":            "Already",
		"a__b":               "A__B",
	} {
		assert.Equal(t, want, ToPascal(in), in)
	}
}

func TestToCamel(t *testing.T) {
	for in, want := range map[string]string{
		"snake_case":   "snakeCase",
		"alreadyCamel": "alreadyCamel",
		"Pascal":       "pascal",
		"_private":     "_private",
		"user_id":      "userId",
	} {
		assert.Equal(t, want, ToCamel(in), in)
	}
}

func TestToSnake(t *testing.T) {
	for in, want := range map[string]string{
		"HTTPResponse": "http_response",
		"camelCase2":   "camel_case_2",
		"PascalCase":   "pascal_case",
		"kebab-case":   "kebab_case",
		"snake_case":   "snake_case",
	} {
		assert.Equal(t, want, ToSnake(in), in)
	}
}

func TestByName(t *testing.T) {
	gen, ok := ByName("Camel")
	require.True(t, ok)
	assert.Equal(t, "firstName", gen("first_name"))

	_, ok = ByName("kebab")
	assert.False(t, ok)
}
