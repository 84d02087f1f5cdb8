package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	zooFile    = filepath.Join("..", "..", "declfile", "testdata", "zoo.yaml")
	shapesFile = filepath.Join("..", "..", "declfile", "testdata", "shapes.yaml")
	goSource   = filepath.Join("..", "..", "declfile", "testdata", "gosrc")
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true
	root := newApp().rootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m), s)
	return m
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "schemagen version: dev")
}

func TestCore(t *testing.T) {
	out, _, err := run(t, "", "core", "-f", zooFile, "Owner")
	require.NoError(t, err)
	assert.NotEmpty(t, decode(t, out)["type"])

	out, _, err = run(t, "", "core", "-f", zooFile, "--format", "yaml", "Cat", "list[Dog]")
	require.NoError(t, err)
	assert.Contains(t, out, "\n---\n")
	assert.Contains(t, out, "type: list")

	_, _, err = run(t, "", "core", "-f", zooFile, "--format", "toml", "Cat")
	assert.Error(t, err)
}

func TestCore_Parametrized(t *testing.T) {
	out, _, err := run(t, "", "core", "-f", shapesFile, "Box[int]")
	require.NoError(t, err)
	assert.Contains(t, out, "Box[int]")
}

func TestJSONSchema(t *testing.T) {
	out, _, err := run(t, "", "jsonschema", "-f", zooFile, "Owner")
	require.NoError(t, err)
	doc := decode(t, out)
	defs, ok := doc["$defs"].(map[string]any)
	require.True(t, ok, out)
	assert.Contains(t, defs, "Cat")
	assert.Contains(t, defs, "Dog")

	out, _, err = run(t, "", "jsonschema", "-f", zooFile, "Cat", "Dog")
	require.NoError(t, err)
	doc = decode(t, out)
	assert.Equal(t, []any{
		map[string]any{"$ref": "#/$defs/Cat"},
		map[string]any{"$ref": "#/$defs/Dog"},
	}, doc["anyOf"])

	out, _, err = run(t, "", "jsonschema", "-f", zooFile, "--ref-template", "#/components/schemas/{model}", "Cat", "Dog")
	require.NoError(t, err)
	assert.Contains(t, out, "#/components/schemas/Cat")

	_, _, err = run(t, "", "jsonschema", "-f", zooFile, "--mode", "bogus", "Cat")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, `{"name":" ann ","pet":{"kind":"dog","breed":"lab"}}`, "validate", "-f", zooFile, "Owner")
	require.NoError(t, err)
	got := decode(t, out)
	assert.Equal(t, "ann", got["name"])
	assert.Equal(t, map[string]any{"kind": "dog", "breed": "lab", "size": "s"}, got["pet"])

	_, errOut, err := run(t, `{"name":"ann","pet":{"kind":"fish"}}`, "validate", "-f", zooFile, "Owner", "-")
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, errOut, "1 validation issue for Owner")
	assert.Contains(t, errOut, "/pet  discriminator_unknown")

	_, _, err = run(t, `{"name":"ann",`, "validate", "-f", zooFile, "Owner")
	assert.ErrorIs(t, err, errInvalid)

	out, _, err = run(t, `{"name":"ann","pet":{"kind":"cat"}}`, "validate", "-q", "-f", zooFile, "Owner")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestValidate_GoSource(t *testing.T) {
	in := `{"created_at":"2025-01-02T03:04:05Z","id":1,"lines":[]}`
	out, _, err := run(t, in, "validate", "--go-source", goSource, "Order")
	require.NoError(t, err)
	got := decode(t, out)
	assert.Equal(t, float64(1), got["id"])
	assert.Equal(t, "2025-01-02T03:04:05Z", got["created_at"])
}

func TestDeclarationSourceRequired(t *testing.T) {
	_, _, err := run(t, "", "core", "Owner")
	assert.ErrorContains(t, err, "--file or --go-source")

	_, _, err = run(t, "", "core", "-f", zooFile, "--go-source", goSource, "Owner")
	assert.Error(t, err)
}
