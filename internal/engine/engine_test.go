package engine

import (
	"errors"
	"io"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Values(t *testing.T) {
	v, err := Decode(NewBytes([]byte(`{"a":[1,"x",true,null],"b":{"c":2.5}}`)), NumberJSONNumber)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": []any{json.Number("1"), "x", true, nil},
		"b": map[string]any{"c": json.Number("2.5")},
	}, v)

	v, err = Decode(NewBytes([]byte(`[1, 2.5]`)), NumberFloat64)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, v)

	v, err = Decode(NewBytes([]byte(`[]`)), NumberJSONNumber)
	require.NoError(t, err)
	assert.Equal(t, []any{}, v)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(NewBytes([]byte(`{"a":`)), NumberJSONNumber)
	assert.Error(t, err)

	_, err = Decode(NewBytes([]byte(`1 2`)), NumberJSONNumber)
	var se *SyntaxError
	assert.True(t, errors.As(err, &se), "got %v", err)

	_, err = Decode(NewBytes(nil), NumberJSONNumber)
	assert.ErrorIs(t, err, io.EOF)
}

func TestEnforcement_DuplicateKeys(t *testing.T) {
	in := []byte(`{"a":1,"b":{"x":1,"x":2}}`)

	v, err := Decode(WrapWithEnforcement(NewBytes(in), EnforceOptions{}), NumberJSONNumber)
	require.NoError(t, err)
	assert.Equal(t, json.Number("2"), v.(map[string]any)["b"].(map[string]any)["x"])

	var warned []SimpleIssue
	_, err = Decode(WrapWithEnforcement(NewBytes(in), EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink:   func(si SimpleIssue) { warned = append(warned, si) },
	}), NumberJSONNumber)
	require.NoError(t, err)
	require.Len(t, warned, 1)
	assert.Equal(t, "/b/x", warned[0].Path)

	_, err = Decode(WrapWithEnforcement(NewBytes(in), EnforceOptions{OnDuplicate: DupError}), NumberJSONNumber)
	var ie *IssueError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "duplicate_key", ie.Code)
	assert.Equal(t, "/b/x", ie.Path)
}

func TestEnforcement_DepthAndBytes(t *testing.T) {
	_, err := Decode(WrapWithEnforcement(NewBytes([]byte(`{"a":{"b":[1]}}`)), EnforceOptions{MaxDepth: 2}), NumberJSONNumber)
	var ie *IssueError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "parse_error", ie.Code)
	assert.Equal(t, "/a/b", ie.Path)

	_, err = Decode(WrapWithEnforcement(NewBytes([]byte(`["aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"]`)), EnforceOptions{MaxBytes: 4}), NumberJSONNumber)
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "truncated", ie.Code)
}

func TestParseDuplicateStrictness(t *testing.T) {
	for in, want := range map[string]DuplicateStrictness{"": DupIgnore, "warn": DupWarn, "ERROR": DupError} {
		got, ok := ParseDuplicateStrictness(in)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := ParseDuplicateStrictness("loud")
	assert.False(t, ok)
}
