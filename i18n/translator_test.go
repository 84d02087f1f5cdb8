package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	t.Cleanup(func() { SetLanguage("en") })

	assert.Equal(t, "Input should be a valid integer", T("invalid_type", map[string]string{"expected": "integer"}))
	assert.Equal(t, "Field required", T("required", nil))

	SetLanguage("ja")
	assert.Equal(t, "必須フィールドがありません", T("required", nil))
	assert.Contains(t, T("discriminator_unknown", map[string]string{"tag": "fish", "discriminator": "kind", "expected": "'cat', 'dog'"}), "'fish'")
}

func TestTranslator_Fallbacks(t *testing.T) {
	t.Cleanup(func() { SetLanguage("en") })

	assert.Equal(t, "no_such_code", T("no_such_code", nil))

	SetLanguage("xx")
	assert.Equal(t, "Field required", T("required", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	t.Cleanup(func() { SetTranslator(nil) })
	SetTranslator(upper{})
	assert.Equal(t, "X:required", T("required", nil))
	SetTranslator(nil)
	assert.Equal(t, "Field required", T("required", nil))
}

func TestMatch(t *testing.T) {
	assert.Equal(t, "ja", Match("ja-JP"))
	assert.Equal(t, "en", Match("en-GB"))
	assert.Equal(t, "en", Match("fr"))
	assert.Equal(t, "ja", Match("fr", "ja"))
}
