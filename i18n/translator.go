package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Translator retrieves localized messages for issue codes.
// data fills the {placeholders} of the message (for example "expected" or
// "tag").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"invalid_type":          "Input should be a valid {expected}",
		"required":              "Field required",
		"unknown_key":           "Extra inputs are not permitted",
		"duplicate_key":         "Duplicate key '{key}'",
		"too_small":             "Input should be {op} {bound}",
		"too_big":               "Input should be {op} {bound}",
		"too_short":             "Value should have at least {min} {unit}",
		"too_long":              "Value should have at most {max} {unit}",
		"pattern":               "String should match pattern '{pattern}'",
		"multiple_of":           "Input should be a multiple of {multiple_of}",
		"finite_number":         "Input should be a finite number",
		"invalid_enum":          "Input should be {expected}",
		"invalid_format":        "Input should be a valid {format}",
		"discriminator_missing": "Unable to extract tag using discriminator '{discriminator}'",
		"discriminator_unknown": "Input tag '{tag}' found using '{discriminator}' does not match any of the expected tags: {expected}",
		"union_no_match":        "Input does not match any member of the union",
		"value_error":           "Value error, {error}",
		"predicate_failed":      "Value does not satisfy the predicate",
		"parse_error":           "Invalid JSON: {error}",
		"truncated":             "Input is too large",
		"invalid_schema":        "Schema error: {error}",
	},
	"ja": {
		"invalid_type":          "{expected} として不正な値です",
		"required":              "必須フィールドがありません",
		"unknown_key":           "未知のキーです",
		"duplicate_key":         "キー '{key}' が重複しています",
		"too_small":             "値は {bound} 以上である必要があります",
		"too_big":               "値は {bound} 以下である必要があります",
		"too_short":             "{min} 以上の長さが必要です",
		"too_long":              "{max} 以下の長さが必要です",
		"pattern":               "パターン '{pattern}' に一致しません",
		"multiple_of":           "{multiple_of} の倍数である必要があります",
		"finite_number":         "有限の数値である必要があります",
		"invalid_enum":          "{expected} のいずれかである必要があります",
		"invalid_format":        "{format} として不正な形式です",
		"discriminator_missing": "判別子 '{discriminator}' の値がありません",
		"discriminator_unknown": "判別子 '{discriminator}' の値 '{tag}' は {expected} のいずれでもありません",
		"union_no_match":        "いずれの候補にも一致しません",
		"value_error":           "値エラー: {error}",
		"predicate_failed":      "条件を満たしません",
		"parse_error":           "解析エラー: {error}",
		"truncated":             "入力が大きすぎます",
		"invalid_schema":        "スキーマエラー: {error}",
	},
}

// dictTranslator is the built-in dictionary-based Translator. Codes
// missing from the language fall back to English, then to the code.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		if msg, ok = catalogs["en"][code]; !ok {
			return code
		}
	}
	return fill(msg, data)
}

func fill(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// Languages lists the built-in languages.
func Languages() []string { return []string{"en", "ja"} }

var matcher = language.NewMatcher([]language.Tag{language.English, language.Japanese})

// Match returns the built-in language closest to the BCP 47 tags given,
// for example "ja" for "ja-JP". It returns "en" when nothing matches.
func Match(tags ...string) string {
	_, i := language.MatchStrings(matcher, tags...)
	return Languages()[i]
}

// SetLanguage switches the built-in Translator language. lang is matched
// against the built-in languages, so "ja-JP" selects "ja"; unknown
// languages select English.
func SetLanguage(lang string) {
	SetTranslator(dictTranslator{lang: Match(lang)})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
