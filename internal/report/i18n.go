package report

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Language is a report localisation code.
type Language string

const (
	LangEnglish Language = "en"
	LangTurkish Language = "tr"
)

// ErrUnsupportedLanguage is returned by ParseLanguage for unknown codes.
var ErrUnsupportedLanguage = errors.New("report: unsupported language")

//go:embed en.json tr.json
var localeFS embed.FS

var locales = map[Language]map[string]string{}

func init() {
	for _, lang := range []Language{LangEnglish, LangTurkish} {
		data, err := localeFS.ReadFile(string(lang) + ".json")
		if err != nil {
			panic(fmt.Sprintf("report: load locale %s: %v", lang, err))
		}
		var labels map[string]string
		if err := json.Unmarshal(data, &labels); err != nil {
			panic(fmt.Sprintf("report: parse locale %s: %v", lang, err))
		}
		locales[lang] = labels
	}
}

// Translator resolves report labels. Labels missing from a locale fall
// back to English, then to the key itself.
type Translator struct {
	lang   Language
	labels map[string]string
}

// NewTranslator builds a translator for lang, using English for unknown codes.
func NewTranslator(lang Language) Translator {
	labels, ok := locales[lang]
	if !ok {
		lang = LangEnglish
		labels = locales[LangEnglish]
	}
	return Translator{lang: lang, labels: labels}
}

func (t Translator) Lang() Language {
	return t.lang
}

func (t Translator) T(key string) string {
	if val, ok := t.labels[key]; ok {
		return val
	}
	if val, ok := locales[LangEnglish][key]; ok {
		return val
	}
	return key
}

func (t Translator) Format(key string, args ...interface{}) string {
	return fmt.Sprintf(t.T(key), args...)
}

// ParseLanguage accepts a bare code or a locale such as "tr_TR.UTF-8" as
// found in LANG; the empty string selects English.
func ParseLanguage(lang string) (Language, error) {
	code := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(code, "_-."); i >= 0 {
		code = code[:i]
	}
	switch Language(code) {
	case "", LangEnglish:
		return LangEnglish, nil
	case LangTurkish:
		return LangTurkish, nil
	default:
		return LangEnglish, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
}
