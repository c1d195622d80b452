package inference

import "strings"

// sourceLanguageTag is the fixed source language for translations.
const sourceLanguageTag = "en_XX"

// defaultTargetTag is used when the requested language is not recognized.
const defaultTargetTag = "hi_IN"

// languageTags maps human-readable language names to mBART-50 tags.
var languageTags = map[string]string{
	"hindi":      "hi_IN",
	"french":     "fr_XX",
	"spanish":    "es_XX",
	"german":     "de_DE",
	"japanese":   "ja_XX",
	"chinese":    "zh_CN",
	"arabic":     "ar_AR",
	"russian":    "ru_RU",
	"portuguese": "pt_XX",
	"italian":    "it_IT",
	"korean":     "ko_KR",
	"dutch":      "nl_XX",
	"turkish":    "tr_TR",
	"polish":     "pl_PL",
	"tamil":      "ta_IN",
	"telugu":     "te_IN",
	"bengali":    "bn_IN",
	"gujarati":   "gu_IN",
	"marathi":    "mr_IN",
	"urdu":       "ur_PK",
}

// LanguageTag resolves a language name (case-insensitive) to its model tag.
// Unknown names fall back to the default target.
func LanguageTag(name string) string {
	if tag, ok := languageTags[strings.ToLower(strings.TrimSpace(name))]; ok {
		return tag
	}
	return defaultTargetTag
}

// SupportedLanguages lists the language names the translation endpoint accepts.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languageTags))
	for name := range languageTags {
		names = append(names, name)
	}
	return names
}
