package culture

import (
	"strings"

	"golang.org/x/text/language"
)

// localeLanguages maps base language subtags to the closed set. Anything
// not listed resolves to English.
var localeLanguages = map[string]Language{
	"en": English,
	"ur": Urdu,
	"zh": Chinese,
}

// DetectLocale returns the user's preferred locale from the environment,
// following GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
// It returns "" when nothing usable is set.
func DetectLocale(getenv func(string) string) string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE is a colon-separated preference list
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// "ur_PK.UTF-8@latin" -> "ur_PK"
		if idx := strings.IndexAny(val, ".@"); idx >= 0 {
			val = val[:idx]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return ""
}

// LanguageFromLocale maps a locale such as "zh_CN", "ur-PK" or "en" to a
// Language. Unparseable or unmodelled locales resolve to English.
func LanguageFromLocale(locale string) Language {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if locale == "" {
		return English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return English
	}
	base, _ := tag.Base()
	if l, ok := localeLanguages[base.String()]; ok {
		return l
	}
	return English
}
