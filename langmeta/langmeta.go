// Package langmeta provides display metadata for the supported languages
// (native names, flags, script direction) used by the CLI.
package langmeta

import (
	"strings"

	"github.com/veravista/veravista/culture"
)

// Direction is the writing direction of a script.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// Meta describes language display metadata.
type Meta struct {
	Name      string
	English   string
	Flag      string
	Direction Direction
}

// Registry contains metadata for each supported language.
var Registry = map[culture.Language]Meta{
	culture.English: {Name: "English", English: "English", Flag: "🇬🇧", Direction: LTR},
	culture.Urdu:    {Name: "اردو", English: "Urdu", Flag: "🇵🇰", Direction: RTL},
	culture.Chinese: {Name: "中文", English: "Chinese", Flag: "🇨🇳", Direction: LTR},
}

// Of returns the metadata for lang. Unknown values get their own name and
// no flag.
func Of(lang culture.Language) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	return Meta{Name: string(lang), English: string(lang), Direction: LTR}
}

// Resolve returns metadata for a language name, ISO code or locale such
// as "ur_PK.UTF-8".
func Resolve(s string) Meta {
	if lang, err := culture.ParseLanguage(s); err == nil {
		return Of(lang)
	}
	if lang, err := culture.ParseLanguage(baseCode(s)); err == nil {
		return Of(lang)
	}
	return Meta{Name: s, English: s, Direction: LTR}
}

// Label formats lang for menus, e.g. "🇵🇰 اردو (Urdu)".
func Label(lang culture.Language) string {
	m := Of(lang)
	label := m.Name
	if m.English != m.Name {
		label += " (" + m.English + ")"
	}
	if m.Flag != "" {
		label = m.Flag + " " + label
	}
	return label
}

// baseCode reduces a locale to its lowercase language subtag.
func baseCode(locale string) string {
	s := strings.TrimSpace(locale)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")
	base, _, _ := strings.Cut(s, "-")
	return strings.ToLower(base)
}
