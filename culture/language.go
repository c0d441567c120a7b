// Package culture holds the active cultural context of a session: the
// selected language and the presentation settings that come with it.
//
// The language set is closed. Everything keyed by language (settings,
// locale mapping, display codes) is a lookup table rather than a switch,
// so an unmodelled value has exactly one place to fall back.
package culture

import (
	"errors"
	"fmt"
	"strings"
)

// Language is one of the supported cultural contexts.
type Language string

const (
	English Language = "english"
	Urdu    Language = "urdu"
	Chinese Language = "chinese"
)

// ErrUnknownLanguage is returned when a value outside the closed language
// set is used where a Language is required.
var ErrUnknownLanguage = errors.New("unknown language")

// languages lists the closed set in display order.
var languages = []Language{English, Urdu, Chinese}

// isoCodes maps each language to its ISO 639-1 code.
var isoCodes = map[Language]string{
	English: "en",
	Urdu:    "ur",
	Chinese: "zh",
}

// Languages returns the supported languages in fixed order.
func Languages() []Language {
	return append([]Language(nil), languages...)
}

// Valid reports whether l is part of the closed set.
func (l Language) Valid() bool {
	_, ok := isoCodes[l]
	return ok
}

// Code returns the ISO 639-1 code, or "" for unknown values.
func (l Language) Code() string {
	return isoCodes[l]
}

func (l Language) String() string {
	return string(l)
}

// ParseLanguage accepts a language name ("urdu") or its ISO code ("ur"),
// case-insensitively.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if l := Language(s); l.Valid() {
		return l, nil
	}
	for l, code := range isoCodes {
		if code == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}
