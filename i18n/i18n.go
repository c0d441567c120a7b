// Package i18n translates veravista's own CLI labels into the active
// cultural context's language.
//
// It wraps the gotext library to provide simple T() and N() functions.
// Translations are embedded in the binary via //go:embed and loaded at
// startup via Init().
//
// Usage:
//
//	import "github.com/veravista/veravista/i18n"
//
//	func main() {
//	    i18n.Init(culture.Urdu)
//	    fmt.Println(i18n.T("Active language"))
//	    fmt.Println(i18n.N("%d connection", "%d connections", count))
//	}
package i18n

import (
	"embed"

	"github.com/leonelquinteros/gotext"

	"github.com/veravista/veravista/culture"
)

// locales embeds the translation files.
// Directory structure: locales/{code}/LC_MESSAGES/veravista.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for veravista.
const domain = "veravista"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init loads the catalog for lang. English, and any language without a
// catalog, passes msgids through unchanged.
//
// Init should be called once the cultural context is known, before any
// T() or N() calls.
func Init(lang culture.Language) {
	code := lang.Code()
	if code == "" {
		code = culture.English.Code()
	}

	po = gotext.NewLocaleFSWithPath(code, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}
