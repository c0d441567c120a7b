// Package bridge helps speakers of different languages connect: cultural
// context notes for a conversation, interest-based matching across
// languages, conversation starters and interaction feedback.
//
// All user-facing text comes from an embedded go-i18n message catalog
// (catalog/notes.en.toml). Lookups fall back to a "-default" message when
// a language or pair is not specifically modelled.
package bridge

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/veravista/veravista/culture"
)

//go:embed catalog/*.toml
var catalogFS embed.FS

// DefaultMaxConnections caps the candidates returned per language.
const DefaultMaxConnections = 3

// DefaultSensitiveTopics lists topics to approach with care, keyed by the
// listener's language. Matching is a case-insensitive substring test.
var DefaultSensitiveTopics = map[culture.Language][]string{
	culture.English: {"politics", "religion", "income"},
	culture.Urdu:    {"religion criticism", "family issues", "dating"},
	culture.Chinese: {"political criticism", "territorial disputes", "cultural revolution"},
}

// Options configures a Bridge.
type Options struct {
	// Directory supplies connection candidates. Defaults to SampleDirectory.
	Directory Directory
	// MaxConnections caps results per language. Zero means the default.
	MaxConnections int
	// SensitiveTopics are merged into DefaultSensitiveTopics.
	SensitiveTopics map[culture.Language][]string
	Logger          *zap.Logger
}

// Bridge implements the cultural bridge operations. It is safe for
// concurrent use.
type Bridge struct {
	localizer      *i18n.Localizer
	directory      Directory
	maxConnections int
	sensitive      map[culture.Language][]string
	logger         *zap.Logger
}

// New creates a Bridge and loads the message catalog.
func New(opts Options) (*Bridge, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	if _, err := bundle.LoadMessageFileFS(catalogFS, "catalog/notes.en.toml"); err != nil {
		return nil, fmt.Errorf("loading message catalog: %w", err)
	}

	b := &Bridge{
		localizer:      i18n.NewLocalizer(bundle, language.English.String()),
		directory:      opts.Directory,
		maxConnections: opts.MaxConnections,
		sensitive:      mergeTopics(DefaultSensitiveTopics, opts.SensitiveTopics),
		logger:         opts.Logger,
	}
	if b.directory == nil {
		b.directory = SampleDirectory()
	}
	if b.maxConnections <= 0 {
		b.maxConnections = DefaultMaxConnections
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b, nil
}

// message renders the first of ids present in the catalog.
func (b *Bridge) message(data map[string]any, ids ...string) (string, error) {
	var lastErr error
	for _, id := range ids {
		text, err := b.localizer.Localize(&i18n.LocalizeConfig{
			MessageID:    id,
			TemplateData: data,
		})
		if err == nil {
			return text, nil
		}
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			return "", fmt.Errorf("rendering %s: %w", id, err)
		}
		lastErr = err
	}
	return "", lastErr
}

func mergeTopics(base, extra map[culture.Language][]string) map[culture.Language][]string {
	out := make(map[culture.Language][]string, len(base))
	for lang, topics := range base {
		out[lang] = append([]string(nil), topics...)
	}
	for lang, topics := range extra {
		for _, t := range topics {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				out[lang] = append(out[lang], t)
			}
		}
	}
	return out
}
