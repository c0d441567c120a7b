package translate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/veravista/veravista/culture"
)

// register is one phrasing offered by GetAlternativeTranslations.
type register struct {
	note        string
	confidence  float64
	userContext map[string]any
	// raw skips adaptation and returns the base draft.
	raw bool
	// inline marks surviving idioms in the text.
	inline bool
}

var registers = []register{
	{note: "Formal context", confidence: 0.92, userContext: map[string]any{"formality": "formal"}},
	{note: "Casual context", confidence: 0.87, raw: true},
	{note: "Specific cultural context", confidence: 0.78, inline: true},
}

// GetAlternativeTranslations returns phrasings of phrase for different
// registers, most confident first. When source equals target the phrase
// itself is the only alternative.
func (p *Pipeline) GetAlternativeTranslations(ctx context.Context, phrase string, source, target culture.Language) ([]Alternative, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, ErrEmptyPhrase
	}
	if err := validatePair(source, target); err != nil {
		return nil, err
	}
	if source == target {
		return []Alternative{{Text: phrase, ContextNote: "Original phrasing", ConfidenceScore: 1}}, nil
	}

	refs, err := p.extractor.Extract(ctx, phrase, source)
	if err != nil {
		return nil, p.fail("extract", err, source, target)
	}
	draft, err := p.translator.Translate(ctx, phrase, source, target)
	if err != nil {
		return nil, p.fail("translate", err, source, target)
	}

	alts := make([]Alternative, 0, len(registers))
	for _, r := range registers {
		text := draft
		if !r.raw {
			var inline []Reference
			if r.inline {
				inline = refs
			}
			text, err = p.adapter.Adapt(ctx, draft, inline, source, target, r.userContext)
			if err != nil {
				return nil, p.fail("adapt", err, source, target)
			}
		}
		alts = append(alts, Alternative{Text: text, ContextNote: r.note, ConfidenceScore: r.confidence})
	}

	p.logger.Debug("alternatives",
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.Int("count", len(alts)))
	return alts, nil
}
