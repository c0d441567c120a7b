// Package translate implements the translation pipeline: reference
// extraction, base translation, cultural adaptation and result packaging.
// It also serves alternative phrasings and accepts user corrections.
//
// Every stage is an interface so the simulated defaults can be swapped for
// real engines without touching callers.
package translate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/veravista/veravista/culture"
)

// Reference is an idiom or cultural marker found in source text.
type Reference struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
}

// Note explains a cultural reference to the reader of a translation.
type Note struct {
	Original    string `json:"original"`
	Explanation string `json:"explanation"`
}

// Result is the outcome of TranslateWithContext.
type Result struct {
	TranslatedText  string  `json:"translatedText"`
	CulturalNotes   []Note  `json:"culturalNotes"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// Alternative is one alternative phrasing for a different register.
type Alternative struct {
	Text            string  `json:"text"`
	ContextNote     string  `json:"context"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// Correction is a user-supplied fix to a machine translation.
type Correction struct {
	Original          string           `json:"original"`
	MachineTranslated string           `json:"machineTranslated"`
	Corrected         string           `json:"corrected"`
	Source            culture.Language `json:"source"`
	Target            culture.Language `json:"target"`
	SubmittedAt       time.Time        `json:"submittedAt"`
}

// Acknowledgement is returned to the user after a correction submission.
type Acknowledgement struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CorrectionStore receives corrections for later model training.
type CorrectionStore interface {
	SaveCorrection(ctx context.Context, c Correction) error
}

// ThanksMessage is the acknowledgement text for every correction.
const ThanksMessage = "Thank you for your contribution!"

// Confidence model constants.
const (
	baseConfidence      = 0.95
	perReferencePenalty = 0.05
	lengthPenalty       = 0.10
	lengthSaturation    = 1000
)

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Options configures a Pipeline. Nil stages get the simulated defaults.
type Options struct {
	Extractor   ReferenceExtractor
	Translator  BaseTranslator
	Adapter     Adapter
	Corrections CorrectionStore
	Logger      *zap.Logger
	// Now is used to timestamp corrections.
	Now func() time.Time
}

// Pipeline runs translations through its stages. It is safe for
// concurrent use.
type Pipeline struct {
	extractor   ReferenceExtractor
	translator  BaseTranslator
	adapter     Adapter
	corrections CorrectionStore
	logger      *zap.Logger
	now         func() time.Time

	pending sync.WaitGroup
}

// New creates a Pipeline from opts.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		extractor:   opts.Extractor,
		translator:  opts.Translator,
		adapter:     opts.Adapter,
		corrections: opts.Corrections,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if p.extractor == nil {
		p.extractor = NewTableExtractor()
	}
	if p.translator == nil {
		p.translator = NewDictionaryTranslator(nil)
	}
	if p.adapter == nil {
		p.adapter = NewTableAdapter()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// TranslateWithContext translates text from source to target and attaches
// cultural notes. When source equals target, or text is blank, the text
// comes back unchanged with full confidence and no stage runs.
//
// A failure in any stage is reported as a *TranslationError; partial
// results are never returned.
func (p *Pipeline) TranslateWithContext(ctx context.Context, text string, source, target culture.Language, userContext map[string]any) (Result, error) {
	if err := validatePair(source, target); err != nil {
		return Result{}, err
	}
	if source == target || strings.TrimSpace(text) == "" {
		return Result{TranslatedText: text, CulturalNotes: []Note{}, ConfidenceScore: 1}, nil
	}

	refs, err := p.extractor.Extract(ctx, text, source)
	if err != nil {
		return Result{}, p.fail("extract", err, source, target)
	}

	draft, err := p.translator.Translate(ctx, text, source, target)
	if err != nil {
		return Result{}, p.fail("translate", err, source, target)
	}

	adapted, err := p.adapter.Adapt(ctx, draft, refs, source, target, userContext)
	if err != nil {
		return Result{}, p.fail("adapt", err, source, target)
	}

	notes := make([]Note, len(refs))
	for i, ref := range refs {
		notes[i] = Note{
			Original:    ref.Text,
			Explanation: ref.Explanation + " (for " + string(target) + " speakers)",
		}
	}

	p.logger.Debug("translated",
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.Int("references", len(refs)))

	return Result{
		TranslatedText:  adapted,
		CulturalNotes:   notes,
		ConfidenceScore: Confidence(text, len(refs)),
	}, nil
}

// Confidence scores a translation of text containing refs cultural
// references. Longer inputs and more references lower the score. The
// result is in [0,1], rounded to two decimals.
func Confidence(text string, refs int) float64 {
	length := math.Min(1, float64(utf8.RuneCountInString(text))/lengthSaturation)
	score := baseConfidence - perReferencePenalty*float64(refs) - lengthPenalty*length
	score = math.Max(0, math.Min(1, score))
	return math.Round(score*100) / 100
}

func (p *Pipeline) fail(stage string, err error, source, target culture.Language) error {
	p.logger.Warn("translation stage failed",
		zap.String("stage", stage),
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.Error(err))
	return &TranslationError{Stage: stage, Err: err}
}

func validatePair(source, target culture.Language) error {
	for _, lang := range []culture.Language{source, target} {
		if !lang.Valid() {
			return &TranslationError{
				Stage: "validate",
				Err:   fmt.Errorf("%w: %q", culture.ErrUnknownLanguage, string(lang)),
			}
		}
	}
	return nil
}
