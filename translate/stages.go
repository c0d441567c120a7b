package translate

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/veravista/veravista/culture"
)

// ---------------------------------------------------------------------------
// Stage interfaces
// ---------------------------------------------------------------------------

// ReferenceExtractor finds idioms and cultural markers in source text.
// The result is ordered by position in the text.
type ReferenceExtractor interface {
	Extract(ctx context.Context, text string, source culture.Language) ([]Reference, error)
}

// BaseTranslator produces the draft translation. It knows nothing about
// cultural adaptation so a real engine can replace it on its own.
type BaseTranslator interface {
	Translate(ctx context.Context, text string, source, target culture.Language) (string, error)
}

// Adapter rewrites a draft for the target culture. Implementations must be
// deterministic: the preview and send paths rely on getting the same
// output for the same input.
type Adapter interface {
	Adapt(ctx context.Context, draft string, refs []Reference, source, target culture.Language, userContext map[string]any) (string, error)
}

// ---------------------------------------------------------------------------
// Stage 1: idiom table
// ---------------------------------------------------------------------------

// Marker is one entry of an idiom table.
type Marker struct {
	Type        string
	Phrase      string
	Explanation string
}

// DefaultMarkers are the idioms and cultural references recognised per
// source language.
var DefaultMarkers = map[culture.Language][]Marker{
	culture.English: {
		{"idiom", "break the ice", "An expression for easing the awkwardness of a first meeting"},
		{"idiom", "piece of cake", "Something very easy to do"},
		{"idiom", "spill the beans", "To reveal a secret"},
		{"idiom", "under the weather", "Feeling slightly unwell"},
		{"cultural", "thanksgiving", "A North American harvest holiday centred on a family meal"},
	},
	culture.Urdu: {
		{"cultural", "eid", "A major religious festival marked by prayer, family visits and gifts"},
		{"cultural", "inshallah", "'God willing'; used for future plans, sometimes as a polite non-commitment"},
		{"cultural", "mashallah", "An expression of admiration that also wards off envy"},
		{"idiom", "chai pani", "Literally 'tea and water'; hospitality, or informally a small bribe"},
	},
	culture.Chinese: {
		{"cultural", "guanxi", "The network of personal relationships and mutual obligations"},
		{"cultural", "面子", "'Face'; social standing and dignity that conversation should preserve"},
		{"cultural", "春节", "Spring Festival, the Lunar New Year and most important family holiday"},
		{"idiom", "马马虎虎", "Literally 'horse horse tiger tiger'; so-so, or careless"},
	},
}

// TableExtractor matches a per-language marker table case-insensitively.
// Latin phrases only match on word boundaries.
type TableExtractor struct {
	Markers map[culture.Language][]Marker
}

// NewTableExtractor returns an extractor over DefaultMarkers.
func NewTableExtractor() *TableExtractor {
	return &TableExtractor{Markers: DefaultMarkers}
}

// Extract implements ReferenceExtractor.
func (x *TableExtractor) Extract(_ context.Context, text string, source culture.Language) ([]Reference, error) {
	lower := strings.ToLower(text)
	// byte offsets in lower only line up with text if lowering kept lengths
	aligned := len(lower) == len(text)

	type hit struct {
		at  int
		ref Reference
	}
	var hits []hit
	for _, m := range x.Markers[source] {
		phrase := strings.ToLower(m.Phrase)
		at := indexPhrase(lower, phrase)
		if at < 0 {
			continue
		}
		matched := m.Phrase
		if aligned {
			matched = text[at : at+len(phrase)]
		}
		hits = append(hits, hit{at, Reference{Type: m.Type, Text: matched, Explanation: m.Explanation}})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })

	refs := make([]Reference, len(hits))
	for i, h := range hits {
		refs[i] = h.ref
	}
	return refs, nil
}

// indexPhrase returns the first occurrence of phrase in s that is not
// glued to surrounding Latin letters, or -1.
func indexPhrase(s, phrase string) int {
	if phrase == "" {
		return -1
	}
	for from := 0; from <= len(s)-len(phrase); {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return -1
		}
		at := from + i
		if boundaryOK(s, at, at+len(phrase)) {
			return at
		}
		_, size := utf8.DecodeRuneInString(s[at:])
		from = at + size
	}
	return -1
}

func boundaryOK(s string, start, end int) bool {
	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		first, _ := utf8.DecodeRuneInString(s[start:])
		if isLatinLetter(before) && isLatinLetter(first) {
			return false
		}
	}
	if end < len(s) {
		after, _ := utf8.DecodeRuneInString(s[end:])
		last, _ := utf8.DecodeLastRuneInString(s[:end])
		if isLatinLetter(after) && isLatinLetter(last) {
			return false
		}
	}
	return true
}

func isLatinLetter(r rune) bool {
	return unicode.Is(unicode.Latin, r) || unicode.IsDigit(r)
}

// ---------------------------------------------------------------------------
// Stage 2: dictionary translator
// ---------------------------------------------------------------------------

// DictionaryTranslatorConfig configures the simulated engine.
type DictionaryTranslatorConfig struct {
	// ProcessingDelay simulates engine latency.
	ProcessingDelay time.Duration
	// Dictionary maps target language -> source text -> translated text.
	// Text without an entry comes back as "[code] text".
	Dictionary map[culture.Language]map[string]string
}

// DefaultDictionary returns the built-in phrase dictionary.
func DefaultDictionary() map[culture.Language]map[string]string {
	return map[culture.Language]map[string]string{
		culture.Urdu: {
			"Hello":         "Assalam-o-Alaikum",
			"Thank you":     "Shukriya",
			"How are you?":  "Aap kaise hain?",
			"Good morning":  "Subah bakhair",
			"Welcome":       "Khush aamdeed",
			"See you soon.": "Jald milenge.",
		},
		culture.Chinese: {
			"Hello":         "你好",
			"Thank you":     "谢谢",
			"How are you?":  "你好吗？",
			"Good morning":  "早上好",
			"Welcome":       "欢迎",
			"See you soon.": "回头见。",
		},
		culture.English: {
			"Assalam-o-Alaikum": "Peace be upon you",
			"Shukriya":          "Thank you",
			"Khush aamdeed":     "Welcome",
			"你好":                "Hello",
			"谢谢":                "Thank you",
			"欢迎":                "Welcome",
		},
	}
}

// MergeDictionary returns base overlaid with extra. Neither input is
// modified.
func MergeDictionary(base, extra map[culture.Language]map[string]string) map[culture.Language]map[string]string {
	out := make(map[culture.Language]map[string]string, len(base))
	for _, src := range []map[culture.Language]map[string]string{base, extra} {
		for lang, phrases := range src {
			if out[lang] == nil {
				out[lang] = make(map[string]string, len(phrases))
			}
			for k, v := range phrases {
				out[lang][k] = v
			}
		}
	}
	return out
}

// DictionaryTranslator is a deterministic stand-in for a translation
// engine.
type DictionaryTranslator struct {
	config *DictionaryTranslatorConfig
}

// NewDictionaryTranslator returns a translator over config, or over
// DefaultDictionary with no delay when config is nil.
func NewDictionaryTranslator(config *DictionaryTranslatorConfig) *DictionaryTranslator {
	if config == nil {
		config = &DictionaryTranslatorConfig{Dictionary: DefaultDictionary()}
	}
	return &DictionaryTranslator{config: config}
}

// Translate implements BaseTranslator.
func (d *DictionaryTranslator) Translate(ctx context.Context, text string, _, target culture.Language) (string, error) {
	if d.config.ProcessingDelay > 0 {
		timer := time.NewTimer(d.config.ProcessingDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if phrases, ok := d.config.Dictionary[target]; ok {
		if translated, ok := phrases[strings.TrimSpace(text)]; ok {
			return translated, nil
		}
	}
	return "[" + target.Code() + "] " + text, nil
}

// ---------------------------------------------------------------------------
// Stage 3: per-target adaptation table
// ---------------------------------------------------------------------------

// Adaptation describes how drafts are adapted for one target culture.
type Adaptation struct {
	// Honorific is prefixed when the user context asks for a formal register.
	Honorific string
	// Marker is appended to every adapted draft.
	Marker string
}

// DefaultAdaptations is the adaptation table. Targets without an entry use
// the zero Adaptation.
var DefaultAdaptations = map[culture.Language]Adaptation{
	culture.English: {Honorific: "Respectfully, "},
	culture.Urdu:    {Honorific: "Janab, ", Marker: " [adapted for Urdu cultural context]"},
	culture.Chinese: {Honorific: "您好，", Marker: " [adapted for Chinese cultural context]"},
}

// TableAdapter applies an Adaptation table.
type TableAdapter struct {
	Adaptations map[culture.Language]Adaptation
}

// NewTableAdapter returns an adapter over DefaultAdaptations.
func NewTableAdapter() *TableAdapter {
	return &TableAdapter{Adaptations: DefaultAdaptations}
}

// Adapt implements Adapter. Idioms that survived the base translation
// verbatim are wrapped in «» so the reader knows they were not localised.
func (a *TableAdapter) Adapt(_ context.Context, draft string, refs []Reference, _, target culture.Language, userContext map[string]any) (string, error) {
	rule := a.Adaptations[target]

	adapted := draft
	for _, ref := range refs {
		if ref.Type != "idiom" {
			continue
		}
		lower, phrase := strings.ToLower(adapted), strings.ToLower(ref.Text)
		if len(lower) != len(adapted) {
			continue
		}
		if at := indexPhrase(lower, phrase); at >= 0 {
			end := at + len(phrase)
			adapted = adapted[:at] + "«" + adapted[at:end] + "»" + adapted[end:]
		}
	}

	if formal(userContext) {
		adapted = rule.Honorific + adapted
	}
	return adapted + rule.Marker, nil
}

// formal reports whether the user context asks for a formal register.
func formal(userContext map[string]any) bool {
	v, ok := userContext["formality"].(string)
	return ok && strings.EqualFold(v, "formal")
}
