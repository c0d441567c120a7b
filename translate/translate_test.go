package translate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/veravista/veravista/culture"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type failingTranslator struct{ err error }

func (f failingTranslator) Translate(context.Context, string, culture.Language, culture.Language) (string, error) {
	return "", f.err
}

type recordingStore struct {
	mu   sync.Mutex
	got  []Correction
	err  error
	ctxs []context.Context
}

func (s *recordingStore) SaveCorrection(ctx context.Context, c Correction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, c)
	s.ctxs = append(s.ctxs, ctx)
	return s.err
}

// ---------------------------------------------------------------------------
// TranslateWithContext
// ---------------------------------------------------------------------------

func TestTranslateSameLanguageIsIdentity(t *testing.T) {
	p := New(Options{Translator: failingTranslator{err: errors.New("must not be called")}})

	for _, lang := range culture.Languages() {
		res, err := p.TranslateWithContext(context.Background(), "Break the ice, mashallah!", lang, lang, nil)
		require.NoError(t, err)
		assert.Equal(t, "Break the ice, mashallah!", res.TranslatedText)
		assert.Empty(t, res.CulturalNotes)
		assert.Equal(t, 1.0, res.ConfidenceScore)
	}
}

func TestTranslateBlankTextSkipsStages(t *testing.T) {
	p := New(Options{Translator: failingTranslator{err: errors.New("must not be called")}})

	res, err := p.TranslateWithContext(context.Background(), "   ", culture.English, culture.Urdu, nil)
	require.NoError(t, err)
	assert.Equal(t, "   ", res.TranslatedText)
	assert.NotNil(t, res.CulturalNotes)
}

func TestTranslateDictionaryHit(t *testing.T) {
	p := New(Options{})

	res, err := p.TranslateWithContext(context.Background(), "Hello", culture.English, culture.Urdu, nil)
	require.NoError(t, err)
	assert.Equal(t, "Assalam-o-Alaikum [adapted for Urdu cultural context]", res.TranslatedText)
	assert.Empty(t, res.CulturalNotes)
	assert.InDelta(t, 0.95, res.ConfidenceScore, 0.011)
}

func TestTranslateFallbackAndNotes(t *testing.T) {
	p := New(Options{})

	res, err := p.TranslateWithContext(context.Background(),
		"That exam was a piece of cake, let's break the ice!", culture.English, culture.Chinese, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"[zh] That exam was a «piece of cake», let's «break the ice»! [adapted for Chinese cultural context]",
		res.TranslatedText)

	require.Len(t, res.CulturalNotes, 2)
	// ordered by position in the text, not table order
	assert.Equal(t, "piece of cake", res.CulturalNotes[0].Original)
	assert.Equal(t, "break the ice", res.CulturalNotes[1].Original)
	assert.True(t, strings.HasSuffix(res.CulturalNotes[0].Explanation, " (for chinese speakers)"))
	// 0.95 - 2 refs * 0.05 - 51 runes * 0.0001
	assert.Equal(t, 0.84, res.ConfidenceScore)
}

func TestTranslateFormalHonorific(t *testing.T) {
	p := New(Options{})

	res, err := p.TranslateWithContext(context.Background(), "Thank you", culture.English, culture.Chinese,
		map[string]any{"formality": "formal"})
	require.NoError(t, err)
	assert.Equal(t, "您好，谢谢 [adapted for Chinese cultural context]", res.TranslatedText)
}

func TestTranslateIsDeterministic(t *testing.T) {
	p := New(Options{})
	ctx := context.Background()
	text := "I'm under the weather but will come for Thanksgiving"

	first, err := p.TranslateWithContext(ctx, text, culture.English, culture.Urdu, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.TranslateWithContext(ctx, text, culture.English, culture.Urdu, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTranslateStageFailure(t *testing.T) {
	cause := errors.New("engine down")
	p := New(Options{Translator: failingTranslator{err: cause}})

	res, err := p.TranslateWithContext(context.Background(), "Hello", culture.English, culture.Urdu, nil)
	require.Error(t, err)
	assert.Equal(t, Result{}, res)

	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "translate", terr.Stage)
	assert.ErrorIs(t, err, cause)
}

func TestTranslateUnknownLanguage(t *testing.T) {
	p := New(Options{})

	_, err := p.TranslateWithContext(context.Background(), "Hello", culture.English, culture.Language("klingon"), nil)
	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "validate", terr.Stage)
	assert.ErrorIs(t, err, culture.ErrUnknownLanguage)
}

func TestTranslateHonoursCancellation(t *testing.T) {
	p := New(Options{Translator: NewDictionaryTranslator(&DictionaryTranslatorConfig{
		ProcessingDelay: time.Hour,
	})})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.TranslateWithContext(ctx, "Hello", culture.English, culture.Urdu, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfidenceBounds(t *testing.T) {
	tests := []struct {
		name string
		text string
		refs int
		want float64
	}{
		{"short no refs", "hi", 0, 0.95},
		{"one ref", "hi", 1, 0.9},
		{"saturated length", strings.Repeat("x", 5000), 0, 0.85},
		{"many refs clamp", "hi", 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.text, tt.refs)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

// ---------------------------------------------------------------------------
// Extractor
// ---------------------------------------------------------------------------

func TestExtractorWordBoundaries(t *testing.T) {
	x := NewTableExtractor()

	refs, err := x.Extract(context.Background(), "We had tea at the embassy's Eid reception", culture.Urdu)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Eid", refs[0].Text)

	// "eid" inside "Leidy" is not a match
	refs, err = x.Extract(context.Background(), "Leidy said hello", culture.Urdu)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestExtractorChineseScript(t *testing.T) {
	refs, err := NewTableExtractor().Extract(context.Background(), "春节快乐，我最近马马虎虎", culture.Chinese)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "春节", refs[0].Text)
	assert.Equal(t, "马马虎虎", refs[1].Text)
	assert.Equal(t, "idiom", refs[1].Type)
}

// ---------------------------------------------------------------------------
// Alternatives
// ---------------------------------------------------------------------------

func TestAlternatives(t *testing.T) {
	p := New(Options{})

	alts, err := p.GetAlternativeTranslations(context.Background(), "Welcome", culture.English, culture.Urdu)
	require.NoError(t, err)
	require.Len(t, alts, 3)

	assert.Equal(t, Alternative{"Janab, Khush aamdeed [adapted for Urdu cultural context]", "Formal context", 0.92}, alts[0])
	assert.Equal(t, Alternative{"Khush aamdeed", "Casual context", 0.87}, alts[1])
	assert.Equal(t, Alternative{"Khush aamdeed [adapted for Urdu cultural context]", "Specific cultural context", 0.78}, alts[2])
}

func TestAlternativesSameLanguage(t *testing.T) {
	alts, err := New(Options{}).GetAlternativeTranslations(context.Background(), "Hello", culture.Urdu, culture.Urdu)
	require.NoError(t, err)
	require.Len(t, alts, 1)
	assert.Equal(t, "Hello", alts[0].Text)
}

func TestAlternativesEmptyPhrase(t *testing.T) {
	_, err := New(Options{}).GetAlternativeTranslations(context.Background(), " ", culture.English, culture.Urdu)
	assert.ErrorIs(t, err, ErrEmptyPhrase)
}

// ---------------------------------------------------------------------------
// Corrections
// ---------------------------------------------------------------------------

func TestSubmitCorrection(t *testing.T) {
	store := &recordingStore{}
	at := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	p := New(Options{Corrections: store, Now: func() time.Time { return at }})

	ctx, cancel := context.WithCancel(context.Background())
	ack := p.SubmitTranslationCorrection(ctx, "Good morning", "[ur] Good morning", "Subah bakhair", culture.English, culture.Urdu)
	cancel()
	p.Wait()

	assert.Equal(t, Acknowledgement{Success: true, Message: ThanksMessage}, ack)
	require.Len(t, store.got, 1)
	assert.Equal(t, Correction{
		Original:          "Good morning",
		MachineTranslated: "[ur] Good morning",
		Corrected:         "Subah bakhair",
		Source:            culture.English,
		Target:            culture.Urdu,
		SubmittedAt:       at,
	}, store.got[0])
	// cancelling the caller's context does not abort the write
	assert.NoError(t, store.ctxs[0].Err())
}

func TestSubmitCorrectionSwallowsStoreErrors(t *testing.T) {
	store := &recordingStore{err: errors.New("disk full")}
	p := New(Options{Corrections: store})

	ack := p.SubmitTranslationCorrection(context.Background(), "a", "b", "c", culture.Chinese, culture.English)
	p.Wait()

	assert.True(t, ack.Success)
	assert.Len(t, store.got, 1)
}

func TestSubmitCorrectionWithoutStore(t *testing.T) {
	ack := New(Options{}).SubmitTranslationCorrection(context.Background(), "a", "b", "c", culture.Chinese, culture.English)
	assert.Equal(t, ThanksMessage, ack.Message)
}

func TestMergeDictionary(t *testing.T) {
	base := DefaultDictionary()
	merged := MergeDictionary(base, map[culture.Language]map[string]string{
		culture.Urdu: {"Hello": "Salaam", "Goodbye": "Khuda hafiz"},
	})

	assert.Equal(t, "Salaam", merged[culture.Urdu]["Hello"])
	assert.Equal(t, "Khuda hafiz", merged[culture.Urdu]["Goodbye"])
	assert.Equal(t, "Shukriya", merged[culture.Urdu]["Thank you"])
	assert.Equal(t, "Assalam-o-Alaikum", base[culture.Urdu]["Hello"], "base must not change")
}
