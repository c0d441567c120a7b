package composer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/veravista/veravista/culture"
	"github.com/veravista/veravista/translate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const waitTimeout = 2 * time.Second

// ---------------------------------------------------------------------------
// Fake clock
// ---------------------------------------------------------------------------

// fakeClock runs timers from Advance. A timer due at t fires once the clock
// moves past t, so an edit made at exactly t supersedes it.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Duration
	f     func()
	done  bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock forward and runs due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && t.at < target {
			t.done = true
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	c.now = target
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// ---------------------------------------------------------------------------
// Fake translator
// ---------------------------------------------------------------------------

type call struct {
	text    string
	release chan result
}

type result struct {
	res translate.Result
	err error
}

// blockingTranslator hands every call to the test, which decides when
// and how it completes.
type blockingTranslator struct {
	calls chan call

	mu    sync.Mutex
	count int
}

func newBlockingTranslator() *blockingTranslator {
	return &blockingTranslator{calls: make(chan call, 16)}
}

func (b *blockingTranslator) TranslateWithContext(ctx context.Context, text string, _, _ culture.Language, _ map[string]any) (translate.Result, error) {
	b.mu.Lock()
	b.count++
	b.mu.Unlock()

	c := call{text: text, release: make(chan result, 1)}
	b.calls <- c
	select {
	case r := <-c.release:
		return r.res, r.err
	case <-ctx.Done():
		return translate.Result{}, ctx.Err()
	}
}

func (b *blockingTranslator) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *blockingTranslator) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-b.calls:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a pipeline call")
		return call{}
	}
}

func (b *blockingTranslator) assertNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-b.calls:
		t.Fatalf("unexpected pipeline call for %q", c.text)
	case <-time.After(20 * time.Millisecond):
	}
}

func translated(s string) result {
	return result{res: translate.Result{TranslatedText: s, CulturalNotes: []translate.Note{}, ConfidenceScore: 0.9}}
}

// updates collects OnUpdate callbacks.
type updates chan *Preview

func (u updates) next(t *testing.T) *Preview {
	t.Helper()
	select {
	case p := <-u:
		return p
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a preview update")
		return nil
	}
}

func newTestController(t *testing.T, tr Translator) (*Controller, *fakeClock, updates) {
	t.Helper()
	clock := &fakeClock{}
	ups := make(updates, 16)
	c := NewController(tr, culture.English, culture.Urdu,
		WithClock(clock),
		OnUpdate(func(p *Preview) { ups <- p }))
	t.Cleanup(c.Close)
	return c, clock, ups
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestDebounceIssuesOneCallForLastEdit(t *testing.T) {
	tr := newBlockingTranslator()
	c, clock, ups := newTestController(t, tr)

	c.SetText("a") // t=0
	clock.Advance(100 * time.Millisecond)
	c.SetText("ab") // t=100
	clock.Advance(500 * time.Millisecond)
	tr.assertNoCall(t)
	c.SetText("abc") // t=600, supersedes the timer due now
	assert.Equal(t, Scheduled, c.State())

	clock.Advance(501 * time.Millisecond)
	got := tr.next(t)
	assert.Equal(t, "abc", got.text)
	assert.Equal(t, InFlight, c.State())

	got.release <- translated("[ur] abc")
	p := ups.next(t)
	require.NotNil(t, p)
	assert.Equal(t, "[ur] abc", p.Result.TranslatedText)

	tr.assertNoCall(t)
	assert.Equal(t, 1, tr.Count())
	assert.Equal(t, Idle, c.State())
}

func TestStaleResponseIsDropped(t *testing.T) {
	tr := newBlockingTranslator()
	c, clock, ups := newTestController(t, tr)

	c.SetText("first")
	clock.Advance(time.Second)
	first := tr.next(t)

	c.SetText("second")
	clock.Advance(time.Second)
	second := tr.next(t)

	second.release <- translated("two")
	p := ups.next(t)
	require.NotNil(t, p)
	assert.Equal(t, "two", p.Result.TranslatedText)

	// #1 resolves after #2 and must not overwrite it
	first.release <- translated("one")
	select {
	case p := <-ups:
		t.Fatalf("stale result applied: %#v", p)
	case <-time.After(50 * time.Millisecond):
	}

	cur, ok := c.Preview()
	require.True(t, ok)
	assert.Equal(t, "two", cur.Result.TranslatedText)
	assert.Equal(t, "second", cur.Text)
}

func TestBlankTextGoesIdleAndClears(t *testing.T) {
	tr := newBlockingTranslator()
	c, clock, ups := newTestController(t, tr)

	c.SetText("hello")
	clock.Advance(time.Second)
	tr.next(t).release <- translated("salaam")
	require.NotNil(t, ups.next(t))

	c.SetText("   ")
	assert.Nil(t, ups.next(t), "clearing the preview is reported as nil")
	assert.Equal(t, Idle, c.State())
	_, ok := c.Preview()
	assert.False(t, ok)

	clock.Advance(time.Second)
	tr.assertNoCall(t)
}

func TestSameLanguageCancelsPendingAndInFlight(t *testing.T) {
	tr := newBlockingTranslator()
	c, clock, ups := newTestController(t, tr)

	c.SetText("hello")
	clock.Advance(time.Second)
	inflight := tr.next(t)

	c.SetLanguages(culture.Urdu, culture.Urdu)
	assert.Equal(t, Idle, c.State())

	inflight.release <- translated("late")
	select {
	case p := <-ups:
		t.Fatalf("result applied after language change: %#v", p)
	case <-time.After(50 * time.Millisecond):
	}

	// switching back schedules a fresh request
	c.SetLanguages(culture.English, culture.Chinese)
	assert.Equal(t, Scheduled, c.State())
	clock.Advance(time.Second)
	assert.Equal(t, "hello", tr.next(t).text)
}

func TestPreviewFailureLeavesBlankPreview(t *testing.T) {
	tr := newBlockingTranslator()
	c, clock, ups := newTestController(t, tr)

	c.SetText("hello")
	clock.Advance(time.Second)
	tr.next(t).release <- result{err: errors.New("engine down")}

	assert.Nil(t, ups.next(t))
	_, ok := c.Preview()
	assert.False(t, ok)
	assert.EqualError(t, c.LastError(), "engine down")
	assert.Equal(t, Idle, c.State())
}

func TestCloseCancelsInFlight(t *testing.T) {
	tr := newBlockingTranslator()
	clock := &fakeClock{}
	applied := make(chan struct{}, 1)
	c := NewController(tr, culture.English, culture.Chinese,
		WithClock(clock),
		OnUpdate(func(*Preview) { applied <- struct{}{} }))

	c.SetText("bye")
	clock.Advance(time.Second)
	tr.next(t)

	c.SetText("bye now")
	c.Close() // returns once the blocked call has seen cancellation

	clock.Advance(time.Second)
	tr.assertNoCall(t)
	select {
	case <-applied:
		t.Fatal("update after Close")
	default:
	}

	c.SetText("ignored")
	assert.Equal(t, "bye now", c.Text())
}

func TestRealClockDebounce(t *testing.T) {
	p := translate.New(translate.Options{})
	ups := make(updates, 4)
	c := NewController(p, culture.English, culture.Urdu,
		WithDebounce(10*time.Millisecond),
		OnUpdate(func(pv *Preview) { ups <- pv }))
	defer c.Close()

	c.SetText("Thank you")
	pv := ups.next(t)
	require.NotNil(t, pv)
	assert.Equal(t, "Shukriya [adapted for Urdu cultural context]", pv.Result.TranslatedText)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "scheduled", Scheduled.String())
	assert.Equal(t, "in-flight", InFlight.String())
}

func TestUpdatesDeliveredInRequestOrder(t *testing.T) {
	var got []*Preview
	c := NewController(newBlockingTranslator(), culture.English, culture.Urdu,
		WithClock(&fakeClock{}),
		OnUpdate(func(p *Preview) { got = append(got, p) }))
	t.Cleanup(c.Close)

	// A clear decided at seq 2 overtakes a result decided at seq 1 between
	// unlock and delivery; the older result must not reach the callback.
	c.notify(2, nil)
	c.notify(1, &Preview{Seq: 1, Text: "stale"})
	c.notify(3, &Preview{Seq: 3, Text: "fresh"})

	require.Len(t, got, 2)
	assert.Nil(t, got[0])
	assert.Equal(t, "fresh", got[1].Text)
}
