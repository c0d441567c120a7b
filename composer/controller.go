// Package composer drives message composition: a debounced live
// translation preview while the user types, and the send path that
// translates the final message.
//
// Preview requests are tagged with increasing sequence numbers. A result
// is applied only if its sequence number is still the latest one, so a
// slow response can never overwrite a newer preview.
package composer

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veravista/veravista/culture"
	"github.com/veravista/veravista/translate"
)

// DefaultDebounce is the quiet period before a preview request is issued.
const DefaultDebounce = 500 * time.Millisecond

// Translator is the pipeline call used for previews.
type Translator interface {
	TranslateWithContext(ctx context.Context, text string, source, target culture.Language, userContext map[string]any) (translate.Result, error)
}

// State is the controller state.
type State int

const (
	// Idle: nothing scheduled or in flight.
	Idle State = iota
	// Scheduled: a debounce timer is pending.
	Scheduled
	// InFlight: a pipeline call is running for the latest sequence number.
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case InFlight:
		return "in-flight"
	}
	return "unknown"
}

// Preview is the translation currently shown next to the draft.
type Preview struct {
	// Seq is the sequence number of the request that produced it.
	Seq uint64
	// Text is the draft that was translated.
	Text   string
	Result translate.Result
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.logger = l
		}
	}
}

// WithUserContext sets the user context passed to every preview request.
func WithUserContext(uc map[string]any) Option {
	return func(ctl *Controller) { ctl.userContext = uc }
}

// OnUpdate registers a callback run whenever the preview changes. A nil
// preview means it was cleared. Calls are serialized and arrive in request
// order; the callback must not change the draft or languages itself.
func OnUpdate(fn func(p *Preview)) Option {
	return func(ctl *Controller) { ctl.onUpdate = fn }
}

// ---------------------------------------------------------------------------
// Controller
// ---------------------------------------------------------------------------

// Controller debounces draft edits into preview requests.
type Controller struct {
	translator  Translator
	clock       Clock
	delay       time.Duration
	logger      *zap.Logger
	userContext map[string]any
	onUpdate    func(*Preview)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	text     string
	source   culture.Language
	target   culture.Language
	state    State
	timer    Timer
	timerGen uint64
	// seq is the latest sequence number. Results tagged with anything
	// else are stale.
	seq     uint64
	preview *Preview
	lastErr error
	closed  bool

	// notifyMu serializes OnUpdate calls; notified is the seq of the last
	// delivered update.
	notifyMu sync.Mutex
	notified uint64
}

// NewController creates an idle controller for a language pair.
func NewController(t Translator, source, target culture.Language, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		translator: t,
		clock:      RealClock{},
		delay:      DefaultDebounce,
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		source:     source,
		target:     target,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetText records a draft edit. Blank drafts and same-language pairs go
// idle and clear the preview; anything else (re)starts the debounce timer.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.text = text
	cleared := c.reschedule()
	seq := c.seq
	c.mu.Unlock()

	if cleared {
		c.notify(seq, nil)
	}
}

// SetLanguages changes the language pair, with the same gating as SetText.
func (c *Controller) SetLanguages(source, target culture.Language) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.source, c.target = source, target
	cleared := c.reschedule()
	seq := c.seq
	c.mu.Unlock()

	if cleared {
		c.notify(seq, nil)
	}
}

// reschedule applies the state transition for new input. It reports
// whether a preview was cleared. c.mu must be held.
func (c *Controller) reschedule() (cleared bool) {
	c.stopTimer()

	if strings.TrimSpace(c.text) == "" || c.source == c.target {
		// in-flight results become stale
		c.seq++
		c.state = Idle
		cleared = c.preview != nil
		c.preview = nil
		c.lastErr = nil
		return cleared
	}

	c.timerGen++
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.delay, func() { c.fire(gen) })
	c.state = Scheduled
	return false
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fire issues the pipeline call for timer generation gen.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	// A timer whose Stop lost the race still runs; its generation is old.
	if c.closed || gen != c.timerGen || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.seq++
	seq := c.seq
	text, source, target := c.text, c.source, c.target
	c.state = InFlight
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("preview requested",
		zap.Uint64("seq", seq),
		zap.String("source", string(source)),
		zap.String("target", string(target)))

	go c.run(seq, text, source, target)
}

func (c *Controller) run(seq uint64, text string, source, target culture.Language) {
	defer c.wg.Done()

	res, err := c.translator.TranslateWithContext(c.ctx, text, source, target, c.userContext)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("stale preview dropped", zap.Uint64("seq", seq))
		return
	}
	if c.timer == nil {
		c.state = Idle
	}

	var update *Preview
	if err != nil {
		// the preview stays blank for a failed request
		c.logger.Warn("preview failed", zap.Uint64("seq", seq), zap.Error(err))
		c.preview = nil
		c.lastErr = err
	} else {
		c.preview = &Preview{Seq: seq, Text: text, Result: res}
		c.lastErr = nil
		p := *c.preview
		update = &p
	}
	c.mu.Unlock()

	c.notify(seq, update)
}

// notify delivers the update decided at seq. Updates reach OnUpdate in seq
// order: one overtaken by a newer delivery is dropped.
func (c *Controller) notify(seq uint64, p *Preview) {
	if c.onUpdate == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if seq < c.notified {
		return
	}
	c.notified = seq
	c.onUpdate(p)
}

// replace installs p as the preview, invalidating pending and in-flight
// requests.
func (c *Controller) replace(p *Preview) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimer()
	c.seq++
	c.state = Idle
	c.lastErr = nil
	if p != nil {
		p.Seq = c.seq
		cp := *p
		c.preview = &cp
	} else {
		c.preview = nil
	}
	seq := c.seq
	c.mu.Unlock()

	c.notify(seq, p)
}

// Clear drops the preview and any pending or in-flight request.
func (c *Controller) Clear() {
	c.replace(nil)
}

// Preview returns the current preview, if any.
func (c *Controller) Preview() (Preview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preview == nil {
		return Preview{}, false
	}
	return *c.preview, true
}

// LastError returns the error of the latest failed preview request, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// State returns the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Text returns the current draft.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Languages returns the current language pair.
func (c *Controller) Languages() (source, target culture.Language) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source, c.target
}

// Close stops the timer, makes in-flight results ineligible and waits for
// their goroutines. In-flight calls see a cancelled context. The
// controller ignores all input afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimer()
	c.seq++
	c.state = Idle
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
