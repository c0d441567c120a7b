package culture

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Store persists the selected language across sessions. It holds a single
// value; per-field settings overrides are never persisted.
type Store interface {
	// LoadLanguage returns the persisted selection. ok is false when
	// nothing has been saved yet.
	LoadLanguage() (lang Language, ok bool, err error)
	// SaveLanguage records lang as the selection for future sessions.
	SaveLanguage(lang Language) error
}

// Context is the cultural context of one session. It is safe for
// concurrent use; readers always observe a Language and Settings pair that
// was installed together.
type Context struct {
	mu        sync.RWMutex
	lang      Language
	settings  Settings
	store     Store
	logger    *zap.Logger
	listeners []func(Language, Settings)
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Context holding English defaults. Call Init before use to
// apply the persisted or detected language. A nil store keeps the
// selection in memory only.
func New(store Store, opts ...Option) *Context {
	if store == nil {
		store = &MemoryStore{}
	}
	c := &Context{
		lang:     English,
		settings: DefaultSettings(English),
		store:    store,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init selects the session language. A previously persisted selection
// takes precedence; otherwise locale is mapped through
// LanguageFromLocale. Init does not persist the detected language.
func (c *Context) Init(locale string) Language {
	lang := LanguageFromLocale(locale)

	saved, ok, err := c.store.LoadLanguage()
	switch {
	case err != nil:
		c.logger.Warn("loading saved language failed, using detected locale",
			zap.String("locale", locale), zap.Error(err))
	case ok && saved.Valid():
		lang = saved
	case ok:
		c.logger.Warn("ignoring unsupported saved language", zap.String("saved", string(saved)))
	}

	c.install(lang, DefaultSettings(lang))
	c.logger.Debug("cultural context initialised", zap.String("language", string(lang)))
	return lang
}

// Language returns the active language.
func (c *Context) Language() Language {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// Settings returns a copy of the active settings.
func (c *Context) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Snapshot returns the active language and settings together.
func (c *Context) Snapshot() (Language, Settings) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang, c.settings
}

// ChangeLanguage switches the session to lang, replacing the settings
// record wholesale with lang's defaults, and persists the selection.
//
// Values outside the closed set are ignored: changed is false and err is
// nil. A persistence failure is returned but the switch still applies to
// the running session.
func (c *Context) ChangeLanguage(lang Language) (changed bool, err error) {
	if !lang.Valid() {
		c.logger.Debug("ignoring change to unsupported language", zap.String("language", string(lang)))
		return false, nil
	}

	c.install(lang, DefaultSettings(lang))

	if err := c.store.SaveLanguage(lang); err != nil {
		c.logger.Error("persisting language selection failed",
			zap.String("language", string(lang)), zap.Error(err))
		return true, err
	}
	return true, nil
}

// UpdateCulturalSetting merges a single field into the active settings.
// The override lasts for this session only.
func (c *Context) UpdateCulturalSetting(key SettingKey, value string) error {
	c.mu.Lock()
	updated, err := c.settings.With(key, value)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.settings = updated
	lang := c.lang
	c.mu.Unlock()

	c.notify(lang, updated)
	return nil
}

// ApplyPreferenceQuiz fine-tunes the active settings from quiz answers and
// returns the result. Like UpdateCulturalSetting it is not persisted.
func (c *Context) ApplyPreferenceQuiz(q QuizResults) Settings {
	c.mu.Lock()
	c.settings = c.settings.applyQuiz(q)
	lang, s := c.lang, c.settings
	c.mu.Unlock()

	c.notify(lang, s)
	return s
}

// OnChange registers fn to be called after every language or settings
// change. fn runs on the goroutine that made the change.
func (c *Context) OnChange(fn func(Language, Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Context) install(lang Language, s Settings) {
	c.mu.Lock()
	c.lang = lang
	c.settings = s
	c.mu.Unlock()

	c.notify(lang, s)
}

func (c *Context) notify(lang Language, s Settings) {
	c.mu.RLock()
	listeners := slices.Clone(c.listeners)
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(lang, s)
	}
}

// MemoryStore is a Store that keeps the selection in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	lang Language
	set  bool
}

// LoadLanguage implements Store.
func (m *MemoryStore) LoadLanguage() (Language, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lang, m.set, nil
}

// SaveLanguage implements Store.
func (m *MemoryStore) SaveLanguage(lang Language) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lang, m.set = lang, true
	return nil
}
