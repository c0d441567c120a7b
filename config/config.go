// Package config handles the optional .veravista.yaml configuration file.
//
// The file is optional. When it is missing every value takes its default;
// when present, fields that are left out keep their defaults too.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veravista/veravista/culture"
)

// FileName is the default config file name.
const FileName = ".veravista.yaml"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .veravista.yaml structure.
type File struct {
	// LogLevel is the zap level for library logs (default "warn").
	LogLevel string `yaml:"log_level,omitempty"`
	// DataDir overrides the XDG data directory for preferences and corrections.
	DataDir string `yaml:"data_dir,omitempty"`

	Preview     Preview     `yaml:"preview"`
	Translation Translation `yaml:"translation"`
	Bridge      Bridge      `yaml:"bridge"`

	path string
}

// Preview configures the composer's debounced translation preview.
type Preview struct {
	// Debounce is the quiet period before a preview request fires (default 500ms).
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// Translation configures the simulated translation pipeline.
type Translation struct {
	// ProcessingDelay simulates engine latency per base translation.
	ProcessingDelay time.Duration `yaml:"processing_delay,omitempty"`
	// Dictionary adds exact-match phrases per target language:
	// target -> source text -> translated text.
	Dictionary map[string]map[string]string `yaml:"dictionary,omitempty"`
}

// Bridge configures the cultural bridge.
type Bridge struct {
	// MaxConnections caps candidates returned per language (default 3).
	MaxConnections int `yaml:"max_connections,omitempty"`
	// SensitiveTopics extends the built-in per-language sensitive topic lists.
	SensitiveTopics map[string][]string `yaml:"sensitive_topics,omitempty"`
}

// Defaults.
const (
	DefaultDebounce       = 500 * time.Millisecond
	DefaultMaxConnections = 3
	DefaultLogLevel       = "warn"
)

// Default returns a File with every default applied.
func Default() *File {
	f := &File{}
	f.applyDefaults()
	return f
}

func (f *File) applyDefaults() {
	if f.LogLevel == "" {
		f.LogLevel = DefaultLogLevel
	}
	if f.Preview.Debounce == 0 {
		f.Preview.Debounce = DefaultDebounce
	}
	if f.Bridge.MaxConnections == 0 {
		f.Bridge.MaxConnections = DefaultMaxConnections
	}
}

// Path returns the file the configuration was read from, or "" when
// defaults are in use.
func (f *File) Path() string {
	return f.path
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads and validates .veravista.yaml from rootDir. A missing file is
// not an error: Default() is returned.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.path = path
	f.applyDefaults()

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Preview.Debounce < 0 {
		return fmt.Errorf("preview.debounce must not be negative (got %s)", f.Preview.Debounce)
	}
	if f.Translation.ProcessingDelay < 0 {
		return fmt.Errorf("translation.processing_delay must not be negative (got %s)", f.Translation.ProcessingDelay)
	}
	if f.Bridge.MaxConnections < 0 {
		return fmt.Errorf("bridge.max_connections must not be negative (got %d)", f.Bridge.MaxConnections)
	}
	for _, name := range sortedKeys(f.Translation.Dictionary) {
		if _, err := culture.ParseLanguage(name); err != nil {
			return fmt.Errorf("translation.dictionary: %w", err)
		}
	}
	for _, name := range sortedKeys(f.Bridge.SensitiveTopics) {
		if _, err := culture.ParseLanguage(name); err != nil {
			return fmt.Errorf("bridge.sensitive_topics: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Typed accessors
// ---------------------------------------------------------------------------

// Dictionary returns the phrase dictionary keyed by parsed Language.
// Entries are assumed valid; Load has already checked the keys.
func (f *File) Dictionary() map[culture.Language]map[string]string {
	out := make(map[culture.Language]map[string]string, len(f.Translation.Dictionary))
	for name, phrases := range f.Translation.Dictionary {
		lang, err := culture.ParseLanguage(name)
		if err != nil {
			continue
		}
		out[lang] = phrases
	}
	return out
}

// SensitiveTopics returns the extra topic lists keyed by parsed Language.
func (f *File) SensitiveTopics() map[culture.Language][]string {
	out := make(map[culture.Language][]string, len(f.Bridge.SensitiveTopics))
	for name, topics := range f.Bridge.SensitiveTopics {
		lang, err := culture.ParseLanguage(name)
		if err != nil {
			continue
		}
		out[lang] = append(out[lang], topics...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
