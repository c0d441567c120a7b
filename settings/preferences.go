// Package settings provides storage for veravista user preferences.
//
// Preferences live in the XDG data directory:
//
//	$XDG_DATA_HOME/veravista/  (default: ~/.local/share/veravista/)
//
// Files stored:
//   - preferences.json: flat key/value object; the only key written today
//     is "veravista-language", the selected cultural context
//   - corrections/     translation corrections (see package learning)
//
// File permissions are 0600 (owner read/write only).
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/veravista/veravista/culture"
)

const (
	dataDirName = "veravista"
	fileName    = "preferences.json"

	// LanguageKey is the preference key holding the selected language.
	LanguageKey = "veravista-language"
)

// Preferences is the on-disk key/value object.
type Preferences map[string]string

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// DataDir returns the veravista data directory.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// CorrectionsDir returns the directory used by the correction store.
func CorrectionsDir(dataDir string) string {
	return filepath.Join(dataDir, "corrections")
}

// ---------------------------------------------------------------------------
// FileStore
// ---------------------------------------------------------------------------

// FileStore persists preferences as JSON inside Dir. It implements
// culture.Store.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir, or at DataDir() when dir is
// empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DataDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return &FileStore{Dir: dir}, nil
}

// Path returns the preferences file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.Dir, fileName)
}

// Load reads the preferences file. A missing file yields an empty map; a
// corrupt file is reported so callers can decide whether to overwrite it.
func (s *FileStore) Load() (Preferences, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(Preferences), nil
		}
		return nil, fmt.Errorf("reading preferences: %w", err)
	}

	var prefs Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path(), err)
	}
	if prefs == nil {
		prefs = make(Preferences)
	}
	return prefs, nil
}

// Save writes the preferences file with 0600 permissions.
func (s *FileStore) Save(prefs Preferences) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

// LoadLanguage implements culture.Store. The stored value is returned
// as-is; validating it is the caller's job.
func (s *FileStore) LoadLanguage() (culture.Language, bool, error) {
	prefs, err := s.Load()
	if err != nil {
		return "", false, err
	}
	v, ok := prefs[LanguageKey]
	if !ok || v == "" {
		return "", false, nil
	}
	return culture.Language(v), true, nil
}

// SaveLanguage implements culture.Store. Other keys in the file are kept.
func (s *FileStore) SaveLanguage(lang culture.Language) error {
	prefs, err := s.Load()
	if err != nil {
		// a corrupt file would otherwise block every future selection
		prefs = make(Preferences)
	}
	prefs[LanguageKey] = string(lang)
	return s.Save(prefs)
}

// Reset removes the preferences file.
func (s *FileStore) Reset() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing preferences: %w", err)
	}
	return nil
}
