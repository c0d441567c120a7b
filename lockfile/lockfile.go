// Package lockfile implements corrections.lock, a ledger of MD5 checksums
// for every translation correction already handed to the learning store.
// It makes correction submission at-most-once: a correction whose
// checksum is recorded is never written again.
//
// The ledger is stored next to the correction PO files.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default ledger file name.
const LockFileName = "corrections.lock"

// Version is the ledger format version.
const Version = 1

// LockFile is the on-disk ledger.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // pair -> key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the ledger from dir. A missing file yields an empty ledger.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported ledger version %d", path, lf.Version)
	}
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the ledger to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lf.path), 0700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(lf.path), err)
	}
	if err := os.WriteFile(lf.path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the ledger path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksums
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// PairKey names the ledger section for a language pair, e.g. "english->urdu".
func PairKey(source, target string) string {
	return source + "->" + target
}

// CorrectionContent is the hashed content of a correction. The machine
// output is included so the same fix to a different draft counts as new.
func CorrectionContent(machine, corrected string) string {
	return machine + "\x00" + corrected
}

// Seen reports whether content is already recorded for key under pair.
func (lf *LockFile) Seen(pair, key, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys, ok := lf.Checksums[pair]
	if !ok {
		return false
	}
	return keys[key] == Hash(content)
}

// Record stores the checksum of content for key under pair. It returns
// false when that exact content was already recorded.
func (lf *LockFile) Record(pair, key, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	hash := Hash(content)
	if lf.Checksums[pair] == nil {
		lf.Checksums[pair] = make(map[string]string)
	}
	if lf.Checksums[pair][key] == hash {
		return false
	}
	lf.Checksums[pair][key] = hash
	return true
}

// Forget removes key under pair so it can be recorded again.
func (lf *LockFile) Forget(pair, key string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if keys := lf.Checksums[pair]; keys != nil {
		delete(keys, key)
		if len(keys) == 0 {
			delete(lf.Checksums, pair)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of pairs and total keys in the ledger.
func (lf *LockFile) Stats() (pairs, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	pairs = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Pairs returns the sorted list of pair keys.
func (lf *LockFile) Pairs() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	pairs := make([]string, 0, len(lf.Checksums))
	for p := range lf.Checksums {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)
	return pairs
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	pairs, keys := lf.Stats()
	if pairs == 0 {
		return "empty"
	}

	var parts []string
	for _, p := range lf.Pairs() {
		lf.mu.Lock()
		n := len(lf.Checksums[p])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d", p, n))
	}
	return fmt.Sprintf("%d pairs, %d corrections (%s)", pairs, keys, strings.Join(parts, ", "))
}
