// Package learning is the correction store behind translate's
// SubmitTranslationCorrection. Corrections are kept as gettext PO files,
// one per language pair:
//
//	<dir>/english-urdu.po
//	<dir>/corrections.lock
//
// msgid is the original text, msgstr the user's correction, and the machine
// output is kept as a translator comment. The lock file ledger makes
// writes at-most-once: resubmitting an identical correction is a no-op.
package learning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veravista/veravista/culture"
	"github.com/veravista/veravista/lockfile"
	"github.com/veravista/veravista/pofile"
	"github.com/veravista/veravista/translate"
)

// CorrectionFlag marks entries written from user corrections.
const CorrectionFlag = "user-correction"

const (
	machinePrefix   = "machine: "
	submittedPrefix = "submitted "
	project         = "veravista"
)

// POStore writes corrections to PO files under a directory.
type POStore struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex
}

// NewPOStore returns a store rooted at dir. The directory is created on
// the first write.
func NewPOStore(dir string, logger *zap.Logger) *POStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &POStore{dir: dir, logger: logger}
}

// Dir returns the store directory.
func (s *POStore) Dir() string {
	return s.dir
}

// FilePath returns the PO file for a language pair.
func (s *POStore) FilePath(source, target culture.Language) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.po", source, target))
}

// SaveCorrection implements translate.CorrectionStore.
func (s *POStore) SaveCorrection(ctx context.Context, c translate.Correction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.Source.Valid() || !c.Target.Valid() {
		return fmt.Errorf("%w: %q -> %q", culture.ErrUnknownLanguage, c.Source, c.Target)
	}
	if c.Original == "" {
		return fmt.Errorf("correction has no original text")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lf, err := lockfile.Load(s.dir)
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}

	pair := lockfile.PairKey(string(c.Source), string(c.Target))
	content := lockfile.CorrectionContent(c.MachineTranslated, c.Corrected)
	if lf.Seen(pair, c.Original, content) {
		s.logger.Debug("duplicate correction skipped",
			zap.String("pair", pair),
			zap.String("original", c.Original))
		return nil
	}

	submitted := c.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}

	path := s.FilePath(c.Source, c.Target)
	f, err := s.open(path, c.Source, c.Target, submitted)
	if err != nil {
		return err
	}
	replaced := f.Upsert(&pofile.Entry{
		TranslatorComments: []string{machinePrefix + c.MachineTranslated},
		ExtractedComments:  []string{submittedPrefix + submitted.UTC().Format(time.RFC3339)},
		Flags:              []string{CorrectionFlag},
		MsgCtxt:            pair,
		MsgID:              c.Original,
		MsgStr:             c.Corrected,
	})
	f.SetHeaderField("PO-Revision-Date", submitted.UTC().Format("2006-01-02 15:04+0000"))

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", s.dir, err)
	}
	if err := f.WriteFile(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	// The ledger is written after the PO file: a crash in between leaves
	// the correction stored but unrecorded, and a resubmission rewrites
	// the same entry.
	lf.Record(pair, c.Original, content)
	if err := lf.Save(); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}

	s.logger.Info("correction stored",
		zap.String("file", path),
		zap.String("pair", pair),
		zap.Bool("replaced", replaced))
	return nil
}

// open parses the pair's PO file, or starts a new one.
func (s *POStore) open(path string, source, target culture.Language, now time.Time) (*pofile.File, error) {
	f, err := pofile.ParseFile(path)
	if err == nil {
		return f, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f = pofile.NewFile()
	f.Header = pofile.MakeHeader(project, string(source), string(target), now)
	return f, nil
}

// List returns the stored corrections for a language pair in file order.
// A pair with no corrections yields an empty slice.
func (s *POStore) List(source, target culture.Language) ([]translate.Correction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := pofile.ParseFile(s.FilePath(source, target))
	if err != nil {
		if os.IsNotExist(err) {
			return []translate.Correction{}, nil
		}
		return nil, err
	}

	out := make([]translate.Correction, 0, len(f.Entries))
	for _, e := range f.Entries {
		if !e.HasFlag(CorrectionFlag) {
			continue
		}
		c := translate.Correction{
			Original:  e.MsgID,
			Corrected: e.MsgStr,
			Source:    source,
			Target:    target,
		}
		c.MachineTranslated = machineComment(e.TranslatorComments)
		for _, ec := range e.ExtractedComments {
			if ts, ok := strings.CutPrefix(ec, submittedPrefix); ok {
				if at, err := time.Parse(time.RFC3339, ts); err == nil {
					c.SubmittedAt = at
				}
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Summary describes the ledger, e.g. "1 pairs, 2 corrections (...)".
func (s *POStore) Summary() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lf, err := lockfile.Load(s.dir)
	if err != nil {
		return "", err
	}
	return lf.Summary(), nil
}

// machineComment rebuilds the machine translation. pofile writes a
// multi-line comment as one comment per line, so every comment after the
// prefixed one is a continuation.
func machineComment(comments []string) string {
	for i, tc := range comments {
		if m, ok := strings.CutPrefix(tc, machinePrefix); ok {
			return strings.Join(append([]string{m}, comments[i+1:]...), "\n")
		}
	}
	return ""
}
