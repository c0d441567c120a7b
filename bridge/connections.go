package bridge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/veravista/veravista/culture"
)

// Candidate is a user who may be suggested as a connection.
type Candidate struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Language  culture.Language `json:"language" yaml:"language"`
	Interests []string         `json:"interests" yaml:"interests"`
}

// Directory lists candidates who speak a language.
type Directory interface {
	Candidates(ctx context.Context, lang culture.Language) ([]Candidate, error)
}

// StaticDirectory is an in-memory Directory.
type StaticDirectory []Candidate

// Candidates implements Directory.
func (d StaticDirectory) Candidates(ctx context.Context, lang culture.Language) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Candidate
	for _, c := range d {
		if c.Language == lang {
			out = append(out, c)
		}
	}
	return out, nil
}

// SampleDirectory returns a small fixed directory with a few users per
// language.
func SampleDirectory() StaticDirectory {
	return StaticDirectory{
		{ID: "user-english-1", Name: "Amelia", Language: culture.English, Interests: []string{"cricket", "poetry", "cooking"}},
		{ID: "user-english-2", Name: "Noah", Language: culture.English, Interests: []string{"hiking", "photography", "history"}},
		{ID: "user-english-3", Name: "Grace", Language: culture.English, Interests: []string{"music", "poetry", "travel"}},
		{ID: "user-urdu-1", Name: "Ayesha", Language: culture.Urdu, Interests: []string{"poetry", "calligraphy", "cooking"}},
		{ID: "user-urdu-2", Name: "Bilal", Language: culture.Urdu, Interests: []string{"cricket", "music", "history"}},
		{ID: "user-urdu-3", Name: "Hira", Language: culture.Urdu, Interests: []string{"travel", "photography", "cooking"}},
		{ID: "user-chinese-1", Name: "Li Wei", Language: culture.Chinese, Interests: []string{"calligraphy", "tea", "history"}},
		{ID: "user-chinese-2", Name: "Zhang Min", Language: culture.Chinese, Interests: []string{"music", "cooking", "travel"}},
		{ID: "user-chinese-3", Name: "Chen Jing", Language: culture.Chinese, Interests: []string{"poetry", "hiking", "tea"}},
	}
}

// Connection is a ranked candidate.
type Connection struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	SharedInterests    []string `json:"sharedInterests"`
	CompatibilityScore float64  `json:"compatibilityScore"`
	CulturalInsight    string   `json:"culturalInsights"`
}

// FindCrossLanguageConnections ranks candidates in each target language by
// interest overlap with the user. Candidates sharing no interest, and the
// user themself, are left out. Within a language, results are ordered by
// descending score then ascending ID, and capped at MaxConnections.
//
// Every target language gets a key in the result, possibly with an empty
// list. Any failure is reported as *ConnectionMatchingError.
func (b *Bridge) FindCrossLanguageConnections(ctx context.Context, userID string, userLanguage culture.Language, interests []string, targetLanguages []culture.Language) (map[culture.Language][]Connection, error) {
	targets := dedupeLanguages(targetLanguages)
	for _, lang := range targets {
		if !lang.Valid() {
			return nil, b.matchFailed(fmt.Errorf("%w: %q", culture.ErrUnknownLanguage, string(lang)))
		}
	}

	b.logger.Debug("finding connections",
		zap.String("user", userID),
		zap.String("language", string(userLanguage)),
		zap.Int("targets", len(targets)))

	wanted := normalizeInterests(interests)
	results := make([][]Connection, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range targets {
		g.Go(func() error {
			candidates, err := b.directory.Candidates(gctx, lang)
			if err != nil {
				return fmt.Errorf("listing %s candidates: %w", lang, err)
			}
			conns, err := b.rank(userID, lang, wanted, candidates)
			if err != nil {
				return err
			}
			results[i] = conns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, b.matchFailed(err)
	}

	out := make(map[culture.Language][]Connection, len(targets))
	for i, lang := range targets {
		out[lang] = results[i]
	}
	return out, nil
}

func (b *Bridge) rank(userID string, lang culture.Language, wanted []string, candidates []Candidate) ([]Connection, error) {
	conns := make([]Connection, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == userID {
			continue
		}
		shared, score := Compatibility(wanted, c.Interests)
		if len(shared) == 0 {
			continue
		}
		insight, err := b.message(map[string]any{
			"Language": string(lang),
			"Interest": shared[0],
		}, "connection-insight")
		if err != nil {
			return nil, err
		}
		conns = append(conns, Connection{
			ID:                 c.ID,
			Name:               c.Name,
			SharedInterests:    shared,
			CompatibilityScore: score,
			CulturalInsight:    insight,
		})
	}

	sort.Slice(conns, func(i, j int) bool {
		if conns[i].CompatibilityScore != conns[j].CompatibilityScore {
			return conns[i].CompatibilityScore > conns[j].CompatibilityScore
		}
		return conns[i].ID < conns[j].ID
	})
	if len(conns) > b.maxConnections {
		conns = conns[:b.maxConnections]
	}
	return conns, nil
}

func (b *Bridge) matchFailed(err error) error {
	b.logger.Warn("connection matching failed", zap.Error(err))
	return &ConnectionMatchingError{Err: err}
}

// Compatibility returns the interests two users share, in the order of
// a, and their Jaccard similarity rounded to two decimals. Interests are
// compared case-insensitively.
func Compatibility(a, b []string) (shared []string, score float64) {
	left := normalizeInterests(a)
	right := normalizeInterests(b)

	inRight := make(map[string]bool, len(right))
	for _, r := range right {
		inRight[r] = true
	}
	for _, l := range left {
		if inRight[l] {
			shared = append(shared, l)
		}
	}

	union := len(left) + len(right) - len(shared)
	if union == 0 {
		return nil, 0
	}
	score = float64(len(shared)) / float64(union)
	return shared, math.Round(score*100) / 100
}

// normalizeInterests lowercases, trims and dedupes, keeping first-seen
// order.
func normalizeInterests(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func dedupeLanguages(in []culture.Language) []culture.Language {
	seen := make(map[culture.Language]bool, len(in))
	out := make([]culture.Language, 0, len(in))
	for _, l := range in {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
