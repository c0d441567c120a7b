package bridge

import (
	"context"
	"strings"

	"github.com/veravista/veravista/culture"
)

// fallbackInterest fills in for missing shared interests.
const fallbackInterest = "everyday life"

// Starter is a suggested opening line.
type Starter struct {
	Text            string `json:"text"`
	CulturalContext string `json:"culturalContext"`
}

type starterTemplate struct {
	id string
	// interest indexes sharedInterests.
	interest int
}

var neutralStarters = []starterTemplate{
	{"starter-origin", 0},
	{"starter-perspective", 0},
	{"starter-values", 1},
}

// targetStarters adds one culture-specific starter for these targets.
var targetStarters = map[culture.Language]starterTemplate{
	culture.Urdu:    {"starter-urdu", 0},
	culture.Chinese: {"starter-chinese", 0},
}

// GenerateConversationStarters returns the culture-neutral starters,
// followed by a target-specific one when the target culture has one.
func (b *Bridge) GenerateConversationStarters(ctx context.Context, source, target culture.Language, sharedInterests []string) ([]Starter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	templates := append([]starterTemplate(nil), neutralStarters...)
	if extra, ok := targetStarters[target]; ok {
		templates = append(templates, extra)
	}

	starters := make([]Starter, 0, len(templates))
	for _, tmpl := range templates {
		data := map[string]any{"Interest": interestAt(sharedInterests, tmpl.interest)}
		text, err := b.message(data, tmpl.id)
		if err != nil {
			return nil, err
		}
		note, err := b.message(nil, tmpl.id+"-context")
		if err != nil {
			return nil, err
		}
		starters = append(starters, Starter{Text: text, CulturalContext: note})
	}
	return starters, nil
}

// interestAt returns interests[i], falling back to the last non-blank
// interest and then to fallbackInterest.
func interestAt(interests []string, i int) string {
	if i < len(interests) {
		if s := strings.TrimSpace(interests[i]); s != "" {
			return s
		}
	}
	for j := len(interests) - 1; j >= 0; j-- {
		if s := strings.TrimSpace(interests[j]); s != "" {
			return s
		}
	}
	return fallbackInterest
}
