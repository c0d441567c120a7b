package bridge

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/veravista/veravista/culture"
)

// NoteType classifies a ContextNote.
type NoteType string

const (
	CommunicationStyle NoteType = "communication_style"
	TopicSensitivity   NoteType = "topic_sensitivity"
	Etiquette          NoteType = "etiquette"
)

// ContextNote is advice for a conversation across cultures.
type ContextNote struct {
	Type NoteType `json:"type"`
	Note string   `json:"note"`
}

// GetCulturalContextNotes returns exactly three notes, in order:
// communication style for the pair, sensitivity of topic for the target
// culture, and etiquette for the target culture.
func (b *Bridge) GetCulturalContextNotes(ctx context.Context, source, target culture.Language, topic string) ([]ContextNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	style, err := b.message(nil, "style-"+string(source)+"-"+string(target), "style-default")
	if err != nil {
		return nil, err
	}

	sensitivityID := "sensitivity-none"
	if b.IsSensitive(target, topic) {
		sensitivityID = "sensitivity-caution"
	}
	sensitivity, err := b.message(map[string]any{"Topic": topic}, sensitivityID)
	if err != nil {
		return nil, err
	}

	etiquette, err := b.message(nil, "etiquette-"+string(target), "etiquette-default")
	if err != nil {
		return nil, err
	}

	b.logger.Debug("context notes",
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.String("sensitivity", sensitivityID))

	return []ContextNote{
		{Type: CommunicationStyle, Note: style},
		{Type: TopicSensitivity, Note: sensitivity},
		{Type: Etiquette, Note: etiquette},
	}, nil
}

// IsSensitive reports whether topic contains one of target's sensitive
// topics, ignoring case.
func (b *Bridge) IsSensitive(target culture.Language, topic string) bool {
	lower := strings.ToLower(topic)
	for _, t := range b.sensitive[target] {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// SensitiveTopics returns target's sensitive topic list.
func (b *Bridge) SensitiveTopics(target culture.Language) []string {
	return append([]string(nil), b.sensitive[target]...)
}
