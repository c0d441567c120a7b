package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veravista/veravista/culture"
	"github.com/veravista/veravista/translate"
)

// ErrEmptyMessage is returned when sending a blank message.
var ErrEmptyMessage = errors.New("message is empty")

// Service is the pipeline surface used by Composer.
type Service interface {
	Translator
	GetAlternativeTranslations(ctx context.Context, phrase string, source, target culture.Language) ([]translate.Alternative, error)
}

// Message is a sent message.
type Message struct {
	ID        string           `json:"id"`
	Sender    string           `json:"sender"`
	Recipient string           `json:"recipient"`
	Text      string           `json:"text"`
	Source    culture.Language `json:"source"`
	Target    culture.Language `json:"target"`
	SentAt    time.Time        `json:"sentAt"`
	// Translation is nil when both parties share a language.
	Translation *translate.Result `json:"translation,omitempty"`
}

// Composer is a message draft addressed to one recipient. It owns a
// preview Controller.
type Composer struct {
	*Controller

	service   Service
	sender    string
	recipient string
	logger    *zap.Logger
	now       func() time.Time
}

// NewComposer creates a composer from sender (writing in source) to
// recipient (reading target). opts configure the preview controller.
func NewComposer(service Service, sender, recipient string, source, target culture.Language, opts ...Option) *Composer {
	ctl := NewController(service, source, target, opts...)
	return &Composer{
		Controller: ctl,
		service:    service,
		sender:     sender,
		recipient:  recipient,
		logger:     ctl.logger,
		now:        time.Now,
	}
}

// Send translates text synchronously, without debounce, and returns the
// message. Pipeline failures are returned wrapped; nothing is retried. A
// successful send clears the draft and its preview.
func (c *Composer) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	source, target := c.Languages()

	msg := Message{
		ID:        uuid.New().String(),
		Sender:    c.sender,
		Recipient: c.recipient,
		Text:      text,
		Source:    source,
		Target:    target,
		SentAt:    c.now().UTC(),
	}

	if source != target {
		res, err := c.service.TranslateWithContext(ctx, text, source, target, c.userContext)
		if err != nil {
			return Message{}, fmt.Errorf("sending message to %s: %w", c.recipient, err)
		}
		msg.Translation = &res
	}

	c.mu.Lock()
	c.text = ""
	c.mu.Unlock()
	c.Clear()

	c.logger.Info("message sent",
		zap.String("id", msg.ID),
		zap.String("recipient", c.recipient),
		zap.Bool("translated", msg.Translation != nil))
	return msg, nil
}

// RequestAlternative replaces the preview with the most confident
// alternative phrasing of the current draft.
func (c *Composer) RequestAlternative(ctx context.Context) (translate.Alternative, error) {
	text := c.Text()
	source, target := c.Languages()

	alts, err := c.service.GetAlternativeTranslations(ctx, text, source, target)
	if err != nil {
		return translate.Alternative{}, fmt.Errorf("requesting alternative: %w", err)
	}
	best := alts[0]

	c.replace(&Preview{
		Text: text,
		Result: translate.Result{
			TranslatedText:  best.Text,
			CulturalNotes:   []translate.Note{},
			ConfidenceScore: best.ConfidenceScore,
		},
	})
	return best, nil
}
