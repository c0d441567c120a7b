package bridge

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
)

// Interaction summarises one conversation between a user and a connection.
type Interaction struct {
	MessagesSent     int      `json:"messagesSent"`
	MessagesReceived int      `json:"messagesReceived"`
	QuestionsAsked   int      `json:"questionsAsked"`
	CulturalTopics   []string `json:"culturalTopics"`
}

// InteractionInsights is feedback on an Interaction.
type InteractionInsights struct {
	QualityScore    float64  `json:"qualityScore"`
	Insights        string   `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

// ErrInvalidInteraction is returned for interactions without both parties
// or with negative counts.
var ErrInvalidInteraction = errors.New("invalid interaction")

// Quality score weights.
const (
	balanceWeight  = 0.4
	questionWeight = 0.3
	topicWeight    = 0.3

	questionsForFullScore = 5
	topicsForFullScore    = 3
)

// TrackInteraction scores an interaction and suggests how to continue it.
// The score is in [0,1]: balanced exchanges with questions and cultural
// topics score highest.
func (b *Bridge) TrackInteraction(ctx context.Context, userID, connectionID string, in Interaction) (InteractionInsights, error) {
	if err := ctx.Err(); err != nil {
		return InteractionInsights{}, err
	}
	if userID == "" || connectionID == "" || in.MessagesSent < 0 || in.MessagesReceived < 0 || in.QuestionsAsked < 0 {
		return InteractionInsights{}, ErrInvalidInteraction
	}

	balance := 0.0
	if hi := max(in.MessagesSent, in.MessagesReceived); hi > 0 {
		balance = float64(min(in.MessagesSent, in.MessagesReceived)) / float64(hi)
	}
	questions := math.Min(1, float64(in.QuestionsAsked)/questionsForFullScore)
	topics := math.Min(1, float64(len(normalizeInterests(in.CulturalTopics)))/topicsForFullScore)

	score := balanceWeight*balance + questionWeight*questions + topicWeight*topics
	score = math.Round(score*100) / 100

	insightID := "interaction-general"
	switch {
	case balance < 0.5:
		insightID = "interaction-one-sided"
	case topics > 0:
		insightID = "interaction-cultural"
	}

	recIDs := []string{"recommend-family", "recommend-story"}
	if questions < 1 {
		recIDs = append(recIDs, "recommend-questions")
	}
	if in.MessagesSent > 2*in.MessagesReceived {
		recIDs = append(recIDs, "recommend-balance")
	}

	insight, err := b.message(nil, insightID)
	if err != nil {
		return InteractionInsights{}, err
	}
	recs := make([]string, 0, len(recIDs))
	for _, id := range recIDs {
		text, err := b.message(nil, id)
		if err != nil {
			return InteractionInsights{}, err
		}
		recs = append(recs, text)
	}

	b.logger.Info("interaction tracked",
		zap.String("user", userID),
		zap.String("connection", connectionID),
		zap.Float64("quality", score))

	return InteractionInsights{QualityScore: score, Insights: insight, Recommendations: recs}, nil
}
