package companion

import (
	"context"
	"sync"

	"harugo/internal/models"
)

// HistoryFilter prunes conversation history for the current turn.
type HistoryFilter interface {
	Filter(ctx context.Context, history *models.History, currentMessage string) *models.History
}

// Grounder answers whether and how the database grounds the question.
type Grounder interface {
	SetUserID(userID string)
	Process(ctx context.Context, question, sendDate, sendTime string) (bool, string)
}

// Responder produces the styled reply and the reconciled history.
type Responder interface {
	Respond(ctx context.Context, userMessage string, history *models.History, groundingJSON string, profile models.UserProfile) (string, *models.History, error)
}

// Service chains the per-turn agents: history filtering, database grounding,
// then response composition. The grounder holds one user binding at a time,
// so the bind-and-process step is serialized here.
type Service struct {
	memory    HistoryFilter
	grounding Grounder
	responder Responder

	mu sync.Mutex
}

func NewService(memory HistoryFilter, grounding Grounder, responder Responder) *Service {
	return &Service{memory: memory, grounding: grounding, responder: responder}
}

// Answer runs one conversation turn. Grounding data is forwarded to the
// responder only when a database lookup actually produced rows; otherwise the
// question goes through bare.
func (s *Service) Answer(ctx context.Context, userID, question, sendDate, sendTime string, profile models.UserProfile, history *models.History) (string, *models.History, error) {
	filtered := history
	if history != nil {
		filtered = s.memory.Filter(ctx, history, question)
	}

	s.mu.Lock()
	s.grounding.SetUserID(userID)
	usedDB, verdict := s.grounding.Process(ctx, question, sendDate, sendTime)
	s.mu.Unlock()

	groundingJSON := ""
	if usedDB {
		groundingJSON = verdict
	}
	return s.responder.Respond(ctx, question, filtered, groundingJSON, profile)
}
