// Package agent holds the per-turn pipeline agents: database grounding,
// context filtering and response composition. Agents depend only on the
// model gateway contract and plain data.
package agent

import (
	"context"

	"harugo/internal/models"
)

// ModelCaller is the slice of the gateway contract the agents need.
type ModelCaller interface {
	Shape() models.ContentShape
	Generate(ctx context.Context, systemPrompt, userMessage string, history *models.History) (string, error)
}
