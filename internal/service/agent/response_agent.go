package agent

import (
	"context"
	"fmt"
	"strings"

	"harugo/internal/models"
)

// ResponseAgent drafts the answer for a turn and re-styles it. Generation is
// two passes: a content pass carrying persona, history and optional grounding
// data, then a context-free style pass over the draft. Gateway failures
// propagate; there is no fallback to unstyled text.
type ResponseAgent struct {
	model ModelCaller
}

func NewResponseAgent(model ModelCaller) *ResponseAgent {
	return &ResponseAgent{model: model}
}

// Respond generates the styled reply and reconciles the history: the user
// turn is rewritten back to the literal userMessage (the content pass may
// have seen a grounding-wrapped version) and the assistant turn to the styled
// text. The returned history is the mutated input.
func (a *ResponseAgent) Respond(ctx context.Context, userMessage string, history *models.History, groundingJSON string, profile models.UserProfile) (string, *models.History, error) {
	if history == nil {
		history = models.NewHistory(a.model.Shape())
	}

	message := userMessage
	if strings.TrimSpace(groundingJSON) != "" {
		message = fmt.Sprintf("Database context:\n%s\nRefer to the database context above when answering the question below.\n%s",
			groundingJSON, userMessage)
	}

	draft, err := a.model.Generate(ctx, personaPrompt(profile), message, history)
	if err != nil {
		return "", nil, err
	}

	styled, err := a.applyStyle(ctx, draft)
	if err != nil {
		return "", nil, err
	}

	if err := history.RewriteLastExchange(userMessage, styled); err != nil {
		return "", nil, err
	}
	return styled, history, nil
}

// applyStyle runs the stateless style pass. The empty history is deliberate:
// the style pass must not see conversation context.
func (a *ResponseAgent) applyStyle(ctx context.Context, message string) (string, error) {
	scratch := models.NewHistory(a.model.Shape())
	return a.model.Generate(ctx, styleSystemPrompt, message, scratch)
}
