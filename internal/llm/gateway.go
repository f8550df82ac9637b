// Package llm unifies heterogeneous model backends behind one generate
// contract. Each backend family owns its wire format; the logical
// (system, user, history) triple is translated at this boundary only.
package llm

import (
	"context"
	"fmt"

	"harugo/internal/models"
)

// Backend is one model endpoint the gateway can dispatch to.
//
// Generate appends the user turn to the supplied history and, on success, the
// assistant turn — exactly one of each per call, so callers may rewrite the
// trailing pair via History.RewriteLastExchange. The input history is mutated;
// callers must not assume it is left unmodified.
type Backend interface {
	ID() string
	Shape() models.ContentShape
	Generate(ctx context.Context, systemPrompt, userMessage string, history *models.History) (string, error)
}

// GenerationError marks a transport or model failure. It always propagates to
// the caller; the gateway never substitutes an empty reply.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on backend %s: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func generationErr(backend string, err error) error {
	return &GenerationError{Backend: backend, Err: err}
}
