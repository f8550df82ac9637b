package agent

import (
	"context"
	"encoding/json"
	"log"
	"regexp"

	"harugo/internal/models"
)

const memorySystemPrompt = `You maintain and tidy the context of a conversation.
Detect topic changes in the given conversation history, drop the parts of the earlier context that are no longer needed, and keep only the context relevant to the current message.
The point is to keep exactly the context the user's current question needs.

Your output is the filtered message history, in the same format as the input. Never change the structure or format.`

var jsonArrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

// MemoryAgent prunes conversation history down to what is relevant to the
// current turn. It must never corrupt or truncate history on a malformed
// model reply: every failure falls back to the original, unfiltered history.
type MemoryAgent struct {
	model ModelCaller
}

func NewMemoryAgent(model ModelCaller) *MemoryAgent {
	return &MemoryAgent{model: model}
}

// Filter returns the pruned history, or the input history unchanged when it
// has two or fewer turns or when the model reply cannot be validated.
func (a *MemoryAgent) Filter(ctx context.Context, history *models.History, currentMessage string) *models.History {
	if history.Len() <= 2 {
		return history
	}

	encoded, err := models.EncodeTurns(history.Turns, history.Shape)
	if err != nil {
		log.Printf("memory agent: encode history failed: %v", err)
		return history
	}
	input := string(encoded) + "\n\nCurrent message: " + currentMessage

	scratch := models.NewHistory(a.model.Shape())
	reply, err := a.model.Generate(ctx, memorySystemPrompt, input, scratch)
	if err != nil {
		log.Printf("memory agent: filter call failed: %v", err)
		return history
	}

	turns, ok := parseFilteredTurns(reply)
	if !ok {
		log.Printf("memory agent: filtered history was not a valid turn array")
		return history
	}
	return &models.History{Shape: history.Shape, Turns: turns}
}

// parseFilteredTurns accepts the reply only when it is a JSON array whose
// elements are all mappings in a recognizable turn shape. A direct parse is
// tried first, then a bracketed-array span recovered from surrounding prose.
func parseFilteredTurns(reply string) ([]models.Turn, bool) {
	if turns, ok := decodeTurnArray([]byte(reply)); ok {
		return turns, true
	}
	if span := jsonArrayPattern.FindString(reply); span != "" {
		return decodeTurnArray([]byte(span))
	}
	return nil, false
}

func decodeTurnArray(data []byte) ([]models.Turn, bool) {
	var mappings []map[string]json.RawMessage
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, false
	}
	turns, err := models.DecodeTurns(data)
	if err != nil {
		return nil, false
	}
	return turns, true
}
