package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContentShape identifies how a backend family renders message content on the
// wire: a plain string, or a list of typed text blocks.
type ContentShape string

const (
	ShapePlain  ContentShape = "plain"
	ShapeBlocks ContentShape = "blocks"
)

// Turn is one conversation entry. Content always holds the logical text; the
// wire rendering is decided by the owning History's shape.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is an ordered, append-only sequence of turns. The shape is fixed by
// the backend that produced the history and stays homogeneous for the lifetime
// of a conversation.
type History struct {
	Shape ContentShape
	Turns []Turn
}

// NewHistory creates an empty history for the given content shape.
func NewHistory(shape ContentShape) *History {
	return &History{Shape: shape}
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Turns)
}

func (h *History) Append(turns ...Turn) {
	h.Turns = append(h.Turns, turns...)
}

func (h *History) Clone() *History {
	if h == nil {
		return nil
	}
	cloned := &History{Shape: h.Shape, Turns: make([]Turn, len(h.Turns))}
	copy(cloned.Turns, h.Turns)
	return cloned
}

// RewriteLastExchange replaces the content of the most recent user/assistant
// pair. The model gateway appends exactly one user and one assistant turn per
// successful call, so the pair is always the final two turns.
func (h *History) RewriteLastExchange(userText, assistantText string) error {
	n := h.Len()
	if n < 2 {
		return errors.New("history has no exchange to rewrite")
	}
	if h.Turns[n-2].Role != RoleUser || h.Turns[n-1].Role != RoleAssistant {
		return fmt.Errorf("unexpected trailing roles %s/%s", h.Turns[n-2].Role, h.Turns[n-1].Role)
	}
	h.Turns[n-2].Content = userText
	h.Turns[n-1].Content = assistantText
	return nil
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type wireTurn struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// EncodeTurns renders turns as a JSON array in the given wire shape.
func EncodeTurns(turns []Turn, shape ContentShape) ([]byte, error) {
	wire := make([]wireTurn, 0, len(turns))
	for _, t := range turns {
		var content []byte
		var err error
		switch shape {
		case ShapeBlocks:
			content, err = json.Marshal([]contentBlock{{Type: "text", Text: t.Content}})
		default:
			content, err = json.Marshal(t.Content)
		}
		if err != nil {
			return nil, fmt.Errorf("encode turn content: %w", err)
		}
		wire = append(wire, wireTurn{Role: t.Role, Content: content})
	}
	return json.Marshal(wire)
}

// DecodeTurns parses a JSON array of turns, accepting either wire shape per
// element.
func DecodeTurns(data []byte) ([]Turn, error) {
	var wire []wireTurn
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}
	turns := make([]Turn, 0, len(wire))
	for _, w := range wire {
		text, err := decodeContent(w.Content)
		if err != nil {
			return nil, err
		}
		turns = append(turns, Turn{Role: w.Role, Content: text})
	}
	return turns, nil
}

func decodeContent(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", fmt.Errorf("decode turn content: %w", err)
	}
	combined := ""
	for _, b := range blocks {
		combined += b.Text
	}
	return combined, nil
}

type historyEnvelope struct {
	Shape ContentShape    `json:"shape"`
	Turns json.RawMessage `json:"turns"`
}

// MarshalJSON tags the history with its shape so snapshots round-trip.
func (h *History) MarshalJSON() ([]byte, error) {
	turns, err := EncodeTurns(h.Turns, h.Shape)
	if err != nil {
		return nil, err
	}
	return json.Marshal(historyEnvelope{Shape: h.Shape, Turns: turns})
}

func (h *History) UnmarshalJSON(data []byte) error {
	var env historyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	turns, err := DecodeTurns(env.Turns)
	if err != nil {
		return err
	}
	h.Shape = env.Shape
	if h.Shape == "" {
		h.Shape = ShapePlain
	}
	h.Turns = turns
	return nil
}
