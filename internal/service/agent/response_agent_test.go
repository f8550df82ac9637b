package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"harugo/internal/models"
)

func TestRespondRewritesHistoryToLiteralMessage(t *testing.T) {
	model := &fakeModel{replies: []string{"draft reply", "styled reply 😊"}}
	responder := NewResponseAgent(model)
	history := turnHistory(models.ShapePlain, "hi", "hello!")
	profile := models.UserProfile{UserID: "u1", Nickname: "dana", Gender: "female", MBTI: "INFP"}

	grounding := `{"is_sufficient": true, "explanation": "found it", "query_results": [], "analysis": "the user hiked"}`
	styled, got, err := responder.Respond(context.Background(), "What did I do yesterday?", history, grounding, profile)
	if err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if styled != "styled reply 😊" {
		t.Fatalf("styled = %q", styled)
	}
	if got.Len() != 4 {
		t.Fatalf("history length = %d, want 4", got.Len())
	}
	userTurn := got.Turns[got.Len()-2]
	if userTurn.Content != "What did I do yesterday?" {
		t.Fatalf("user turn must hold the literal message, got %q", userTurn.Content)
	}
	if got.Turns[got.Len()-1].Content != "styled reply 😊" {
		t.Fatalf("assistant turn must hold the styled reply, got %q", got.Turns[got.Len()-1].Content)
	}

	// The content pass, not the history, carries the grounding wrapper.
	if !strings.Contains(model.calls[0].user, "Database context:") {
		t.Fatalf("content pass missing grounding wrapper:\n%s", model.calls[0].user)
	}
	if !strings.Contains(model.calls[0].user, "found it") {
		t.Fatalf("content pass missing grounding data:\n%s", model.calls[0].user)
	}
}

func TestRespondSkipsGroundingWrapperWhenEmpty(t *testing.T) {
	model := &fakeModel{replies: []string{"draft", "styled"}}
	responder := NewResponseAgent(model)

	_, got, err := responder.Respond(context.Background(), "hello", nil, "   ", models.UserProfile{Nickname: "dana"})
	if err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if model.calls[0].user != "hello" {
		t.Fatalf("blank grounding must pass the message through, got %q", model.calls[0].user)
	}
	if got.Len() != 2 {
		t.Fatalf("nil history should become a fresh two-turn history, got %d", got.Len())
	}
}

func TestRespondStylePassIsContextFree(t *testing.T) {
	model := &fakeModel{replies: []string{"draft", "styled"}}
	responder := NewResponseAgent(model)
	history := turnHistory(models.ShapePlain, "hi", "hello!", "more", "context")

	if _, _, err := responder.Respond(context.Background(), "q", history, "", models.UserProfile{}); err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if len(model.calls) != 2 {
		t.Fatalf("expected content and style calls, got %d", len(model.calls))
	}
	style := model.calls[1]
	if style.historyLen != 0 {
		t.Fatalf("style pass saw %d turns of history, want 0", style.historyLen)
	}
	if style.user != "draft" {
		t.Fatalf("style pass input = %q, want the draft", style.user)
	}
	if !strings.Contains(style.system, "adjust the tone only") {
		t.Fatalf("style pass used the wrong system prompt:\n%s", style.system)
	}
}

func TestRespondPersonaPromptCarriesTraits(t *testing.T) {
	model := &fakeModel{replies: []string{"draft", "styled"}}
	responder := NewResponseAgent(model)
	profile := models.UserProfile{Nickname: "dana", MBTI: "entp"}

	if _, _, err := responder.Respond(context.Background(), "q", nil, "", profile); err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	system := model.calls[0].system
	for _, want := range []string{"nickname: dana", "Haru", traitGuides["ENTP"].Style} {
		if !strings.Contains(system, want) {
			t.Fatalf("persona prompt missing %q:\n%s", want, system)
		}
	}
}

func TestRespondPropagatesModelErrors(t *testing.T) {
	model := &fakeModel{err: errors.New("backend down")}
	responder := NewResponseAgent(model)

	if _, _, err := responder.Respond(context.Background(), "q", nil, "", models.UserProfile{}); err == nil {
		t.Fatalf("expected the gateway error to propagate")
	}
}
