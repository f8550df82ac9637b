package companion

import (
	"context"
	"testing"

	"harugo/internal/models"
)

type fakeFilter struct {
	out    *models.History
	called bool
}

func (f *fakeFilter) Filter(_ context.Context, history *models.History, _ string) *models.History {
	f.called = true
	if f.out != nil {
		return f.out
	}
	return history
}

type fakeGrounder struct {
	usedDB  bool
	verdict string
	userID  string
}

func (f *fakeGrounder) SetUserID(userID string) { f.userID = userID }

func (f *fakeGrounder) Process(_ context.Context, _, _, _ string) (bool, string) {
	return f.usedDB, f.verdict
}

type fakeResponder struct {
	reply     string
	grounding string
	history   *models.History
}

func (f *fakeResponder) Respond(_ context.Context, userMessage string, history *models.History, groundingJSON string, _ models.UserProfile) (string, *models.History, error) {
	f.grounding = groundingJSON
	f.history = history
	if history == nil {
		history = models.NewHistory(models.ShapePlain)
	}
	history.Append(models.Turn{Role: models.RoleUser, Content: userMessage})
	history.Append(models.Turn{Role: models.RoleAssistant, Content: f.reply})
	return f.reply, history, nil
}

func TestAnswerForwardsGroundingWhenUsed(t *testing.T) {
	grounder := &fakeGrounder{usedDB: true, verdict: `{"is_sufficient": true}`}
	responder := &fakeResponder{reply: "you hiked yesterday 😊"}
	svc := NewService(&fakeFilter{}, grounder, responder)

	history := models.NewHistory(models.ShapePlain)
	reply, got, err := svc.Answer(context.Background(), "u1", "What did I do?", "2026-08-28", "10:00:00", models.UserProfile{UserID: "u1"}, history)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if reply != "you hiked yesterday 😊" {
		t.Fatalf("reply = %q", reply)
	}
	if grounder.userID != "u1" {
		t.Fatalf("grounder bound to %q, want u1", grounder.userID)
	}
	if responder.grounding != grounder.verdict {
		t.Fatalf("grounding = %q, want the verdict", responder.grounding)
	}
	if got.Len() != 2 {
		t.Fatalf("history length = %d", got.Len())
	}
}

func TestAnswerDropsUnusedGrounding(t *testing.T) {
	grounder := &fakeGrounder{usedDB: false, verdict: `{"is_sufficient": true, "analysis": "no lookup"}`}
	responder := &fakeResponder{reply: "hi!"}
	svc := NewService(&fakeFilter{}, grounder, responder)

	if _, _, err := svc.Answer(context.Background(), "u1", "hello", "2026-08-28", "10:00:00", models.UserProfile{}, models.NewHistory(models.ShapePlain)); err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if responder.grounding != "" {
		t.Fatalf("unused grounding must not reach the responder, got %q", responder.grounding)
	}
}

func TestAnswerUsesFilteredHistory(t *testing.T) {
	filtered := models.NewHistory(models.ShapePlain)
	filtered.Append(models.Turn{Role: models.RoleUser, Content: "kept"})
	filter := &fakeFilter{out: filtered}
	responder := &fakeResponder{reply: "ok"}
	svc := NewService(filter, &fakeGrounder{}, responder)

	full := models.NewHistory(models.ShapePlain)
	for i := 0; i < 6; i++ {
		full.Append(models.Turn{Role: models.RoleUser, Content: "noise"})
	}
	if _, _, err := svc.Answer(context.Background(), "u1", "q", "2026-08-28", "10:00:00", models.UserProfile{}, full); err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if !filter.called {
		t.Fatalf("filter was not consulted")
	}
	if responder.history != filtered {
		t.Fatalf("responder did not receive the filtered history")
	}
}

func TestAnswerSkipsFilterForNilHistory(t *testing.T) {
	filter := &fakeFilter{}
	responder := &fakeResponder{reply: "ok"}
	svc := NewService(filter, &fakeGrounder{}, responder)

	_, got, err := svc.Answer(context.Background(), "u1", "q", "2026-08-28", "10:00:00", models.UserProfile{}, nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if filter.called {
		t.Fatalf("nil history must bypass the filter")
	}
	if got == nil || got.Len() != 2 {
		t.Fatalf("responder should build a fresh history, got %+v", got)
	}
}
