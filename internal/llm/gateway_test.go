package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"harugo/internal/config"
	"harugo/internal/models"
)

func TestOllamaGenerateConcatenatesStream(t *testing.T) {
	var gotReq ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chunks := []string{"Hel", "lo ", "there!"}
		for i, c := range chunks {
			line, _ := json.Marshal(ollamaChatChunk{
				Message: ollamaChatMessage{Role: models.RoleAssistant, Content: c},
				Done:    i == len(chunks)-1,
			})
			w.Write(line)
			w.Write([]byte("\n"))
		}
	}))
	defer server.Close()

	backend := newOllamaBackend("local", config.ProviderConfig{BaseURL: server.URL, Model: "gemma3:4b"})
	history := models.NewHistory(models.ShapePlain)
	history.Append(models.Turn{Role: models.RoleUser, Content: "hi"}, models.Turn{Role: models.RoleAssistant, Content: "hey"})

	reply, err := backend.Generate(context.Background(), "system prompt", "how are you?", history)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if reply != "Hello there!" {
		t.Fatalf("reply = %q", reply)
	}

	// system prompt leads the wire messages; history follows in order.
	if len(gotReq.Messages) != 4 {
		t.Fatalf("expected 4 wire messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != models.RoleSystem || gotReq.Messages[0].Content != "system prompt" {
		t.Fatalf("first wire message = %+v", gotReq.Messages[0])
	}
	if gotReq.Messages[3].Content != "how are you?" {
		t.Fatalf("last wire message = %+v", gotReq.Messages[3])
	}

	// Exactly one user and one assistant turn appended.
	if history.Len() != 4 {
		t.Fatalf("history length = %d", history.Len())
	}
	if history.Turns[2].Content != "how are you?" || history.Turns[3].Content != "Hello there!" {
		t.Fatalf("appended turns = %+v", history.Turns[2:])
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	backend := newOllamaBackend("local", config.ProviderConfig{BaseURL: server.URL, Model: "gemma3:4b"})
	history := models.NewHistory(models.ShapePlain)

	_, err := backend.Generate(context.Background(), "sys", "hello", history)
	if err == nil {
		t.Fatalf("expected error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %T", err)
	}
	if genErr.Backend != "local" {
		t.Fatalf("backend = %q", genErr.Backend)
	}
	// The user turn stays appended; no assistant turn on failure.
	if history.Len() != 1 || history.Turns[0].Role != models.RoleUser {
		t.Fatalf("history after failure = %+v", history.Turns)
	}
}

func TestOllamaRejectsForeignShape(t *testing.T) {
	backend := newOllamaBackend("local", config.ProviderConfig{Model: "gemma3:4b"})
	history := models.NewHistory(models.ShapeBlocks)
	if _, err := backend.Generate(context.Background(), "sys", "hello", history); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
}

func TestRegistryReusesBackend(t *testing.T) {
	cfg := &config.Config{
		BasicConfig: config.BasicConfig{DefaultBackend: "local"},
		Providers: map[string]config.ProviderConfig{
			"local": {Family: "ollama", Model: "gemma3:4b"},
		},
	}
	registry := NewRegistry(cfg)

	first, err := registry.Backend(context.Background(), "local")
	if err != nil {
		t.Fatalf("Backend error: %v", err)
	}
	second, err := registry.Backend(context.Background(), "local")
	if err != nil {
		t.Fatalf("Backend error: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same backend handle")
	}
}

func TestRegistryConcurrentFirstAccess(t *testing.T) {
	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{
			"local": {Family: "ollama", Model: "gemma3:4b"},
		},
	}
	registry := NewRegistry(cfg)

	const callers = 16
	results := make([]Backend, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			backend, err := registry.Backend(context.Background(), "local")
			if err != nil {
				t.Errorf("Backend error: %v", err)
				return
			}
			results[i] = backend
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d received a different handle", i)
		}
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewRegistry(&config.Config{Providers: map[string]config.ProviderConfig{}})
	if _, err := registry.Backend(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestGenerationErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := generationErr("local", inner)
	if !errors.Is(err, inner) {
		t.Fatalf("expected unwrap to inner error")
	}
}
