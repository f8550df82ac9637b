package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"harugo/internal/config"
	"harugo/internal/models"
)

const ollamaHTTPTimeout = 5 * time.Minute

// ollamaBackend speaks the simple role/content chat protocol against an
// Ollama-style endpoint. Replies arrive as a newline-delimited JSON stream of
// partial messages whose content fields are concatenated.
type ollamaBackend struct {
	id         string
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaChatMessage struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatChunk struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func newOllamaBackend(id string, cfg config.ProviderConfig) *ollamaBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &ollamaBackend{
		id:         id,
		baseURL:    baseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: ollamaHTTPTimeout},
	}
}

func (b *ollamaBackend) ID() string { return b.id }

func (b *ollamaBackend) Shape() models.ContentShape { return models.ShapePlain }

func (b *ollamaBackend) Generate(ctx context.Context, systemPrompt, userMessage string, history *models.History) (string, error) {
	if history.Shape == "" {
		history.Shape = models.ShapePlain
	}
	if history.Shape != models.ShapePlain {
		return "", fmt.Errorf("backend %s requires plain history, got %s", b.id, history.Shape)
	}
	history.Append(models.Turn{Role: models.RoleUser, Content: userMessage})

	messages := make([]ollamaChatMessage, 0, history.Len()+1)
	messages = append(messages, ollamaChatMessage{Role: models.RoleSystem, Content: systemPrompt})
	for _, turn := range history.Turns {
		messages = append(messages, ollamaChatMessage{Role: turn.Role, Content: turn.Content})
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    b.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", generationErr(b.id, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", generationErr(b.id, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", generationErr(b.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", generationErr(b.id, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	content, err := readNDJSONContent(resp.Body)
	if err != nil {
		return "", generationErr(b.id, err)
	}

	history.Append(models.Turn{Role: models.RoleAssistant, Content: content})
	return content, nil
}

func readNDJSONContent(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var content string
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}
		content += chunk.Message.Content
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return content, nil
}
