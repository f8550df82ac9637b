package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"harugo/internal/config"
	"harugo/internal/models"
)

// einoBackend covers the providers whose content travels as typed text
// blocks. The eino chat-model components hide the per-vendor transport; this
// layer only translates between the logical history and schema messages.
type einoBackend struct {
	id        string
	chatModel model.ToolCallingChatModel
}

func newEinoBackend(ctx context.Context, id, family string, provCfg config.ProviderConfig) (*einoBackend, error) {
	var chatModel model.ToolCallingChatModel
	var err error

	switch family {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("new gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider family: %s", family)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", family, err)
	}

	return &einoBackend{id: id, chatModel: chatModel}, nil
}

func (b *einoBackend) ID() string { return b.id }

func (b *einoBackend) Shape() models.ContentShape { return models.ShapeBlocks }

func (b *einoBackend) Generate(ctx context.Context, systemPrompt, userMessage string, history *models.History) (string, error) {
	if history.Shape == "" {
		history.Shape = models.ShapeBlocks
	}
	if history.Shape != models.ShapeBlocks {
		return "", fmt.Errorf("backend %s requires block history, got %s", b.id, history.Shape)
	}
	history.Append(models.Turn{Role: models.RoleUser, Content: userMessage})

	messages := make([]*schema.Message, 0, history.Len()+1)
	messages = append(messages, blockMessage(schema.System, systemPrompt))
	for _, turn := range history.Turns {
		messages = append(messages, blockMessage(schemaRole(turn.Role), turn.Content))
	}

	resp, err := b.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", generationErr(b.id, err)
	}

	content := resp.Content
	if content == "" {
		for _, part := range resp.MultiContent {
			content += part.Text
		}
	}

	history.Append(models.Turn{Role: models.RoleAssistant, Content: content})
	return content, nil
}

func blockMessage(role schema.RoleType, text string) *schema.Message {
	return &schema.Message{
		Role: role,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: text},
		},
	}
}

func schemaRole(role models.Role) schema.RoleType {
	switch role {
	case models.RoleAssistant:
		return schema.Assistant
	case models.RoleSystem:
		return schema.System
	default:
		return schema.User
	}
}
