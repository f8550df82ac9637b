package imagegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Generator renders diary illustrations and stores them on local disk. The
// returned URLs are paths under baseURL, served by the HTTP layer.
type Generator struct {
	client  *genai.Client
	model   string
	outDir  string
	baseURL string
}

// New builds a Generator. outDir is created if missing.
func New(ctx context.Context, apiKey, model, outDir, baseURL string) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create image client: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &Generator{
		client:  client,
		model:   model,
		outDir:  outDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Generate draws one illustration for the description and returns its served
// URL path.
func (g *Generator) Generate(ctx context.Context, description string) (string, error) {
	prompt := "A warm, soft illustration in a diary style. Scene: " + description

	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return "", fmt.Errorf("generate illustration: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", fmt.Errorf("generate illustration: empty response")
	}

	name := fmt.Sprintf("diary_%d.png", time.Now().UnixNano())
	path := filepath.Join(g.outDir, name)
	if err := os.WriteFile(path, resp.GeneratedImages[0].Image.ImageBytes, 0o644); err != nil {
		return "", fmt.Errorf("store illustration: %w", err)
	}
	return g.baseURL + "/" + name, nil
}
