package gemini

import (
	"context"
	"fmt"
	"strings"

	gsearch "google.golang.org/genai"

	"travel-planner/api/internal/ai"
)

// generateGrounded uses the google.golang.org/genai client, which exposes the
// Google Search tool; the generative-ai-go client above does not.
func (e *Engine) generateGrounded(ctx context.Context, req ai.Request) (string, error) {
	cl, err := gsearch.NewClient(ctx, &gsearch.ClientConfig{
		APIKey:  e.cfg.APIKey,
		Backend: gsearch.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("gemini grounded client: %w", err)
	}

	cfg := &gsearch.GenerateContentConfig{
		Temperature: gsearch.Ptr[float32](0.4),
		Tools:       []*gsearch.Tool{{GoogleSearch: &gsearch.GoogleSearch{}}},
	}
	if s := strings.TrimSpace(req.System); s != "" {
		cfg.SystemInstruction = gsearch.NewContentFromText(s, gsearch.RoleUser)
	}

	parts := []*gsearch.Part{gsearch.NewPartFromText(req.User)}
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, gsearch.NewPartFromBytes(req.Image.Data, req.Image.MIME))
	}
	contents := []*gsearch.Content{gsearch.NewContentFromParts(parts, gsearch.RoleUser)}

	result, err := cl.Models.GenerateContent(ctx, e.cfg.ModelID, contents, cfg)
	if err != nil {
		return "", err
	}
	// Text() is empty when the prompt or the candidate was blocked.
	return result.Text(), nil
}
