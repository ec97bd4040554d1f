package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"travel-planner/api/internal/ai"
)

const maxAttempts = 3

// Config is everything the engine needs; nothing is read from the environment here.
type Config struct {
	APIKey  string
	ModelID string
	// SearchEnabled lets requests with Search=true go through Google Search grounding.
	SearchEnabled bool
}

type Engine struct {
	cfg     Config
	log     *zap.Logger
	backoff time.Duration
}

func New(cfg Config, log *zap.Logger) *Engine {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.ModelID = strings.TrimSpace(cfg.ModelID)
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, log: log.Named("gemini"), backoff: 300 * time.Millisecond}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.cfg.ModelID }

func (e *Engine) Generate(ctx context.Context, req ai.Request) (string, error) {
	if e.cfg.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	if req.Search && e.cfg.SearchEnabled {
		return e.retry(ctx, func() (string, error) { return e.generateGrounded(ctx, req) })
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.cfg.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.cfg.ModelID)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0.4),
	}
	if s := strings.TrimSpace(req.System); s != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(s)}}
	}

	parts := []genai.Part{genai.Text(req.User)}
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, &genai.Blob{MIMEType: req.Image.MIME, Data: req.Image.Data})
	}

	return e.retry(ctx, func() (string, error) {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			return "", err
		}
		return firstText(resp), nil
	})
}

// retry runs call up to maxAttempts times with a linear backoff. Blocked
// content is not retried and is reported as an empty text.
func (e *Engine) retry(ctx context.Context, call func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		txt, err := call()
		if err == nil {
			return txt, nil
		}
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			e.log.Warn("response blocked", zap.String("reason", blocked.Error()))
			return "", nil
		}
		lastErr = err
		e.log.Warn("generate failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * e.backoff):
		}
	}
	return "", fmt.Errorf("gemini generate: %w", lastErr)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func ptrFloat32(v float32) *float32 { return &v }
