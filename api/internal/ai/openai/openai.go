package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"travel-planner/api/internal/ai"
	"travel-planner/api/internal/util"
)

// Client is the subset of the go-openai client the engine uses.
type Client interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

type Engine struct {
	APIKey string
	Model  string
	client Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}

	cfg := goopenai.DefaultConfig(strings.TrimSpace(key))
	// no client timeout: the request context carries the deadline
	cfg.HTTPClient = &http.Client{Transport: tr}

	return &Engine{
		APIKey: strings.TrimSpace(key),
		Model:  strings.TrimSpace(model),
		client: goopenai.NewClientWithConfig(cfg),
	}
}

// WithClient overrides the API client (tests, proxies).
func (e *Engine) WithClient(c Client) *Engine {
	if c != nil {
		e.client = c
	}
	return e
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Generate(ctx context.Context, req ai.Request) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("OPENAI_API_KEY is empty")
	}

	var msgs []goopenai.ChatCompletionMessage
	if s := strings.TrimSpace(req.System); s != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: s})
	}

	user := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser}
	if req.Image != nil && len(req.Image.Data) > 0 {
		if !util.IsImageMIME(req.Image.MIME) {
			return "", fmt.Errorf("openai: unsupported image type %q", req.Image.MIME)
		}
		user.MultiContent = []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: req.User},
			{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL:    util.MakeDataURL(req.Image.MIME, base64.StdEncoding.EncodeToString(req.Image.Data)),
					Detail: goopenai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		user.Content = req.User
	}
	msgs = append(msgs, user)

	resp, err := e.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       e.Model,
		Messages:    msgs,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	ch := resp.Choices[0]
	if ch.FinishReason == goopenai.FinishReasonContentFilter {
		return "", nil
	}
	return ch.Message.Content, nil
}
