package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownEngine = errors.New("unknown llm_name")

// Image is an optional photo sent along with the prompt.
type Image struct {
	MIME string
	Data []byte
}

// Request is one prompt for one generation call.
type Request struct {
	System string
	User   string
	Image  *Image
	// Search asks for web-search grounding when the engine supports it.
	Search bool
}

// Engine returns the raw model text for a request. A safety-blocked or empty
// response is ("", nil); transport and API failures are errors.
type Engine interface {
	Name() string
	GetModel() string
	Generate(ctx context.Context, req Request) (string, error)
}

type Engines struct {
	Gemini  Engine
	OpenAI  Engine
	Default string
}

func (e *Engines) GetEngine(llmName string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = e.Default
	}
	var eng Engine
	switch name {
	case "gemini":
		eng = e.Gemini
	case "gpt", "openai":
		eng = e.OpenAI
	default:
		return nil, fmt.Errorf("%w %q; use 'gemini' or 'gpt'", ErrUnknownEngine, llmName)
	}
	if eng == nil {
		return nil, fmt.Errorf("%w %q: engine is not configured", ErrUnknownEngine, name)
	}
	return eng, nil
}
