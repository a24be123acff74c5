package providers

import (
	"context"
	"fmt"
)

// Request contains one prompt sent to a model backend.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response contains the raw text returned by a model backend.
type Response struct {
	Content    string
	TokensUsed int
}

// Completer is the backend abstraction: submit a prompt, receive free-form
// text or fail. Scoring and selection both speak through this interface.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// New creates a backend by name.
func New(backend, model string) (Completer, error) {
	switch backend {
	case "openai":
		return NewOpenAI(model)
	case "local", "ollama", "lmstudio":
		return NewLocal(model)
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
}
