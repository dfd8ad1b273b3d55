package llm

import (
	"context"
	"fmt"

	"github.com/ccastromar/tokens/internal/config"
)

// ChatResult is one model answer plus whatever usage accounting the backend
// reported. Token counts are zero when the backend omits them.
type ChatResult struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
}

type LLMClient interface {
	Ping(ctx context.Context) error
	Chat(ctx context.Context, prompt string) (*ChatResult, error)
}

// ModelLister is implemented by clients that can enumerate the models their
// endpoint serves (the routing proxy advertises them on /models).
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// NewFromModel builds the right client for a model definition.
func NewFromModel(m config.Model) (LLMClient, error) {
	switch m.Provider {
	case "", "openai":
		c := NewOpenAIClient(m.BaseURL, m.APIKey, m.Model)
		if m.TimeoutMs > 0 {
			c.Timeout = msToDuration(m.TimeoutMs)
		}
		return c, nil
	case "ollama":
		c := NewOllamaClient(m.BaseURL, m.Model)
		if m.TimeoutMs > 0 {
			c.Timeout = msToDuration(m.TimeoutMs)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown provider %q for model %s", m.Provider, m.Name)
	}
}
