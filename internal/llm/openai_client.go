package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ccastromar/tokens/internal/metrics"
)

// OpenAIClient speaks the OpenAI-compatible wire format. In practice the
// endpoint is usually a routing proxy (LiteLLM et al) fronting many models.
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
	Timeout time.Duration

	// Temperature matches the original comparison setup so answers stay
	// comparable across backends.
	Temperature float64
}

// Compile-time interface conformance
var (
	_ LLMClient   = (*OpenAIClient)(nil)
	_ ModelLister = (*OpenAIClient)(nil)
)

func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		Timeout:     30 * time.Second,
		Temperature: 0.7,
	}
}

func (c *OpenAIClient) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

func (c *OpenAIClient) httpClient(to time.Duration) *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: to}
}

// Ping hits /models, which every compatible endpoint serves.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	to := c.Timeout
	if to <= 0 {
		to = 2 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	resp, err := retryHTTP(ctx, 3, 100*time.Millisecond, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/models"), nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return c.httpClient(to).Do(req)
	})
	if err != nil {
		metrics.LLMPings.WithLabelValues("openai", "error").Inc()
		return fmt.Errorf("openai ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		metrics.LLMPings.WithLabelValues("openai", "error").Inc()
		return fmt.Errorf("openai ping bad status: %d, body: %s", resp.StatusCode, string(b))
	}

	metrics.LLMPings.WithLabelValues("openai", "ok").Inc()
	return nil
}

// ListModels returns the model ids the endpoint advertises on /models.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	to := c.Timeout
	if to <= 0 {
		to = 5 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	resp, err := retryHTTP(ctx, 3, 100*time.Millisecond, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/models"), nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return c.httpClient(to).Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("listing models: status %d, body: %s", resp.StatusCode, string(b))
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}

	ids := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Chat calls /chat/completions in non-stream mode.
func (c *OpenAIClient) Chat(ctx context.Context, prompt string) (*ChatResult, error) {
	payload := map[string]any{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.Temperature,
		"stream":      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	to := c.Timeout
	if to <= 0 {
		to = 30 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	start := time.Now()
	resp, err := retryHTTP(ctx, 3, 100*time.Millisecond, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/chat/completions"), bytes.NewBuffer(body))
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		req.Header.Set("Content-Type", "application/json")
		return c.httpClient(to).Do(req)
	})
	if err != nil {
		metrics.LLMChats.WithLabelValues("openai", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		metrics.LLMChats.WithLabelValues("openai", "error").Inc()
		return nil, fmt.Errorf("openai chat failed: status %d, body: %s", resp.StatusCode, string(b))
	}

	var result struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.LLMChats.WithLabelValues("openai", "error").Inc()
		return nil, err
	}

	if len(result.Choices) == 0 {
		metrics.LLMChats.WithLabelValues("openai", "error").Inc()
		return nil, fmt.Errorf("openai: empty response")
	}

	metrics.LLMChats.WithLabelValues("openai", "ok").Inc()
	metrics.LLMChatDur.WithLabelValues("openai").Observe(time.Since(start).Seconds())

	model := result.Model
	if model == "" {
		model = c.Model
	}
	return &ChatResult{
		Content:          strings.TrimSpace(result.Choices[0].Message.Content),
		Model:            model,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
	}, nil
}

func (c *OpenAIClient) authorize(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}
