package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ccastromar/tokens/internal/metrics"
)

// OllamaClient talks to a local Ollama runtime.
type OllamaClient struct {
	BaseURL string
	Model   string
	HTTP    *http.Client
	Timeout time.Duration
}

var _ LLMClient = (*OllamaClient)(nil)

func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		BaseURL: baseURL,
		Model:   model,
		HTTP: &http.Client{
			Timeout: 60 * time.Second,
		},
		Timeout: 60 * time.Second,
	}
}

// Chat calls /api/chat. Streaming is off for comparable timings, but the
// decode loop still handles a chunked body since older servers stream
// regardless.
func (c *OllamaClient) Chat(ctx context.Context, prompt string) (*ChatResult, error) {
	payload := map[string]any{
		"model": c.Model,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	to := c.Timeout
	if to <= 0 {
		to = 60 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: to}
	}

	start := time.Now()
	resp, err := retryHTTP(ctx, 3, 100*time.Millisecond, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return httpClient.Do(req)
	})
	if err != nil {
		metrics.LLMChats.WithLabelValues("ollama", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		metrics.LLMChats.WithLabelValues("ollama", "error").Inc()
		return nil, fmt.Errorf("ollama chat failed: status %d, body: %s", resp.StatusCode, string(b))
	}

	dec := json.NewDecoder(resp.Body)
	var out bytes.Buffer
	var promptTokens, completionTokens int

	for {
		var chunk struct {
			Message *struct {
				Content string `json:"content"`
			} `json:"message"`
			Done            bool `json:"done"`
			PromptEvalCount int  `json:"prompt_eval_count"`
			EvalCount       int  `json:"eval_count"`
		}

		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			metrics.LLMChats.WithLabelValues("ollama", "error").Inc()
			return nil, err
		}

		if chunk.Message != nil {
			out.WriteString(chunk.Message.Content)
		}
		if chunk.PromptEvalCount > 0 {
			promptTokens = chunk.PromptEvalCount
		}
		if chunk.EvalCount > 0 {
			completionTokens = chunk.EvalCount
		}
		if chunk.Done {
			break
		}
	}

	metrics.LLMChats.WithLabelValues("ollama", "ok").Inc()
	metrics.LLMChatDur.WithLabelValues("ollama").Observe(time.Since(start).Seconds())

	return &ChatResult{
		Content:          out.String(),
		Model:            c.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

// Ping checks if Ollama is reachable: GET /api/tags
func (c *OllamaClient) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 1 * time.Second}
	}

	resp, err := retryHTTP(ctx, 3, 50*time.Millisecond, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/tags", nil)
		if err != nil {
			return nil, err
		}
		return httpClient.Do(req)
	})
	if err != nil {
		metrics.LLMPings.WithLabelValues("ollama", "error").Inc()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.LLMPings.WithLabelValues("ollama", "error").Inc()
		return fmt.Errorf("ollama ping failed: status %d", resp.StatusCode)
	}
	metrics.LLMPings.WithLabelValues("ollama", "ok").Inc()
	return nil
}
