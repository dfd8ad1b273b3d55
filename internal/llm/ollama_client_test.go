package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllama_Chat_SingleObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"model":"qwen3:0.6b","message":{"role":"assistant","content":"hola"},"done":true,"prompt_eval_count":5,"eval_count":9}`))
	}))
	defer ts.Close()

	c := NewOllamaClient(ts.URL, "qwen3:0.6b")
	c.Timeout = 500 * time.Millisecond

	out, err := c.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Chat() unexpected error: %v", err)
	}
	if out.Content != "hola" {
		t.Fatalf("unexpected content: %q", out.Content)
	}
	if out.PromptTokens != 5 || out.CompletionTokens != 9 {
		t.Fatalf("eval counts not mapped: %+v", out)
	}
}

func TestOllama_Chat_StreamedChunks(t *testing.T) {
	// older servers stream regardless of the stream flag
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ho"},"done":false}
{"message":{"role":"assistant","content":"la"},"done":false}
{"message":{"role":"assistant","content":""},"done":true,"eval_count":2}
`))
	}))
	defer ts.Close()

	c := NewOllamaClient(ts.URL, "qwen3:0.6b")
	c.Timeout = 500 * time.Millisecond

	out, err := c.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Chat() unexpected error: %v", err)
	}
	if out.Content != "hola" {
		t.Fatalf("chunks not concatenated: %q", out.Content)
	}
	if out.CompletionTokens != 2 {
		t.Fatalf("eval count not taken from final chunk: %+v", out)
	}
}

func TestOllama_Chat_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewOllamaClient(ts.URL, "ghost")
	c.Timeout = 200 * time.Millisecond

	if _, err := c.Chat(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestOllama_Ping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer ts.Close()

	c := NewOllamaClient(ts.URL, "qwen3:0.6b")
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() unexpected error: %v", err)
	}
}

func TestNewFromModel(t *testing.T) {
	cases := []struct {
		provider string
		wantErr  bool
	}{
		{"", false},
		{"openai", false},
		{"ollama", false},
		{"bedrock", true},
	}
	for _, tc := range cases {
		_, err := NewFromModel(modelDef(tc.provider))
		if tc.wantErr && err == nil {
			t.Fatalf("provider %q: expected error", tc.provider)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("provider %q: unexpected error: %v", tc.provider, err)
		}
	}
}
