package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ccastromar/tokens/internal/llm"
	"github.com/ccastromar/tokens/internal/runtime"
)

type pingStub struct{ err error }

func (p *pingStub) Ping(ctx context.Context) error { return p.err }
func (p *pingStub) Chat(ctx context.Context, prompt string) (*llm.ChatResult, error) {
	return &llm.ChatResult{Content: "ok"}, nil
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LiveHandler(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyHandler_Ready(t *testing.T) {
	rt := &runtime.Runtime{DefinitionsLoaded: true, LLMClient: &pingStub{}}

	rec := httptest.NewRecorder()
	ReadyHandler(rt)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyHandler_DefinitionsNotLoaded(t *testing.T) {
	rt := &runtime.Runtime{DefinitionsLoaded: false, LLMClient: &pingStub{}}

	rec := httptest.NewRecorder()
	ReadyHandler(rt)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReadyHandler_LLMUnreachable(t *testing.T) {
	rt := &runtime.Runtime{DefinitionsLoaded: true, LLMClient: &pingStub{err: errors.New("connection refused")}}

	rec := httptest.NewRecorder()
	ReadyHandler(rt)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
