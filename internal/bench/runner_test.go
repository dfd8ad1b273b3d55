package bench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/ccastromar/tokens/internal/cache"
	"github.com/ccastromar/tokens/internal/config"
	"github.com/ccastromar/tokens/internal/llm"
	"github.com/ccastromar/tokens/internal/store"
	"github.com/ccastromar/tokens/internal/ui"
)

type fakeClient struct {
	delay   time.Duration
	content string
	err     error
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Chat(ctx context.Context, prompt string) (*llm.ChatResult, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResult{Content: f.content, PromptTokens: 2, CompletionTokens: 4}, nil
}

func testModels() []config.Model {
	return []config.Model{
		{Name: "Fast", Model: "mock/fast", Provider: "openai"},
		{Name: "Slow", Model: "mock/slow", Provider: "openai"},
		{Name: "Broken", Model: "mock/broken", Provider: "openai"},
	}
}

func fakeClients() func(config.Model) (llm.LLMClient, error) {
	return func(m config.Model) (llm.LLMClient, error) {
		switch m.Name {
		case "Fast":
			return &fakeClient{delay: 5 * time.Millisecond, content: "quick answer"}, nil
		case "Slow":
			return &fakeClient{delay: 50 * time.Millisecond, content: "slow answer"}, nil
		default:
			return &fakeClient{err: errors.New("model overloaded")}, nil
		}
	}
}

func TestRunner_Run(t *testing.T) {
	r := NewRunner(testModels(), 4, 0)
	r.NewClient = fakeClients()

	task := config.TaskDef{Name: "t", Description: "{{ .prompt }}"}
	run, results, err := r.Run(context.Background(), task, map[string]string{"prompt": "hello"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if run.Total != 3 || run.Succeeded != 2 || run.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", run)
	}
	if run.Prompt != "hello" {
		t.Fatalf("prompt not rendered: %q", run.Prompt)
	}
	if run.ID == "" {
		t.Fatalf("run id must be assigned")
	}

	// display order: successes first, fastest first, failures last
	if results[0].Model != "Fast" || results[1].Model != "Slow" || results[2].Model != "Broken" {
		t.Fatalf("unexpected order: %s, %s, %s", results[0].Model, results[1].Model, results[2].Model)
	}
	if results[2].Status != "error" || results[2].Error != "model overloaded" {
		t.Fatalf("failure not captured: %+v", results[2])
	}
	if results[0].CompletionTokens != 4 {
		t.Fatalf("usage not carried through: %+v", results[0])
	}
}

func TestRunner_PersistsToStore(t *testing.T) {
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer db.Close()

	r := NewRunner(testModels(), 4, 0)
	r.NewClient = fakeClients()
	r.Store = db

	task := config.TaskDef{Name: "t", Description: "{{ .prompt }}"}
	run, _, err := r.Run(context.Background(), task, map[string]string{"prompt": "persist me"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	got, results, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("run not persisted: %v", err)
	}
	if got.Succeeded != 2 || len(results) != 3 {
		t.Fatalf("unexpected persisted run: %+v, %d results", got, len(results))
	}
}

func TestRunner_RecordsEvents(t *testing.T) {
	uiStore := ui.NewUIStore()

	r := NewRunner(testModels()[:1], 1, 0)
	r.NewClient = fakeClients()
	r.UI = uiStore

	task := config.TaskDef{Name: "t", Description: "{{ .prompt }}"}
	if _, _, err := r.Run(context.Background(), task, map[string]string{"prompt": "hi"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// launch + done for the single model
	if got := uiStore.EventCount(); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}
}

func TestRunner_CacheHit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting miniredis: %v", err)
	}
	defer mr.Close()

	respCache := cache.NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}))
	defer respCache.Close()

	ctx := context.Background()
	respCache.Put(ctx, "mock/fast", "hello", &llm.ChatResult{Content: "cached answer", CompletionTokens: 4})

	r := NewRunner(testModels()[:1], 1, 0)
	r.Cache = respCache
	r.NewClient = func(m config.Model) (llm.LLMClient, error) {
		t.Fatalf("client must not be built on a cache hit")
		return nil, nil
	}

	task := config.TaskDef{Name: "t", Description: "{{ .prompt }}"}
	run, results, err := r.Run(ctx, task, map[string]string{"prompt": "hello"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if run.Succeeded != 1 {
		t.Fatalf("cache hit must count as success: %+v", run)
	}
	if !results[0].Cached || results[0].Response != "cached answer" {
		t.Fatalf("expected cached result: %+v", results[0])
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(testModels(), 4, time.Millisecond)
	r.NewClient = fakeClients()

	task := config.TaskDef{Name: "t", Description: "{{ .prompt }}"}
	if _, _, err := r.Run(ctx, task, map[string]string{"prompt": "hi"}); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}

func TestRunContextRegistry(t *testing.T) {
	ctx := NewRunContext(context.Background(), "run-x", time.Minute)
	if got, ok := GetRunContext("run-x"); !ok || got != ctx {
		t.Fatalf("context not registered")
	}

	CancelRun("run-x")
	if _, ok := GetRunContext("run-x"); ok {
		t.Fatalf("context must be removed after cancel")
	}
	if ctx.Err() == nil {
		t.Fatalf("context must be cancelled")
	}
}
