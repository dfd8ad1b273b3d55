package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/ccastromar/tokens/internal/llm"
)

func testCache(t *testing.T, opts ...Option) (*ResponseCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	c := NewFromClient(client, opts...)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestCache_PutGet(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	res := &llm.ChatResult{Content: "hello", Model: "mock/fast", PromptTokens: 3, CompletionTokens: 5}
	c.Put(ctx, "mock/fast", "hi", res)

	got, ok := c.Get(ctx, "mock/fast", "hi")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got.Content != "hello" || got.CompletionTokens != 5 {
		t.Fatalf("unexpected cached value: %+v", got)
	}
}

func TestCache_MissOnDifferentPrompt(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	c.Put(ctx, "mock/fast", "hi", &llm.ChatResult{Content: "hello"})

	if _, ok := c.Get(ctx, "mock/fast", "other prompt"); ok {
		t.Fatalf("expected miss for a different prompt")
	}
	if _, ok := c.Get(ctx, "mock/slow", "hi"); ok {
		t.Fatalf("expected miss for a different model")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := testCache(t, WithTTL(time.Minute))
	ctx := context.Background()

	c.Put(ctx, "mock/fast", "hi", &llm.ChatResult{Content: "hello"})
	mr.FastForward(2 * time.Minute)

	if _, ok := c.Get(ctx, "mock/fast", "hi"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_NilReceiverIsSafe(t *testing.T) {
	var c *ResponseCache
	ctx := context.Background()

	if _, ok := c.Get(ctx, "m", "p"); ok {
		t.Fatalf("nil cache must always miss")
	}
	c.Put(ctx, "m", "p", &llm.ChatResult{Content: "x"}) // must not panic
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestCache_NewEmptyAddrDisabled(t *testing.T) {
	if New("") != nil {
		t.Fatalf("empty addr must disable the cache")
	}
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("mock/fast", "hello")
	b := Key("mock/fast", "hello")
	if a != b {
		t.Fatalf("key must be deterministic: %s vs %s", a, b)
	}
	if a == Key("mock/slow", "hello") {
		t.Fatalf("different models must produce different keys")
	}
}
