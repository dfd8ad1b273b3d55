// Package cache is an optional Redis-backed response cache. Re-running the
// same prompt against the same model id is the common case while tuning a
// model set, and a cached answer costs zero tokens.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/ccastromar/tokens/internal/llm"
	"github.com/ccastromar/tokens/internal/metrics"
)

const keyPrefix = "tokens:chat:"

type ResponseCache struct {
	client *backend.Client
	ttl    time.Duration
}

type Option func(*ResponseCache)

// WithTTL sets the expiration for cached answers.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResponseCache) {
		c.ttl = ttl
	}
}

// New connects to Redis at addr. Returns nil when addr is empty, and the
// runner treats a nil cache as miss-always.
func New(addr string, opts ...Option) *ResponseCache {
	if addr == "" {
		return nil
	}
	rdb := backend.NewClient(&backend.Options{Addr: addr})
	return NewFromClient(rdb, opts...)
}

// NewFromClient wraps an existing client (tests use miniredis here).
func NewFromClient(client *backend.Client, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		client: client,
		ttl:    time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives the cache key from model id and prompt.
func Key(modelID, prompt string) string {
	h := xxhash.New()
	h.WriteString(modelID)
	h.WriteString("\x00")
	h.WriteString(prompt)
	return fmt.Sprintf("%s%016x", keyPrefix, h.Sum64())
}

// Get looks up a cached answer. A nil receiver always misses.
func (c *ResponseCache) Get(ctx context.Context, modelID, prompt string) (*llm.ChatResult, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, Key(modelID, prompt)).Bytes()
	if err == backend.Nil {
		metrics.CacheOps.WithLabelValues("get", "miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.CacheOps.WithLabelValues("get", "error").Inc()
		return nil, false
	}
	var res llm.ChatResult
	if err := json.Unmarshal(raw, &res); err != nil {
		metrics.CacheOps.WithLabelValues("get", "error").Inc()
		return nil, false
	}
	metrics.CacheOps.WithLabelValues("get", "hit").Inc()
	return &res, true
}

// Put stores an answer with the configured TTL. Errors only count against
// metrics; a broken cache must never fail a run.
func (c *ResponseCache) Put(ctx context.Context, modelID, prompt string, res *llm.ChatResult) {
	if c == nil || res == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		metrics.CacheOps.WithLabelValues("put", "error").Inc()
		return
	}
	if err := c.client.Set(ctx, Key(modelID, prompt), raw, c.ttl).Err(); err != nil {
		metrics.CacheOps.WithLabelValues("put", "error").Inc()
		return
	}
	metrics.CacheOps.WithLabelValues("put", "ok").Inc()
}

// Close releases the underlying connection.
func (c *ResponseCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
