package bench

import (
	"context"
	"sync"
	"time"
)

// Per-run context registry so async runs can be cancelled and cleaned up.
var (
	runCtxMu  sync.RWMutex
	runCtx    = make(map[string]context.Context)
	runCancel = make(map[string]context.CancelFunc)
)

// NewRunContext creates and stores a cancelable context for a run id.
func NewRunContext(parent context.Context, id string, timeout time.Duration) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	runCtxMu.Lock()
	runCtx[id] = ctx
	runCancel[id] = cancel
	runCtxMu.Unlock()
	return ctx
}

// GetRunContext retrieves the context for a run id, if any.
func GetRunContext(id string) (context.Context, bool) {
	runCtxMu.RLock()
	ctx, ok := runCtx[id]
	runCtxMu.RUnlock()
	return ctx, ok
}

// CancelRun cancels and removes a run context.
func CancelRun(id string) {
	runCtxMu.Lock()
	if c, ok := runCancel[id]; ok {
		c()
	}
	delete(runCancel, id)
	delete(runCtx, id)
	runCtxMu.Unlock()
}
