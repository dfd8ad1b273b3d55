// Package bench fans one prompt out to every configured model and times the
// answers.
package bench

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/tokens/internal/cache"
	"github.com/ccastromar/tokens/internal/config"
	"github.com/ccastromar/tokens/internal/llm"
	"github.com/ccastromar/tokens/internal/logx"
	"github.com/ccastromar/tokens/internal/store"
	"github.com/ccastromar/tokens/internal/tools"
	"github.com/ccastromar/tokens/internal/ui"
)

type Runner struct {
	Models  []config.Model
	Workers int           // max concurrent model calls
	Stagger time.Duration // delay between launches, rate-limit courtesy

	Cache *cache.ResponseCache // optional, nil = miss always
	Store *store.DB            // optional, nil = don't persist
	UI    *ui.UIStore          // optional event timeline

	// NewClient builds a client per model. Tests swap it out.
	NewClient func(config.Model) (llm.LLMClient, error)
}

func NewRunner(models []config.Model, workers int, stagger time.Duration) *Runner {
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		Models:    models,
		Workers:   workers,
		Stagger:   stagger,
		NewClient: llm.NewFromModel,
	}
}

// Run renders the task prompt and calls every model concurrently. A model
// failure is captured in its result, never propagated; the only error paths
// here are template rendering and persistence.
func (r *Runner) Run(ctx context.Context, task config.TaskDef, inputs map[string]string) (store.Run, []store.Result, error) {
	return r.RunWithID(ctx, uuid.NewString(), task, inputs)
}

// RunWithID is Run with a caller-chosen run id. The HTTP API allocates the
// id up front so it can answer 202 before the run finishes.
func (r *Runner) RunWithID(ctx context.Context, runID string, task config.TaskDef, inputs map[string]string) (store.Run, []store.Result, error) {
	prompt, err := tools.RenderPrompt(task.Description, inputs)
	if err != nil {
		return store.Run{}, nil, err
	}

	logx.L(runID, "Bench", "comparing %d models", len(r.Models))

	results := make([]store.Result, len(r.Models))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)

	for i, m := range r.Models {
		if i > 0 && r.Stagger > 0 {
			select {
			case <-ctx.Done():
				return store.Run{}, nil, ctx.Err()
			case <-time.After(r.Stagger):
			}
		}

		i, m := i, m
		g.Go(func() error {
			results[i] = r.callModel(gctx, runID, m, prompt)
			return nil
		})
	}

	// goroutines never return errors; Wait only surfaces ctx cancellation
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return store.Run{}, nil, err
	}

	run := store.Run{
		ID:        runID,
		Prompt:    prompt,
		Task:      task.Name,
		StartedAt: time.Now(),
		Total:     len(results),
	}
	for _, res := range results {
		if res.Status == "ok" {
			run.Succeeded++
		} else {
			run.Failed++
		}
	}

	SortResults(results)

	if r.Store != nil {
		if err := r.Store.SaveRun(run, results); err != nil {
			return run, results, err
		}
	}

	logx.L(runID, "Bench", "done: %d ok, %d failed", run.Succeeded, run.Failed)
	return run, results, nil
}

func (r *Runner) callModel(ctx context.Context, runID string, m config.Model, prompt string) store.Result {
	res := store.Result{
		RunID:   runID,
		Model:   m.Name,
		ModelID: m.Model,
	}

	if cached, ok := r.Cache.Get(ctx, m.Model, prompt); ok {
		r.event(runID, m.Name, "cache", "answer served from cache", "")
		res.Status = "ok"
		res.Cached = true
		res.Response = cached.Content
		res.PromptTokens = cached.PromptTokens
		res.CompletionTokens = cached.CompletionTokens
		return res
	}

	client, err := r.NewClient(m)
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
		return res
	}

	r.event(runID, m.Name, "launch", "calling model "+m.Model, "")

	timer := logx.Start(runID, "Bench", "chat "+m.Name)
	answer, err := client.Chat(ctx, prompt)
	elapsed := timer.End()

	res.Duration = elapsed
	if err != nil {
		logx.L(runID, "Bench", "model %s failed after %v: %v", m.Name, elapsed, err)
		r.event(runID, m.Name, "error", err.Error(), elapsed.String())
		res.Status = "error"
		res.Error = err.Error()
		return res
	}

	r.event(runID, m.Name, "done", "answer received", elapsed.String())
	res.Status = "ok"
	res.Response = answer.Content
	res.PromptTokens = answer.PromptTokens
	res.CompletionTokens = answer.CompletionTokens

	r.Cache.Put(ctx, m.Model, prompt, answer)
	return res
}

func (r *Runner) event(runID, model, kind, msg, duration string) {
	if r.UI != nil {
		r.UI.AddEvent(runID, model, kind, msg, duration)
	}
}
