// tokens compares response speed and token usage across the configured
// models for a single prompt, then prints a summary table.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ccastromar/tokens/internal/bench"
	"github.com/ccastromar/tokens/internal/cache"
	"github.com/ccastromar/tokens/internal/config"
	"github.com/ccastromar/tokens/internal/guard"
	"github.com/ccastromar/tokens/internal/logx"
	"github.com/ccastromar/tokens/internal/store"
)

type options struct {
	definitions string
	prompt      string
	task        string
	timeout     time.Duration
}

// fatalf indirection allows testing fatal paths without exiting the test process.
var fatalf = log.Fatalf

func run(ctx context.Context, out io.Writer, opts options) error {
	env, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}
	logx.Init(env.LogLevel)

	defs := opts.definitions
	if defs == "" {
		defs = env.DefinitionsDir
	}

	cfg, err := config.LoadFromDir(defs)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}
	if err := guard.ValidateAll(cfg); err != nil {
		return fmt.Errorf("invalid definitions: %w", err)
	}

	task, err := pickTask(cfg, opts.task)
	if err != nil {
		return err
	}

	db, err := store.Open(env.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SnapshotDefinitions(cfg); err != nil {
		return err
	}

	respCache := cache.New(env.RedisAddr, cache.WithTTL(env.RedisTTL))
	defer respCache.Close()

	runner := bench.NewRunner(cfg.Models, env.BenchWorkers, env.BenchStagger)
	runner.Cache = respCache
	runner.Store = db

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	logx.Info("App", "testing %d models", len(cfg.Models))

	runRec, results, err := runner.Run(ctx, task, map[string]string{"prompt": opts.prompt})
	if err != nil {
		return err
	}

	bench.WriteReport(out, runRec, results)

	if runRec.Succeeded == 0 {
		return fmt.Errorf("all %d models failed", runRec.Total)
	}
	return nil
}

func pickTask(cfg *config.Config, name string) (config.TaskDef, error) {
	if name != "" {
		t, ok := cfg.Tasks[name]
		if !ok {
			return config.TaskDef{}, fmt.Errorf("unknown task %q", name)
		}
		return t, nil
	}
	if len(cfg.Tasks) == 1 {
		for _, t := range cfg.Tasks {
			return t, nil
		}
	}
	return config.TaskDef{}, fmt.Errorf("task name required when %d tasks are defined", len(cfg.Tasks))
}

func main() {
	opts := options{}
	flag.StringVar(&opts.definitions, "definitions", "", "definitions directory (default $DEFINITIONS_DIR)")
	flag.StringVar(&opts.prompt, "prompt", "Explain quantum computing in 2-3 sentences.", "prompt to send to every model")
	flag.StringVar(&opts.task, "task", "", "task definition to render (optional when only one exists)")
	flag.DurationVar(&opts.timeout, "timeout", 0, "overall deadline for the run (0 = per-model timeouts only)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, opts); err != nil {
		fatalf("tokens: %v", err)
	}
}
