package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/tokens/internal/bench"
	"github.com/ccastromar/tokens/internal/cache"
	"github.com/ccastromar/tokens/internal/config"
	"github.com/ccastromar/tokens/internal/guard"
	"github.com/ccastromar/tokens/internal/llm"
	"github.com/ccastromar/tokens/internal/logx"
	"github.com/ccastromar/tokens/internal/runtime"
	"github.com/ccastromar/tokens/internal/store"
	"github.com/ccastromar/tokens/internal/ui"
)

type App struct {
	env    *config.EnvVars
	cfg    *config.Config
	db     *store.DB
	cache  *cache.ResponseCache
	ui     *ui.UIStore
	runner *bench.Runner
	http   *HTTPServer
}

func New() (*App, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	logx.Init(env.LogLevel)

	cfg, err := config.LoadFromDir(env.DefinitionsDir)
	if err != nil {
		return nil, err
	}
	if err := guard.ValidateAll(cfg); err != nil {
		return nil, fmt.Errorf("invalid definitions: %w", err)
	}

	db, err := store.Open(env.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.SnapshotDefinitions(cfg); err != nil {
		db.Close()
		return nil, err
	}

	respCache := cache.New(env.RedisAddr, cache.WithTTL(env.RedisTTL))
	if respCache != nil {
		logx.Info("App", "response cache enabled at %s", env.RedisAddr)
	}

	uiStore := ui.NewUIStore()

	runner := bench.NewRunner(cfg.Models, env.BenchWorkers, env.BenchStagger)
	runner.Cache = respCache
	runner.Store = db
	runner.UI = uiStore

	// Readiness pings the routing proxy, which fronts most of the models.
	primary := llm.NewOpenAIClient(env.APIBase, env.APIKey, "")
	primary.Timeout = env.LLMTimeout

	rt := &runtime.Runtime{
		DefinitionsLoaded: true,
		LLMClient:         primary,
	}

	a := &App{
		env:    env,
		cfg:    cfg,
		db:     db,
		cache:  respCache,
		ui:     uiStore,
		runner: runner,
	}
	a.http = NewHTTPServer(a, rt, primary)

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()
	defer a.cache.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.http.Start(gctx)
	})

	logx.Info("App", "tokens server started, %d models configured", len(a.cfg.Models))

	return g.Wait()
}
