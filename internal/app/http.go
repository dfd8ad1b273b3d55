package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ccastromar/tokens/internal/bench"
	"github.com/ccastromar/tokens/internal/config"
	"github.com/ccastromar/tokens/internal/health"
	"github.com/ccastromar/tokens/internal/llm"
	"github.com/ccastromar/tokens/internal/logx"
	"github.com/ccastromar/tokens/internal/metrics"
	"github.com/ccastromar/tokens/internal/runtime"
)

type HTTPServer struct {
	srv *http.Server
}

// httpPort holds the port used by the HTTP server. Default is 9090.
var httpPort = "9090"

// SetHTTPPort allows overriding the default HTTP port before starting the app.
func SetHTTPPort(p string) {
	if p == "" {
		return
	}
	httpPort = p
}

func NewHTTPServer(a *App, rt *runtime.Runtime, proxy *llm.OpenAIClient) *HTTPServer {
	mux := http.NewServeMux()

	mux.HandleFunc("/runs", a.handleRuns)
	mux.HandleFunc("/runs/", a.handleRunByID)
	mux.HandleFunc("/models", handleModels(proxy))
	mux.HandleFunc("/ui", a.ui.HandleIndex)
	mux.HandleFunc("/ui/run", a.ui.HandleRun)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health/live", health.LiveHandler)
	mux.HandleFunc("/health/ready", health.ReadyHandler(rt))

	// Wrap with metrics and security middleware
	hardened := secureMiddleware(metricsMiddleware(mux))

	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + httpPort,
			Handler:           hardened,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1MB
		},
	}
}

func (h *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logx.Info("HTTP", "listening on port :%s", httpPort)
		errCh <- h.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logx.Info("HTTP", "shutting down server...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.srv.Shutdown(shutCtx)
	}
}

// --- API handlers ---

func (a *App) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := a.db.ListRuns(limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})

	case http.MethodPost:
		var body struct {
			Prompt string `json:"prompt"`
			Task   string `json:"task"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Prompt == "" {
			http.Error(w, "expected JSON body with a prompt", http.StatusBadRequest)
			return
		}

		task, err := a.pickTask(body.Task)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		runID := uuid.NewString()
		// Run outlives the request; bounded by the per-model timeout plus
		// stagger over the whole set.
		budget := a.env.LLMTimeout*2 + a.env.BenchStagger*time.Duration(len(a.cfg.Models))
		ctx := bench.NewRunContext(context.Background(), runID, budget)

		go func() {
			defer bench.CancelRun(runID)
			if _, _, err := a.runner.RunWithID(ctx, runID, task, map[string]string{"prompt": body.Prompt}); err != nil {
				logx.Error("HTTP", "run %s failed: %v", runID, err)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]any{"id": runID, "status": "running"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *App) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/runs/")
	if id == "" {
		http.Error(w, "missing run id", http.StatusBadRequest)
		return
	}

	run, results, err := a.db.GetRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		// still in flight?
		if _, ok := bench.GetRunContext(id); ok {
			writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": "running"})
			return
		}
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":     run,
		"results": results,
		"summary": bench.Summarize(results),
	})
}

func handleModels(proxy *llm.OpenAIClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := proxy.ListModels(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"models": ids})
	}
}

// pickTask resolves the task definition for a run: the named one, or the
// single defined task when the name is empty.
func (a *App) pickTask(name string) (config.TaskDef, error) {
	if name != "" {
		t, ok := a.cfg.Tasks[name]
		if !ok {
			return config.TaskDef{}, errors.New("unknown task: " + name)
		}
		return t, nil
	}
	if len(a.cfg.Tasks) == 1 {
		for _, t := range a.cfg.Tasks {
			return t, nil
		}
	}
	return config.TaskDef{}, errors.New("task name required when multiple tasks are defined")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// --- middleware ---

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sr.status)).Inc()
	})
}

// secureMiddleware adds basic hardening to HTTP server:
// - Common security headers
// - Body size limit
// - Block TRACE method
func secureMiddleware(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Block TRACE to avoid request smuggling tricks
		if r.Method == http.MethodTrace {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Limit body size early
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		// Security headers
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'")
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}

		next.ServeHTTP(w, r)
	})
}
