package health

import (
	"net/http"

	"github.com/ccastromar/tokens/internal/runtime"
)

// ReadyHandler reports 503 until definitions are loaded and the primary LLM
// endpoint answers a ping.
func ReadyHandler(rt *runtime.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		if !rt.DefinitionsLoaded {
			http.Error(w, "definitions not loaded", 503)
			return
		}

		if err := rt.LLMClient.Ping(r.Context()); err != nil {
			http.Error(w, "llm unreachable", 503)
			return
		}

		w.WriteHeader(200)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
