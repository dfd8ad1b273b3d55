// mock-llm hosts fake OpenAI-compatible and Ollama backends on one port,
// for local development without burning tokens.
package main

import (
	"log"
	"net/http"

	"github.com/ccastromar/tokens/internal/mocks/ollamamock"
	"github.com/ccastromar/tokens/internal/mocks/openaimock"
)

var listenAndServe = http.ListenAndServe

func buildMux() *http.ServeMux {
	mux := http.NewServeMux()
	openaimock.RegisterHandlers(mux)
	ollamamock.RegisterHandlers(mux)
	return mux
}

func main() {
	mux := buildMux()
	log.Println("[MOCK LLM] listening on :9000")
	listenAndServe(":9000", mux)
}
