// Package openaimock serves a fake OpenAI-compatible endpoint for local dev
// and e2e tests. Latency and failures are tunable per model id.
package openaimock

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

// Models the mock advertises on /models.
var Models = []string{"mock/fast", "mock/slow", "mock/broken"}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/v1/models", listModels)
	mux.HandleFunc("/v1/chat/completions", chatCompletions)
}

func listModels(w http.ResponseWriter, r *http.Request) {
	data := make([]map[string]any, 0, len(Models))
	for _, id := range Models {
		data = append(data, map[string]any{"id": id, "object": "model"})
	}
	json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
}

func chatCompletions(w http.ResponseWriter, r *http.Request) {
	log.Println("MOCK URL:", r.URL.String())

	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch {
	case strings.HasSuffix(body.Model, "broken"):
		http.Error(w, `{"error":"model overloaded"}`, http.StatusInternalServerError)
		return
	case strings.HasSuffix(body.Model, "slow"):
		time.Sleep(150 * time.Millisecond)
	}

	prompt := ""
	if len(body.Messages) > 0 {
		prompt = body.Messages[len(body.Messages)-1].Content
	}

	resp := map[string]any{
		"model": body.Model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": "mock answer for: " + prompt,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     len(strings.Fields(prompt)),
			"completion_tokens": 7,
		},
	}
	json.NewEncoder(w).Encode(resp)
}
