// Package ollamamock serves a fake local Ollama runtime.
package ollamamock

import (
	"encoding/json"
	"net/http"
)

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/tags", listTags)
	mux.HandleFunc("/api/chat", chat)
}

func listTags(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"models": []map[string]any{
			{"name": "qwen3:0.6b"},
		},
	})
}

func chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	prompt := ""
	if len(body.Messages) > 0 {
		prompt = body.Messages[len(body.Messages)-1].Content
	}

	json.NewEncoder(w).Encode(map[string]any{
		"model": body.Model,
		"message": map[string]any{
			"role":    "assistant",
			"content": "local mock answer for: " + prompt,
		},
		"done":              true,
		"prompt_eval_count": 5,
		"eval_count":        9,
	})
}
