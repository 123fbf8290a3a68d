package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestCapOutputTokens(t *testing.T) {
	cases := []struct {
		requested, limit, want int32
	}{
		{32768, 16384, 16384},
		{4096, 16384, 4096},
		{32768, 0, 32768},
	}

	for _, tc := range cases {
		if got := capOutputTokens(tc.requested, tc.limit); got != tc.want {
			t.Errorf("capOutputTokens(%d, %d) = %d, want %d", tc.requested, tc.limit, got, tc.want)
		}
	}
}

func TestOpenAICompleteSendsCappedBudget(t *testing.T) {
	var sent struct {
		Model     string `json:"model"`
		MaxTokens int64  `json:"max_tokens"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 0,
  "model": "gpt-4o",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"ok\": true}"}}
  ]
}`))
	}))
	defer server.Close()

	provider := NewOpenAIService("test-key", "gpt-4o", server.URL+"/v1/", 16384, zap.NewNop())

	text, err := provider.Complete(context.Background(), "rate this", GenerationConfig{MaxOutputTokens: 32768})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"ok": true}` {
		t.Fatalf("text = %q", text)
	}
	if sent.Model != "gpt-4o" {
		t.Fatalf("model = %q", sent.Model)
	}
	if sent.MaxTokens != 16384 {
		t.Fatalf("max_tokens = %d, want the 16384 cap", sent.MaxTokens)
	}
}
