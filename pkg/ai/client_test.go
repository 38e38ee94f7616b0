package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatCompletion(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  hello  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", "https://example.com", "test-app")
	messages := []Message{
		TextMessage("system", "you extract todos"),
		TextMessage("user", "明天开会"),
	}
	got, err := c.ChatCompletion(context.Background(), "model-x", messages, 0.1, 3000)
	if err != nil {
		t.Fatalf("chat completion: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected trimmed content, got %q", got)
	}
	if gotBody["model"] != "model-x" {
		t.Fatalf("expected model in request, got %v", gotBody["model"])
	}
	if gotBody["max_tokens"] != float64(3000) {
		t.Fatalf("expected max_tokens 3000, got %v", gotBody["max_tokens"])
	}
}

func TestChatCompletionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "insufficient credits"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", "")
	_, err := c.ChatCompletion(context.Background(), "model-x", []Message{TextMessage("user", "hi")}, 0, 0)
	if err == nil || !strings.Contains(err.Error(), "insufficient credits") {
		t.Fatalf("expected api error with message, got %v", err)
	}
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", "")
	_, err := c.ChatCompletion(context.Background(), "model-x", []Message{TextMessage("user", "hi")}, 0, 0)
	if err == nil || !strings.Contains(err.Error(), "empty response") {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestImageMessageShape(t *testing.T) {
	msg := ImageMessage("看看这张图", "image/png", "aGVsbG8=")
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, `"type":"image_url"`) {
		t.Fatalf("expected image_url part, got %s", s)
	}
	if !strings.Contains(s, "data:image/png;base64,aGVsbG8=") {
		t.Fatalf("expected data url, got %s", s)
	}
}
