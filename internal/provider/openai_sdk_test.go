package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smarttodo/internal/chat"
	"smarttodo/internal/config"
)

func TestConvertMessages(t *testing.T) {
	converted := convertMessages(chat.Prompt("You are a helper", "hello"))
	if len(converted) != 2 {
		t.Fatalf("convertMessages len=%d, want 2", len(converted))
	}
	if converted[0].Role != "system" || converted[0].Content != "You are a helper" {
		t.Fatalf("msg[0] unexpected: %+v", converted[0])
	}
	if converted[1].Role != "user" || converted[1].Content != "hello" {
		t.Fatalf("msg[1] unexpected: %+v", converted[1])
	}
}

func TestOpenAIProviderChat(t *testing.T) {
	var (
		auth    string
		payload map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": " {\"priority_score\": 42} "}, "finish_reason": "stop"}]
}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.ProviderConfig{
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o-mini",
		APIKey:  "sk-test",
	}, time.Second)

	got, err := p.Chat(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"priority_score": 42}` {
		t.Fatalf("unexpected content %q", got)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("Authorization=%q", auth)
	}
	if payload["model"] != "gpt-4o-mini" {
		t.Fatalf("model=%v", payload["model"])
	}
	messages, _ := payload["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages=%v", payload["messages"])
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "system prompt" {
		t.Fatalf("first message=%v", first)
	}
	if p.Name() != "openai" || p.Model() != "gpt-4o-mini" {
		t.Fatalf("name=%q model=%q", p.Name(), p.Model())
	}
}

func TestOpenAIProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.ProviderConfig{BaseURL: srv.URL, Model: "m", APIKey: "k"}, time.Second)
	_, err := p.Chat(context.Background(), "s", "u")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if perr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status=%d", perr.StatusCode)
	}
}

func TestOpenAIProviderNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.ProviderConfig{BaseURL: srv.URL, Model: "m", APIKey: "k"}, time.Second)
	_, err := p.Chat(context.Background(), "s", "u")
	var perr *Error
	if !errors.As(err, &perr) || perr.Op != "decode response" {
		t.Fatalf("expected decode *Error, got %v", err)
	}
}
