package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"smarttodo/internal/config"
)

func TestNewSelectsVariant(t *testing.T) {
	base := config.Default().AI

	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{name: "none", provider: "none", wantNil: true},
		{name: "empty", provider: "", wantNil: true},
		{name: "unknown", provider: "ollama", wantNil: true},
		{name: "openai", provider: "openai", apiKey: "k", wantName: "openai"},
		{name: "openai upper case", provider: "OpenAI", apiKey: "k", wantName: "openai"},
		{name: "openai without key", provider: "openai", wantErr: true},
		{name: "anthropic", provider: "anthropic", apiKey: "k", wantName: "anthropic"},
		{name: "anthropic without key", provider: "anthropic", wantErr: true},
		{name: "lmstudio without key", provider: "lmstudio", wantName: "lmstudio"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.Provider = tc.provider
			cfg.OpenAI.APIKey = tc.apiKey
			cfg.Anthropic.APIKey = tc.apiKey

			p, err := New(cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantNil {
				if p != nil {
					t.Fatalf("expected no provider, got %s", p.Name())
				}
				return
			}
			if p == nil || p.Name() != tc.wantName {
				t.Fatalf("unexpected provider: %v", p)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	perr := &Error{Provider: "openai", Op: "chat", StatusCode: 502, Err: errors.New("bad gateway")}
	wrapped := fmt.Errorf("refine: %w", perr)
	if !IsUnavailable(wrapped) {
		t.Fatalf("wrapped provider error should be unavailable")
	}
	if IsUnavailable(errors.New("other")) {
		t.Fatalf("plain error must not be classified as unavailable")
	}
	if got := perr.Error(); got != "openai chat: status=502: bad gateway" {
		t.Fatalf("Error()=%q", got)
	}

	timeout := &Error{Provider: "lmstudio", Op: "send request", Err: fmt.Errorf("do: %w", context.DeadlineExceeded)}
	if !timeout.Timeout() {
		t.Fatalf("deadline error should report Timeout")
	}
	if perr.Timeout() {
		t.Fatalf("status error should not report Timeout")
	}
}
