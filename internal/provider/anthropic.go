package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smarttodo/internal/chat"
	"smarttodo/internal/config"
)

const anthropicVersion = "2023-06-01"

// AnthropicProvider 调用 Anthropic Messages API
// AnthropicProvider calls the Anthropic Messages API
type AnthropicProvider struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type anthropicRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system"`
	Messages  []chat.Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func NewAnthropicProvider(cfg config.ProviderConfig, timeout time.Duration) *AnthropicProvider {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultAnthropicMaxTokens
	}
	return &AnthropicProvider{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *AnthropicProvider) Name() string  { return config.ProviderAnthropic }
func (p *AnthropicProvider) Model() string { return p.model }

func (p *AnthropicProvider) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    systemPrompt,
		Messages:  []chat.Message{{Role: chat.RoleUser, Content: userPrompt}},
	})
	if err != nil {
		return "", p.fail("marshal request", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", p.fail("create request", 0, err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", p.fail("send request", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return "", p.fail("messages", resp.StatusCode, fmt.Errorf("body=%s", strings.TrimSpace(string(data))))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.fail("read response", 0, err)
	}
	var parsed anthropicResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", p.fail("decode response", 0, fmt.Errorf("parse messages response: %w", err))
	}
	if len(parsed.Content) == 0 {
		return "", p.fail("decode response", 0, fmt.Errorf("messages response has no content blocks"))
	}
	return strings.TrimSpace(parsed.Content[0].Text), nil
}

func (p *AnthropicProvider) fail(op string, status int, err error) error {
	return &Error{Provider: config.ProviderAnthropic, Op: op, StatusCode: status, Err: err}
}
