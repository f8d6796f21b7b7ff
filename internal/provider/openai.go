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

const defaultTemperature = 0.2

// Client speaks the OpenAI-compatible /chat/completions wire directly over net/http.
// It backs local servers such as LM Studio.
type Client struct {
	name       string
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type compatChatRequest struct {
	Model       string         `json:"model"`
	Messages    []chat.Message `json:"messages"`
	Temperature float64        `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func NewClient(name string, cfg config.ProviderConfig, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Name() string  { return c.name }
func (c *Client) Model() string { return c.model }

func (c *Client) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(compatChatRequest{
		Model:       c.model,
		Messages:    chat.Prompt(systemPrompt, userPrompt),
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", c.fail("marshal request", 0, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", c.fail("create request", 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail("send request", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if readErr != nil {
			return "", c.fail("chat", resp.StatusCode, fmt.Errorf("read error body: %w", readErr))
		}
		return "", c.fail("chat", resp.StatusCode, fmt.Errorf("body=%s", strings.TrimSpace(string(data))))
	}

	content, err := parseNonStreamResponse(resp.Body)
	if err != nil {
		return "", c.fail("decode response", 0, err)
	}
	return strings.TrimSpace(content), nil
}

func (c *Client) fail(op string, status int, err error) error {
	return &Error{Provider: c.name, Op: op, StatusCode: status, Err: err}
}

func parseNonStreamResponse(body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var raw openAIResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return parseContent(raw.Choices[0].Message.Content)
}

func parseContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}

	// Some servers return content as typed parts instead of a plain string.
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil && len(parts) > 0 {
		var builder strings.Builder
		for _, part := range parts {
			if part.Text == "" {
				continue
			}
			kind := strings.ToLower(strings.TrimSpace(part.Type))
			if kind != "" && kind != "text" && kind != "output_text" {
				continue
			}
			builder.WriteString(part.Text)
		}
		if builder.Len() > 0 {
			return builder.String(), nil
		}
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("parse response content: %w", err)
	}
	if extracted := extractText(generic); extracted != "" {
		return extracted, nil
	}
	compact, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("compact response content: %w", err)
	}
	return string(compact), nil
}

func extractText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		var builder strings.Builder
		for _, item := range val {
			builder.WriteString(extractText(item))
		}
		return builder.String()
	case map[string]any:
		if kind, ok := val["type"].(string); ok {
			normalized := strings.ToLower(strings.TrimSpace(kind))
			if normalized != "" && normalized != "text" && normalized != "output_text" {
				if nested, ok := val["content"]; ok {
					return extractText(nested)
				}
				return ""
			}
		}
		if text, ok := val["text"].(string); ok && text != "" {
			return text
		}
		if content, ok := val["content"]; ok {
			return extractText(content)
		}
	}
	return ""
}
