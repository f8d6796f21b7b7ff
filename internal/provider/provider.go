package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"smarttodo/internal/config"
)

// Provider 模型提供方接口：一次 system+user 对话，返回纯文本
// Provider is a remote chat-completion backend: one system+user exchange, plain text back
type Provider interface {
	// Chat 发送一次对话并返回模型文本；任何传输/状态/解析失败都返回 *Error
	// Chat sends one exchange and returns the model text; every transport, status or body failure is an *Error
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name 返回 provider 名称
	// Name returns the provider name
	Name() string

	// Model 返回使用的模型
	// Model returns the configured model
	Model() string
}

// Error 一次 provider 调用失败（网络、超时、非 2xx、响应体异常）
// Error is a failed provider call (network, timeout, non-2xx, malformed body)
type Error struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status=%d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the call failed because its deadline passed.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsUnavailable 判断错误是否表示 provider 本次不可用
// IsUnavailable reports whether err means the provider was unavailable for this call
func IsUnavailable(err error) bool {
	var perr *Error
	return errors.As(err, &perr)
}

// New 按配置创建 provider；未识别或未配置时返回 nil, nil（仅启发式）
// New builds the configured provider; an unknown or absent name returns nil, nil (heuristic only)
func New(cfg config.AIConfig) (Provider, error) {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultTimeoutMS) * time.Millisecond
	}

	switch config.NormalizeProvider(cfg.Provider) {
	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("provider %s: api key is empty (set OPENAI_API_KEY)", config.ProviderOpenAI)
		}
		return NewOpenAIProvider(cfg.OpenAI, timeout), nil
	case config.ProviderAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("provider %s: api key is empty (set ANTHROPIC_API_KEY)", config.ProviderAnthropic)
		}
		return NewAnthropicProvider(cfg.Anthropic, timeout), nil
	case config.ProviderLMStudio:
		return NewClient(config.ProviderLMStudio, cfg.LMStudio, timeout), nil
	default:
		return nil, nil
	}
}
