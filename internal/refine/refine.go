// Package refine asks a language-model provider for a suggestion and recovers
// a structured result from its free-form reply.
package refine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smarttodo/internal/contextmgr"
	"smarttodo/internal/contract"
	"smarttodo/internal/provider"
)

// Refiner 对单个请求执行一次模型调用，不重试
// Refiner performs one provider call per request; there are no retries
type Refiner struct {
	provider provider.Provider
	budget   *contextmgr.Budget
	repair   bool
	timeout  time.Duration
}

// Option configures a Refiner.
type Option func(*Refiner)

// WithBudget trims daily context in the prompt to the given token budget.
func WithBudget(b *contextmgr.Budget) Option {
	return func(r *Refiner) { r.budget = b }
}

// WithRepair enables one jsonrepair attempt on invalid JSON replies.
func WithRepair(enabled bool) Option {
	return func(r *Refiner) { r.repair = enabled }
}

// WithTimeout bounds the provider call; zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) Option {
	return func(r *Refiner) { r.timeout = d }
}

func New(p provider.Provider, opts ...Option) *Refiner {
	r := &Refiner{provider: p}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome 一次精炼的结果与提示词信息
// Outcome is a successful refinement plus prompt bookkeeping
type Outcome struct {
	Response contract.Response
	Prompt   contextmgr.Fitted
}

// Refine 构建提示词、调用 provider 并解析回复
// Refine builds the prompt, calls the provider and parses the reply, all under the
// refiner's timeout. Every provider failure comes back as *provider.Error and reply
// problems as *ParseError; only prompt construction fails otherwise.
func (r *Refiner) Refine(ctx context.Context, req contract.Request) (Outcome, error) {
	if r.provider == nil {
		return Outcome{}, fmt.Errorf("refine: no provider configured")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	userPrompt, fitted, err := BuildUserPrompt(ctx, req, r.budget)
	if err != nil {
		return Outcome{}, fmt.Errorf("build prompt: %w", err)
	}
	out := Outcome{Prompt: fitted}

	raw, err := r.provider.Chat(ctx, SystemPrompt, userPrompt)
	if err != nil {
		var perr *provider.Error
		if !errors.As(err, &perr) {
			err = &provider.Error{Provider: r.provider.Name(), Op: "chat", Err: err}
		}
		return out, err
	}

	out.Response, err = Parse(raw, r.repair)
	if err != nil {
		return out, err
	}
	return out, nil
}
