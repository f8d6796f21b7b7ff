package contextmgr

import (
	"context"
	"sync"

	"smarttodo/internal/chat"
	"smarttodo/internal/contract"
)

var estimator = NewHeuristicTokenizer()

// Budget 限制精炼提示词的 token 数，超出时按顺序丢弃尾部上下文
// Budget caps the refinement prompt size by dropping trailing daily-context items.
// The model's encoding loads in the background; until it is ready, callers whose
// context ends first count with the estimator instead of waiting.
type Budget struct {
	model string
	limit int
	load  func(model string) *Tokenizer

	once  sync.Once
	ready chan struct{}
	tok   *Tokenizer
}

// Fitted 裁剪结果
// Fitted is the outcome of Budget.Fit.
type Fitted struct {
	Items   []contract.ContextItem
	Dropped int
	// Encoding is empty when trimming is disabled.
	Encoding string
	Precise  bool
}

// NewBudget returns a budget of limit tokens counted with model's encoding.
// A limit of zero or less disables trimming.
func NewBudget(model string, limit int) *Budget {
	return newBudget(model, limit, NewTokenizerForModel)
}

// NewBudgetWithTokenizer counts with tok and never loads an encoding.
func NewBudgetWithTokenizer(tok *Tokenizer, limit int) *Budget {
	return newBudget("", limit, func(string) *Tokenizer { return tok })
}

func newBudget(model string, limit int, load func(string) *Tokenizer) *Budget {
	return &Budget{model: model, limit: limit, load: load, ready: make(chan struct{})}
}

// Preload 在后台开始加载编码；预算关闭时什么也不做
// Preload starts loading the encoding in the background. It is a no-op when trimming is off.
func (b *Budget) Preload() {
	if b == nil || b.limit <= 0 {
		return
	}
	b.once.Do(func() {
		go func() {
			b.tok = b.load(b.model)
			close(b.ready)
		}()
	})
}

func (b *Budget) tokenizer(ctx context.Context) *Tokenizer {
	b.Preload()
	select {
	case <-b.ready:
		return b.tok
	default:
	}
	select {
	case <-b.ready:
		return b.tok
	case <-ctx.Done():
		return estimator
	}
}

// Fit 返回渲染后不超过预算的最长上下文前缀
// Fit keeps the longest prefix of items whose rendered prompt fits the budget.
// render builds the prompt for a candidate prefix.
func (b *Budget) Fit(ctx context.Context, items []contract.ContextItem, render func([]contract.ContextItem) string) Fitted {
	if b == nil || b.limit <= 0 {
		return Fitted{Items: items}
	}
	tok := b.tokenizer(ctx)
	out := Fitted{Items: items, Encoding: tok.EncodingName(), Precise: tok.IsPrecise()}
	if len(items) == 0 {
		return out
	}
	fits := func(n int) bool {
		return tok.Count([]chat.Message{{Role: chat.RoleUser, Content: render(items[:n])}}) <= b.limit
	}
	if fits(len(items)) {
		return out
	}

	// 前缀越长 token 越多，二分查找最长可容纳前缀
	lo, hi := 0, len(items)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if fits(mid) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	out.Items = items[:lo]
	out.Dropped = len(items) - lo
	return out
}
