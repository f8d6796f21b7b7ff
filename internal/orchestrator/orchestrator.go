// Package orchestrator runs the suggestion pipeline:
// validate, heuristic baseline, optional refinement, merge, validate.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smarttodo/internal/config"
	"smarttodo/internal/contextmgr"
	"smarttodo/internal/contract"
	"smarttodo/internal/heuristic"
	"smarttodo/internal/logging"
	"smarttodo/internal/provider"
	"smarttodo/internal/refine"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Suggester 建议引擎；构造后只读，可被并发调用
// Suggester is the suggestion engine. It is read-only after New and safe for concurrent use.
type Suggester struct {
	refiner      *refine.Refiner // nil: heuristic only
	providerName string
	model        string
	now          func() time.Time
	logger       logrus.FieldLogger
}

// New 根据 AI 配置选择 provider（或不使用）并创建 Suggester
// New selects the provider from cfg (or none) and builds a Suggester.
// A provider that is selected but misconfigured, such as a missing API key, is an error.
func New(cfg config.AIConfig, opts Options) (*Suggester, error) {
	p := opts.Provider
	if p == nil {
		var err error
		p, err = provider.New(cfg)
		if err != nil {
			return nil, err
		}
	}

	s := &Suggester{
		providerName: config.ProviderNone,
		now:          opts.Now,
		logger:       opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if p != nil {
		s.providerName = p.Name()
		s.model = p.Model()
		s.refiner = refine.New(p,
			refine.WithTimeout(time.Duration(cfg.TimeoutMS)*time.Millisecond),
			refine.WithRepair(cfg.RepairJSON),
			refine.WithBudget(newBudget(cfg, p.Model())),
		)
	}
	return s, nil
}

// newBudget 选择计数方式；精确编码在后台预加载，不阻塞启动
func newBudget(cfg config.AIConfig, model string) *contextmgr.Budget {
	if cfg.EstimateTokens {
		return contextmgr.NewBudgetWithTokenizer(contextmgr.NewHeuristicTokenizer(), cfg.MaxPromptTokens)
	}
	b := contextmgr.NewBudget(model, cfg.MaxPromptTokens)
	b.Preload()
	return b
}

// ProviderName returns the active provider name, or "none" when running heuristic-only.
func (s *Suggester) ProviderName() string { return s.providerName }

// Generate 解码并校验请求载荷后生成建议
// Generate decodes and validates a JSON request payload, then suggests.
// A malformed payload returns *contract.ValidationError before any computation.
func (s *Suggester) Generate(ctx context.Context, payload []byte) (contract.Response, error) {
	req, err := contract.DecodeRequest(payload)
	if err != nil {
		return contract.Response{}, err
	}
	return s.Suggest(ctx, req)
}

// Suggest 运行启发式基线与可选的模型精炼
// Suggest runs the heuristic baseline and, when a provider is configured, one refinement.
// Provider and reply failures degrade to the baseline with a note in the rationale;
// any other refinement failure is returned.
func (s *Suggester) Suggest(ctx context.Context, req contract.Request) (contract.Response, error) {
	if err := req.Validate(); err != nil {
		return contract.Response{}, err
	}

	start := time.Now()
	baseline := heuristic.Score(req, s.now())
	result := baseline.Clone()

	fields := logrus.Fields{"request_id": uuid.NewString(), "provider": s.providerName}
	refined, fellBack := false, false
	if s.refiner != nil {
		fields["model"] = s.model
		out, err := s.refiner.Refine(ctx, req)
		if out.Prompt.Encoding != "" {
			fields["dropped_context"] = out.Prompt.Dropped
			fields["encoding"] = out.Prompt.Encoding
			fields["precise_tokens"] = out.Prompt.Precise
		}
		switch {
		case err == nil:
			result = merge(baseline, out.Response)
			refined = true
		case degradable(err):
			result.Rationale += fmt.Sprintf(fallbackNote, err)
			fellBack = true
			s.logger.WithFields(fields).WithError(err).Warn("refinement failed, using heuristic suggestion")
		default:
			return contract.Response{}, fmt.Errorf("refine suggestion: %w", err)
		}
	}

	if err := contract.ValidateResponse(&result); err != nil {
		return contract.Response{}, err
	}

	fields["score"] = result.PriorityScore
	fields["refined"] = refined
	fields["fallback"] = fellBack
	fields["elapsed_ms"] = time.Since(start).Milliseconds()
	s.logger.WithFields(fields).Info("suggestion generated")
	return result, nil
}

// degradable 仅 provider 失败、回复解析失败与超时触发降级
// degradable reports whether err is a provider failure, a reply parse failure or a timeout
func degradable(err error) bool {
	var parseErr *refine.ParseError
	return provider.IsUnavailable(err) ||
		errors.As(err, &parseErr) ||
		errors.Is(err, context.DeadlineExceeded)
}

// FellBack reports whether resp is a heuristic result kept after a failed refinement.
func FellBack(resp contract.Response) bool {
	return strings.Contains(resp.Rationale, fallbackMarker)
}
