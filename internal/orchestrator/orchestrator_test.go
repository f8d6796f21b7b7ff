package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smarttodo/internal/config"
	"smarttodo/internal/contract"
	"smarttodo/internal/heuristic"
	"smarttodo/internal/provider"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

type stubProvider struct {
	reply string
	err   error
	block bool
	calls atomic.Int32
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-model" }

func (p *stubProvider) Chat(ctx context.Context, _, _ string) (string, error) {
	p.calls.Add(1)
	if p.block {
		<-ctx.Done()
		return "", &provider.Error{Provider: "stub", Op: "send request", Err: ctx.Err()}
	}
	return p.reply, p.err
}

func aiConfig() config.AIConfig {
	cfg := config.Default().AI
	cfg.Provider = config.ProviderNone
	cfg.TimeoutMS = 1000
	return cfg
}

func newSuggester(t *testing.T, p provider.Provider) *Suggester {
	t.Helper()
	s, err := New(aiConfig(), Options{Provider: p, Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func baselineFor(t *testing.T, payload string) contract.Response {
	t.Helper()
	req, err := contract.DecodeRequest([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return heuristic.Score(req, fixedNow)
}

const invoicePayload = `{"task":{"title":"Submit invoice ASAP","description":""}}`

func TestGenerateHeuristicOnly(t *testing.T) {
	s := newSuggester(t, nil)
	if s.ProviderName() != config.ProviderNone {
		t.Fatalf("provider=%q", s.ProviderName())
	}

	got, err := s.Generate(context.Background(), []byte(invoicePayload))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.PriorityScore != 90 {
		t.Fatalf("score=%v, want 90", got.PriorityScore)
	}
	if want := []string{"2024-03-11 17:00", "2024-03-13 17:00"}; !reflect.DeepEqual(got.DeadlineSuggestions, want) {
		t.Fatalf("deadlines=%v", got.DeadlineSuggestions)
	}
	if got.Rationale != heuristic.Rationale {
		t.Fatalf("rationale=%q", got.Rationale)
	}

	again, _ := s.Generate(context.Background(), []byte(invoicePayload))
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("heuristic-only output is not deterministic")
	}
}

func TestGenerateRejectsMalformedPayload(t *testing.T) {
	stub := &stubProvider{reply: `{}`}
	s := newSuggester(t, stub)

	for _, payload := range []string{`{"task":{}}`, `{"task":{"description":"no title"}}`, `not json`} {
		_, err := s.Generate(context.Background(), []byte(payload))
		var verr *contract.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("payload %s: expected *ValidationError, got %v", payload, err)
		}
	}
	if stub.calls.Load() != 0 {
		t.Fatalf("provider must not be called for invalid payloads")
	}
}

func TestSuggestRejectsInvalidRequest(t *testing.T) {
	s := newSuggester(t, nil)
	_, err := s.Suggest(context.Background(), contract.Request{Task: contract.TaskInput{Title: ""}})
	var verr *contract.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestGenerateDegradesOnProviderFailure(t *testing.T) {
	tests := []struct {
		name    string
		stub    *stubProvider
		timeout int
		wantErr string
	}{
		{
			name:    "timeout",
			stub:    &stubProvider{block: true},
			timeout: 30,
			wantErr: "deadline exceeded",
		},
		{
			name:    "status error",
			stub:    &stubProvider{err: &provider.Error{Provider: "stub", Op: "chat", StatusCode: 503, Err: errors.New("overloaded")}},
			wantErr: "status=503",
		},
		{
			name:    "plain chat error",
			stub:    &stubProvider{err: errors.New("connection reset")},
			wantErr: "stub chat: connection reset",
		},
		{
			name:    "bare deadline",
			stub:    &stubProvider{err: context.DeadlineExceeded},
			wantErr: "deadline exceeded",
		},
		{
			name:    "no json",
			stub:    &stubProvider{reply: "I'd rather not."},
			wantErr: "parse model reply",
		},
		{
			name:    "score out of range",
			stub:    &stubProvider{reply: `{"priority_score": 250}`},
			wantErr: "out of range",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := aiConfig()
			if tc.timeout > 0 {
				cfg.TimeoutMS = tc.timeout
			}
			s, err := New(cfg, Options{Provider: tc.stub, Now: func() time.Time { return fixedNow }})
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			got, err := s.Generate(context.Background(), []byte(invoicePayload))
			if err != nil {
				t.Fatalf("degrade must not surface an error: %v", err)
			}

			want := baselineFor(t, invoicePayload)
			if !strings.HasPrefix(got.Rationale, want.Rationale+fallbackMarker) {
				t.Fatalf("rationale=%q", got.Rationale)
			}
			if !strings.Contains(got.Rationale, tc.wantErr) {
				t.Fatalf("rationale %q does not mention %q", got.Rationale, tc.wantErr)
			}
			got.Rationale = want.Rationale
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("fallback output differs from heuristic:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestSuggestSurfacesPromptErrors(t *testing.T) {
	stub := &stubProvider{reply: `{}`}
	s := newSuggester(t, stub)

	req := contract.Request{
		Task:      contract.TaskInput{Title: "Submit invoice ASAP"},
		UserPrefs: map[string]any{"notify": make(chan int)},
	}
	_, err := s.Suggest(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "refine suggestion: build prompt") {
		t.Fatalf("expected prompt error to surface, got %v", err)
	}
	if stub.calls.Load() != 0 {
		t.Fatalf("provider must not be called")
	}
}

func TestGenerateFullOverride(t *testing.T) {
	reply := "```json\n" + `{"priority_score": 77.5, "deadline_suggestions": ["2024-03-12 10:00", "2024-03-14 10:00"],
"improved_description": "Send the March invoice to ACME", "categories": ["finance"], "tags": ["finance", "billing"],
"rationale": "Client invoices are time-sensitive."}` + "\n```"
	s := newSuggester(t, &stubProvider{reply: reply})

	got, err := s.Generate(context.Background(), []byte(invoicePayload))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := contract.Response{
		PriorityScore:       77.5,
		DeadlineSuggestions: []string{"2024-03-12 10:00", "2024-03-14 10:00"},
		ImprovedDescription: "Send the March invoice to ACME",
		Categories:          []string{"finance"},
		Tags:                []string{"finance", "billing"},
		Rationale:           "Client invoices are time-sensitive.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestGeneratePartialOverride(t *testing.T) {
	reply := `{"priority_score": 0, "improved_description": "", "categories": ["finance"], "tags": [], "rationale": ""}`
	s := newSuggester(t, &stubProvider{reply: reply})

	got, err := s.Generate(context.Background(), []byte(invoicePayload))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := baselineFor(t, invoicePayload)
	want.Categories = []string{"finance"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestGenerateIgnoresMalformedModelDeadlines(t *testing.T) {
	s := newSuggester(t, &stubProvider{reply: `{"deadline_suggestions": ["tomorrow"], "priority_score": 50}`})

	got, err := s.Generate(context.Background(), []byte(invoicePayload))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := baselineFor(t, invoicePayload)
	if !reflect.DeepEqual(got.DeadlineSuggestions, want.DeadlineSuggestions) {
		t.Fatalf("deadlines=%v, want heuristic %v", got.DeadlineSuggestions, want.DeadlineSuggestions)
	}
	if got.PriorityScore != 50 {
		t.Fatalf("score=%v", got.PriorityScore)
	}
}

func TestNewMisconfiguredProvider(t *testing.T) {
	cfg := aiConfig()
	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAI.APIKey = ""
	if _, err := New(cfg, Options{}); err == nil {
		t.Fatalf("expected error for openai without API key")
	}
}

func TestNewUnknownProviderIsHeuristicOnly(t *testing.T) {
	cfg := aiConfig()
	cfg.Provider = "mystery"
	s, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.ProviderName() != config.ProviderNone {
		t.Fatalf("provider=%q", s.ProviderName())
	}
}

func TestGenerateLogsOutcome(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s, err := New(aiConfig(), Options{
		Provider: &stubProvider{reply: "garbage"},
		Now:      func() time.Time { return fixedNow },
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Generate(context.Background(), []byte(invoicePayload)); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected warn + info entries, got %d", len(entries))
	}
	if entries[0].Level != logrus.WarnLevel || entries[0].Data[logrus.ErrorKey] == nil {
		t.Fatalf("first entry should be a warning with the error: %+v", entries[0])
	}
	last := hook.LastEntry()
	if last.Data["provider"] != "stub" || last.Data["fallback"] != true || last.Data["refined"] != false {
		t.Fatalf("unexpected fields: %+v", last.Data)
	}
	if entries[0].Data["request_id"] != last.Data["request_id"] {
		t.Fatalf("entries of one request must share request_id")
	}
	if _, ok := last.Data["elapsed_ms"]; !ok {
		t.Fatalf("missing elapsed_ms field")
	}
}

func TestGenerateLogsPromptBudget(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	cfg := aiConfig()
	cfg.MaxPromptTokens = 120
	cfg.EstimateTokens = true
	s, err := New(cfg, Options{
		Provider: &stubProvider{reply: `{"priority_score": 40}`},
		Now:      func() time.Time { return fixedNow },
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	payload := `{"task":{"title":"Call client"},"daily_context":[` +
		`{"source_type":"note","content":"short"},` +
		`{"source_type":"email","content":"` + strings.Repeat("long ", 400) + `"}]}`
	if _, err := s.Generate(context.Background(), []byte(payload)); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	last := hook.LastEntry()
	if last.Data["dropped_context"] != 1 {
		t.Fatalf("dropped_context=%v", last.Data["dropped_context"])
	}
	if last.Data["encoding"] != "estimate" || last.Data["precise_tokens"] != false {
		t.Fatalf("unexpected budget fields: %+v", last.Data)
	}
}

func TestSuggestConcurrent(t *testing.T) {
	stub := &stubProvider{reply: `{"tags": ["shared"]}`}
	s := newSuggester(t, stub)

	const workers = 16
	var wg sync.WaitGroup
	results := make([]contract.Response, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Generate(context.Background(), []byte(invoicePayload))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if !reflect.DeepEqual(results[i], results[0]) {
			t.Fatalf("worker %d result differs", i)
		}
	}
	if !reflect.DeepEqual(results[0].Tags, []string{"shared"}) {
		t.Fatalf("tags=%v", results[0].Tags)
	}
	if got := stub.calls.Load(); got != workers {
		t.Fatalf("provider calls=%d, want %d", got, workers)
	}
}

func TestFellBack(t *testing.T) {
	s := newSuggester(t, &stubProvider{reply: "nope"})
	got, err := s.Generate(context.Background(), []byte(invoicePayload))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !FellBack(got) {
		t.Fatalf("expected fallback marker in %q", got.Rationale)
	}
	if FellBack(baselineFor(t, invoicePayload)) {
		t.Fatalf("plain heuristic output is not a fallback")
	}
	noted := contract.Response{Rationale: "base" + fmt.Sprintf(fallbackNote, errors.New("x"))}
	if !FellBack(noted) {
		t.Fatalf("marker does not match the note %q", noted.Rationale)
	}
}
