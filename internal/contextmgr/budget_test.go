package contextmgr

import (
	"context"
	"strings"
	"testing"
	"time"

	"smarttodo/internal/contract"
)

func renderContents(items []contract.ContextItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Content)
	}
	return strings.Join(parts, "\n")
}

func contextItems(n int, content string) []contract.ContextItem {
	items := make([]contract.ContextItem, n)
	for i := range items {
		items[i] = contract.ContextItem{SourceType: "note", Content: content}
	}
	return items
}

func TestBudgetFitDisabled(t *testing.T) {
	items := contextItems(3, strings.Repeat("a", 400))
	for _, b := range []*Budget{nil, NewBudget("gpt-4o-mini", 0), NewBudget("gpt-4o-mini", -5)} {
		got := b.Fit(context.Background(), items, renderContents)
		if len(got.Items) != 3 || got.Dropped != 0 || got.Encoding != "" {
			t.Fatalf("disabled budget trimmed context: %+v", got)
		}
	}
}

func TestBudgetFitKeepsPrefix(t *testing.T) {
	// 每条 400 ASCII 字符 ≈ 100 tokens
	items := contextItems(5, strings.Repeat("a", 400))
	items[0].Content = "first " + items[0].Content
	b := NewBudgetWithTokenizer(NewHeuristicTokenizer(), 260)

	got := b.Fit(context.Background(), items, renderContents)
	if len(got.Items) != 2 || got.Dropped != 3 {
		t.Fatalf("kept=%d dropped=%d, want 2/3", len(got.Items), got.Dropped)
	}
	if !strings.HasPrefix(got.Items[0].Content, "first ") {
		t.Fatalf("budget must keep the leading items in order")
	}
	if got.Encoding != EncodingEstimate || got.Precise {
		t.Fatalf("encoding=%q precise=%v", got.Encoding, got.Precise)
	}
}

func TestBudgetFitEverythingFits(t *testing.T) {
	items := contextItems(4, "short note")
	got := NewBudgetWithTokenizer(NewHeuristicTokenizer(), 1000).Fit(context.Background(), items, renderContents)
	if len(got.Items) != 4 || got.Dropped != 0 {
		t.Fatalf("kept=%d dropped=%d", len(got.Items), got.Dropped)
	}
}

func TestBudgetFitNothingFits(t *testing.T) {
	items := contextItems(2, strings.Repeat("a", 4000))
	got := NewBudgetWithTokenizer(NewHeuristicTokenizer(), 10).Fit(context.Background(), items, renderContents)
	if len(got.Items) != 0 || got.Dropped != 2 {
		t.Fatalf("kept=%d dropped=%d", len(got.Items), got.Dropped)
	}
}

func TestBudgetFitDoesNotWaitForSlowEncoding(t *testing.T) {
	release := make(chan struct{})
	loads := 0
	b := newBudget("gpt-4o-mini", 260, func(model string) *Tokenizer {
		loads++
		<-release
		return &Tokenizer{encoding: encodingForModel(model)}
	})
	items := contextItems(5, strings.Repeat("a", 400))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	got := b.Fit(ctx, items, renderContents)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Fit blocked for %v waiting on the encoding", elapsed)
	}
	if got.Encoding != EncodingEstimate || got.Dropped != 3 {
		t.Fatalf("expected estimate while loading, got %+v", got)
	}

	close(release)
	got = b.Fit(context.Background(), items, renderContents)
	if got.Encoding != "o200k_base" {
		t.Fatalf("encoding=%q after load", got.Encoding)
	}
	if loads != 1 {
		t.Fatalf("encoding loaded %d times", loads)
	}
}

func TestBudgetPreloadDisabled(t *testing.T) {
	called := false
	b := newBudget("gpt-4o-mini", 0, func(string) *Tokenizer {
		called = true
		return NewHeuristicTokenizer()
	})
	b.Preload()
	b.Fit(context.Background(), contextItems(1, "x"), renderContents)
	if called {
		t.Fatal("disabled budget must not load an encoding")
	}
}
