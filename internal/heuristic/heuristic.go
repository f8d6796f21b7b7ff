// Package heuristic computes the keyword-driven suggestion baseline.
// It never performs I/O and is deterministic for a fixed clock.
package heuristic

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"smarttodo/internal/contract"
)

// Rationale marks a response as heuristic output.
const Rationale = "Heuristic: urgency/keywords from task+context; deadline ~ complexity; tags from hints."

const (
	baseScore      = 10.0
	urgentBonus    = 60.0
	importantBonus = 20.0
	maxLoadBonus   = 10.0

	// urgentThreshold 达到该分数时截止期基准为 1 天，否则 3 天
	// urgentThreshold selects a 1-day base offset instead of 3 days
	urgentThreshold = 70.0

	lengthStep      = 120
	maxLengthFactor = 2
	deadlineSpread  = 2
	deadlineHour    = 17
)

var (
	urgentKeywords    = []string{"urgent", "asap", "immediately", "today", "blocker"}
	importantKeywords = []string{"review", "payment", "invoice", "deadline", "submit", "client"}
)

type bucket struct {
	name     string
	keywords []string
}

var buckets = []bucket{
	{name: "engineering", keywords: []string{"bug", "deploy", "api", "database", "migrate", "build"}},
	{name: "communication", keywords: []string{"email", "reply", "follow up", "call", "meeting"}},
	{name: "planning", keywords: []string{"plan", "roadmap", "spec", "write", "doc"}},
}

// signalKeywords 上下文信号关键词集合（紧急 ∪ 重要）
// signalKeywords is the union of urgent and important keywords
var signalKeywords = func() map[string]struct{} {
	set := make(map[string]struct{}, len(urgentKeywords)+len(importantKeywords))
	for _, k := range urgentKeywords {
		set[k] = struct{}{}
	}
	for _, k := range importantKeywords {
		set[k] = struct{}{}
	}
	return set
}()

// Score 计算启发式建议；对任何合法请求都不会失败
// Score computes the heuristic suggestion for req as of now. It is total over valid requests.
func Score(req contract.Request, now time.Time) contract.Response {
	text := strings.ToLower(req.Task.Title + " \n" + req.Task.Description)
	contents := make([]string, 0, len(req.DailyContext))
	for _, item := range req.DailyContext {
		contents = append(contents, item.Content)
	}
	ctx := strings.ToLower(strings.Join(contents, "\n"))

	score := priority(text, ctx, req.CurrentTaskLoad)
	categories := detectCategories(text, ctx, req.Task.CategoryHint())

	resp := contract.Response{
		PriorityScore:       score,
		DeadlineSuggestions: deadlines(now, offsetDays(score, text)),
		ImprovedDescription: improveDescription(req.Task, ctx),
		Categories:          truncate(categories, contract.MaxCategories),
		Tags:                truncate(categories, contract.MaxTags),
		Rationale:           Rationale,
	}
	resp.Normalize()
	return resp
}

func priority(text, ctx string, load *int) float64 {
	score := baseScore
	if containsAny(text, ctx, urgentKeywords) {
		score += urgentBonus
	}
	if containsAny(text, ctx, importantKeywords) {
		score += importantBonus
	}
	if load != nil && *load != 0 {
		score += math.Min(maxLoadBonus, math.Log2(1+float64(*load)))
	}
	return clamp(score, contract.MinScore, contract.MaxScore)
}

func offsetDays(score float64, text string) int {
	days := 3
	if score >= urgentThreshold {
		days = 1
	}
	lengthFactor := utf8.RuneCountInString(text) / lengthStep
	if lengthFactor > maxLengthFactor {
		lengthFactor = maxLengthFactor
	}
	return days + lengthFactor
}

// deadlines returns two suggestions at 17:00 UTC, offset days and offset+2 days after now.
func deadlines(now time.Time, days int) []string {
	now = now.UTC()
	at := func(offset int) string {
		return time.Date(now.Year(), now.Month(), now.Day()+offset, deadlineHour, 0, 0, 0, time.UTC).
			Format(contract.DeadlineLayout)
	}
	return []string{at(days), at(days + deadlineSpread)}
}

func detectCategories(text, ctx, hint string) []string {
	found := make([]string, 0, len(buckets)+1)
	for _, b := range buckets {
		if containsAny(text, ctx, b.keywords) {
			found = append(found, b.name)
		}
	}
	if hint != "" && !contains(found, hint) {
		found = append([]string{hint}, found...)
	}
	return found
}

func improveDescription(task contract.TaskInput, ctx string) string {
	improved := task.Description
	if improved == "" {
		improved = task.Title
	}
	if ctx != "" {
		if signals := contextSignals(ctx); len(signals) > 0 {
			improved += "\n\nContext signals: " + strings.Join(signals, "; ")
		}
	}
	return strings.TrimSpace(improved)
}

// contextSignals returns the distinct keywords that occur as whole words in ctx, sorted.
func contextSignals(ctx string) []string {
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(ctx) {
		if _, ok := signalKeywords[word]; ok {
			seen[word] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for word := range seen {
		out = append(out, word)
	}
	sort.Strings(out)
	return out
}

func containsAny(text, ctx string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) || strings.Contains(ctx, k) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func truncate(list []string, n int) []string {
	if len(list) > n {
		list = list[:n]
	}
	return append([]string{}, list...)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
