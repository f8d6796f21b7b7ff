package orchestrator

import (
	"time"

	"smarttodo/internal/contract"
)

// merge 用模型结果中非空的字段覆盖启发式结果
// merge overwrites baseline fields with model values that are non-zero and non-empty.
// Model deadlines are used only when every entry matches the deadline layout.
func merge(baseline, model contract.Response) contract.Response {
	out := baseline.Clone()
	if model.PriorityScore != 0 {
		out.PriorityScore = model.PriorityScore
	}
	if len(model.DeadlineSuggestions) > 0 && wellFormedDeadlines(model.DeadlineSuggestions) {
		out.DeadlineSuggestions = append([]string{}, model.DeadlineSuggestions...)
	}
	if model.ImprovedDescription != "" {
		out.ImprovedDescription = model.ImprovedDescription
	}
	if len(model.Categories) > 0 {
		out.Categories = append([]string{}, model.Categories...)
	}
	if len(model.Tags) > 0 {
		out.Tags = append([]string{}, model.Tags...)
	}
	if model.Rationale != "" {
		out.Rationale = model.Rationale
	}
	return out
}

func wellFormedDeadlines(list []string) bool {
	for _, d := range list {
		if _, err := time.Parse(contract.DeadlineLayout, d); err != nil {
			return false
		}
	}
	return true
}
