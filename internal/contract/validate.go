package contract

import (
	"fmt"
	"math"
)

func (r *Request) applyDefaults() {
	if r.DailyContext == nil {
		r.DailyContext = []ContextItem{}
	}
	if r.UserPrefs == nil {
		r.UserPrefs = map[string]any{}
	}
}

// Validate checks a request built in Go (the payload path also runs the JSON Schema first).
func (r *Request) Validate() error {
	var fields []FieldError
	// 只要求非空；纯空白标题与空 source_type 均合法
	if r.Task.Title == "" {
		fields = append(fields, FieldError{Field: "task.title", Message: "is required"})
	}
	if r.CurrentTaskLoad != nil && *r.CurrentTaskLoad < 0 {
		fields = append(fields, FieldError{Field: "current_task_load", Message: "must be >= 0"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	r.applyDefaults()
	return nil
}

// ValidateResponse enforces the response invariants and fills nil sequences.
func ValidateResponse(resp *Response) error {
	resp.Normalize()

	var fields []FieldError
	if math.IsNaN(resp.PriorityScore) || resp.PriorityScore < MinScore || resp.PriorityScore > MaxScore {
		fields = append(fields, FieldError{
			Field:   "priority_score",
			Message: fmt.Sprintf("must be within [%g, %g], got %v", MinScore, MaxScore, resp.PriorityScore),
		})
	}
	if len(resp.Categories) > MaxCategories {
		fields = append(fields, FieldError{
			Field:   "categories",
			Message: fmt.Sprintf("at most %d entries, got %d", MaxCategories, len(resp.Categories)),
		})
	}
	if len(resp.Tags) > MaxTags {
		fields = append(fields, FieldError{
			Field:   "tags",
			Message: fmt.Sprintf("at most %d entries, got %d", MaxTags, len(resp.Tags)),
		})
	}
	if len(fields) > 0 {
		return &OutputValidationError{Fields: fields}
	}
	return nil
}
