package contract

import (
	"fmt"
	"strings"
)

// FieldError is a single violation located by its JSON path.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// ValidationError reports a malformed request payload. No suggestion is computed for it.
type ValidationError struct {
	Fields []FieldError
	Err    error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields)+1)
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "invalid suggestion request"
	}
	return "invalid suggestion request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// OutputValidationError means a merged result broke the response invariants.
// It indicates a defect, not a runtime condition callers should expect.
type OutputValidationError struct {
	Fields []FieldError
}

func (e *OutputValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("invalid suggestion response: %s", strings.Join(parts, "; "))
}
