package refine

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"smarttodo/internal/contract"

	"github.com/kaptinlin/jsonrepair"
	"github.com/spf13/cast"
)

const rawExcerptRunes = 200

var errNoObject = errors.New("no JSON object found in reply")

// ParseError 模型已回复，但无法从中得到合法的建议对象
// ParseError means the model replied but no valid suggestion object could be recovered
type ParseError struct {
	Raw string // excerpt of the reply
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model reply: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseFailure(raw string, err error) *ParseError {
	if utf8.RuneCountInString(raw) > rawExcerptRunes {
		raw = string([]rune(raw)[:rawExcerptRunes]) + "..."
	}
	return &ParseError{Raw: raw, Err: err}
}

// ExtractJSON 去掉空白与反引号围栏，返回第一个 "{" 到最后一个 "}" 之间的文本
// ExtractJSON strips whitespace and backtick fencing, then returns the text from the
// first "{" to the last "}" inclusive.
func ExtractJSON(raw string) (string, error) {
	s := strings.Trim(strings.TrimSpace(raw), "` ")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", errNoObject
	}
	return s[start : end+1], nil
}

// Parse 解析模型回复；缺失字段取默认值（分数 0，其余为空）
// Parse recovers a suggestion from a model reply. Missing or null fields default to
// zero/empty; a wrong field type or a score outside [0,100] is a *ParseError.
// When repair is set, one jsonrepair attempt is made before giving up on invalid JSON.
func Parse(raw string, repair bool) (contract.Response, error) {
	candidate, err := ExtractJSON(raw)
	if err != nil {
		return contract.Response{}, parseFailure(raw, err)
	}

	var obj map[string]any
	if err := jsonAPI.UnmarshalFromString(candidate, &obj); err != nil {
		if !repair {
			return contract.Response{}, parseFailure(raw, err)
		}
		repaired, rerr := jsonrepair.JSONRepair(candidate)
		if rerr != nil {
			return contract.Response{}, parseFailure(raw, err)
		}
		obj = nil
		if rerr := jsonAPI.UnmarshalFromString(repaired, &obj); rerr != nil {
			return contract.Response{}, parseFailure(raw, err)
		}
	}

	resp, err := fromObject(obj)
	if err != nil {
		return contract.Response{}, parseFailure(raw, err)
	}
	return resp, nil
}

func fromObject(obj map[string]any) (contract.Response, error) {
	var (
		resp contract.Response
		err  error
	)
	if resp.PriorityScore, err = scoreField(obj, "priority_score"); err != nil {
		return resp, err
	}
	if resp.DeadlineSuggestions, err = stringsField(obj, "deadline_suggestions"); err != nil {
		return resp, err
	}
	if resp.ImprovedDescription, err = stringField(obj, "improved_description"); err != nil {
		return resp, err
	}
	if resp.Categories, err = stringsField(obj, "categories"); err != nil {
		return resp, err
	}
	if resp.Tags, err = stringsField(obj, "tags"); err != nil {
		return resp, err
	}
	if resp.Rationale, err = stringField(obj, "rationale"); err != nil {
		return resp, err
	}
	if len(resp.Categories) > contract.MaxCategories {
		resp.Categories = resp.Categories[:contract.MaxCategories]
	}
	if len(resp.Tags) > contract.MaxTags {
		resp.Tags = resp.Tags[:contract.MaxTags]
	}
	resp.Normalize()
	return resp, nil
}

func scoreField(obj map[string]any, key string) (float64, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, nil
	}
	if s, isString := v.(string); isString {
		v = strings.TrimSpace(s)
	}
	score, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if math.IsNaN(score) || score < contract.MinScore || score > contract.MaxScore {
		return 0, fmt.Errorf("%s: %v out of range [%v, %v]", key, score, contract.MinScore, contract.MaxScore)
	}
	return score, nil
}

func stringField(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("%s: expected string, got %T", key, v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}

func stringsField(obj map[string]any, key string) ([]string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return []string{}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected array, got %T", key, v)
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		switch item.(type) {
		case string, float64, bool:
		default:
			return nil, fmt.Errorf("%s[%d]: expected string, got %T", key, i, item)
		}
		s, err := cast.ToStringE(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
