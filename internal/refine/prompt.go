package refine

import (
	"context"
	"strconv"
	"strings"

	"smarttodo/internal/contextmgr"
	"smarttodo/internal/contract"

	jsoniter "github.com/json-iterator/go"
)

// SystemPrompt 指示模型以紧凑 JSON 返回建议字段
// SystemPrompt instructs the model to answer with the suggestion fields as compact JSON
const SystemPrompt = "You are an assistant that improves task management. " +
	"Return concise JSON with keys: priority_score (0-100), " +
	"deadline_suggestions (array of 'YYYY-MM-DD HH:MM'), improved_description, " +
	"categories (array), tags (array), rationale (short)."

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// BuildUserPrompt 序列化任务、上下文、偏好与负载；budget 可为 nil
// BuildUserPrompt serializes task, context, prefs and load into the user prompt.
// With a non-nil budget, trailing context items that overflow it are dropped and
// reported in the returned Fitted. ctx bounds waiting for the budget's encoding.
func BuildUserPrompt(ctx context.Context, req contract.Request, budget *contextmgr.Budget) (string, contextmgr.Fitted, error) {
	task, err := jsonAPI.MarshalToString(req.Task)
	if err != nil {
		return "", contextmgr.Fitted{}, err
	}
	prefs := req.UserPrefs
	if prefs == nil {
		prefs = map[string]any{}
	}
	prefsJSON, err := jsonAPI.MarshalToString(prefs)
	if err != nil {
		return "", contextmgr.Fitted{}, err
	}
	load := "none"
	if req.CurrentTaskLoad != nil {
		load = strconv.Itoa(*req.CurrentTaskLoad)
	}

	render := func(items []contract.ContextItem) string {
		if items == nil {
			items = []contract.ContextItem{}
		}
		ctxJSON, _ := jsonAPI.MarshalToString(items)
		var b strings.Builder
		b.WriteString("Task: ")
		b.WriteString(task)
		b.WriteString("\nContext: ")
		b.WriteString(ctxJSON)
		b.WriteString("\nPrefs: ")
		b.WriteString(prefsJSON)
		b.WriteString("\nCurrent load: ")
		b.WriteString(load)
		b.WriteString(" \nRespond ONLY with JSON.")
		return b.String()
	}

	fitted := budget.Fit(ctx, req.DailyContext, render)
	return render(fitted.Items), fitted, nil
}
