package tui

import (
	"fmt"
	"strings"

	"smarttodo/internal/contract"
	"smarttodo/internal/i18n"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	highPriority   = 70.0
	mediumPriority = 40.0
)

// RenderMarkdown 使用 Glamour 渲染 markdown 文本
// RenderMarkdown renders markdown text using Glamour
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimSpace(rendered)
}

// PriorityBand 返回分数对应的优先级档位 key（priority.high/medium/low）
// PriorityBand maps a score to its catalog key
func PriorityBand(score float64) string {
	switch {
	case score >= highPriority:
		return "priority.high"
	case score >= mediumPriority:
		return "priority.medium"
	default:
		return "priority.low"
	}
}

// RenderSuggestion 将建议渲染为终端卡片
// RenderSuggestion renders a suggestion as a bordered card.
// fallback adds a warning line that the model could not be used.
func RenderSuggestion(resp contract.Response, tr *i18n.I18n, theme Theme, width int, fallback bool) string {
	if width <= 0 {
		width = 80
	}
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render(tr.T("card.title")))
	b.WriteString("\n\n")

	band := PriorityBand(resp.PriorityScore)
	scoreStyle := theme.LowStyle
	switch band {
	case "priority.high":
		scoreStyle = theme.HighStyle
	case "priority.medium":
		scoreStyle = theme.MediumStyle
	}
	writeField(&b, theme, tr.T("card.priority"),
		scoreStyle.Render(fmt.Sprintf("%.1f (%s)", resp.PriorityScore, tr.T(band))))
	writeField(&b, theme, tr.T("card.deadlines"), joinOrNone(resp.DeadlineSuggestions, " / ", tr, theme.ValueStyle))
	writeField(&b, theme, tr.T("card.categories"), joinOrNone(resp.Categories, ", ", tr, theme.ValueStyle))
	writeField(&b, theme, tr.T("card.tags"), joinOrNone(prefixed(resp.Tags, "#"), " ", tr, theme.TagStyle))

	b.WriteString("\n")
	b.WriteString(theme.LabelStyle.Render(tr.T("card.description")))
	b.WriteString("\n")
	b.WriteString(RenderMarkdown(resp.ImprovedDescription, width-4))
	b.WriteString("\n\n")

	b.WriteString(theme.LabelStyle.Render(tr.T("card.rationale")))
	b.WriteString("\n")
	b.WriteString(theme.MutedStyle.Render(resp.Rationale))
	if fallback {
		b.WriteString("\n\n")
		b.WriteString(theme.WarningStyle.Render(tr.T("card.fallback")))
	}

	return theme.CardStyle.Width(width - 2).Render(b.String())
}

func writeField(b *strings.Builder, theme Theme, label, value string) {
	b.WriteString(theme.LabelStyle.Render(label + ":"))
	b.WriteString(" ")
	b.WriteString(value)
	b.WriteString("\n")
}

func joinOrNone(items []string, sep string, tr *i18n.I18n, style lipgloss.Style) string {
	if len(items) == 0 {
		return tr.T("card.none")
	}
	return style.Render(strings.Join(items, sep))
}

func prefixed(items []string, prefix string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, prefix+item)
	}
	return out
}
