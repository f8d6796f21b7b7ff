package contract

// DeadlineLayout is the fixed timestamp layout of deadline suggestions.
const DeadlineLayout = "2006-01-02 15:04"

const (
	MaxCategories = 3
	MaxTags       = 5
	MinScore      = 0.0
	MaxScore      = 100.0
)

// TaskInput 待建议的任务
// TaskInput is the task a suggestion is computed for
type TaskInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
}

// CategoryHint returns the explicit category hint, or "" when none was given.
func (t TaskInput) CategoryHint() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}

// ContextItem 一条当日上下文（笔记/邮件/聊天）
// ContextItem is one piece of daily context (note, email, chat)
type ContextItem struct {
	SourceType string `json:"source_type"`
	Content    string `json:"content"`
}

// Request 建议请求
// Request is the inbound suggestion request
type Request struct {
	Task            TaskInput      `json:"task"`
	DailyContext    []ContextItem  `json:"daily_context"`
	UserPrefs       map[string]any `json:"user_prefs"`
	CurrentTaskLoad *int           `json:"current_task_load"`
}

// Response 建议结果
// Response is the suggestion result handed back to collaborators
type Response struct {
	PriorityScore       float64  `json:"priority_score"`
	DeadlineSuggestions []string `json:"deadline_suggestions"`
	ImprovedDescription string   `json:"improved_description"`
	Categories          []string `json:"categories"`
	Tags                []string `json:"tags"`
	Rationale           string   `json:"rationale"`
}

// Clone returns a deep copy so merges never alias the caller's slices.
func (r Response) Clone() Response {
	out := r
	out.DeadlineSuggestions = append([]string(nil), r.DeadlineSuggestions...)
	out.Categories = append([]string(nil), r.Categories...)
	out.Tags = append([]string(nil), r.Tags...)
	return out
}

// Normalize replaces nil sequences with empty ones so the JSON form always carries arrays.
func (r *Response) Normalize() {
	if r.DeadlineSuggestions == nil {
		r.DeadlineSuggestions = []string{}
	}
	if r.Categories == nil {
		r.Categories = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
}
