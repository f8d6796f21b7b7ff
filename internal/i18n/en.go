package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// Suggestion card
	"card.title":       "Suggestion",
	"card.priority":    "Priority",
	"card.deadlines":   "Deadlines",
	"card.categories":  "Categories",
	"card.tags":        "Tags",
	"card.description": "Improved description",
	"card.rationale":   "Rationale",
	"card.none":        "(none)",
	"card.fallback":    "Model unavailable, heuristic result shown",

	// Priority bands
	"priority.high":   "high",
	"priority.medium": "medium",
	"priority.low":    "low",

	// Interactive prompts
	"prompt.title":       "Title: ",
	"prompt.description": "Description (optional): ",
	"prompt.category":    "Category hint (optional): ",
	"prompt.load":        "Open tasks (optional): ",
	"prompt.context":     "Context line, e.g. email: reply to Bob (empty to finish): ",
	"prompt.again":       "Another task? [Y/n]: ",

	"interactive.welcome": "Describe a task to get a suggestion. Ctrl+D quits.",
	"interactive.bye":     "Bye.",
	"interactive.working": "Thinking (%s)...",

	// Config
	"config.provider":        "Provider",
	"config.model":           "Model",
	"config.base_url":        "Base URL",
	"config.api_key":         "API key",
	"config.timeout":         "Timeout",
	"config.max_tokens":      "Prompt token budget",
	"config.repair_json":     "Repair JSON",
	"config.estimate_tokens": "Estimate tokens",
	"config.unlimited":       "unlimited",

	// Errors
	"error.title_required": "A title is required.",
	"error.load":           "Not a number: %s",
	"error.suggest":        "Suggestion failed: %s",
}
