package config

const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderLMStudio  = "lmstudio"

	DefaultTimeoutMS = 60000

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"

	DefaultAnthropicBaseURL   = "https://api.anthropic.com/v1"
	DefaultAnthropicModel     = "claude-3-haiku-20240307"
	DefaultAnthropicMaxTokens = 600

	DefaultLMStudioBaseURL = "http://localhost:1234/v1"
	DefaultLMStudioModel   = "local-model"

	DefaultLogLevel      = "info"
	DefaultLogMode       = "TEXT"
	DefaultLogMaxSizeMB  = 20
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
)
