package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type ProviderConfig struct {
	BaseURL   string `json:"base_url" env:"API_BASE"`
	Model     string `json:"model" env:"MODEL"`
	APIKey    string `json:"api_key" env:"API_KEY"`
	MaxTokens int    `json:"max_tokens" env:"MAX_TOKENS"`
}

type AIConfig struct {
	// Provider selects the refinement backend; anything unrecognised disables refinement.
	Provider        string         `json:"provider" env:"AI_PROVIDER"`
	TimeoutMS       int            `json:"timeout_ms" env:"AI_TIMEOUT_MS"`
	MaxPromptTokens int            `json:"max_prompt_tokens" env:"AI_MAX_PROMPT_TOKENS"`
	RepairJSON      bool           `json:"repair_json" env:"AI_REPAIR_JSON"`
	// EstimateTokens counts the prompt budget by character estimate and never loads BPE files.
	EstimateTokens  bool           `json:"estimate_tokens" env:"AI_ESTIMATE_TOKENS"`
	OpenAI          ProviderConfig `json:"openai" envPrefix:"OPENAI_"`
	Anthropic       ProviderConfig `json:"anthropic" envPrefix:"ANTHROPIC_"`
	LMStudio        ProviderConfig `json:"lmstudio" envPrefix:"LMSTUDIO_"`
}

type LogConfig struct {
	Level      string `json:"level" env:"SMARTTODO_LOG_LEVEL"`
	Mode       string `json:"mode" env:"SMARTTODO_LOG_MODE"`
	File       string `json:"file" env:"SMARTTODO_LOG"`
	MaxSizeMB  int    `json:"max_size_mb" env:"SMARTTODO_LOG_MAX_SIZE"`
	MaxBackups int    `json:"max_backups" env:"SMARTTODO_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days" env:"SMARTTODO_LOG_MAX_AGE"`
}

type Config struct {
	AI   AIConfig  `json:"ai"`
	Log  LogConfig `json:"log"`
	Lang string    `json:"lang" env:"SMARTTODO_LANG"`
}

type fileAIConfig struct {
	Provider        *string         `json:"provider"`
	TimeoutMS       *int            `json:"timeout_ms"`
	MaxPromptTokens *int            `json:"max_prompt_tokens"`
	RepairJSON      *bool           `json:"repair_json"`
	EstimateTokens  *bool           `json:"estimate_tokens"`
	OpenAI          *ProviderConfig `json:"openai"`
	Anthropic       *ProviderConfig `json:"anthropic"`
	LMStudio        *ProviderConfig `json:"lmstudio"`
}

type fileConfig struct {
	AI   *fileAIConfig `json:"ai"`
	Log  *LogConfig    `json:"log"`
	Lang *string       `json:"lang"`
}

func Default() Config {
	return Config{
		AI: AIConfig{
			Provider:  ProviderNone,
			TimeoutMS: DefaultTimeoutMS,
			OpenAI: ProviderConfig{
				BaseURL: DefaultOpenAIBaseURL,
				Model:   DefaultOpenAIModel,
			},
			Anthropic: ProviderConfig{
				BaseURL:   DefaultAnthropicBaseURL,
				Model:     DefaultAnthropicModel,
				MaxTokens: DefaultAnthropicMaxTokens,
			},
			LMStudio: ProviderConfig{
				BaseURL: DefaultLMStudioBaseURL,
				Model:   DefaultLMStudioModel,
			},
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Mode:       DefaultLogMode,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
	}
}

// Load reads defaults, the config file, ./.env and the process environment, in that order.
func Load(path string) (Config, error) {
	return LoadFrom(path, "")
}

// LoadFrom is Load with an explicit .env file; an empty envFile means ./.env.
func LoadFrom(path, envFile string) (Config, error) {
	cfg := Default()

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("SMARTTODO_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(envFile); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func findProjectConfigPath() string {
	candidates := []string{
		"smarttodo.config.json",
		".smarttodo/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func loadDotEnv(envFile string) error {
	envFile = strings.TrimSpace(envFile)
	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}
	resolved, err := expandPath(envFile)
	if err != nil {
		return fmt.Errorf("expand env file %q: %w", envFile, err)
	}
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("stat env file %q: %w", resolved, err)
	}
	if err := godotenv.Overload(resolved); err != nil {
		return fmt.Errorf("load env file %q: %w", resolved, err)
	}
	return nil
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.AI != nil {
		if fc.AI.Provider != nil {
			cfg.AI.Provider = *fc.AI.Provider
		}
		if fc.AI.TimeoutMS != nil {
			cfg.AI.TimeoutMS = *fc.AI.TimeoutMS
		}
		if fc.AI.MaxPromptTokens != nil {
			cfg.AI.MaxPromptTokens = *fc.AI.MaxPromptTokens
		}
		if fc.AI.RepairJSON != nil {
			cfg.AI.RepairJSON = *fc.AI.RepairJSON
		}
		if fc.AI.EstimateTokens != nil {
			cfg.AI.EstimateTokens = *fc.AI.EstimateTokens
		}
		if fc.AI.OpenAI != nil {
			cfg.AI.OpenAI = mergeProvider(cfg.AI.OpenAI, *fc.AI.OpenAI)
		}
		if fc.AI.Anthropic != nil {
			cfg.AI.Anthropic = mergeProvider(cfg.AI.Anthropic, *fc.AI.Anthropic)
		}
		if fc.AI.LMStudio != nil {
			cfg.AI.LMStudio = mergeProvider(cfg.AI.LMStudio, *fc.AI.LMStudio)
		}
	}
	if fc.Log != nil {
		cfg.Log = mergeLog(cfg.Log, *fc.Log)
	}
	if fc.Lang != nil {
		cfg.Lang = *fc.Lang
	}
}

func mergeProvider(base ProviderConfig, override ProviderConfig) ProviderConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if strings.TrimSpace(override.Model) != "" {
		base.Model = override.Model
	}
	if strings.TrimSpace(override.APIKey) != "" {
		base.APIKey = override.APIKey
	}
	if override.MaxTokens > 0 {
		base.MaxTokens = override.MaxTokens
	}
	return base
}

func mergeLog(base LogConfig, override LogConfig) LogConfig {
	if strings.TrimSpace(override.Level) != "" {
		base.Level = override.Level
	}
	if strings.TrimSpace(override.Mode) != "" {
		base.Mode = override.Mode
	}
	if strings.TrimSpace(override.File) != "" {
		base.File = override.File
	}
	if override.MaxSizeMB > 0 {
		base.MaxSizeMB = override.MaxSizeMB
	}
	if override.MaxBackups > 0 {
		base.MaxBackups = override.MaxBackups
	}
	if override.MaxAgeDays > 0 {
		base.MaxAgeDays = override.MaxAgeDays
	}
	return base
}

func applyEnv(cfg Config) (Config, error) {
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, normalize(&cfg)
}

func normalize(cfg *Config) error {
	def := Default()

	cfg.AI.Provider = NormalizeProvider(cfg.AI.Provider)
	if cfg.AI.TimeoutMS <= 0 {
		cfg.AI.TimeoutMS = def.AI.TimeoutMS
	}
	if cfg.AI.MaxPromptTokens < 0 {
		return fmt.Errorf("invalid max_prompt_tokens: %d", cfg.AI.MaxPromptTokens)
	}
	cfg.AI.OpenAI = fillProvider(cfg.AI.OpenAI, def.AI.OpenAI)
	cfg.AI.Anthropic = fillProvider(cfg.AI.Anthropic, def.AI.Anthropic)
	cfg.AI.LMStudio = fillProvider(cfg.AI.LMStudio, def.AI.LMStudio)

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	cfg.Log.Mode = strings.ToUpper(strings.TrimSpace(cfg.Log.Mode))
	if cfg.Log.Mode != "JSON" {
		cfg.Log.Mode = def.Log.Mode
	}
	if strings.TrimSpace(cfg.Log.File) != "" {
		file, err := expandPath(cfg.Log.File)
		if err != nil {
			return err
		}
		cfg.Log.File = file
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = def.Log.MaxBackups
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = def.Log.MaxAgeDays
	}
	cfg.Lang = strings.TrimSpace(cfg.Lang)
	return nil
}

func fillProvider(cfg ProviderConfig, def ProviderConfig) ProviderConfig {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return cfg
}

// NormalizeProvider lower-cases a provider name and maps unknown values to ProviderNone.
func NormalizeProvider(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case ProviderOpenAI, ProviderAnthropic, ProviderLMStudio:
		return n
	default:
		return ProviderNone
	}
}

// Masked returns a copy with API keys reduced to their last four characters.
func (c Config) Masked() Config {
	out := c
	out.AI.OpenAI.APIKey = maskSecret(c.AI.OpenAI.APIKey)
	out.AI.Anthropic.APIKey = maskSecret(c.AI.Anthropic.APIKey)
	out.AI.LMStudio.APIKey = maskSecret(c.AI.LMStudio.APIKey)
	return out
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
