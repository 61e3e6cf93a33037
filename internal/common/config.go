package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Notion      NotionConfig   `toml:"notion"`
	LLM         LLMConfig      `toml:"llm"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
}

// NotionConfig contains the document store connection and database layout
type NotionConfig struct {
	APIToken          string  `toml:"api_token" validate:"required"`                // Integration secret
	DatabaseID        string  `toml:"database_id" validate:"required"`              // Database holding the records
	BaseURL           string  `toml:"base_url" validate:"required,url"`             // API base URL (default: https://api.notion.com)
	Version           string  `toml:"version" validate:"required"`                  // Notion-Version header (default: 2022-06-28)
	Timeout           string  `toml:"timeout" validate:"required"`                  // HTTP timeout as duration string (default: "30s")
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`         // Request pacing, 0 disables (default: 0)
	PageSize          int     `toml:"page_size" validate:"min=1,max=100"`           // Results per query/children page (default: 100)
	TitleProperty     string  `toml:"title_property" validate:"required"`           // Title property name (default: "Article Title")
	SummaryProperty   string  `toml:"summary_property" validate:"required"`         // Rich text property to fill (default: "Article Summary")
}

// LLMProvider represents the summarisation model provider
type LLMProvider string

const (
	// LLMProviderDeepSeek uses the DeepSeek chat completions API
	LLMProviderDeepSeek LLMProvider = "deepseek"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig contains summarisation model configuration
type LLMConfig struct {
	Provider        LLMProvider `toml:"provider" validate:"oneof=deepseek claude gemini"` // Provider (default: "deepseek")
	APIKey          string      `toml:"api_key" validate:"required"`                     // Provider API key
	Model           string      `toml:"model"`                                           // Model name, empty uses the provider default
	BaseURL         string      `toml:"base_url" validate:"omitempty,url"`               // Override endpoint base URL
	Temperature     float32     `toml:"temperature" validate:"gte=0,lte=2"`              // Sampling temperature (default: 0.7)
	MaxOutputTokens int         `toml:"max_output_tokens" validate:"min=1"`              // Output bound (default: 200)
	Timeout         string      `toml:"timeout" validate:"required"`                     // Request timeout (default: "60s")
	SystemPrompt    string      `toml:"system_prompt"`                                   // Replaces the built-in style instruction when set
}

// PipelineConfig contains backfill behaviour switches
type PipelineConfig struct {
	DryRun     bool   `toml:"dry_run"`                      // Summarise but never write back
	MaxRecords int    `toml:"max_records" validate:"gte=0"` // Stop after N candidates, 0 = all
	TitleLabel string `toml:"title_label"`                  // Section label preceding the title
	BodyLabel  string `toml:"body_label"`                   // Section label preceding the body
}

// ScheduleConfig contains the cron trigger used with -schedule
type ScheduleConfig struct {
	Cron string `toml:"cron"` // 5-field cron expression, minimum 5-minute interval
}

// StorageConfig contains local storage configuration
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents the optional run-history store
type BadgerConfig struct {
	Enabled        bool   `toml:"enabled"`                        // Keep a history of runs (default: false)
	Path           string `toml:"path"`                           // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`               // Delete database on startup
	HistoryLimit   int    `toml:"history_limit" validate:"gte=0"` // Runs listed at startup
}

// LoggingConfig contains arbor writer configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// NewDefaultConfig creates a configuration with default values.
// Secrets have no defaults and must come from a file or the environment.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Notion: NotionConfig{
			BaseURL:           "https://api.notion.com",
			Version:           "2022-06-28",
			Timeout:           "30s",
			RequestsPerSecond: 0,
			PageSize:          100,
			TitleProperty:     "Article Title",
			SummaryProperty:   "Article Summary",
		},
		LLM: LLMConfig{
			Provider:        LLMProviderDeepSeek,
			Model:           "",
			Temperature:     0.7,
			MaxOutputTokens: 200,
			Timeout:         "60s",
		},
		Pipeline: PipelineConfig{
			DryRun:     false,
			MaxRecords: 0,
			TitleLabel: "【タイトル】",
			BodyLabel:  "【本文】",
		},
		Schedule: ScheduleConfig{
			Cron: "0 6 * * *", // Daily at 06:00
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Enabled:      false,
				Path:         "./data/runs",
				HistoryLimit: 5,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. {ENV_NAME} values are expanded after the files are merged.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := ExpandEnvReferences(config, EnvironMap()); err != nil {
		return nil, fmt.Errorf("failed to expand environment references: %w", err)
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// NOTIONDIGEST_* names take priority over the conventional provider names.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NOTIONDIGEST_ENV"); env != "" {
		config.Environment = env
	}

	// Notion configuration
	if token := firstEnv("NOTIONDIGEST_NOTION_API_TOKEN", "NOTION_API_TOKEN"); token != "" {
		config.Notion.APIToken = token
	}
	if dbID := firstEnv("NOTIONDIGEST_NOTION_DATABASE_ID", "NOTION_DATABASE_ID"); dbID != "" {
		config.Notion.DatabaseID = dbID
	}
	if baseURL := os.Getenv("NOTIONDIGEST_NOTION_BASE_URL"); baseURL != "" {
		config.Notion.BaseURL = baseURL
	}
	if timeout := os.Getenv("NOTIONDIGEST_NOTION_TIMEOUT"); timeout != "" {
		config.Notion.Timeout = timeout
	}
	if rps := os.Getenv("NOTIONDIGEST_NOTION_REQUESTS_PER_SECOND"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			config.Notion.RequestsPerSecond = v
		}
	}
	if pageSize := os.Getenv("NOTIONDIGEST_NOTION_PAGE_SIZE"); pageSize != "" {
		if v, err := strconv.Atoi(pageSize); err == nil {
			config.Notion.PageSize = v
		}
	}
	if prop := os.Getenv("NOTIONDIGEST_NOTION_TITLE_PROPERTY"); prop != "" {
		config.Notion.TitleProperty = prop
	}
	if prop := os.Getenv("NOTIONDIGEST_NOTION_SUMMARY_PROPERTY"); prop != "" {
		config.Notion.SummaryProperty = prop
	}

	// LLM configuration (provider first, the key fallback depends on it)
	if provider := os.Getenv("NOTIONDIGEST_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(strings.ToLower(provider))
	}
	if apiKey := firstEnv("NOTIONDIGEST_LLM_API_KEY", providerKeyEnv(config.LLM.Provider)); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if model := os.Getenv("NOTIONDIGEST_LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if baseURL := os.Getenv("NOTIONDIGEST_LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if temperature := os.Getenv("NOTIONDIGEST_LLM_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.LLM.Temperature = float32(t)
		}
	}
	if maxTokens := os.Getenv("NOTIONDIGEST_LLM_MAX_OUTPUT_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.LLM.MaxOutputTokens = mt
		}
	}
	if timeout := os.Getenv("NOTIONDIGEST_LLM_TIMEOUT"); timeout != "" {
		config.LLM.Timeout = timeout
	}

	// Pipeline configuration
	if dryRun := os.Getenv("NOTIONDIGEST_PIPELINE_DRY_RUN"); dryRun != "" {
		if d, err := strconv.ParseBool(dryRun); err == nil {
			config.Pipeline.DryRun = d
		}
	}
	if maxRecords := os.Getenv("NOTIONDIGEST_PIPELINE_MAX_RECORDS"); maxRecords != "" {
		if m, err := strconv.Atoi(maxRecords); err == nil {
			config.Pipeline.MaxRecords = m
		}
	}

	// Schedule configuration
	if cronExpr := os.Getenv("NOTIONDIGEST_SCHEDULE_CRON"); cronExpr != "" {
		config.Schedule.Cron = cronExpr
	}

	// Storage configuration
	if enabled := os.Getenv("NOTIONDIGEST_STORAGE_BADGER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Storage.Badger.Enabled = e
		}
	}
	if path := os.Getenv("NOTIONDIGEST_STORAGE_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	// Logging configuration
	if level := os.Getenv("NOTIONDIGEST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("NOTIONDIGEST_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// providerKeyEnv returns the conventional API key variable for a provider
func providerKeyEnv(provider LLMProvider) string {
	switch provider {
	case LLMProviderClaude:
		return "ANTHROPIC_API_KEY"
	case LLMProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "DEEPSEEK_API_KEY"
	}
}

// firstEnv returns the first non-empty environment variable among names
func firstEnv(names ...string) string {
	for _, name := range names {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks required secrets, ranges and duration strings
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := c.NotionTimeout(); err != nil {
		return err
	}
	if _, err := c.LLMTimeout(); err != nil {
		return err
	}
	return nil
}

// NotionTimeout parses notion.timeout
func (c *Config) NotionTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Notion.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid notion.timeout '%s': %w", c.Notion.Timeout, err)
	}
	return d, nil
}

// LLMTimeout parses llm.timeout
func (c *Config) LLMTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid llm.timeout '%s': %w", c.LLM.Timeout, err)
	}
	return d, nil
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Sanitized returns a copy of the config with secrets masked, for logging
func (c *Config) Sanitized() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	if len(c.Logging.Output) > 0 {
		clone.Logging.Output = make([]string, len(c.Logging.Output))
		copy(clone.Logging.Output, c.Logging.Output)
	}
	clone.Notion.APIToken = maskSecret(c.Notion.APIToken)
	clone.LLM.APIKey = maskSecret(c.LLM.APIKey)
	return &clone
}

// maskSecret keeps the last four characters of long secrets
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
