package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderDeepSeek uses the DeepSeek chat completions API
	ProviderDeepSeek ProviderType = "deepseek"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
)

// Default models per provider
const (
	DefaultDeepSeekModel = "deepseek-chat"
	DefaultClaudeModel   = "claude-sonnet-4-20250514"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// DefaultTimeout bounds a single summarisation request
const DefaultTimeout = 60 * time.Second

// ContentRequest represents a provider-agnostic single-turn generation request
type ContentRequest struct {
	SystemInstruction string
	Prompt            string
	Model             string
	Temperature       float32
	MaxTokens         int
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// Provider defines the interface for AI content generation
type Provider interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	GetProviderType() ProviderType
	Close() error
}

// ProviderConfig holds the connection settings shared by all providers
type ProviderConfig struct {
	Type    ProviderType
	APIKey  string
	BaseURL string        // Empty uses the provider's public endpoint
	Timeout time.Duration // Per-request HTTP timeout
}

// DefaultModel returns the default model for a provider
func DefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderClaude:
		return DefaultClaudeModel
	case ProviderGemini:
		return DefaultGeminiModel
	default:
		return DefaultDeepSeekModel
	}
}

// NewProvider creates the provider selected by config.Type
func NewProvider(config ProviderConfig, logger arbor.ILogger) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %q", config.Type)
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	switch config.Type {
	case ProviderDeepSeek, "":
		return NewDeepSeekProvider(config, logger), nil
	case ProviderClaude:
		return NewClaudeProvider(config, logger), nil
	case ProviderGemini:
		return NewGeminiProvider(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Type)
	}
}
