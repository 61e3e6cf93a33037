package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
)

// defaultClaudeMaxTokens applies when a request does not bound its output
const defaultClaudeMaxTokens = 1024

// ClaudeProvider generates summaries with the Anthropic Messages API
type ClaudeProvider struct {
	client anthropic.Client
	logger arbor.ILogger
}

var _ Provider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a Claude provider
func NewClaudeProvider(config ProviderConfig, logger arbor.ILogger) *ClaudeProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(config.Timeout),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}

	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		logger: logger,
	}
}

// GenerateContent sends the prompt as a single user turn
func (p *ClaudeProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	model := request.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
		Temperature: anthropic.Float(float64(request.Temperature)),
	}
	if request.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemInstruction},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		providerErr := &ProviderError{Provider: ProviderClaude, Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			providerErr.StatusCode = apiErr.StatusCode
			providerErr.Message = apiErr.Error()
			p.logger.Warn().
				Int("status", apiErr.StatusCode).
				Str("model", model).
				Msg("Claude API returned an error")
		}
		return nil, providerErr
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &ContentResponse{
		Text:     text.String(),
		Provider: ProviderClaude,
		Model:    model,
	}, nil
}

// GetProviderType returns ProviderClaude
func (p *ClaudeProvider) GetProviderType() ProviderType {
	return ProviderClaude
}

// Close is a no-op; the Anthropic client holds no resources
func (p *ClaudeProvider) Close() error {
	return nil
}
