package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// GeminiProvider generates summaries with the Google Gemini API.
// The client is created on first use since construction needs a context.
type GeminiProvider struct {
	config ProviderConfig
	logger arbor.ILogger

	mu     sync.Mutex
	client *genai.Client
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(config ProviderConfig, logger arbor.ILogger) *GeminiProvider {
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &GeminiProvider{
		config: config,
		logger: logger,
	}
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	timeout := p.config.Timeout
	clientConfig := &genai.ClientConfig{
		APIKey:  p.config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: p.config.BaseURL,
			Timeout: &timeout,
		},
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

// GenerateContent sends the prompt as a single user turn
func (p *GeminiProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Err: err}
	}

	model := request.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(request.Temperature),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}
	if request.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemInstruction, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(request.Prompt, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		providerErr := &ProviderError{Provider: ProviderGemini, Err: err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			providerErr.StatusCode = apiErr.Code
			providerErr.Message = apiErr.Message
			p.logger.Warn().
				Int("status", apiErr.Code).
				Str("model", model).
				Msg("Gemini API returned an error")
		}
		return nil, providerErr
	}

	return &ContentResponse{
		Text:     resp.Text(),
		Provider: ProviderGemini,
		Model:    model,
	}, nil
}

// GetProviderType returns ProviderGemini
func (p *GeminiProvider) GetProviderType() ProviderType {
	return ProviderGemini
}

// Close drops the cached client
func (p *GeminiProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = nil
	return nil
}
