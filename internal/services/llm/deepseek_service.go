package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
)

// DefaultDeepSeekBaseURL is the public DeepSeek API endpoint
const DefaultDeepSeekBaseURL = "https://api.deepseek.com"

// maxErrorBody caps how much of an error response is kept for diagnostics
const maxErrorBody = 2048

// DeepSeekProvider calls the OpenAI-compatible DeepSeek chat completions API
type DeepSeekProvider struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

var _ Provider = (*DeepSeekProvider)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewDeepSeekProvider creates a DeepSeek provider
func NewDeepSeekProvider(config ProviderConfig, logger arbor.ILogger) *DeepSeekProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultDeepSeekBaseURL
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &DeepSeekProvider{
		endpoint:   strings.TrimRight(baseURL, "/") + "/chat/completions",
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// GenerateContent sends one system+user exchange and returns the first choice
func (p *DeepSeekProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	model := request.Model
	if model == "" {
		model = DefaultDeepSeekModel
	}

	messages := make([]chatMessage, 0, 2)
	if request.SystemInstruction != "" {
		messages = append(messages, chatMessage{Role: "system", Content: request.SystemInstruction})
	}
	messages = append(messages, chatMessage{Role: "user", Content: request.Prompt})

	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderDeepSeek, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderDeepSeek, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := string(body)
		if len(message) > maxErrorBody {
			message = message[:maxErrorBody]
		}
		p.logger.Warn().
			Int("status", resp.StatusCode).
			Str("model", model).
			Msg("DeepSeek API returned an error")
		return nil, &ProviderError{Provider: ProviderDeepSeek, StatusCode: resp.StatusCode, Message: message}
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &ProviderError{Provider: ProviderDeepSeek, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}

	text := ""
	if len(decoded.Choices) > 0 {
		text = decoded.Choices[0].Message.Content
	}

	return &ContentResponse{
		Text:     text,
		Provider: ProviderDeepSeek,
		Model:    model,
	}, nil
}

// GetProviderType returns ProviderDeepSeek
func (p *DeepSeekProvider) GetProviderType() ProviderType {
	return ProviderDeepSeek
}

// Close releases idle connections
func (p *DeepSeekProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
