package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/interfaces"
)

// SummarizerConfig controls the generation parameters of each summary request
type SummarizerConfig struct {
	Model           string        // Empty uses the provider default
	Temperature     float32       // Sampling temperature, 0 is honoured (config supplies the 0.7 default)
	MaxOutputTokens int           // Output bound (default 200)
	SystemPrompt    string        // Empty uses DefaultSystemPrompt
	Timeout         time.Duration // Bound for one request including reading the body
}

// Summarizer sends one request per record through a Provider.
// There are no retries; a failed or empty answer is reported as an error.
type Summarizer struct {
	provider Provider
	config   SummarizerConfig
	logger   arbor.ILogger
}

var _ interfaces.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a summarizer over the given provider
func NewSummarizer(provider Provider, config SummarizerConfig, logger arbor.ILogger) *Summarizer {
	if config.Model == "" {
		config.Model = DefaultModel(provider.GetProviderType())
	}
	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = 200
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	config.SystemPrompt = resolveSystemPrompt(config.SystemPrompt)
	if logger == nil {
		logger = arbor.NewLogger()
	}

	return &Summarizer{
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// Name returns provider/model for logs
func (s *Summarizer) Name() string {
	return fmt.Sprintf("%s/%s", s.provider.GetProviderType(), s.config.Model)
}

// Summarize returns the trimmed summary of text.
// Returns ErrEmptySummary when the model produced only whitespace.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := s.provider.GenerateContent(ctx, &ContentRequest{
		SystemInstruction: s.config.SystemPrompt,
		Prompt:            BuildUserPrompt(text),
		Model:             s.config.Model,
		Temperature:       s.config.Temperature,
		MaxTokens:         s.config.MaxOutputTokens,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("model", s.Name()).
			Dur("duration", time.Since(startTime)).
			Msg("Summary request failed")
		return "", err
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", ErrEmptySummary
	}

	s.logger.Debug().
		Str("model", s.Name()).
		Int("input_length", len(text)).
		Int("summary_length", len([]rune(summary))).
		Dur("duration", time.Since(startTime)).
		Msg("Summary generated")

	return summary, nil
}

// Close releases the underlying provider
func (s *Summarizer) Close() error {
	return s.provider.Close()
}
