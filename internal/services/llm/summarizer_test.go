package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeProvider struct {
	text     string
	err      error
	requests []*ContentRequest
	delay    time.Duration
}

func (f *fakeProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	f.requests = append(f.requests, request)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ContentResponse{Text: f.text, Provider: ProviderDeepSeek}, nil
}

func (f *fakeProvider) GetProviderType() ProviderType { return ProviderDeepSeek }
func (f *fakeProvider) Close() error                  { return nil }

func TestSummarizer_BuildsRequest(t *testing.T) {
	provider := &fakeProvider{text: "\n OpenAIが新モデルを発表 \n"}
	summarizer := NewSummarizer(provider, SummarizerConfig{Temperature: 0.7}, arbor.NewLogger())

	summary, err := summarizer.Summarize(context.Background(), "【タイトル】\nNews\n\n【本文】\nbody")
	require.NoError(t, err)
	assert.Equal(t, "OpenAIが新モデルを発表", summary)

	require.Len(t, provider.requests, 1, "exactly one attempt")
	req := provider.requests[0]
	assert.Equal(t, DefaultSystemPrompt, req.SystemInstruction)
	assert.True(t, strings.HasPrefix(req.Prompt, UserPromptPrefix))
	assert.True(t, strings.HasSuffix(req.Prompt, "【本文】\nbody"))
	assert.Equal(t, DefaultDeepSeekModel, req.Model)
	assert.Equal(t, 200, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 0.0001)
	assert.Equal(t, "deepseek/deepseek-chat", summarizer.Name())
}

func TestSummarizer_ZeroTemperatureIsKept(t *testing.T) {
	provider := &fakeProvider{text: "ok"}
	summarizer := NewSummarizer(provider, SummarizerConfig{Temperature: 0}, arbor.NewLogger())

	_, err := summarizer.Summarize(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, provider.requests, 1)
	assert.Zero(t, provider.requests[0].Temperature)
}

func TestSummarizer_CustomPromptAndModel(t *testing.T) {
	provider := &fakeProvider{text: "ok"}
	summarizer := NewSummarizer(provider, SummarizerConfig{
		Model:           "deepseek-reasoner",
		SystemPrompt:    "Summarise in English.",
		MaxOutputTokens: 64,
	}, arbor.NewLogger())

	_, err := summarizer.Summarize(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "Summarise in English.", provider.requests[0].SystemInstruction)
	assert.Equal(t, "deepseek-reasoner", provider.requests[0].Model)
	assert.Equal(t, 64, provider.requests[0].MaxTokens)
}

func TestSummarizer_EmptyAnswer(t *testing.T) {
	summarizer := NewSummarizer(&fakeProvider{text: "  \n\t"}, SummarizerConfig{}, arbor.NewLogger())

	summary, err := summarizer.Summarize(context.Background(), "text")
	assert.Equal(t, "", summary)
	assert.ErrorIs(t, err, ErrEmptySummary)
}

func TestSummarizer_ProviderError(t *testing.T) {
	providerErr := &ProviderError{Provider: ProviderDeepSeek, StatusCode: 500, Message: "boom"}
	provider := &fakeProvider{err: providerErr}
	summarizer := NewSummarizer(provider, SummarizerConfig{}, arbor.NewLogger())

	summary, err := summarizer.Summarize(context.Background(), "text")
	assert.Equal(t, "", summary)

	var got *ProviderError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 500, got.StatusCode)
	assert.Len(t, provider.requests, 1, "no retries")
}

func TestSummarizer_Timeout(t *testing.T) {
	provider := &fakeProvider{text: "late", delay: time.Second}
	summarizer := NewSummarizer(provider, SummarizerConfig{Timeout: 20 * time.Millisecond}, arbor.NewLogger())

	_, err := summarizer.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
