package llm

import (
	"errors"
	"fmt"
)

// ErrEmptySummary is returned when the model answered with no usable text
var ErrEmptySummary = errors.New("model returned an empty summary")

// ProviderError represents a failed call to a model provider
type ProviderError struct {
	Provider   ProviderType
	StatusCode int // 0 when the failure happened before a response arrived
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
