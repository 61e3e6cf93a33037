package interfaces

import "context"

// Summarizer turns combined title/body text into a short abstractive summary.
// Implementations make a single attempt; an error or an empty string both mean
// "no summary produced".
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)

	// Name identifies the provider and model for logs
	Name() string
}
