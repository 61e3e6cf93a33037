package pipeline

import "strings"

// Default section labels for the combined model input
const (
	DefaultTitleLabel = "【タイトル】"
	DefaultBodyLabel  = "【本文】"
)

// Labels are the headings placed before the title and body sections
type Labels struct {
	Title string
	Body  string
}

// DefaultLabels returns the Japanese section labels
func DefaultLabels() Labels {
	return Labels{Title: DefaultTitleLabel, Body: DefaultBodyLabel}
}

// BuildCombinedText assembles the model input from a title and body.
// A section is included only when its trimmed text is non-empty; the text
// itself is kept untrimmed. Returns "" when both are blank.
func BuildCombinedText(labels Labels, title, body string) string {
	var sb strings.Builder
	if strings.TrimSpace(title) != "" {
		sb.WriteString(labels.Title)
		sb.WriteString("\n")
		sb.WriteString(title)
		sb.WriteString("\n")
	}
	if strings.TrimSpace(body) != "" {
		sb.WriteString("\n")
		sb.WriteString(labels.Body)
		sb.WriteString("\n")
		sb.WriteString(body)
		sb.WriteString("\n")
	}
	return sb.String()
}
