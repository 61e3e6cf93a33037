package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCombinedText(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		body     string
		expected string
	}{
		{"title and body", "Title", "line1\nline2", "【タイトル】\nTitle\n\n【本文】\nline1\nline2\n"},
		{"title only", "Title", "", "【タイトル】\nTitle\n"},
		{"body only", "", "line1", "\n【本文】\nline1\n"},
		{"whitespace title is dropped", "  \n", "line1", "\n【本文】\nline1\n"},
		{"both blank", " ", "\n\t", ""},
		{"text is not trimmed", " Title ", "", "【タイトル】\n Title \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildCombinedText(DefaultLabels(), tt.title, tt.body))
		})
	}
}
