// Package content flattens a page body (a paginated block tree) into ordered text lines.
package content

import "github.com/ternarybob/notiondigest/internal/models"

// ExtractBlockText returns the text of one block as zero or one line.
// A block contributes text only when the sub-structure named by its type
// exists and carries rich text with at least one non-empty run.
func ExtractBlockText(block *models.Block) []string {
	content, ok := block.TypeContent()
	if !ok || len(content.RichText) == 0 {
		return nil
	}

	line := models.PlainText(content.RichText)
	if line == "" {
		return nil
	}
	return []string{line}
}
