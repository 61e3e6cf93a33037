package interfaces

import (
	"context"

	"github.com/ternarybob/notiondigest/internal/models"
)

// DatabaseQuery is a filtered, paginated database query
type DatabaseQuery struct {
	// Filter is sent verbatim as the query filter object
	Filter map[string]interface{}

	// PageSize bounds the number of results per page (1-100)
	PageSize int

	// StartCursor continues a previous query; empty for the first page
	StartCursor string
}

// DocumentStore is the remote hierarchical document store (Notion).
// Every method returns an error for non-2xx responses and transport failures;
// callers decide whether to degrade or abort.
type DocumentStore interface {
	// QueryDatabase returns one page of database rows matching the query
	QueryDatabase(ctx context.Context, databaseID string, query DatabaseQuery) (*models.PageList, error)

	// ListBlockChildren returns one page of the direct children of a block or page
	ListBlockChildren(ctx context.Context, blockID string, pageSize int, cursor string) (*models.BlockList, error)

	// RetrievePage returns the current state of a page and its properties
	RetrievePage(ctx context.Context, pageID string) (*models.Page, error)

	// UpdateRichTextProperty replaces a rich_text property with the given runs
	UpdateRichTextProperty(ctx context.Context, pageID string, property string, value []models.RichText) (*models.Page, error)
}
