// Package selector finds the database rows whose summary property is still empty.
package selector

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/interfaces"
	"github.com/ternarybob/notiondigest/internal/models"
)

// DefaultPageSize is the query page size used when none is configured.
const DefaultPageSize = 100

// Selector queries the document store for candidate pages
type Selector struct {
	store           interfaces.DocumentStore
	databaseID      string
	summaryProperty string
	pageSize        int
	logger          arbor.ILogger
}

// NewSelector creates a new candidate selector
func NewSelector(store interfaces.DocumentStore, databaseID, summaryProperty string, pageSize int, logger arbor.ILogger) *Selector {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Selector{
		store:           store,
		databaseID:      databaseID,
		summaryProperty: summaryProperty,
		pageSize:        pageSize,
		logger:          logger,
	}
}

// EmptySummaryFilter is the database filter matching rows with an empty summary property
func EmptySummaryFilter(property string) map[string]interface{} {
	return map[string]interface{}{
		"property": property,
		"rich_text": map[string]interface{}{
			"equals": "",
		},
	}
}

// SelectCandidates returns every page with an empty summary, in store order.
// All pages of results are gathered before returning. A failed query ends
// pagination and the rows collected so far are returned.
func (s *Selector) SelectCandidates(ctx context.Context) []*models.Page {
	var candidates []*models.Page
	cursor := ""
	filter := EmptySummaryFilter(s.summaryProperty)

	for {
		list, err := s.store.QueryDatabase(ctx, s.databaseID, interfaces.DatabaseQuery{
			Filter:      filter,
			PageSize:    s.pageSize,
			StartCursor: cursor,
		})
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("collected", len(candidates)).
				Msg("Candidate query failed, continuing with partial result")
			return candidates
		}

		for _, page := range list.Results {
			if page != nil {
				candidates = append(candidates, page)
			}
		}

		s.logger.Debug().
			Int("fetched", len(list.Results)).
			Bool("has_more", list.HasMore).
			Msg("Candidate query page received")

		cursor = list.Cursor()
		if !list.HasMore || cursor == "" {
			return candidates
		}
	}
}
