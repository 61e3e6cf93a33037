package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/notiondigest/internal/models"
)

// ErrRunNotFound is returned when a run id is not in the history
var ErrRunNotFound = errors.New("run not found")

// RunStorage keeps a history of backfill runs for inspection.
// It is never consulted when selecting candidates.
type RunStorage interface {
	// SaveRun inserts or replaces a run report
	SaveRun(ctx context.Context, report *models.RunReport) error

	// GetRun returns a run by id, or ErrRunNotFound
	GetRun(ctx context.Context, runID string) (*models.RunReport, error)

	// ListRuns returns the most recent runs, newest first
	ListRuns(ctx context.Context, limit int) ([]*models.RunReport, error)

	// Close releases the underlying store
	Close() error
}
