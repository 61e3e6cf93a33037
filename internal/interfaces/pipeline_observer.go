package interfaces

import "github.com/ternarybob/notiondigest/internal/models"

// PipelineObserver receives checkpoint callbacks from the backfill driver.
// Implementations must not block for long; they run on the driver's goroutine.
type PipelineObserver interface {
	// RunStarted fires once before candidate selection
	RunStarted(runID string)

	// CandidatesFound fires once after selection with the full candidate count
	CandidatesFound(count int)

	// RecordStarted fires before a candidate is re-checked (index is 1-based)
	RecordStarted(index, total int, page *models.Page, title string)

	// RecordSkipped fires when a candidate ends without a write
	RecordSkipped(outcome models.RecordOutcome)

	// RecordUpdated fires after the summary was persisted
	RecordUpdated(outcome models.RecordOutcome)

	// RecordFailed fires when persisting the summary failed
	RecordFailed(outcome models.RecordOutcome)

	// RunFinished fires once with the final report, including aborted runs
	RunFinished(report *models.RunReport)
}
