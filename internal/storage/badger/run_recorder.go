package badger

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/interfaces"
	"github.com/ternarybob/notiondigest/internal/models"
)

// saveTimeout bounds the write of a finished run
const saveTimeout = 10 * time.Second

// RunRecorder is a pipeline observer that stores each finished run.
// Only RunFinished does work; a failed save is logged and never affects the run.
type RunRecorder struct {
	storage interfaces.RunStorage
	logger  arbor.ILogger
}

var _ interfaces.PipelineObserver = (*RunRecorder)(nil)

// NewRunRecorder creates a recorder writing to storage
func NewRunRecorder(storage interfaces.RunStorage, logger arbor.ILogger) *RunRecorder {
	return &RunRecorder{storage: storage, logger: logger}
}

func (r *RunRecorder) RunStarted(runID string)                                        {}
func (r *RunRecorder) CandidatesFound(count int)                                      {}
func (r *RunRecorder) RecordStarted(index, total int, page *models.Page, title string) {}
func (r *RunRecorder) RecordSkipped(outcome models.RecordOutcome)                     {}
func (r *RunRecorder) RecordUpdated(outcome models.RecordOutcome)                     {}
func (r *RunRecorder) RecordFailed(outcome models.RecordOutcome)                      {}

// RunFinished persists the report
func (r *RunRecorder) RunFinished(report *models.RunReport) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := r.storage.SaveRun(ctx, report); err != nil {
		r.logger.Warn().
			Err(err).
			Str("run_id", report.RunID).
			Msg("Failed to record run history")
		return
	}

	r.logger.Debug().
		Str("run_id", report.RunID).
		Msg("Run history recorded")
}
