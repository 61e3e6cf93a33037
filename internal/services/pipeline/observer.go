package pipeline

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/interfaces"
	"github.com/ternarybob/notiondigest/internal/models"
)

// LoggingObserver writes run progress to the logger
type LoggingObserver struct {
	logger arbor.ILogger
}

var _ interfaces.PipelineObserver = (*LoggingObserver)(nil)

// NewLoggingObserver creates an observer that logs every checkpoint
func NewLoggingObserver(logger arbor.ILogger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) RunStarted(runID string) {
	o.logger.Info().
		Str("run_id", runID).
		Msg("Summary backfill started")
}

func (o *LoggingObserver) CandidatesFound(count int) {
	o.logger.Info().
		Int("candidates", count).
		Msg("Selected records with an empty summary")
}

func (o *LoggingObserver) RecordStarted(index, total int, page *models.Page, title string) {
	o.logger.Info().
		Str("page_id", page.ID).
		Str("title", title).
		Msgf("[%d/%d] Processing record", index, total)
}

func (o *LoggingObserver) RecordSkipped(outcome models.RecordOutcome) {
	event := o.logger.Info().
		Str("page_id", outcome.PageID).
		Str("reason", string(outcome.SkipReason))
	if outcome.Summary != "" {
		event.Str("summary", outcome.Summary)
	}
	if outcome.Error != "" {
		event.Str("error", outcome.Error)
	}
	event.Msg("Record skipped")
}

func (o *LoggingObserver) RecordUpdated(outcome models.RecordOutcome) {
	o.logger.Info().
		Str("page_id", outcome.PageID).
		Str("summary", outcome.Summary).
		Msg("Summary written")
}

func (o *LoggingObserver) RecordFailed(outcome models.RecordOutcome) {
	o.logger.Warn().
		Str("page_id", outcome.PageID).
		Str("error", outcome.Error).
		Msg("Failed to write summary")
}

func (o *LoggingObserver) RunFinished(report *models.RunReport) {
	event := o.logger.Info()
	if report.Aborted {
		event = o.logger.Warn()
		event.Str("error", report.Error)
	}
	event.
		Str("run_id", report.RunID).
		Int("candidates", report.Candidates).
		Dur("duration", report.Duration()).
		Bool("aborted", report.Aborted).
		Msgf("Summary backfill finished => Updated=%d, Skipped=%d, Failed=%d",
			report.Updated, report.Skipped, report.Failed)
}

// MultiObserver fans each checkpoint out to several observers in order
type MultiObserver []interfaces.PipelineObserver

var _ interfaces.PipelineObserver = MultiObserver(nil)

// NewMultiObserver drops nil entries
func NewMultiObserver(observers ...interfaces.PipelineObserver) MultiObserver {
	out := make(MultiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m MultiObserver) RunStarted(runID string) {
	for _, o := range m {
		o.RunStarted(runID)
	}
}

func (m MultiObserver) CandidatesFound(count int) {
	for _, o := range m {
		o.CandidatesFound(count)
	}
}

func (m MultiObserver) RecordStarted(index, total int, page *models.Page, title string) {
	for _, o := range m {
		o.RecordStarted(index, total, page, title)
	}
}

func (m MultiObserver) RecordSkipped(outcome models.RecordOutcome) {
	for _, o := range m {
		o.RecordSkipped(outcome)
	}
}

func (m MultiObserver) RecordUpdated(outcome models.RecordOutcome) {
	for _, o := range m {
		o.RecordUpdated(outcome)
	}
}

func (m MultiObserver) RecordFailed(outcome models.RecordOutcome) {
	for _, o := range m {
		o.RecordFailed(outcome)
	}
}

func (m MultiObserver) RunFinished(report *models.RunReport) {
	for _, o := range m {
		o.RunFinished(report)
	}
}
