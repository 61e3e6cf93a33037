// Package pipeline runs the summary backfill: select records with an empty
// summary, rebuild their text, summarise it and write the result back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/common"
	"github.com/ternarybob/notiondigest/internal/interfaces"
	"github.com/ternarybob/notiondigest/internal/models"
	"github.com/ternarybob/notiondigest/internal/services/content"
	"github.com/ternarybob/notiondigest/internal/services/selector"
)

// ErrRunCancelled marks a run that stopped because its context ended
var ErrRunCancelled = errors.New("run cancelled")

// Config holds the database layout and run switches
type Config struct {
	DatabaseID      string
	TitleProperty   string
	SummaryProperty string
	PageSize        int
	Labels          Labels
	DryRun          bool // Summarise without writing back
	MaxRecords      int  // Process at most N candidates, 0 = all
}

// Driver sequences one backfill pass, one record at a time in selection order
type Driver struct {
	store      interfaces.DocumentStore
	summarizer interfaces.Summarizer
	observer   interfaces.PipelineObserver
	config     Config
	logger     arbor.ILogger
}

// NewDriver creates a driver. A nil observer logs progress through logger.
func NewDriver(
	store interfaces.DocumentStore,
	summarizer interfaces.Summarizer,
	observer interfaces.PipelineObserver,
	config Config,
	logger arbor.ILogger,
) *Driver {
	if config.Labels.Title == "" && config.Labels.Body == "" {
		config.Labels = DefaultLabels()
	}
	if observer == nil {
		observer = NewLoggingObserver(logger)
	}

	return &Driver{
		store:      store,
		summarizer: summarizer,
		observer:   observer,
		config:     config,
		logger:     logger,
	}
}

// Run performs one backfill pass and returns its report.
// Cancelling ctx or a panic inside the pass marks the report aborted;
// Run itself never panics.
func (d *Driver) Run(ctx context.Context) (report *models.RunReport) {
	report = &models.RunReport{
		RunID:     common.NewRunID(),
		StartedAt: time.Now(),
	}
	logger := d.logger.WithCorrelationId(report.RunID)

	defer func() {
		if r := recover(); r != nil {
			report.Aborted = true
			report.Error = fmt.Sprintf("panic: %v", r)
			logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.GetStackTrace()).
				Msg("Recovered from panic during summary backfill")
		}
		report.FinishedAt = time.Now()
		d.observer.RunFinished(report)
	}()

	d.observer.RunStarted(report.RunID)

	candidates := selector.NewSelector(d.store, d.config.DatabaseID, d.config.SummaryProperty, d.config.PageSize, logger).
		SelectCandidates(ctx)

	if d.config.MaxRecords > 0 && len(candidates) > d.config.MaxRecords {
		logger.Info().
			Int("selected", len(candidates)).
			Int("max_records", d.config.MaxRecords).
			Msg("Limiting run to the first candidates")
		candidates = candidates[:d.config.MaxRecords]
	}

	report.Candidates = len(candidates)
	d.observer.CandidatesFound(len(candidates))

	aggregator := content.NewAggregator(d.store, d.config.PageSize, logger)

	for i, page := range candidates {
		if err := ctx.Err(); err != nil {
			d.abort(report, logger, err)
			return report
		}

		outcome := d.processRecord(ctx, logger, aggregator, i+1, len(candidates), page)

		// A record interrupted by cancellation is left for the next run
		if err := ctx.Err(); err != nil && outcome.Status != models.OutcomeUpdated {
			d.abort(report, logger, err)
			return report
		}

		report.Record(outcome)
		switch outcome.Status {
		case models.OutcomeUpdated:
			d.observer.RecordUpdated(outcome)
		case models.OutcomeFailed:
			d.observer.RecordFailed(outcome)
		default:
			d.observer.RecordSkipped(outcome)
		}
	}

	return report
}

func (d *Driver) abort(report *models.RunReport, logger arbor.ILogger, cause error) {
	report.Aborted = true
	report.Error = fmt.Errorf("%w: %v", ErrRunCancelled, cause).Error()
	logger.Warn().
		Err(cause).
		Int("processed", report.Processed()).
		Int("candidates", report.Candidates).
		Msg("Summary backfill interrupted")
}

// processRecord walks one candidate through re-check, aggregate, combine,
// summarize and persist
func (d *Driver) processRecord(
	ctx context.Context,
	logger arbor.ILogger,
	aggregator *content.Aggregator,
	index, total int,
	page *models.Page,
) models.RecordOutcome {
	title := page.TitleText(d.config.TitleProperty)
	outcome := models.RecordOutcome{
		PageID: page.ID,
		Title:  title,
	}
	d.observer.RecordStarted(index, total, page, title)

	if strings.TrimSpace(d.currentSummary(ctx, logger, page)) != "" {
		return skipped(outcome, models.SkipAlreadySummarized)
	}

	body := content.JoinLines(aggregator.Aggregate(ctx, page.ID))

	combined := BuildCombinedText(d.config.Labels, title, body)
	if strings.TrimSpace(combined) == "" {
		return skipped(outcome, models.SkipEmptyContent)
	}

	summary, err := d.summarizer.Summarize(ctx, combined)
	summary = strings.TrimSpace(summary)
	if err != nil || summary == "" {
		outcome = skipped(outcome, models.SkipEmptySummary)
		if err != nil {
			outcome.Error = err.Error()
		}
		return outcome
	}
	outcome.Summary = summary

	if d.config.DryRun {
		return skipped(outcome, models.SkipDryRun)
	}

	if _, err := d.store.UpdateRichTextProperty(ctx, page.ID, d.config.SummaryProperty,
		[]models.RichText{models.NewTextRun(summary)}); err != nil {
		outcome.Status = models.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Status = models.OutcomeUpdated
	return outcome
}

// currentSummary re-reads the record so a summary written since selection
// is not overwritten. Falls back to the selection snapshot if the read fails.
func (d *Driver) currentSummary(ctx context.Context, logger arbor.ILogger, page *models.Page) string {
	fresh, err := d.store.RetrievePage(ctx, page.ID)
	if err != nil || fresh == nil {
		logger.Warn().
			Str("page_id", page.ID).
			Err(err).
			Msg("Re-check failed, using selection snapshot")
		return page.RichTextValue(d.config.SummaryProperty)
	}
	return fresh.RichTextValue(d.config.SummaryProperty)
}

func skipped(outcome models.RecordOutcome, reason models.SkipReason) models.RecordOutcome {
	outcome.Status = models.OutcomeSkipped
	outcome.SkipReason = reason
	return outcome
}
