package models

import "time"

// OutcomeStatus is the terminal state of one record in a run
type OutcomeStatus string

const (
	OutcomeUpdated OutcomeStatus = "updated"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// SkipReason explains why a record was not written
type SkipReason string

const (
	SkipAlreadySummarized SkipReason = "already_summarized"
	SkipEmptyContent      SkipReason = "empty_content"
	SkipEmptySummary      SkipReason = "empty_summary"
	SkipDryRun            SkipReason = "dry_run"
)

// RecordOutcome is the result of processing one candidate page
type RecordOutcome struct {
	PageID     string        `json:"page_id"`
	Title      string        `json:"title,omitempty"`
	Status     OutcomeStatus `json:"status"`
	SkipReason SkipReason    `json:"skip_reason,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// RunReport aggregates the outcomes of one backfill pass.
// Failed persistence is tracked separately from Skipped.
type RunReport struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Candidates int             `json:"candidates"`
	Updated    int             `json:"updated"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Aborted    bool            `json:"aborted"`
	Error      string          `json:"error,omitempty"`
	Outcomes   []RecordOutcome `json:"outcomes,omitempty"`
}

// Record tallies an outcome into the report counters
func (r *RunReport) Record(outcome RecordOutcome) {
	switch outcome.Status {
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// Processed returns the number of candidates that reached a terminal state
func (r *RunReport) Processed() int {
	return r.Updated + r.Skipped + r.Failed
}

// Duration returns the wall time of the run
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
