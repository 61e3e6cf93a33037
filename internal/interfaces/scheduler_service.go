package interfaces

import "time"

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name      string
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService manages cron-based triggering of backfill runs
type SchedulerService interface {
	// RegisterJob registers a named job on a cron schedule
	RegisterJob(name string, schedule string, handler func() error) error

	// Start begins dispatching registered jobs
	Start() error

	// Stop halts the scheduler and waits for a running job to finish
	Stop() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// TriggerJob runs a registered job immediately
	TriggerJob(name string) error

	// GetJobStatus returns the status of a specific job
	GetJobStatus(name string) (*JobStatus, error)
}
