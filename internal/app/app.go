package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/common"
	"github.com/ternarybob/notiondigest/internal/interfaces"
	"github.com/ternarybob/notiondigest/internal/models"
	"github.com/ternarybob/notiondigest/internal/notion"
	"github.com/ternarybob/notiondigest/internal/services/llm"
	"github.com/ternarybob/notiondigest/internal/services/pipeline"
	"github.com/ternarybob/notiondigest/internal/services/scheduler"
	"github.com/ternarybob/notiondigest/internal/storage/badger"
)

// BackfillJobName is the scheduler job that runs one backfill pass
const BackfillJobName = "summary-backfill"

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	// Remote document store
	NotionClient *notion.Client

	// Summarisation
	Summarizer *llm.Summarizer

	// Backfill
	Driver *pipeline.Driver

	// Optional run history (nil unless storage.badger.enabled)
	RunStorage interfaces.RunStorage

	// Scheduler (created on demand by StartScheduler)
	SchedulerService interfaces.SchedulerService
}

// New wires the application from a validated config
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("database_id", cfg.Notion.DatabaseID).
		Str("summarizer", app.Summarizer.Name()).
		Bool("dry_run", cfg.Pipeline.DryRun).
		Bool("run_history", app.RunStorage != nil).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens the run history when enabled
func (a *App) initDatabase() error {
	if !a.Config.Storage.Badger.Enabled {
		return nil
	}

	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.RunStorage = badger.NewRunStorage(db, a.Logger)
	return nil
}

func (a *App) initServices() error {
	notionTimeout, err := a.Config.NotionTimeout()
	if err != nil {
		return err
	}
	llmTimeout, err := a.Config.LLMTimeout()
	if err != nil {
		return err
	}

	// 1. Notion client
	a.NotionClient = notion.NewClient(a.Config.Notion.APIToken,
		notion.WithBaseURL(a.Config.Notion.BaseURL),
		notion.WithVersion(a.Config.Notion.Version),
		notion.WithTimeout(notionTimeout),
		notion.WithRateLimit(a.Config.Notion.RequestsPerSecond),
		notion.WithLogger(a.Logger),
	)

	// 2. Summarizer
	provider, err := llm.NewProvider(llm.ProviderConfig{
		Type:    llm.ProviderType(a.Config.LLM.Provider),
		APIKey:  a.Config.LLM.APIKey,
		BaseURL: a.Config.LLM.BaseURL,
		Timeout: llmTimeout,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	a.Summarizer = llm.NewSummarizer(provider, llm.SummarizerConfig{
		Model:           a.Config.LLM.Model,
		Temperature:     a.Config.LLM.Temperature,
		MaxOutputTokens: a.Config.LLM.MaxOutputTokens,
		SystemPrompt:    a.Config.LLM.SystemPrompt,
		Timeout:         llmTimeout,
	}, a.Logger)

	// 3. Driver with logging (and optional history) observers
	var recorder interfaces.PipelineObserver
	if a.RunStorage != nil {
		recorder = badger.NewRunRecorder(a.RunStorage, a.Logger)
	}
	observer := pipeline.NewMultiObserver(pipeline.NewLoggingObserver(a.Logger), recorder)

	a.Driver = pipeline.NewDriver(a.NotionClient, a.Summarizer, observer, pipeline.Config{
		DatabaseID:      a.Config.Notion.DatabaseID,
		TitleProperty:   a.Config.Notion.TitleProperty,
		SummaryProperty: a.Config.Notion.SummaryProperty,
		PageSize:        a.Config.Notion.PageSize,
		Labels: pipeline.Labels{
			Title: a.Config.Pipeline.TitleLabel,
			Body:  a.Config.Pipeline.BodyLabel,
		},
		DryRun:     a.Config.Pipeline.DryRun,
		MaxRecords: a.Config.Pipeline.MaxRecords,
	}, a.Logger)

	return nil
}

// RunOnce performs a single backfill pass
func (a *App) RunOnce(ctx context.Context) *models.RunReport {
	return a.Driver.Run(ctx)
}

// StartScheduler registers the backfill on the configured cron schedule and starts it.
// Scheduled runs stop early when the app is closed.
func (a *App) StartScheduler() error {
	svc := scheduler.NewService(a.Logger)
	if err := svc.RegisterJob(BackfillJobName, a.Config.Schedule.Cron, func() error {
		report := a.RunOnce(a.ctx)
		if report.Aborted {
			return fmt.Errorf("backfill aborted: %s", report.Error)
		}
		return nil
	}); err != nil {
		return err
	}
	if err := svc.Start(); err != nil {
		return err
	}
	a.SchedulerService = svc
	return nil
}

// LogRecentRuns logs the last runs from the history, if enabled
func (a *App) LogRecentRuns(ctx context.Context) {
	if a.RunStorage == nil || a.Config.Storage.Badger.HistoryLimit <= 0 {
		return
	}

	runs, err := a.RunStorage.ListRuns(ctx, a.Config.Storage.Badger.HistoryLimit)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to read run history")
		return
	}

	for _, run := range runs {
		a.Logger.Info().
			Str("run_id", run.RunID).
			Str("started_at", run.StartedAt.Format("2006-01-02 15:04:05")).
			Int("updated", run.Updated).
			Int("skipped", run.Skipped).
			Int("failed", run.Failed).
			Bool("aborted", run.Aborted).
			Msg("Previous run")
	}
}

// Close stops the scheduler and releases resources
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.Summarizer != nil {
		if err := a.Summarizer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close summarizer")
		}
	}

	if a.RunStorage != nil {
		if err := a.RunStorage.Close(); err != nil {
			return fmt.Errorf("failed to close run storage: %w", err)
		}
		a.Logger.Debug().Msg("Run storage closed")
	}

	return nil
}
