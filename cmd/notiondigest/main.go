package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/app"
	"github.com/ternarybob/notiondigest/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths // Multiple -config flags supported
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
	schedule     = flag.Bool("schedule", false, "Run on the [schedule] cron expression instead of once")
	dryRun       = flag.Bool("dry-run", false, "Summarise without writing back (overrides config)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("NotionDigest version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	common.LoadVersionFromFile()

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("notiondigest.toml"); err == nil {
			configFiles = append(configFiles, "notiondigest.toml")
		}
	}

	// 1. Load configuration (default -> file1 -> file2 -> ... -> env -> CLI)
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}
	if *dryRun {
		config.Pipeline.DryRun = true
	}

	// 2. Initialize logger with final configuration
	logger := common.InitLogger(config)
	common.InstallCrashHandler("")
	if logFile := common.GetLogFilePath(logger); logFile != "" {
		logger.Info().Str("path", logFile).Str("environment", config.Environment).Msg("Writing logs to file")
	}

	// 3. Print banner
	common.PrintBanner(common.GetVersion())

	if err := config.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}
	if *schedule {
		if err := common.ValidateSchedule(config.Schedule.Cron); err != nil {
			logger.Fatal().Err(err).Str("cron", config.Schedule.Cron).Msg("Invalid schedule")
			os.Exit(1)
		}
	}

	sanitized := config.Sanitized()
	logger.Debug().
		Strs("config_files", configFiles).
		Str("notion_token", sanitized.Notion.APIToken).
		Str("llm_provider", string(sanitized.LLM.Provider)).
		Str("llm_key", sanitized.LLM.APIKey).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration (sanitized)")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	application.LogRecentRuns(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*schedule {
		report := application.RunOnce(ctx)
		if report.Aborted {
			application.Close()
			os.Exit(1)
		}
		return
	}

	if err := application.StartScheduler(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		os.Exit(1)
	}

	logger.Info().
		Str("cron", config.Schedule.Cron).
		Msg("Scheduler running - Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received, waiting for a running backfill to stop")
}
