package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/movementlabs/suzuka-build/internal/builder"
	"github.com/movementlabs/suzuka-build/internal/config"
	"github.com/movementlabs/suzuka-build/internal/filelock"
	"github.com/movementlabs/suzuka-build/internal/history"
	"github.com/movementlabs/suzuka-build/internal/logger"
	"github.com/movementlabs/suzuka-build/internal/models"
	"github.com/movementlabs/suzuka-build/internal/orchestrator"
)

// stateDir is the workspace directory holding the lock file, logs, and the
// history database.
const stateDir = ".suzuka-build"

// NewBuildCommand creates the build command
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every Suzuka target in order, stopping at the first failure",
		Long: `Build the fixed Suzuka target list in declared order.

Each target is compiled by a synchronous cargo invocation; the next target
never starts before the previous one finishes. The run halts at the first
non-zero exit code, which becomes the process exit code. cargo's own
diagnostics are passed through unmodified.

Examples:
  suzuka-build build
  CARGO_PROFILE_FLAGS="--release" suzuka-build build
  suzuka-build build --profile-flags "--release" --verbose
  suzuka-build build --config custom.yaml`,
		Args: cobra.NoArgs,
		RunE: runBuildCommand,
	}

	// Add flags
	cmd.Flags().String("config", "", "Path to config file (default: .suzuka-build/config.yaml)")
	cmd.Flags().String("cargo-path", "", "Path to the cargo binary")
	cmd.Flags().String("profile-flags", "", "Extra build flags applied to every target (overrides env and config)")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
	cmd.Flags().String("log-level", "", "Log verbosity (debug, info, warn, error)")
	cmd.Flags().Bool("verbose", false, "Show detailed execution information")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	return cmd
}

// runBuildCommand implements the build command logic
func runBuildCommand(cmd *cobra.Command, args []string) error {
	// Load configuration from file
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Environment wins over the file, flags win over both
	cfg.ApplyEnv()

	var cargoPathPtr *string
	if cmd.Flags().Changed("cargo-path") {
		v, _ := cmd.Flags().GetString("cargo-path")
		cargoPathPtr = &v
	}
	var profileFlagsPtr *string
	if cmd.Flags().Changed("profile-flags") {
		v, _ := cmd.Flags().GetString("profile-flags")
		profileFlagsPtr = &v
	}
	var logDirPtr *string
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &v
	}
	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &v
	}

	cfg.MergeWithFlags(cargoPathPtr, profileFlagsPtr, logDirPtr, logLevelPtr)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Determine log level: verbose flag overrides config
	logLevel := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logLevel = "debug"
	}

	// One build per workspace at a time
	lock, err := filelock.AcquireBuildLock(stateDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	// Console logger for the status line contract
	consoleLog := logger.NewConsoleLogger(cmd.OutOrStdout(), logLevel)

	// File logger for the detailed run log
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	multiLog := &multiLogger{
		loggers: []orchestrator.Logger{consoleLog, fileLog},
	}

	// Builder for cargo invocations
	cargoBuilder := builder.NewCargoBuilder()
	cargoBuilder.CargoPath = cfg.CargoPath
	cargoBuilder.Stdout = cmd.OutOrStdout()
	cargoBuilder.Stderr = cmd.ErrOrStderr()

	orch := orchestrator.NewOrchestrator(cargoBuilder, multiLog)

	buildConfig := models.BuildConfiguration{ProfileFlags: cfg.ProfileFlags}
	targets := models.DefaultTargets()

	consoleLog.LogDebug(fmt.Sprintf("building %d targets with cargo at %q, profile flags %q",
		len(targets), cfg.CargoPath, cfg.ProfileFlags))

	startedAt := time.Now()
	result, runErr := orch.Run(context.Background(), targets, buildConfig)

	// Record completed runs, including failed ones; a missing history row
	// would hide exactly the runs worth investigating. Aborted runs (the
	// build tool never started, or an interrupt stopped the loop) carry no
	// failure counters and would read back as a successful prefix, so they
	// are not recorded.
	var buildErr *orchestrator.BuildError
	completed := runErr == nil || errors.As(runErr, &buildErr)
	noHistory, _ := cmd.Flags().GetBool("no-history")
	if cfg.History.Enabled && !noHistory && result != nil && completed {
		if err := recordRun(cfg.History.DBPath, startedAt, result); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to record run history: %v\n", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	consoleLog.LogDebug(fmt.Sprintf("run log: %s", filepath.Join(cfg.LogDir, "latest.log")))

	return nil
}

// recordRun persists a finished run in the history database.
func recordRun(dbPath string, startedAt time.Time, result *models.RunResult) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordRun(context.Background(), startedAt, result)
}

// multiLogger implements orchestrator.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []orchestrator.Logger
}

// LogTargetStart forwards to all loggers
func (ml *multiLogger) LogTargetStart(target models.BuildTarget) {
	for _, l := range ml.loggers {
		l.LogTargetStart(target)
	}
}

// LogTargetBuilt forwards to all loggers
func (ml *multiLogger) LogTargetBuilt(result models.TargetResult) {
	for _, l := range ml.loggers {
		l.LogTargetBuilt(result)
	}
}

// LogTargetFailed forwards to all loggers
func (ml *multiLogger) LogTargetFailed(result models.TargetResult) {
	for _, l := range ml.loggers {
		l.LogTargetFailed(result)
	}
}

// LogSummary forwards to all loggers
func (ml *multiLogger) LogSummary(result models.RunResult) {
	for _, l := range ml.loggers {
		l.LogSummary(result)
	}
}
