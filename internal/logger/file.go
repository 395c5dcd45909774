package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/movementlabs/suzuka-build/internal/models"
)

// FileLogger logs run events to files in the configured log directory.
// It creates a timestamped per-run log file and maintains a latest.log
// symlink pointing to the most recent run. It is thread-safe and implements
// the orchestrator.Logger interface.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to the default
// .suzuka-build/logs directory with log level "info".
func NewFileLogger() (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(filepath.Join(".suzuka-build", "logs"), "info")
}

// NewFileLoggerWithDirAndLevel creates a FileLogger with a custom log
// directory and log level. It creates the directory if needed, opens a
// timestamped run log file, and creates/updates the latest.log symlink.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Timestamped filename: run-YYYYMMDD-HHMMSS.log
	ts := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", ts))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	// Point latest.log at the current run log.
	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
		mu:       sync.Mutex{},
	}

	fl.write("=== suzuka-build Run Log ===\n")
	fl.write(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// RunFile returns the path of the current run log file.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// Close closes the underlying run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return nil
	}
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

// shouldLog checks if a message at the given level should be logged.
func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// write appends raw text to the run log under the mutex.
func (fl *FileLogger) write(text string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return
	}
	fl.runLog.WriteString(text)
}

// LogTargetStart records the start of a target build.
// Format: "[HH:MM:SS] Building <name> (<kind> <selector>)"
func (fl *FileLogger) LogTargetStart(target models.BuildTarget) {
	if !fl.shouldLog("info") {
		return
	}
	fl.write(fmt.Sprintf("[%s] Building %s (%s %s)\n",
		timestamp(), target.Name, target.Selector.Kind, target.Selector.Name))
}

// LogTargetBuilt records a successful target build.
// Format: "[HH:MM:SS] Built <name> (<duration>)"
func (fl *FileLogger) LogTargetBuilt(result models.TargetResult) {
	if !fl.shouldLog("info") {
		return
	}
	fl.write(fmt.Sprintf("[%s] Built %s (%s)\n",
		timestamp(), result.Target.Name, formatDuration(result.Duration)))
}

// LogTargetFailed records a failed target build.
// Format: "[HH:MM:SS] FAILED <name>: exit code <code> (<duration>)"
func (fl *FileLogger) LogTargetFailed(result models.TargetResult) {
	if !fl.shouldLog("info") {
		return
	}
	fl.write(fmt.Sprintf("[%s] FAILED %s: exit code %d (%s)\n",
		timestamp(), result.Target.Name, result.ExitCode, formatDuration(result.Duration)))
}

// LogSummary records the aggregate run outcome, including failed runs.
func (fl *FileLogger) LogSummary(result models.RunResult) {
	if !fl.shouldLog("info") {
		return
	}

	fl.write("\nRun Summary:\n")
	fl.write(fmt.Sprintf("  Run ID: %s\n", result.ID))
	fl.write(fmt.Sprintf("  Attempted: %d\n", result.Attempted))
	fl.write(fmt.Sprintf("  Built: %d\n", result.Succeeded))
	fl.write(fmt.Sprintf("  Failed: %d\n", result.Failed))
	fl.write(fmt.Sprintf("  Exit code: %d\n", result.ExitCode))
	fl.write(fmt.Sprintf("  Duration: %s\n", formatDuration(result.Duration)))
	if failure, ok := result.FirstFailure(); ok {
		fl.write(fmt.Sprintf("  First failure: %s (exit code %d)\n",
			failure.Target.Name, failure.ExitCode))
	}
}
