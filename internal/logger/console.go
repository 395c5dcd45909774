// Package logger provides logging implementations for suzuka-build runs.
//
// The logger package offers progress logging at the target and summary
// levels. Implementations are thread-safe and support various output
// destinations (console, file, etc.).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/movementlabs/suzuka-build/internal/models"
)

// Log level constants for filtering
const (
	levelDebug int = 0
	levelInfo  int = 1
	levelWarn  int = 2
	levelError int = 3
)

// ConsoleLogger writes run progress to a writer.
//
// The per-target status lines ("Building X..." / "Built X!") are the output
// contract of a run and are always printed bare at info level, byte for
// byte, even on a TTY. Timestamped diagnostics appear only at debug level
// and get level colors when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for diagnostic messages.
// Valid levels: debug, info, warn, error (case-insensitive); empty or
// invalid levels default to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		mutex:       sync.Mutex{},
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Honors the NO_COLOR convention via fatih/color's global switch.
func isTerminal(w io.Writer) bool {
	if w == nil || color.NoColor {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo // Default to info if unknown
	}
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogDebug logs a debug-level diagnostic message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level diagnostic message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level diagnostic message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level diagnostic message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string

	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorizeLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// colorizeLevel wraps a level tag in its ANSI color.
func colorizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogTargetStart emits the start notice for a target.
// Format: "Building <name>..."
func (cl *ConsoleLogger) LogTargetStart(target models.BuildTarget) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	fmt.Fprintf(cl.writer, "Building %s...\n", target.Name)
}

// LogTargetBuilt emits the success notice for a target.
// Format: "Built <name>!"
func (cl *ConsoleLogger) LogTargetBuilt(result models.TargetResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	fmt.Fprintf(cl.writer, "Built %s!\n", result.Target.Name)
}

// LogTargetFailed records a failed target at debug level only. The failure
// point is already unambiguous from the contract output: the start notice
// with no matching "Built" line, followed by the build tool's own
// diagnostics.
func (cl *ConsoleLogger) LogTargetFailed(result models.TargetResult) {
	cl.logWithLevel("DEBUG", fmt.Sprintf("%s failed with exit code %d after %s",
		result.Target.Name, result.ExitCode, formatDuration(result.Duration)))
}

// LogSummary prints the run summary for fully successful runs. Failed runs
// end on the start notice of the failing target; the exit code carries the
// rest.
func (cl *ConsoleLogger) LogSummary(result models.RunResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}
	if result.Failed > 0 {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	fmt.Fprintf(cl.writer, "\n")
	fmt.Fprintf(cl.writer, "Build Summary:\n")
	fmt.Fprintf(cl.writer, "  Targets built: %d\n", result.Succeeded)
	fmt.Fprintf(cl.writer, "  Total duration: %s\n", formatDuration(result.Duration))
}

// timestamp returns the current time formatted as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration rounds a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
