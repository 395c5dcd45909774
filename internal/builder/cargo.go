// Package builder invokes the external build tool (cargo) for a single
// target and reports its outcome. The tool's own diagnostics stream straight
// through to the configured writers; nothing is layered on top of them.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/movementlabs/suzuka-build/internal/models"
)

// InvocationResult captures the result of one build tool invocation.
type InvocationResult struct {
	ExitCode int
	Duration time.Duration
	Error    error // set only when the tool could not be started at all
}

// CargoBuilder runs cargo build commands for build targets.
type CargoBuilder struct {
	CargoPath string
	Dir       string // working directory; empty means the current directory
	Stdout    io.Writer
	Stderr    io.Writer
}

// NewCargoBuilder creates a CargoBuilder with default settings: the cargo
// binary resolved from PATH and output passed through to the process's own
// stdout/stderr.
func NewCargoBuilder() *CargoBuilder {
	return &CargoBuilder{
		CargoPath: "cargo",
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// BuildCommandArgs constructs the cargo arguments for building a target.
// Binary selectors build with --bin, package selectors with -p. Profile
// flags are appended after the selector, split on whitespace, in order.
func (cb *CargoBuilder) BuildCommandArgs(target models.BuildTarget, profileFlags string) []string {
	args := []string{"build"}

	switch target.Selector.Kind {
	case models.SelectorBinary:
		args = append(args, "--bin", target.Selector.Name)
	default:
		args = append(args, "-p", target.Selector.Name)
	}

	args = append(args, strings.Fields(profileFlags)...)

	return args
}

// Build invokes cargo for the given target and waits for it to finish.
// A non-zero exit from cargo is not an error here; it is reported through
// InvocationResult.ExitCode and left to the caller to act on.
func (cb *CargoBuilder) Build(ctx context.Context, target models.BuildTarget, profileFlags string) (*InvocationResult, error) {
	startTime := time.Now()

	args := cb.BuildCommandArgs(target, profileFlags)

	cmd := exec.CommandContext(ctx, cb.CargoPath, args...)
	cmd.Dir = cb.Dir
	cmd.Stdout = cb.Stdout
	cmd.Stderr = cb.Stderr

	err := cmd.Run()

	result := &InvocationResult{
		Duration: time.Since(startTime),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code := exitErr.ExitCode()
			if code < 0 {
				// Killed by a signal; there is no tool exit code to
				// propagate, and -1 would turn into exit status 255.
				code = 1
			}
			result.ExitCode = code
		} else {
			// cargo missing, permission denied, etc.
			result.Error = fmt.Errorf("failed to invoke %s: %w", cb.CargoPath, err)
		}
	}

	return result, nil
}
