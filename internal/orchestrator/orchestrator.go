// Package orchestrator executes a fixed, ordered sequence of build targets,
// stopping immediately on the first failure and surfacing a single aggregate
// status. Ordering is total and strict: target i+1 never begins before the
// invocation for target i has returned.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/movementlabs/suzuka-build/internal/builder"
	"github.com/movementlabs/suzuka-build/internal/models"
)

// Logger defines the interface for logging orchestrator progress and results.
type Logger interface {
	LogTargetStart(target models.BuildTarget)
	LogTargetBuilt(result models.TargetResult)
	LogTargetFailed(result models.TargetResult)
	LogSummary(result models.RunResult)
}

// Builder defines the external build tool collaborator. A non-zero exit code
// from the tool is reported through InvocationResult, not as an error;
// the error return is reserved for invocations that never ran.
type Builder interface {
	Build(ctx context.Context, target models.BuildTarget, profileFlags string) (*builder.InvocationResult, error)
}

// BuildError reports the first failing invocation of a run. Its Code is the
// exit code the orchestrating process must propagate.
type BuildError struct {
	Target models.BuildTarget
	Code   int
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed for %s with exit code %d", e.Target.Name, e.Code)
}

// Orchestrator coordinates sequential target builds with fail-fast semantics.
type Orchestrator struct {
	builder Builder
	logger  Logger
}

// NewOrchestrator creates a new Orchestrator instance.
// The logger parameter is optional and can be nil.
func NewOrchestrator(b Builder, logger Logger) *Orchestrator {
	if b == nil {
		panic("builder cannot be nil")
	}

	return &Orchestrator{
		builder: b,
		logger:  logger,
	}
}

// Run builds every target in declared order, halting at the first failure.
//
// Each invocation is synchronous: Run suspends until the build tool returns
// before moving to the next target. The returned RunResult reflects exactly
// the targets attempted (a prefix of the list, the whole list iff all
// succeeded). On the first non-zero exit code Run records the failure, emits
// no success notice, and returns a *BuildError carrying that code; no further
// targets are attempted. No retry, no reordering, no timeout.
func (o *Orchestrator) Run(ctx context.Context, targets []models.BuildTarget, config models.BuildConfiguration) (*models.RunResult, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("target list cannot be empty")
	}
	if err := validateUniqueNames(targets); err != nil {
		return nil, err
	}

	// Set up context with cancellation for signal handling
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// SIGINT/SIGTERM terminate the in-flight invocation via the command
	// context; the orchestrator itself stops before the next target.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	startTime := time.Now()

	result := &models.RunResult{
		ID:           uuid.NewString(),
		ProfileFlags: config.ProfileFlags,
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(startTime)
			return result, fmt.Errorf("run interrupted before %s: %w", target.Name, err)
		}

		if o.logger != nil {
			o.logger.LogTargetStart(target)
		}

		invocationStart := time.Now()
		inv, err := o.builder.Build(ctx, target, config.ProfileFlags)
		if err != nil {
			result.Duration = time.Since(startTime)
			return result, fmt.Errorf("invoking build tool for %s: %w", target.Name, err)
		}
		if inv.Error != nil {
			result.Duration = time.Since(startTime)
			return result, fmt.Errorf("invoking build tool for %s: %w", target.Name, inv.Error)
		}

		targetResult := models.TargetResult{
			Target:   target,
			ExitCode: inv.ExitCode,
			Duration: inv.Duration,
		}
		if targetResult.Duration == 0 {
			targetResult.Duration = time.Since(invocationStart)
		}

		result.Attempted++

		if inv.ExitCode != 0 {
			targetResult.Status = models.StatusFailed
			result.Results = append(result.Results, targetResult)
			result.Failed++
			result.ExitCode = inv.ExitCode
			result.Duration = time.Since(startTime)

			if o.logger != nil {
				o.logger.LogTargetFailed(targetResult)
				o.logger.LogSummary(*result)
			}

			return result, &BuildError{Target: target, Code: inv.ExitCode}
		}

		targetResult.Status = models.StatusBuilt
		result.Results = append(result.Results, targetResult)
		result.Succeeded++

		if o.logger != nil {
			o.logger.LogTargetBuilt(targetResult)
		}
	}

	result.Duration = time.Since(startTime)

	if o.logger != nil {
		o.logger.LogSummary(*result)
	}

	return result, nil
}

// validateUniqueNames ensures no two targets share a name within a run.
func validateUniqueNames(targets []models.BuildTarget) error {
	seen := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		if _, dup := seen[target.Name]; dup {
			return fmt.Errorf("duplicate target name: %s", target.Name)
		}
		seen[target.Name] = struct{}{}
	}
	return nil
}
