package models

import "time"

// Target build status constants
const (
	StatusBuilt  = "BUILT"  // Target compiled successfully
	StatusFailed = "FAILED" // Build tool reported a non-zero exit code
)

// TargetResult represents the outcome of building a single target.
type TargetResult struct {
	Target   BuildTarget   // The target that was built
	Status   string        // Status: "BUILT" or "FAILED"
	ExitCode int           // Exit code reported by the build tool (0 on success)
	Duration time.Duration // Time taken by the invocation
}

// RunResult represents the aggregate outcome of one orchestration run.
// Results holds exactly the targets attempted, in declared order, truncated
// at the first failure.
type RunResult struct {
	ID           string         // Run identifier (uuid), used by the history store
	Results      []TargetResult // Per-target outcomes, in order
	Attempted    int            // Number of targets attempted
	Succeeded    int            // Number of targets built
	Failed       int            // 0 or 1; the run halts at the first failure
	ExitCode     int            // 0 iff every target built, else the first failing code
	Duration     time.Duration  // Total run time
	ProfileFlags string         // The shared flags applied to every invocation
}

// FirstFailure returns the failing target result, if any.
func (r *RunResult) FirstFailure() (TargetResult, bool) {
	for _, tr := range r.Results {
		if tr.Status == StatusFailed {
			return tr, true
		}
	}
	return TargetResult{}, false
}
