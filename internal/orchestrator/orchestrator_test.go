package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/movementlabs/suzuka-build/internal/builder"
	"github.com/movementlabs/suzuka-build/internal/models"
)

// recordedCall captures one Build invocation seen by the mock builder.
type recordedCall struct {
	target       models.BuildTarget
	profileFlags string
}

// mockBuilder is a test double for the external build tool. Exit codes are
// scripted per target name; unscripted targets succeed.
type mockBuilder struct {
	exitCodes map[string]int
	invokeErr error
	calls     []recordedCall
}

func (m *mockBuilder) Build(ctx context.Context, target models.BuildTarget, profileFlags string) (*builder.InvocationResult, error) {
	m.calls = append(m.calls, recordedCall{target: target, profileFlags: profileFlags})
	if m.invokeErr != nil {
		return &builder.InvocationResult{Error: m.invokeErr}, nil
	}
	return &builder.InvocationResult{
		ExitCode: m.exitCodes[target.Name],
		Duration: time.Millisecond,
	}, nil
}

// mockLogger captures logging calls for testing.
type mockLogger struct {
	startCalls   []models.BuildTarget
	builtCalls   []models.TargetResult
	failedCalls  []models.TargetResult
	summaryCalls []models.RunResult
}

func (m *mockLogger) LogTargetStart(target models.BuildTarget) {
	m.startCalls = append(m.startCalls, target)
}

func (m *mockLogger) LogTargetBuilt(result models.TargetResult) {
	m.builtCalls = append(m.builtCalls, result)
}

func (m *mockLogger) LogTargetFailed(result models.TargetResult) {
	m.failedCalls = append(m.failedCalls, result)
}

func (m *mockLogger) LogSummary(result models.RunResult) {
	m.summaryCalls = append(m.summaryCalls, result)
}

func testTargets() []models.BuildTarget {
	return models.DefaultTargets()
}

func TestRunAllTargetsSucceed(t *testing.T) {
	b := &mockBuilder{}
	log := &mockLogger{}
	orch := NewOrchestrator(b, log)

	targets := testTargets()
	result, err := orch.Run(context.Background(), targets, models.BuildConfiguration{})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if result.Attempted != len(targets) || result.Succeeded != len(targets) || result.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want %d/%d/0",
			result.Attempted, result.Succeeded, result.Failed, len(targets), len(targets))
	}
	if len(result.Results) != len(targets) {
		t.Fatalf("len(Results) = %d, want %d", len(result.Results), len(targets))
	}

	// One success entry per target, in declared order
	for i, tr := range result.Results {
		if tr.Target.Name != targets[i].Name {
			t.Errorf("Results[%d] = %s, want %s", i, tr.Target.Name, targets[i].Name)
		}
		if tr.Status != models.StatusBuilt {
			t.Errorf("Results[%d].Status = %s, want %s", i, tr.Status, models.StatusBuilt)
		}
	}

	// Start and built notices pair up in order; summary logged once
	if len(log.startCalls) != len(targets) || len(log.builtCalls) != len(targets) {
		t.Errorf("start/built calls = %d/%d, want %d/%d",
			len(log.startCalls), len(log.builtCalls), len(targets), len(targets))
	}
	if len(log.failedCalls) != 0 {
		t.Errorf("failed calls = %d, want 0", len(log.failedCalls))
	}
	if len(log.summaryCalls) != 1 {
		t.Errorf("summary calls = %d, want 1", len(log.summaryCalls))
	}
}

func TestRunFailFast(t *testing.T) {
	tests := []struct {
		name      string
		failName  string
		failCode  int
		failIndex int
	}{
		{name: "first target fails", failName: "suzuka-config", failCode: 101, failIndex: 0},
		{name: "second target fails", failName: "suzuka-full-node", failCode: 1, failIndex: 1},
		{name: "last target fails", failName: "suzuka-full-node-setup", failCode: 42, failIndex: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBuilder{exitCodes: map[string]int{tt.failName: tt.failCode}}
			log := &mockLogger{}
			orch := NewOrchestrator(b, log)

			targets := testTargets()
			result, err := orch.Run(context.Background(), targets, models.BuildConfiguration{})

			var buildErr *BuildError
			if !errors.As(err, &buildErr) {
				t.Fatalf("Run() error = %v, want *BuildError", err)
			}
			if buildErr.Code != tt.failCode {
				t.Errorf("BuildError.Code = %d, want %d", buildErr.Code, tt.failCode)
			}
			if buildErr.Target.Name != tt.failName {
				t.Errorf("BuildError.Target = %s, want %s", buildErr.Target.Name, tt.failName)
			}

			// Exactly failIndex successes followed by one failure
			if result.Attempted != tt.failIndex+1 {
				t.Errorf("Attempted = %d, want %d", result.Attempted, tt.failIndex+1)
			}
			if result.Succeeded != tt.failIndex || result.Failed != 1 {
				t.Errorf("Succeeded/Failed = %d/%d, want %d/1", result.Succeeded, result.Failed, tt.failIndex)
			}
			if result.ExitCode != tt.failCode {
				t.Errorf("ExitCode = %d, want %d", result.ExitCode, tt.failCode)
			}

			last := result.Results[len(result.Results)-1]
			if last.Status != models.StatusFailed || last.ExitCode != tt.failCode {
				t.Errorf("last result = %s/%d, want %s/%d",
					last.Status, last.ExitCode, models.StatusFailed, tt.failCode)
			}

			// Invocations for later targets never occur
			if len(b.calls) != tt.failIndex+1 {
				t.Errorf("invocations = %d, want %d", len(b.calls), tt.failIndex+1)
			}

			// No success notice for the failing target
			if len(log.builtCalls) != tt.failIndex {
				t.Errorf("built notices = %d, want %d", len(log.builtCalls), tt.failIndex)
			}
			if len(log.startCalls) != tt.failIndex+1 {
				t.Errorf("start notices = %d, want %d", len(log.startCalls), tt.failIndex+1)
			}
		})
	}
}

func TestRunProfileFlagsPassThrough(t *testing.T) {
	tests := []struct {
		name  string
		flags string
	}{
		{name: "release flags", flags: "--release"},
		{name: "multiple flags", flags: "--profile release --locked"},
		{name: "empty flags", flags: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBuilder{}
			orch := NewOrchestrator(b, nil)

			targets := testTargets()
			_, err := orch.Run(context.Background(), targets, models.BuildConfiguration{ProfileFlags: tt.flags})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if len(b.calls) != len(targets) {
				t.Fatalf("invocations = %d, want %d", len(b.calls), len(targets))
			}
			for i, call := range b.calls {
				if call.profileFlags != tt.flags {
					t.Errorf("call %d flags = %q, want %q", i, call.profileFlags, tt.flags)
				}
			}
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	// Same scripted outcomes must produce identical result sequences.
	run := func() *models.RunResult {
		b := &mockBuilder{exitCodes: map[string]int{"suzuka-faucet-service": 3}}
		orch := NewOrchestrator(b, nil)
		result, _ := orch.Run(context.Background(), testTargets(), models.BuildConfiguration{})
		return result
	}

	first := run()
	second := run()

	if first.ExitCode != second.ExitCode {
		t.Errorf("exit codes differ: %d vs %d", first.ExitCode, second.ExitCode)
	}
	if len(first.Results) != len(second.Results) {
		t.Fatalf("result lengths differ: %d vs %d", len(first.Results), len(second.Results))
	}
	for i := range first.Results {
		a, b := first.Results[i], second.Results[i]
		if a.Target.Name != b.Target.Name || a.Status != b.Status || a.ExitCode != b.ExitCode {
			t.Errorf("result %d differs: %s/%s/%d vs %s/%s/%d",
				i, a.Target.Name, a.Status, a.ExitCode, b.Target.Name, b.Status, b.ExitCode)
		}
	}
}

func TestRunValidation(t *testing.T) {
	orch := NewOrchestrator(&mockBuilder{}, nil)

	if _, err := orch.Run(context.Background(), nil, models.BuildConfiguration{}); err == nil {
		t.Error("Run() with empty target list should error")
	}

	dup := []models.BuildTarget{
		{Name: "same", Selector: models.Selector{Kind: models.SelectorPackage, Name: "a"}},
		{Name: "same", Selector: models.Selector{Kind: models.SelectorPackage, Name: "b"}},
	}
	if _, err := orch.Run(context.Background(), dup, models.BuildConfiguration{}); err == nil {
		t.Error("Run() with duplicate target names should error")
	}
}

func TestRunInvocationError(t *testing.T) {
	// A build tool that cannot be started at all aborts the run with the
	// underlying error, not a BuildError.
	b := &mockBuilder{invokeErr: errors.New("cargo: executable file not found")}
	orch := NewOrchestrator(b, nil)

	result, err := orch.Run(context.Background(), testTargets(), models.BuildConfiguration{})
	if err == nil {
		t.Fatal("Run() should propagate invocation errors")
	}
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		t.Error("invocation errors should not be reported as BuildError")
	}
	if len(b.calls) != 1 {
		t.Errorf("invocations = %d, want 1", len(b.calls))
	}
	if result == nil || result.Attempted != 0 {
		t.Error("no target should be recorded as attempted")
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &mockBuilder{}
	orch := NewOrchestrator(b, nil)

	_, err := orch.Run(ctx, testTargets(), models.BuildConfiguration{})
	if err == nil {
		t.Fatal("Run() with canceled context should error")
	}
	if len(b.calls) != 0 {
		t.Errorf("invocations = %d, want 0", len(b.calls))
	}
}

func TestNewOrchestratorNilBuilder(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewOrchestrator(nil, nil) should panic")
		}
	}()
	NewOrchestrator(nil, nil)
}

func TestBuildErrorMessage(t *testing.T) {
	err := &BuildError{
		Target: models.BuildTarget{Name: "suzuka-full-node"},
		Code:   1,
	}
	want := "build failed for suzuka-full-node with exit code 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
