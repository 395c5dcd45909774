package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movementlabs/suzuka-build/internal/history"
	"github.com/movementlabs/suzuka-build/internal/models"
)

// seedHistory creates a history database with one successful run.
func seedHistory(t *testing.T, dbPath string) {
	t.Helper()

	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	result := &models.RunResult{
		ID:       "11112222-0000-0000-0000-000000000000",
		Duration: time.Minute,
	}
	for _, target := range models.DefaultTargets() {
		result.Results = append(result.Results, models.TargetResult{
			Target:   target,
			Status:   models.StatusBuilt,
			Duration: 15 * time.Second,
		})
		result.Attempted++
		result.Succeeded++
	}

	require.NoError(t, store.RecordRun(context.Background(), time.Now(), result))
}

func runReport(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"report"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestReportCommandMarkdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistory(t, dbPath)

	output, err := runReport(t, "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, output, "# suzuka-build report")
	assert.Contains(t, output, "## Run 11112222")
	assert.Contains(t, output, "4 attempted, 4 built, 0 failed")
	assert.Contains(t, output, "suzuka-faucet-service")
}

func TestReportCommandEmptyHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	output, err := runReport(t, "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, output, "No recorded runs.")
}

func TestReportCommandHTMLToFile(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "history.db")
	outPath := filepath.Join(tmpDir, "report.html")
	seedHistory(t, dbPath)

	output, err := runReport(t, "--db", dbPath, "--html", "--output", outPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Report written to")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
	assert.Contains(t, string(data), "suzuka-build report</h1>")
}
