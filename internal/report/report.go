// Package report renders recorded build runs as Markdown, and optionally as
// a standalone HTML page for CI artifact browsing.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/movementlabs/suzuka-build/internal/history"
	"github.com/movementlabs/suzuka-build/internal/models"
)

// Generator renders build history reports.
type Generator struct {
	markdown goldmark.Markdown
}

// NewGenerator creates a report Generator.
func NewGenerator() *Generator {
	return &Generator{
		// GFM for the target result tables
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Run pairs a run record with its per-target outcomes.
type Run struct {
	Record  history.RunRecord
	Targets []history.TargetRecord
}

// Markdown renders the given runs (newest first) as a Markdown report.
func (g *Generator) Markdown(runs []Run) string {
	var b strings.Builder

	b.WriteString("# suzuka-build report\n\n")

	if len(runs) == 0 {
		b.WriteString("No recorded runs.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%d recorded run(s).\n\n", len(runs)))

	for _, run := range runs {
		r := run.Record

		b.WriteString(fmt.Sprintf("## Run %s\n\n", shortID(r.ID)))
		b.WriteString(fmt.Sprintf("- Started: %s\n", r.StartedAt.Local().Format(time.RFC3339)))
		b.WriteString(fmt.Sprintf("- Outcome: %s\n", outcome(r)))
		b.WriteString(fmt.Sprintf("- Targets: %d attempted, %d built, %d failed\n", r.Attempted, r.Succeeded, r.Failed))
		b.WriteString(fmt.Sprintf("- Duration: %s\n", r.Duration.Round(time.Second)))
		if r.ProfileFlags != "" {
			b.WriteString(fmt.Sprintf("- Profile flags: `%s`\n", r.ProfileFlags))
		}
		b.WriteString("\n")

		if len(run.Targets) > 0 {
			b.WriteString("| # | Target | Selector | Status | Exit code | Duration |\n")
			b.WriteString("|---|--------|----------|--------|-----------|----------|\n")
			for _, t := range run.Targets {
				b.WriteString(fmt.Sprintf("| %d | %s | %s %s | %s | %d | %s |\n",
					t.Ordinal+1, t.Name, t.SelectorKind, t.SelectorName,
					t.Status, t.ExitCode, t.Duration.Round(time.Millisecond)))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// HTML renders the given runs as a standalone HTML page.
func (g *Generator) HTML(runs []Run) (string, error) {
	md := g.Markdown(runs)

	var body bytes.Buffer
	if err := g.markdown.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	page.WriteString("<meta charset=\"utf-8\">\n")
	page.WriteString("<title>suzuka-build report</title>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return page.String(), nil
}

// outcome describes a run's final state. A completed run has either a
// failure counter or a full set of successes; anything else is a row from a
// run that never finished and must not read as a successful build.
func outcome(r history.RunRecord) string {
	if r.Failed == 0 && r.ExitCode == 0 {
		if r.Attempted == 0 || r.Attempted != r.Succeeded {
			return "ABORTED"
		}
		return models.StatusBuilt
	}
	return fmt.Sprintf("%s (exit code %d)", models.StatusFailed, r.ExitCode)
}

// shortID truncates a uuid for headings.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
