package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/movementlabs/suzuka-build/internal/config"
	"github.com/movementlabs/suzuka-build/internal/filelock"
	"github.com/movementlabs/suzuka-build/internal/history"
	"github.com/movementlabs/suzuka-build/internal/report"
)

// NewReportCommand creates the report command
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded build runs",
		Long: `Summarize runs recorded in the build history database.

The report is rendered as Markdown by default; --html renders a standalone
HTML page suitable for CI artifact browsing.

Examples:
  suzuka-build report
  suzuka-build report --last 5
  suzuka-build report --html --output build-report.html`,
		Args: cobra.NoArgs,
		RunE: runReportCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .suzuka-build/config.yaml)")
	cmd.Flags().String("db", "", "Path to the history database (overrides config)")
	cmd.Flags().Int("last", 10, "Number of most recent runs to include (0 = all)")
	cmd.Flags().Bool("html", false, "Render the report as HTML")
	cmd.Flags().String("output", "", "Write the report to a file instead of stdout")

	return cmd
}

// runReportCommand implements the report command logic
func runReportCommand(cmd *cobra.Command, args []string) error {
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

	dbPath := cfg.History.DBPath
	if cmd.Flags().Changed("db") {
		dbPath, _ = cmd.Flags().GetString("db")
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	last, _ := cmd.Flags().GetInt("last")

	ctx := context.Background()
	records, err := store.ListRuns(ctx, last)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]report.Run, 0, len(records))
	for _, record := range records {
		targets, err := store.TargetResults(ctx, record.ID)
		if err != nil {
			return fmt.Errorf("failed to load target results for run %s: %w", record.ID, err)
		}
		runs = append(runs, report.Run{Record: record, Targets: targets})
	}

	gen := report.NewGenerator()

	var rendered string
	if html, _ := cmd.Flags().GetBool("html"); html {
		rendered, err = gen.HTML(runs)
		if err != nil {
			return err
		}
	} else {
		rendered = gen.Markdown(runs)
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := filelock.AtomicWrite(output, []byte(rendered)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
