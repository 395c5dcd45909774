package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for suzuka-build
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suzuka-build",
		Short: "Deterministic build pipeline for the Suzuka node binaries",
		Long: `suzuka-build compiles the fixed set of Suzuka build targets in a
declared order by invoking cargo once per target, halting the whole run at
the first failure and propagating that target's exit code.

The target list is baked in; shared profile flags (e.g. --release) are read
from the CARGO_PROFILE_FLAGS environment variable or the config file and
applied uniformly to every invocation.

Configuration is loaded from .suzuka-build/config.yaml if present.
CLI flags override environment and configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// Errors are reported by main, which also maps build failures to
		// their exit codes
		SilenceErrors: true,
	}

	// Add subcommands
	cmd.AddCommand(NewBuildCommand())
	cmd.AddCommand(NewTargetsCommand())
	cmd.AddCommand(NewReportCommand())

	return cmd
}
