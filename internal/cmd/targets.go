package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/movementlabs/suzuka-build/internal/models"
)

// NewTargetsCommand creates the targets command
func NewTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the fixed build target sequence",
		Long: `List the build targets in the order they are compiled.

The list is fixed at compile time; the order is significant and is exactly
the order the build command uses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, target := range models.DefaultTargets() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s (%s %s)\n",
					target.Ordinal+1, target.Name,
					target.Selector.Kind, target.Selector.Name)
			}
			return nil
		},
	}
}
