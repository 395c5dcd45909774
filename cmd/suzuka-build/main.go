package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/movementlabs/suzuka-build/internal/cmd"
	"github.com/movementlabs/suzuka-build/internal/orchestrator"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// A failed build exits with the failing invocation's own code;
		// cargo has already printed its diagnostics.
		var buildErr *orchestrator.BuildError
		if errors.As(err, &buildErr) {
			os.Exit(buildErr.Code)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
