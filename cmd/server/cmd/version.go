package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, injected via -ldflags at release time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "gemeenteweb server %s (commit %s)\n", Version, GitCommit)
		fmt.Fprintf(out, "  built:    %s\n", BuildDate)
		fmt.Fprintf(out, "  runtime:  %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
