package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "server",
		Short: "Gemeente web back office server",
		Long: `Gemeente web server provides the back office API for the church website:
user directory, invitation management, audit logging, and file uploads.

Access control is enforced per endpoint: administrators see everything,
other users only their own records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand means serve
			return serveCmd.RunE(cmd, args)
		},
	}
)

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
