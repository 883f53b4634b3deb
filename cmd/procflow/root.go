// Package main provides the procflow command-line tool: a runner for the
// bundled example models with a cobra root command and subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd is the base command when procflow is invoked without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "procflow",
	Short: "procflow runs process-interaction discrete-event simulations.",
	Long: `procflow is a process-interaction discrete-event simulation ` +
		`engine. This CLI runs the bundled example models and, optionally, ` +
		`exposes a live monitoring server over a running simulation.`,
}

func init() {
	// A missing .env is not an error: configuration falls back to flag
	// defaults.
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
