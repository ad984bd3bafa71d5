package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/syntax-syndicate/cogflow/internal/logger"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cogflow",
	Short: "Content synthesis pipeline orchestrator with embedded persistence",
	Long: `cogflow orchestrates a six-stage content synthesis pipeline: source
notes are collected, distilled into a deduplicated idea set, merged into
a master plan, expanded into tracked tasks, drafted, and finally
reviewed and packed into a versioned handoff bundle.

Every stage persists its outputs under the project root and records its
actions in an append-only event log backed by embedded NATS JetStream,
so a run is resumable and auditable from disk alone.`,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(initCmd)
}
