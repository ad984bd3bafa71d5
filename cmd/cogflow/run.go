package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/syntax-syndicate/cogflow/internal/config"
	"github.com/syntax-syndicate/cogflow/internal/orchestrator"
)

var runFlags struct {
	name        string
	inboxDir    string
	projectRoot string
	dataDir     string
	agentMode   string
	model       string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full six-stage pipeline",
	Long: `Execute the full pipeline for a project: intake, extraction,
synthesis, task planning, drafting, and review with handoff packing.

Stages re-read their inputs from the project root, so re-running after
a failure resumes from whatever the previous run persisted. On success
the path of the terminal handoff bundle is printed.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.name, "name", "n", "", "Run name (default: project root basename)")
	runCmd.Flags().StringVar(&runFlags.inboxDir, "inbox", "", "Inbox directory holding source notes")
	runCmd.Flags().StringVar(&runFlags.projectRoot, "project-root", "", "Project root for artifacts")
	runCmd.Flags().StringVar(&runFlags.dataDir, "data-dir", "", "Data directory for NATS storage")
	runCmd.Flags().StringVar(&runFlags.agentMode, "agent-mode", "", "Agent backend: placeholder or live")
	runCmd.Flags().StringVarP(&runFlags.model, "model", "m", "", "Model for live mode (e.g., anthropic/claude-sonnet-4-5)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// CLI flags override config and environment.
	if cmd.Flags().Changed("inbox") {
		cfg.InboxDir = runFlags.inboxDir
	}
	if cmd.Flags().Changed("project-root") {
		cfg.ProjectRoot = runFlags.projectRoot
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = runFlags.dataDir
	}
	if cmd.Flags().Changed("agent-mode") {
		cfg.AgentMode = runFlags.agentMode
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = runFlags.model
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Run:         runFlags.name,
		InboxDir:    cfg.InboxDir,
		ProjectRoot: cfg.ProjectRoot,
		DataDir:     cfg.DataDir,
		AgentMode:   cfg.AgentMode,
		Model:       cfg.Model,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	// Ensure cleanup always runs using defer
	defer func() {
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
		os.Exit(0)
	}()

	bundlePath, err := orch.Run()
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	fmt.Printf("Handoff bundle: %s\n", bundlePath)
	return nil
}
