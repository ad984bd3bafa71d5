package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"
	"github.com/syntax-syndicate/cogflow/internal/config"
	"github.com/syntax-syndicate/cogflow/internal/events"
	"github.com/syntax-syndicate/cogflow/internal/nats"
)

var eventsFlags struct {
	name string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Replay the event log of a run",
	Long: `Replay a run's full event history from the embedded JetStream store
in publish order. The run name defaults to the project root basename,
matching the run command.`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsFlags.name, "name", "n", "", "Run name (default: project root basename)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	run := eventsFlags.name
	if run == "" {
		run = filepath.Base(cfg.ProjectRoot)
	}
	run = slug.Make(run)

	natsDir := filepath.Join(cfg.DataDir, "nats")
	if _, err := os.Stat(natsDir); err != nil {
		return fmt.Errorf("no event data found under %s", natsDir)
	}

	ns, err := nats.StartEmbedded(natsDir)
	if err != nil {
		return fmt.Errorf("failed to start NATS server: %w", err)
	}
	nc, err := nats.ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer func() {
		if err := nats.Shutdown(nc, ns); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	ctx := context.Background()
	js, err := nats.CreateJetStream(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	stream, err := nats.SetupStream(ctx, js)
	if err != nil {
		return fmt.Errorf("failed to setup stream: %w", err)
	}

	log := events.NewLog(js, stream, run)
	evs, err := log.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to replay events: %w", err)
	}

	if len(evs) == 0 {
		fmt.Printf("No events recorded for run '%s'\n", run)
		return nil
	}

	for _, ev := range evs {
		fmt.Printf("%s  %-16s %s", ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Kind, ev.CorrelationID)
		if len(ev.Payload) > 0 {
			fmt.Printf("  %s", ev.Payload)
		}
		fmt.Println()
	}
	return nil
}
