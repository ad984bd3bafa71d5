package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const streamName = "cogflow_events"

// Event kinds published to the pipeline event log. One subject token per
// kind keeps the stream filterable per run and per kind.
const (
	KindRunStart      = "run_start"
	KindRunComplete   = "run_complete"
	KindStageStart    = "stage_start"
	KindStageComplete = "stage_complete"
	KindArtifactWrite = "artifact_write"
	KindAgentCall     = "agent_call"
	KindReview        = "review"
	KindPack          = "pack"
	KindKeysLoaded    = "keys_loaded"
)

// SubjectForRun returns the wildcard subject matching all events of a
// run. Example: "cogflow.current-project.>"
func SubjectForRun(run string) string {
	return fmt.Sprintf("cogflow.%s.>", run)
}

// SubjectForEvent returns the subject for one event kind within a run.
// Example: "cogflow.current-project.artifact_write"
func SubjectForEvent(run, kind string) string {
	return fmt.Sprintf("cogflow.%s.%s", run, kind)
}

// SetupStream creates or updates the JetStream stream holding the
// append-only pipeline event log. Subject pattern cogflow.> captures
// every run against this data directory; 30-day retention keeps old
// runs diagnosable without growing forever.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"cogflow.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
}
