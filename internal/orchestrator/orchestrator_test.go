package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/syntax-syndicate/cogflow/internal/artifact"
	"github.com/syntax-syndicate/cogflow/internal/ideas"
	"github.com/syntax-syndicate/cogflow/internal/nats"
	"github.com/syntax-syndicate/cogflow/internal/plan"
	"github.com/syntax-syndicate/cogflow/internal/review"
	"github.com/syntax-syndicate/cogflow/internal/support"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

// fixture creates an inbox with source notes and returns a ready
// orchestrator config over temp directories.
func fixture(t *testing.T) Config {
	t.Helper()
	base := t.TempDir()
	inbox := filepath.Join(base, "00_INBOX")
	project := filepath.Join(base, "projects", "current_project")
	for _, dir := range []string{inbox, project} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	notes := map[string]string{
		"stage1_perplexity.md": "# Research\n- The pipeline has six stages with clear handoffs.\n- Use tracking ids like handoff-2-task-1.",
		"stage1_chatgpt.md":    "There should be six stages with clean handoffs.\n\n- The monitor agent should flag empty stages.",
	}
	for name, content := range notes {
		if err := os.WriteFile(filepath.Join(inbox, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	return Config{
		Run:         "test-run",
		InboxDir:    inbox,
		ProjectRoot: project,
		DataDir:     filepath.Join(base, ".cogflow"),
		WorkDir:     base,
		AgentMode:   "placeholder",
	}
}

func runPipeline(t *testing.T, cfg Config) (string, *Orchestrator) {
	t.Helper()
	orch, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := orch.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() {
		if err := orch.Stop(); err != nil {
			t.Logf("stop error: %v", err)
		}
	})

	bundlePath, err := orch.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return bundlePath, orch
}

func TestFullPipelineRun(t *testing.T) {
	cfg := fixture(t)
	bundlePath, orch := runPipeline(t, cfg)

	store := artifact.NewStore(cfg.ProjectRoot, nil)

	// Every stage artifact persisted.
	for _, name := range []string{
		plan.ArtifactNotes,
		plan.ArtifactIdeas,
		plan.ArtifactPlanJSON,
		plan.ArtifactPlanMD,
		plan.ArtifactTasks,
		plan.ArtifactDraftNotes,
		plan.ArtifactReview,
		plan.ArtifactMonitor,
		plan.ArtifactClean,
		plan.ArtifactBundle,
	} {
		if !store.Exists(name) {
			t.Errorf("artifact %q not persisted", name)
		}
	}

	if err := review.VerifyBundle(bundlePath); err != nil {
		t.Errorf("bundle verification failed: %v", err)
	}

	// The two six-stage phrasings merged into one idea.
	var set ideas.Set
	if err := store.ReadJSON(plan.ArtifactIdeas, &set); err != nil {
		t.Fatal(err)
	}
	merged := false
	for _, idea := range set.Ideas {
		if len(idea.Sources) == 2 {
			merged = true
		}
	}
	if !merged {
		t.Error("expected a merged idea with both origins")
	}

	// Review verdict persisted and not fail.
	var verdict review.Verdict
	if err := store.ReadJSON(plan.ArtifactReview, &verdict); err != nil {
		t.Fatal(err)
	}
	if verdict.Status == review.StatusFail {
		t.Errorf("verdict = %s: %v", verdict.Status, verdict.FailNotes())
	}

	// Event log covers the run lifecycle.
	evs, err := orch.Events()
	if err != nil {
		t.Fatal(err)
	}
	kinds := make(map[string]int)
	for _, ev := range evs {
		kinds[ev.Kind]++
	}
	for _, kind := range []string{nats.KindRunStart, nats.KindRunComplete, nats.KindReview, nats.KindPack, nats.KindKeysLoaded} {
		if kinds[kind] != 1 {
			t.Errorf("event kind %q recorded %d times, want 1", kind, kinds[kind])
		}
	}
	if kinds[nats.KindStageStart] != 6 || kinds[nats.KindStageComplete] != 6 {
		t.Errorf("stage events = %d starts, %d completes, want 6 each",
			kinds[nats.KindStageStart], kinds[nats.KindStageComplete])
	}
	if kinds[nats.KindArtifactWrite] == 0 {
		t.Error("no artifact_write events recorded")
	}

	var list tasks.List
	if err := store.ReadJSON(plan.ArtifactTasks, &list); err != nil {
		t.Fatal(err)
	}
	if kinds[nats.KindAgentCall] != len(list.Tasks) {
		t.Errorf("agent_call events = %d, want one per task (%d)", kinds[nats.KindAgentCall], len(list.Tasks))
	}
}

func TestRerunIncrementsBundleVersion(t *testing.T) {
	cfg := fixture(t)

	_, orch := runPipeline(t, cfg)
	if err := orch.Stop(); err != nil {
		t.Fatal(err)
	}

	bundlePath, _ := runPipeline(t, cfg)

	store := artifact.NewStore(cfg.ProjectRoot, nil)
	var bundle support.Bundle
	if err := store.ReadJSON(plan.ArtifactBundle, &bundle); err != nil {
		t.Fatal(err)
	}
	if bundle.Version != 2 {
		t.Errorf("bundle version after rerun = %d, want 2", bundle.Version)
	}
	if err := review.VerifyBundle(bundlePath); err != nil {
		t.Errorf("rerun bundle verification failed: %v", err)
	}
}

func TestEmptyInboxStillCompletes(t *testing.T) {
	cfg := fixture(t)
	// Remove all notes; zero ideas must warn, not fail.
	entries, err := os.ReadDir(cfg.InboxDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(cfg.InboxDir, e.Name())); err != nil {
			t.Fatal(err)
		}
	}

	bundlePath, _ := runPipeline(t, cfg)

	store := artifact.NewStore(cfg.ProjectRoot, nil)
	var verdict review.Verdict
	if err := store.ReadJSON(plan.ArtifactReview, &verdict); err != nil {
		t.Fatal(err)
	}
	if verdict.Status != review.StatusWarn {
		t.Errorf("verdict = %s, want warn for empty idea set", verdict.Status)
	}
	if err := review.VerifyBundle(bundlePath); err != nil {
		t.Errorf("bundle verification failed: %v", err)
	}
}

func TestStopIdempotent(t *testing.T) {
	cfg := fixture(t)
	orch, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := orch.Start(); err != nil {
		t.Fatal(err)
	}

	if err := orch.Stop(); err != nil {
		t.Errorf("first stop: %v", err)
	}
	if err := orch.Stop(); err != nil {
		t.Errorf("second stop: %v", err)
	}
}

func TestRunNameSlugified(t *testing.T) {
	cfg := fixture(t)
	cfg.Run = "My Project!"

	orch, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer orch.Stop()

	if orch.cfg.Run != "my-project" {
		t.Errorf("run name = %q, want slugified", orch.cfg.Run)
	}
	if strings.ContainsAny(orch.cfg.Run, " !.") {
		t.Errorf("run name %q not subject-safe", orch.cfg.Run)
	}
}
