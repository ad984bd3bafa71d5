// Package orchestrator drives one complete pipeline run: six stages in
// fixed order, then the support agents and the terminal handoff bundle.
// Every stage re-reads its inputs from the artifact store, so a run can
// resume from whatever the previous run persisted.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/syntax-syndicate/cogflow/internal/artifact"
	"github.com/syntax-syndicate/cogflow/internal/config"
	"github.com/syntax-syndicate/cogflow/internal/draft"
	ierr "github.com/syntax-syndicate/cogflow/internal/errors"
	"github.com/syntax-syndicate/cogflow/internal/events"
	"github.com/syntax-syndicate/cogflow/internal/hooks"
	"github.com/syntax-syndicate/cogflow/internal/ideas"
	"github.com/syntax-syndicate/cogflow/internal/ident"
	"github.com/syntax-syndicate/cogflow/internal/keys"
	"github.com/syntax-syndicate/cogflow/internal/logger"
	"github.com/syntax-syndicate/cogflow/internal/nats"
	"github.com/syntax-syndicate/cogflow/internal/nexus"
	"github.com/syntax-syndicate/cogflow/internal/plan"
	"github.com/syntax-syndicate/cogflow/internal/review"
	"github.com/syntax-syndicate/cogflow/internal/support"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

// Config holds configuration for the orchestrator.
type Config struct {
	Run         string // Run name (slugified for event subjects)
	InboxDir    string // Inbox directory holding source notes
	ProjectRoot string // Project root the artifacts live under
	DataDir     string // Data directory for NATS storage
	WorkDir     string // Working directory for hooks and the live agent
	AgentMode   string // "placeholder" or "live"
	Model       string // Model spec for live mode (e.g. anthropic/claude-sonnet-4-5)
}

// Orchestrator manages the pipeline run with embedded NATS, the
// artifact store, and the agent backend.
type Orchestrator struct {
	cfg     Config
	ns      *natsserver.Server
	nc      *natsgo.Conn
	js      jetstream.JetStream
	stream  jetstream.Stream
	log     *events.Log
	store   *artifact.Store
	alloc   *ident.Allocator
	inv     nexus.Invoker
	hooks   *hooks.Config
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

// New creates a new Orchestrator with the given configuration.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = ".cogflow"
	}
	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.WorkDir = wd
	}
	if cfg.Run == "" {
		cfg.Run = filepath.Base(cfg.ProjectRoot)
	}
	// Run names become NATS subject tokens, so they must be slug-safe.
	cfg.Run = slug.Make(cfg.Run)
	if cfg.AgentMode == "" {
		cfg.AgentMode = config.ModePlaceholder
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		alloc:  ident.NewAllocator(),
	}, nil
}

// Start initializes all components: embedded NATS with JetStream, the
// event log, the artifact store, hooks, and the agent backend.
func (o *Orchestrator) Start() error {
	logger.Info("Starting orchestrator for run '%s'", o.cfg.Run)

	natsDir := filepath.Join(o.cfg.DataDir, "nats")
	if err := os.MkdirAll(natsDir, 0755); err != nil {
		return fmt.Errorf("failed to create NATS data directory: %w", err)
	}

	ns, err := nats.StartEmbedded(natsDir)
	if err != nil {
		return fmt.Errorf("failed to start NATS server: %w", err)
	}
	o.ns = ns

	nc, err := nats.ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	o.nc = nc

	js, err := nats.CreateJetStream(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	o.js = js

	stream, err := nats.SetupStream(o.ctx, js)
	if err != nil {
		return fmt.Errorf("failed to setup stream: %w", err)
	}
	o.stream = stream

	o.log = events.NewLog(js, stream, o.cfg.Run)
	o.store = artifact.NewStore(o.cfg.ProjectRoot, o.log)

	hookCfg, err := hooks.LoadConfig(o.cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to load hooks config: %w", err)
	}
	o.hooks = hookCfg

	switch o.cfg.AgentMode {
	case config.ModeLive:
		logger.Info("Using live agent backend (model: %s)", o.cfg.Model)
		live, err := nexus.NewLive(o.cfg.Model, o.cfg.WorkDir)
		if err != nil {
			return fmt.Errorf("failed to create live agent backend: %w", err)
		}
		o.inv = live
	default:
		logger.Info("Using placeholder agent backend")
		o.inv = nexus.NewPlaceholder()
	}

	// Record credential availability, never values.
	summary := keys.Summarize()
	if err := o.log.Append(o.ctx, nats.KindKeysLoaded, o.cfg.Run, summary); err != nil {
		return fmt.Errorf("failed to record key summary: %w", err)
	}

	logger.Info("Orchestrator started successfully")
	return nil
}

// Run executes the pipeline: stages one through six in order, with the
// support agents and terminal bundle folded into stage six. It returns
// the bundle path on success.
func (o *Orchestrator) Run() (string, error) {
	logger.Info("Starting pipeline for run '%s'", o.cfg.Run)

	if err := o.log.Append(o.ctx, nats.KindRunStart, o.cfg.Run, map[string]any{
		"inbox_dir":    o.cfg.InboxDir,
		"project_root": o.cfg.ProjectRoot,
		"agent_mode":   o.cfg.AgentMode,
	}); err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	if err := o.runHook(o.hookFor(nats.KindRunStart), 0); err != nil {
		return "", err
	}

	stages := []struct {
		index int
		name  string
		fn    func() error
	}{
		{1, "Source Intake", o.stageIntake},
		{2, "Idea Extraction", o.stageExtract},
		{3, "Plan Synthesis", o.stageSynthesize},
		{4, "Task Planning", o.stageTrack},
		{5, "Implementation Drafting", o.stageDraft},
		{6, "Review & Handoff", o.stageReviewAndPack},
	}

	for _, st := range stages {
		logger.Info("=== Stage %d: %s ===", st.index, st.name)

		if err := o.log.Append(o.ctx, nats.KindStageStart, o.cfg.Run, map[string]any{
			"stage": st.index, "name": st.name,
		}); err != nil {
			return "", fmt.Errorf("failed to record stage start: %w", err)
		}

		if err := ierr.Recover(st.fn); err != nil {
			logger.Error("Stage %d (%s) failed: %v", st.index, st.name, err)
			return "", &ierr.StageError{Stage: st.name, Err: err}
		}

		if err := o.log.Append(o.ctx, nats.KindStageComplete, o.cfg.Run, map[string]any{
			"stage": st.index, "name": st.name,
		}); err != nil {
			return "", fmt.Errorf("failed to record stage complete: %w", err)
		}
		if err := o.runHook(o.hookFor(nats.KindStageComplete), st.index); err != nil {
			return "", err
		}

		logger.Info("=== Stage %d completed ===", st.index)
	}

	if err := o.log.Append(o.ctx, nats.KindRunComplete, o.cfg.Run, nil); err != nil {
		return "", fmt.Errorf("failed to record run complete: %w", err)
	}
	if err := o.runHook(o.hookFor(nats.KindRunComplete), 0); err != nil {
		return "", err
	}

	bundlePath := o.store.Path(plan.ArtifactBundle)
	logger.Info("Pipeline finished for run '%s', bundle at %s", o.cfg.Run, bundlePath)
	return bundlePath, nil
}

// stageIntake aggregates the source notes from the inbox and project
// roots into the stage-1 document. Zero notes is not an error; the
// document is written either way so downstream stages have their input.
func (o *Orchestrator) stageIntake() error {
	notes, err := ideas.LoadNotes(o.cfg.InboxDir, o.cfg.ProjectRoot)
	if err != nil {
		return err
	}
	return o.store.WriteText(o.ctx, plan.ArtifactNotes, ideas.ComposeDoc(notes))
}

// stageExtract reads the aggregated notes back from disk and produces
// the deduplicated idea set.
func (o *Orchestrator) stageExtract() error {
	doc, err := o.store.ReadText(plan.ArtifactNotes)
	if err != nil {
		if artifact.IsMissing(err) {
			return &ierr.MissingInputError{Stage: "Idea Extraction", Name: plan.ArtifactNotes}
		}
		return err
	}

	set := ideas.NewExtractor(o.alloc).Extract(ideas.ParseDoc(doc))
	return o.store.WriteJSON(o.ctx, plan.ArtifactIdeas, set)
}

// stageSynthesize builds the master plan from the persisted idea set
// and renders both its structured and markdown forms.
func (o *Orchestrator) stageSynthesize() error {
	var set ideas.Set
	if err := o.store.ReadJSON(plan.ArtifactIdeas, &set); err != nil {
		if artifact.IsMissing(err) {
			return &ierr.MissingInputError{Stage: "Plan Synthesis", Name: plan.ArtifactIdeas}
		}
		return err
	}

	p := plan.Synthesize(&set)
	if err := o.store.WriteJSON(o.ctx, plan.ArtifactPlanJSON, p); err != nil {
		return err
	}
	return o.store.WriteText(o.ctx, plan.ArtifactPlanMD, p.Markdown())
}

// stageTrack expands the persisted plan into the task list.
func (o *Orchestrator) stageTrack() error {
	var p plan.Plan
	if err := o.store.ReadJSON(plan.ArtifactPlanJSON, &p); err != nil {
		if artifact.IsMissing(err) {
			return &ierr.MissingInputError{Stage: "Task Planning", Name: plan.ArtifactPlanJSON}
		}
		return err
	}

	list := tasks.Expand(&p, time.Now().UTC())
	return o.store.WriteJSON(o.ctx, plan.ArtifactTasks, list)
}

// stageDraft produces one implementation note per task via the agent
// backend.
func (o *Orchestrator) stageDraft() error {
	var list tasks.List
	if err := o.store.ReadJSON(plan.ArtifactTasks, &list); err != nil {
		if artifact.IsMissing(err) {
			return &ierr.MissingInputError{Stage: "Implementation Drafting", Name: plan.ArtifactTasks}
		}
		return err
	}

	notes, err := draft.NewDrafter(o.inv, o.log).Draft(o.ctx, &list)
	if err != nil {
		return err
	}
	return o.store.WriteText(o.ctx, plan.ArtifactDraftNotes, notes)
}

// stageReviewAndPack runs the support agents, the review checklist, and
// the bundle assembly. Monitor and clean are order-independent of each
// other; both run before review so their artifacts are part of what the
// bundle manifests.
func (o *Orchestrator) stageReviewAndPack() error {
	var p plan.Plan
	if err := o.store.ReadJSON(plan.ArtifactPlanJSON, &p); err != nil {
		if artifact.IsMissing(err) {
			return &ierr.MissingInputError{Stage: "Review & Handoff", Name: plan.ArtifactPlanJSON}
		}
		return err
	}
	var list tasks.List
	if err := o.store.ReadJSON(plan.ArtifactTasks, &list); err != nil {
		if artifact.IsMissing(err) {
			return &ierr.MissingInputError{Stage: "Review & Handoff", Name: plan.ArtifactTasks}
		}
		return err
	}
	planMD, err := o.store.ReadText(plan.ArtifactPlanMD)
	if err != nil {
		if artifact.IsMissing(err) {
			return &ierr.MissingInputError{Stage: "Review & Handoff", Name: plan.ArtifactPlanMD}
		}
		return err
	}

	now := time.Now().UTC()

	summary := support.Monitor(&p, &list, now)
	if err := o.store.WriteJSON(o.ctx, plan.ArtifactMonitor, summary); err != nil {
		return err
	}

	report, err := support.Clean(o.cfg.ProjectRoot, now)
	if err != nil {
		return err
	}
	if err := o.store.WriteJSON(o.ctx, plan.ArtifactClean, report); err != nil {
		return err
	}

	inboxAbs, err := filepath.Abs(o.cfg.InboxDir)
	if err != nil {
		return err
	}
	projectAbs, err := filepath.Abs(o.cfg.ProjectRoot)
	if err != nil {
		return err
	}

	var set ideas.Set
	if err := o.store.ReadJSON(plan.ArtifactIdeas, &set); err != nil && !artifact.IsMissing(err) {
		return err
	}

	verdict := review.Run(review.Input{
		Plan:         &p,
		Tasks:        &list,
		PlanMarkdown: planMD,
		IdeaCount:    len(set.Ideas),
		InboxRoot:    inboxAbs,
		ProjectRoot:  projectAbs,
		BundlePath:   o.store.Path(plan.ArtifactBundle),
	})
	if err := o.store.WriteJSON(o.ctx, plan.ArtifactReview, verdict); err != nil {
		return err
	}
	if err := o.log.Append(o.ctx, nats.KindReview, o.cfg.Run, map[string]any{
		"status": verdict.Status,
	}); err != nil {
		return fmt.Errorf("failed to record review: %w", err)
	}
	logger.Info("Review verdict: %s", verdict.Status)

	bundle, err := support.Pack(o.ctx, o.store, o.cfg.Run, verdict, &list, now)
	if err != nil {
		return err
	}
	if err := o.log.Append(o.ctx, nats.KindPack, o.cfg.Run, map[string]any{
		"version": bundle.Version,
	}); err != nil {
		return fmt.Errorf("failed to record pack: %w", err)
	}

	// The bundle the run hands off must itself pass verification.
	return review.VerifyBundle(o.store.Path(plan.ArtifactBundle))
}

// hookFor maps an event kind to its configured hook, if any.
func (o *Orchestrator) hookFor(kind string) *hooks.HookConfig {
	if o.hooks == nil {
		return nil
	}
	switch kind {
	case nats.KindRunStart:
		return o.hooks.Hooks.RunStart
	case nats.KindStageComplete:
		return o.hooks.Hooks.StageComplete
	case nats.KindRunComplete:
		return o.hooks.Hooks.RunComplete
	}
	return nil
}

// runHook executes a hook with run and stage variables expanded. Hook
// failures degrade to log output; only context cancellation propagates.
func (o *Orchestrator) runHook(hook *hooks.HookConfig, stage int) error {
	if hook == nil {
		return nil
	}
	vars := hooks.Variables{Run: o.cfg.Run}
	if stage > 0 {
		vars.Stage = strconv.Itoa(stage)
	}
	output, err := hooks.Execute(o.ctx, hook, o.cfg.WorkDir, vars)
	if err != nil {
		return err
	}
	if output != "" {
		logger.Debug("Hook output: %s", output)
	}
	return nil
}

// Stop gracefully shuts down all components.
// It collects errors from each component and returns a combined error if any fail.
// Multiple calls to Stop() are safe and idempotent.
func (o *Orchestrator) Stop() error {
	if o.stopped {
		return nil
	}
	o.stopped = true

	logger.Info("Stopping orchestrator for run '%s'", o.cfg.Run)

	multiErr := &ierr.MultiError{}

	if o.cancel != nil {
		o.cancel()
	}

	if err := nats.Shutdown(o.nc, o.ns); err != nil {
		logger.Error("NATS shutdown failed: %v", err)
		multiErr.Append(fmt.Errorf("NATS shutdown failed: %w", err))
	}

	o.nc = nil
	o.ns = nil

	logger.Info("Orchestrator stopped")
	return multiErr.ErrorOrNil()
}

// Events replays the run's full event history.
func (o *Orchestrator) Events() ([]events.Event, error) {
	return o.log.List(o.ctx)
}
