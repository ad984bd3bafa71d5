package support

import (
	"context"
	"time"

	"github.com/syntax-syndicate/cogflow/internal/artifact"
	cferr "github.com/syntax-syndicate/cogflow/internal/errors"
	"github.com/syntax-syndicate/cogflow/internal/ident"
	"github.com/syntax-syndicate/cogflow/internal/logger"
	"github.com/syntax-syndicate/cogflow/internal/plan"
	"github.com/syntax-syndicate/cogflow/internal/review"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

// Bundle is the terminal handoff artifact consumed by downstream
// systems. The manifest maps logical artifact names to store-relative
// paths; the version increments every time the bundle is reassembled.
type Bundle struct {
	Version         int               `json:"version"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Run             string            `json:"run"`
	TrackingPattern string            `json:"tracking_pattern"`
	TaskCount       int               `json:"task_count"`
	ReviewStatus    review.Status     `json:"review_status"`
	Artifacts       map[string]string `json:"artifacts"`
}

// manifest maps the required logical names to the canonical artifact
// paths they live at.
var manifest = map[string]string{
	"unique_ideas":      plan.ArtifactIdeas,
	"master_plan_json":  plan.ArtifactPlanJSON,
	"master_plan_md":    plan.ArtifactPlanMD,
	"tasks_json":        plan.ArtifactTasks,
	"draft_notes":       plan.ArtifactDraftNotes,
	"monitor_json":      plan.ArtifactMonitor,
	"clean_report_json": plan.ArtifactClean,
	"review_json":       plan.ArtifactReview,
}

// Pack assembles and persists the terminal bundle. A failing review
// verdict blocks assembly with a *ValidationFailure; warn and ok both
// proceed. If a bundle from a prior run exists its version is carried
// forward and incremented, so downstream consumers can detect stale
// reads.
func Pack(ctx context.Context, store *artifact.Store, run string, verdict *review.Verdict, list *tasks.List, now time.Time) (*Bundle, error) {
	if verdict.Status == review.StatusFail {
		return nil, &cferr.ValidationFailure{Notes: verdict.FailNotes()}
	}

	version := 1
	var prev Bundle
	if err := store.ReadJSON(plan.ArtifactBundle, &prev); err == nil {
		version = prev.Version + 1
	} else if !artifact.IsMissing(err) {
		// A corrupt prior bundle restarts the version sequence rather
		// than aborting the run; the clean report will have flagged it.
		logger.Warn("Prior bundle unreadable, restarting version sequence: %v", err)
	}

	bundle := &Bundle{
		Version:         version,
		GeneratedAt:     now,
		Run:             run,
		TrackingPattern: ident.TrackingPattern,
		TaskCount:       len(list.Tasks),
		ReviewStatus:    verdict.Status,
		Artifacts:       manifest,
	}
	if err := store.WriteJSON(ctx, plan.ArtifactBundle, bundle); err != nil {
		return nil, err
	}

	logger.Info("Packed handoff bundle v%d (%d artifacts)", bundle.Version, len(bundle.Artifacts))
	return bundle, nil
}
