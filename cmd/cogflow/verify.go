package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/syntax-syndicate/cogflow/internal/artifact"
	"github.com/syntax-syndicate/cogflow/internal/config"
	"github.com/syntax-syndicate/cogflow/internal/ideas"
	"github.com/syntax-syndicate/cogflow/internal/plan"
	"github.com/syntax-syndicate/cogflow/internal/review"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the review checklist against persisted artifacts",
	Long: `Run the review checklist against whatever the last run persisted,
without executing the pipeline. Useful after hand-editing artifacts or
before re-packing.

Exits non-zero when the verdict is fail.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := artifact.NewStore(cfg.ProjectRoot, nil)

	var p plan.Plan
	if err := store.ReadJSON(plan.ArtifactPlanJSON, &p); err != nil {
		return fmt.Errorf("cannot verify without a persisted plan: %w", err)
	}
	var list tasks.List
	if err := store.ReadJSON(plan.ArtifactTasks, &list); err != nil {
		return fmt.Errorf("cannot verify without a persisted task list: %w", err)
	}
	planMD, err := store.ReadText(plan.ArtifactPlanMD)
	if err != nil {
		return fmt.Errorf("cannot verify without the markdown plan: %w", err)
	}

	var set ideas.Set
	if err := store.ReadJSON(plan.ArtifactIdeas, &set); err != nil && !artifact.IsMissing(err) {
		return err
	}

	inboxAbs, err := filepath.Abs(cfg.InboxDir)
	if err != nil {
		return err
	}
	projectAbs, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return err
	}

	verdict := review.Run(review.Input{
		Plan:         &p,
		Tasks:        &list,
		PlanMarkdown: planMD,
		IdeaCount:    len(set.Ideas),
		InboxRoot:    inboxAbs,
		ProjectRoot:  projectAbs,
		BundlePath:   store.Path(plan.ArtifactBundle),
	})

	for _, c := range verdict.Checks {
		fmt.Printf("%-16s %-5s %s\n", c.Name, c.Status, c.Note)
	}
	fmt.Printf("\nVerdict: %s\n", verdict.Status)

	if verdict.Status == review.StatusFail {
		return fmt.Errorf("review verdict is fail")
	}
	return nil
}
