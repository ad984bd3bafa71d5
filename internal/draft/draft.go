// Package draft implements the implementation-drafting stage: one
// best-effort markdown note per task, produced by the coder agent.
package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/syntax-syndicate/cogflow/internal/events"
	"github.com/syntax-syndicate/cogflow/internal/logger"
	"github.com/syntax-syndicate/cogflow/internal/nexus"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

// Drafter drives the coder agent over the task list. Invocation
// failures degrade to a note in the output rather than aborting the
// stage: drafting is best-effort and the review stage does not depend
// on its content.
type Drafter struct {
	inv  nexus.Invoker
	sink events.Sink
}

// NewDrafter builds a drafter over the given agent backend. A nil sink
// disables invocation events.
func NewDrafter(inv nexus.Invoker, sink events.Sink) *Drafter {
	return &Drafter{inv: inv, sink: sink}
}

// Draft produces the stage-5 notes document: a header plus one section
// per task, in task-list order. Context cancellation aborts between
// tasks; a per-task invocation failure does not.
func (d *Drafter) Draft(ctx context.Context, list *tasks.List) (string, error) {
	var b strings.Builder
	b.WriteString("# Implementation Draft Notes\n")

	for _, t := range list.Tasks {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		fmt.Fprintf(&b, "\n## %s — %s\n\n", t.ID, t.Step)
		fmt.Fprintf(&b, "Stage %d: %s\n\n", t.Stage, t.StageName)

		resp, err := d.inv.Invoke(ctx, nexus.Request{
			Kind:         nexus.KindCoder,
			TaskID:       t.ID,
			Instructions: instructions(t),
		})
		if err != nil {
			logger.Warn("Draft invocation for %s failed: %v", t.ID, err)
			fmt.Fprintf(&b, "_Draft unavailable: %v_\n", err)
			continue
		}

		b.WriteString(resp.Text)
		if !strings.HasSuffix(resp.Text, "\n") {
			b.WriteString("\n")
		}

		if d.sink != nil {
			payload := map[string]any{
				"task_id": t.ID,
				"kind":    string(nexus.KindCoder),
				"model":   resp.Model,
				"tokens":  resp.Tokens,
			}
			if err := d.sink.Append(ctx, "agent_call", t.ID, payload); err != nil {
				return "", fmt.Errorf("failed to record agent call for %s: %w", t.ID, err)
			}
		}
	}

	logger.Info("Drafted notes for %d tasks", len(list.Tasks))
	return b.String(), nil
}

func instructions(t tasks.Task) string {
	return fmt.Sprintf(
		"Draft a concise implementation note for task %s (stage %d, %s).\nStep: %s\nDescribe the approach, the files involved, and any open risks.",
		t.ID, t.Stage, t.StageName, t.Step)
}
