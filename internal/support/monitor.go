// Package support implements the three cross-cutting agents that run
// after the pipeline stages: monitor summarizes, clean canonicalizes,
// and pack assembles the terminal bundle. All three are read-mostly;
// only pack and clean touch disk, and clean never deletes.
package support

import (
	"fmt"
	"time"

	"github.com/syntax-syndicate/cogflow/internal/plan"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

// StageLoad is the per-stage slice of the monitor summary.
type StageLoad struct {
	Stage int    `json:"stage"`
	Name  string `json:"name"`
	Tasks int    `json:"tasks"`
}

// MonitorSummary is the monitor agent's artifact: task distribution
// across stages plus flagged gaps. It is advisory and never blocks the
// run.
type MonitorSummary struct {
	GeneratedAt time.Time   `json:"generated_at"`
	TotalTasks  int         `json:"total_tasks"`
	Stages      []StageLoad `json:"stages"`
	Gaps        []string    `json:"gaps"`
}

// Monitor summarizes how the task list covers the plan. A stage with no
// tasks and a task carrying an unrecognized status are both reported as
// gaps.
func Monitor(p *plan.Plan, list *tasks.List, now time.Time) *MonitorSummary {
	summary := &MonitorSummary{
		GeneratedAt: now,
		TotalTasks:  len(list.Tasks),
	}

	counts := list.CountByStage()
	for _, st := range p.Stages {
		summary.Stages = append(summary.Stages, StageLoad{
			Stage: st.Index,
			Name:  st.Name,
			Tasks: counts[st.Index],
		})
		if counts[st.Index] == 0 {
			summary.Gaps = append(summary.Gaps,
				fmt.Sprintf("stage %d (%s) has no tasks", st.Index, st.Name))
		}
	}

	for _, t := range list.Tasks {
		if !tasks.ValidStatus(t.Status) {
			summary.Gaps = append(summary.Gaps,
				fmt.Sprintf("task %s carries unrecognized status %q", t.ID, t.Status))
		}
	}
	return summary
}
