// Package tasks expands the master plan into addressable, stateful
// task records. Task ids are a pure function of stage index and step
// position, so re-running the tracker against an unchanged plan yields
// byte-identical ids; only timestamps differ between runs.
package tasks

import (
	"time"

	"github.com/syntax-syndicate/cogflow/internal/ident"
	"github.com/syntax-syndicate/cogflow/internal/logger"
	"github.com/syntax-syndicate/cogflow/internal/plan"
)

// Status values a task can hold.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusBlocked    = "blocked"
)

// ValidStatus reports whether s is a recognized task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// Task is one addressable unit of work derived from one plan step.
type Task struct {
	ID        string    `json:"id"`
	Stage     int       `json:"stage"`
	StageName string    `json:"stage_name"`
	StepIndex int       `json:"step_index"`
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// List is the stage-4 artifact.
type List struct {
	Tasks []Task `json:"tasks"`
}

// Expand walks the plan in increasing stage order and allocates one
// pending task per step, 1-based within each stage. A stage with zero
// steps contributes zero tasks and is not an error.
func Expand(p *plan.Plan, now time.Time) *List {
	list := &List{}
	for _, stage := range p.Stages {
		for i, step := range stage.Steps {
			list.Tasks = append(list.Tasks, Task{
				ID:        ident.TaskID(stage.Index, i+1),
				Stage:     stage.Index,
				StageName: stage.Name,
				StepIndex: i + 1,
				Step:      step,
				Status:    StatusPending,
				CreatedAt: now,
			})
		}
	}
	logger.Debug("Expanded plan into %d tasks", len(list.Tasks))
	return list
}

// CountByStage returns the number of tasks per stage index.
func (l *List) CountByStage() map[int]int {
	counts := make(map[int]int)
	for _, t := range l.Tasks {
		counts[t.Stage]++
	}
	return counts
}
