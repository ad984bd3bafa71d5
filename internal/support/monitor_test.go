package support

import (
	"strings"
	"testing"
	"time"

	"github.com/syntax-syndicate/cogflow/internal/ideas"
	"github.com/syntax-syndicate/cogflow/internal/plan"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

func TestMonitorFullCoverage(t *testing.T) {
	p := plan.Synthesize(&ideas.Set{})
	list := tasks.Expand(p, time.Now().UTC())

	summary := Monitor(p, list, time.Now().UTC())

	if summary.TotalTasks != len(list.Tasks) {
		t.Errorf("total = %d, want %d", summary.TotalTasks, len(list.Tasks))
	}
	if len(summary.Stages) != plan.StageCount {
		t.Errorf("stage loads = %d, want %d", len(summary.Stages), plan.StageCount)
	}
	if len(summary.Gaps) != 0 {
		t.Errorf("unexpected gaps: %v", summary.Gaps)
	}
}

func TestMonitorFlagsEmptyStage(t *testing.T) {
	p := plan.Synthesize(&ideas.Set{})
	list := tasks.Expand(p, time.Now().UTC())

	// Drop every stage-1 task.
	var kept []tasks.Task
	for _, task := range list.Tasks {
		if task.Stage != 1 {
			kept = append(kept, task)
		}
	}
	list.Tasks = kept

	summary := Monitor(p, list, time.Now().UTC())

	found := false
	for _, gap := range summary.Gaps {
		if strings.Contains(gap, "stage 1") {
			found = true
		}
	}
	if !found {
		t.Errorf("empty stage not flagged: %v", summary.Gaps)
	}
}

func TestMonitorFlagsBadStatus(t *testing.T) {
	p := plan.Synthesize(&ideas.Set{})
	list := tasks.Expand(p, time.Now().UTC())
	list.Tasks[0].Status = "bogus"

	summary := Monitor(p, list, time.Now().UTC())

	found := false
	for _, gap := range summary.Gaps {
		if strings.Contains(gap, list.Tasks[0].ID) {
			found = true
		}
	}
	if !found {
		t.Errorf("bad status not flagged: %v", summary.Gaps)
	}
}
