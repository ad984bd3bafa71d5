// Package ident allocates the stable identifiers used across the
// pipeline: idea keys and dash-numbered task ids.
package ident

import (
	"fmt"
	"regexp"
	"strconv"
)

// TrackingPattern documents the task id scheme carried through the plan
// and the terminal bundle.
const TrackingPattern = "handoff-<stage>-task-<n>"

var taskIDRe = regexp.MustCompile(`^handoff-(\d+)-task-(\d+)$`)

// TaskID returns the task id for a step position within a stage. It is
// a pure function: the same (stage, seq) pair always yields the same id.
func TaskID(stage, seq int) string {
	return fmt.Sprintf("handoff-%d-task-%d", stage, seq)
}

// ParseTaskID decodes a task id into its stage index and step position.
func ParseTaskID(id string) (stage, seq int, ok bool) {
	m := taskIDRe.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, false
	}
	stage, err1 := strconv.Atoi(m[1])
	seq, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return stage, seq, true
}

// Allocator hands out monotonically increasing idea ids for one run.
// It is owned by the run context rather than being a process global so
// parallel test runs do not interfere. Ids are never reused, even when
// an idea is later dropped.
type Allocator struct {
	nextIdea int
}

// NewAllocator returns an allocator whose first idea id is I-001.
func NewAllocator() *Allocator {
	return &Allocator{nextIdea: 1}
}

// NextIdeaID returns the next idea id in the form I-001, I-002, ...
func (a *Allocator) NextIdeaID() string {
	id := fmt.Sprintf("I-%03d", a.nextIdea)
	a.nextIdea++
	return id
}
