package plan

import "github.com/syntax-syndicate/cogflow/internal/ident"

// Canonical support-agent names. The registry is a closed three-entry
// enumeration; the review engine checks it structurally.
const (
	AgentMonitor = "monitor"
	AgentClean   = "clean"
	AgentPack    = "pack"
)

// Canonical artifact names handed off between stages. These double as
// paths relative to the project root.
const (
	ArtifactNotes      = "stage1_notes.md"
	ArtifactIdeas      = "stage2_unique_ideas.json"
	ArtifactPlanJSON   = "stage3_master_plan.json"
	ArtifactPlanMD     = "stage3_master_plan.md"
	ArtifactTasks      = "stage4_tasks.json"
	ArtifactDraftNotes = "stage5_draft_notes.md"
	ArtifactReview     = "_meta/stage6_review.json"
	ArtifactMonitor    = "_meta/monitor_summary.json"
	ArtifactClean      = "_meta/clean_report.json"
	ArtifactBundle     = "stage2_handoff.json"
)

// stageTemplate is the fixed skeleton for one stage: everything except
// the idea-contributed step extensions.
type stageTemplate struct {
	name         string
	goal         string
	inputs       []string
	outputs      []string
	agents       []string
	defaultSteps []string
}

// stageTemplates defines the six fixed stages in order. Index i in this
// slice is stage i+1.
var stageTemplates = [StageCount]stageTemplate{
	{
		name:    "Source Intake",
		goal:    "Collect the stage-1 source notes from the inbox and project roots.",
		outputs: []string{ArtifactNotes},
		defaultSteps: []string{
			"Scan the inbox and project roots for stage-1 note files",
			"Record origin labels and discard empty notes",
		},
	},
	{
		name:    "Idea Extraction",
		goal:    "Extract, normalize, and deduplicate every distinct idea from the source notes.",
		inputs:  []string{ArtifactNotes},
		outputs: []string{ArtifactIdeas},
		agents:  []string{"analyzer"},
		defaultSteps: []string{
			"Segment each note into candidate statements",
			"Assign each candidate to one of the six clusters",
			"Merge near-duplicate candidates and union their sources",
		},
	},
	{
		name:    "Plan Synthesis",
		goal:    "Merge the deduplicated ideas into a single coherent master plan.",
		inputs:  []string{ArtifactIdeas},
		outputs: []string{ArtifactPlanJSON, ArtifactPlanMD},
		agents:  []string{"planner"},
		defaultSteps: []string{
			"Populate the six stage templates from the clustered ideas",
			"Render the plan as markdown with embedded diagrams",
		},
	},
	{
		name:    "Task Planning",
		goal:    "Expand the master plan into addressable, dash-numbered task records.",
		inputs:  []string{ArtifactPlanJSON},
		outputs: []string{ArtifactTasks},
		defaultSteps: []string{
			"Allocate one task per plan step in stage order",
			"Persist the task list with pending status",
		},
	},
	{
		name:    "Implementation Drafting",
		goal:    "Produce a best-effort implementation note for every task.",
		inputs:  []string{ArtifactTasks},
		outputs: []string{ArtifactDraftNotes},
		agents:  []string{"coder"},
		defaultSteps: []string{
			"Draft one implementation note per task",
		},
	},
	{
		name:    "Review & Handoff",
		goal:    "Cross-check the plan and tasks, then assemble the terminal handoff bundle.",
		inputs:  []string{ArtifactPlanJSON, ArtifactTasks, ArtifactDraftNotes},
		outputs: []string{ArtifactReview, ArtifactBundle},
		agents:  []string{"reviewer", AgentMonitor, AgentClean, AgentPack},
		defaultSteps: []string{
			"Run the review checklist against the plan and tasks",
			"Assemble and version the handoff bundle",
		},
	},
}

// defaultAgents is the fixed three-entry support-agent registry.
func defaultAgents() []Agent {
	return []Agent{
		{Name: AgentMonitor, Description: "Summarizes task distribution across stages and flags obvious gaps."},
		{Name: AgentClean, Description: "Re-parses and canonically re-serializes structured artifacts, reporting skips."},
		{Name: AgentPack, Description: "Assembles and versions the terminal handoff bundle for downstream systems."},
	}
}

// defaultTracking documents the dash-number task id scheme.
func defaultTracking() Tracking {
	return Tracking{
		Pattern:  ident.TrackingPattern,
		Examples: []string{ident.TaskID(2, 1), ident.TaskID(5, 3)},
	}
}
