// Package plan synthesizes the structured six-stage master plan from
// the deduplicated idea set. Synthesis is deterministic: the stage
// skeleton is fixed and ideas only influence the attached text, so the
// same idea set always produces the same plan.
package plan

// StageCount is the fixed number of pipeline stages. The stage list is
// a closed template; ideas can extend steps but never add or remove
// stages.
const StageCount = 6

// Stage is one pipeline stage in the master plan. Indices are
// contiguous 1..6 and a stage's inputs may only reference artifacts
// produced by a stage with a strictly smaller index.
type Stage struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Goal    string   `json:"goal"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
	Agents  []string `json:"agents"`
	Steps   []string `json:"steps"`
}

// Agent is one entry in the fixed support-agent registry.
type Agent struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Notes       []string `json:"notes,omitempty"`
}

// Tracking documents the task-id scheme the tracker will apply.
type Tracking struct {
	Pattern  string   `json:"pattern"`
	Examples []string `json:"examples"`
	Notes    []string `json:"notes,omitempty"`
}

// FileRef declares a file the plan expects to exist or produce,
// relative to the project root unless stated otherwise.
type FileRef struct {
	Path string `json:"path"`
	Role string `json:"role"`
}

// Plan is the structured stage-3 artifact.
type Plan struct {
	Stages   []Stage   `json:"stages"`
	Agents   []Agent   `json:"agents"`
	Tracking Tracking  `json:"tracking"`
	Files    []FileRef `json:"files,omitempty"`
}

// StageByIndex returns the stage with the given index, or nil.
func (p *Plan) StageByIndex(idx int) *Stage {
	for i := range p.Stages {
		if p.Stages[i].Index == idx {
			return &p.Stages[i]
		}
	}
	return nil
}

// AgentByName returns the registry entry with the given name, or nil.
func (p *Plan) AgentByName(name string) *Agent {
	for i := range p.Agents {
		if p.Agents[i].Name == name {
			return &p.Agents[i]
		}
	}
	return nil
}
