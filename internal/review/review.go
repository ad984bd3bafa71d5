// Package review runs the fixed pre-packaging checklist against the
// plan and task set. The engine is read-only: it never mutates its
// inputs, and its only outputs are the verdict artifact and a log
// event, both written by the orchestrator.
package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/syntax-syndicate/cogflow/internal/ident"
	"github.com/syntax-syndicate/cogflow/internal/plan"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

// Status is a check or verdict outcome.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckResult is one itemized checklist entry.
type CheckResult struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Note   string `json:"note"`
}

// Verdict is the stage-6 review artifact. Aggregation: any fail makes
// the verdict fail; otherwise any warn makes it warn; otherwise ok.
// Adding a violation can therefore never improve the verdict.
type Verdict struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

// FailNotes returns the notes of all failing checks.
func (v *Verdict) FailNotes() []string {
	var notes []string
	for _, c := range v.Checks {
		if c.Status == StatusFail {
			notes = append(notes, fmt.Sprintf("%s: %s", c.Name, c.Note))
		}
	}
	return notes
}

// RequiredManifestKeys are the logical artifact names the terminal
// bundle's manifest must map to persisted locations.
var RequiredManifestKeys = []string{
	"unique_ideas",
	"master_plan_json",
	"master_plan_md",
	"tasks_json",
	"draft_notes",
	"monitor_json",
	"clean_report_json",
	"review_json",
}

// Input carries everything the checklist inspects. All paths are
// absolute; BundlePath may point at a file that does not exist yet.
type Input struct {
	Plan         *plan.Plan
	Tasks        *tasks.List
	PlanMarkdown string
	IdeaCount    int
	InboxRoot    string
	ProjectRoot  string
	BundlePath   string
}

// Run executes every check independently and aggregates the verdict.
func Run(in Input) *Verdict {
	v := &Verdict{}
	v.Checks = append(v.Checks,
		checkStageIndices(in.Plan),
		checkAgentRegistry(in.Plan),
		checkTaskIDs(in.Tasks),
		checkArtifactRoots(in.Plan, in.InboxRoot, in.ProjectRoot),
		checkDiagramBlocks(in.PlanMarkdown),
		checkBundle(in.BundlePath),
		checkIdeaCoverage(in.IdeaCount),
	)

	v.Status = StatusOK
	for _, c := range v.Checks {
		switch c.Status {
		case StatusFail:
			v.Status = StatusFail
		case StatusWarn:
			if v.Status != StatusFail {
				v.Status = StatusWarn
			}
		}
	}
	return v
}

// checkStageIndices verifies all six stage indices are present and
// contiguous.
func checkStageIndices(p *plan.Plan) CheckResult {
	res := CheckResult{Name: "stage-indices", Status: StatusOK, Note: "six contiguous stages"}
	if len(p.Stages) != plan.StageCount {
		res.Status = StatusFail
		res.Note = fmt.Sprintf("expected %d stages, found %d", plan.StageCount, len(p.Stages))
		return res
	}
	for want := 1; want <= plan.StageCount; want++ {
		if p.StageByIndex(want) == nil {
			res.Status = StatusFail
			res.Note = fmt.Sprintf("stage indices not contiguous: missing stage %d", want)
			return res
		}
	}
	return res
}

// checkAgentRegistry verifies the three support agents are registered
// with non-empty descriptions.
func checkAgentRegistry(p *plan.Plan) CheckResult {
	res := CheckResult{Name: "agent-registry", Status: StatusOK, Note: "monitor, clean, pack registered"}
	for _, name := range []string{plan.AgentMonitor, plan.AgentClean, plan.AgentPack} {
		ag := p.AgentByName(name)
		if ag == nil {
			res.Status = StatusFail
			res.Note = fmt.Sprintf("support agent %q missing from registry", name)
			return res
		}
		if strings.TrimSpace(ag.Description) == "" {
			res.Status = StatusFail
			res.Note = fmt.Sprintf("support agent %q has an empty description", name)
			return res
		}
	}
	return res
}

// checkTaskIDs verifies every task id matches the tracking pattern, is
// internally consistent with the recorded stage and step index, and is
// unique across the list.
func checkTaskIDs(list *tasks.List) CheckResult {
	res := CheckResult{Name: "task-ids", Status: StatusOK,
		Note: fmt.Sprintf("%d task ids consistent", len(list.Tasks))}
	seen := make(map[string]bool, len(list.Tasks))
	for _, t := range list.Tasks {
		stage, seq, ok := ident.ParseTaskID(t.ID)
		if !ok {
			res.Status = StatusFail
			res.Note = fmt.Sprintf("task id %q does not match pattern %s", t.ID, ident.TrackingPattern)
			return res
		}
		if stage != t.Stage || seq != t.StepIndex {
			res.Status = StatusFail
			res.Note = fmt.Sprintf("task id %q disagrees with recorded stage %d step %d", t.ID, t.Stage, t.StepIndex)
			return res
		}
		if seen[t.ID] {
			res.Status = StatusFail
			res.Note = fmt.Sprintf("task id %q is not unique", t.ID)
			return res
		}
		seen[t.ID] = true
	}
	return res
}

// checkArtifactRoots verifies every declared artifact path falls under
// one of the two permitted roots. Relative paths resolve against the
// project root.
func checkArtifactRoots(p *plan.Plan, inboxRoot, projectRoot string) CheckResult {
	res := CheckResult{Name: "artifact-roots", Status: StatusOK, Note: "all declared paths under permitted roots"}

	var declared []string
	for _, st := range p.Stages {
		declared = append(declared, st.Inputs...)
		declared = append(declared, st.Outputs...)
	}
	for _, f := range p.Files {
		declared = append(declared, f.Path)
	}

	for _, path := range declared {
		if !underRoot(path, projectRoot) && !underRoot(path, inboxRoot) {
			res.Status = StatusFail
			res.Note = fmt.Sprintf("declared path %q is outside the permitted roots", path)
			return res
		}
	}
	return res
}

// underRoot reports whether path (absolute or root-relative) resolves
// inside root without escaping it.
func underRoot(path, root string) bool {
	if root == "" {
		return false
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}

// checkDiagramBlocks verifies every embedded diagram fence in the
// markdown plan is balanced and has a non-empty body.
func checkDiagramBlocks(markdown string) CheckResult {
	res := CheckResult{Name: "diagram-blocks", Status: StatusOK}

	blocks := 0
	rest := markdown
	for {
		start := strings.Index(rest, plan.DiagramFence)
		if start < 0 {
			break
		}
		body := rest[start+len(plan.DiagramFence):]
		end := strings.Index(body, "```")
		if end < 0 {
			res.Status = StatusFail
			res.Note = "unbalanced diagram block delimiter"
			return res
		}
		if strings.TrimSpace(body[:end]) == "" {
			res.Status = StatusFail
			res.Note = "diagram block has an empty body"
			return res
		}
		blocks++
		rest = body[end+3:]
	}

	if blocks == 0 {
		res.Status = StatusWarn
		res.Note = "no diagram blocks found in plan markdown"
		return res
	}
	res.Note = fmt.Sprintf("%d well-formed diagram blocks", blocks)
	return res
}

// checkBundle verifies that an already-assembled terminal bundle parses
// and carries the required manifest keys. On the first run the bundle
// does not exist yet; that is not a violation, and the orchestrator
// re-verifies the bundle right after pack via VerifyBundle.
func checkBundle(bundlePath string) CheckResult {
	res := CheckResult{Name: "handoff-bundle", Status: StatusOK}
	if bundlePath == "" {
		res.Note = "bundle not yet assembled (verified after pack)"
		return res
	}
	if _, err := os.Stat(bundlePath); err != nil {
		res.Note = "bundle not yet assembled (verified after pack)"
		return res
	}
	if err := VerifyBundle(bundlePath); err != nil {
		res.Status = StatusFail
		res.Note = err.Error()
		return res
	}
	res.Note = "existing bundle parses with all manifest keys"
	return res
}

// VerifyBundle parses the terminal bundle as structured data and checks
// the required manifest keys are present. The orchestrator calls this
// after pack; the checklist calls it for bundles left by prior runs.
func VerifyBundle(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bundle unreadable: %v", err)
	}
	var bundle struct {
		Version   int               `json:"version"`
		Artifacts map[string]string `json:"artifacts"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("bundle does not parse: %v", err)
	}
	if bundle.Version < 1 {
		return fmt.Errorf("bundle version %d is not positive", bundle.Version)
	}
	for _, key := range RequiredManifestKeys {
		if bundle.Artifacts[key] == "" {
			return fmt.Errorf("bundle manifest is missing key %q", key)
		}
	}
	return nil
}

// checkIdeaCoverage flags an empty idea set. The pipeline tolerates
// zero ideas, but a plan built entirely from defaults deserves a
// warning.
func checkIdeaCoverage(ideaCount int) CheckResult {
	res := CheckResult{Name: "idea-coverage", Status: StatusOK,
		Note: fmt.Sprintf("%d ideas contributed to the plan", ideaCount)}
	if ideaCount == 0 {
		res.Status = StatusWarn
		res.Note = "no ideas extracted from source notes; plan uses built-in defaults"
	}
	return res
}
