package plan

import (
	"regexp"
	"strings"

	"github.com/syntax-syndicate/cogflow/internal/ideas"
	"github.com/syntax-syndicate/cogflow/internal/logger"
)

// Synthesize builds the master plan from the clustered idea set. The
// stage skeleton, agent registry, and tracking pattern are fixed; ideas
// contribute only text:
//
//   - STAGES ideas extend the step list of the stage they mention,
//   - TRACKING ideas annotate the tracking documentation,
//   - AGENTS ideas annotate the registry entry they name,
//   - PATHS and FILES ideas declare file references.
//
// A stage no idea contributes to keeps its built-in default steps, so
// the plan is always structurally complete, even for an empty idea set.
func Synthesize(set *ideas.Set) *Plan {
	p := &Plan{
		Agents:   defaultAgents(),
		Tracking: defaultTracking(),
	}

	for i, tmpl := range stageTemplates {
		p.Stages = append(p.Stages, Stage{
			Index:   i + 1,
			Name:    tmpl.name,
			Goal:    tmpl.goal,
			Inputs:  append([]string(nil), tmpl.inputs...),
			Outputs: append([]string(nil), tmpl.outputs...),
			Agents:  append([]string(nil), tmpl.agents...),
			Steps:   append([]string(nil), tmpl.defaultSteps...),
		})
	}

	for _, idea := range set.Ideas {
		switch idea.Cluster {
		case ideas.ClusterStages:
			idx := stageForIdea(idea.Summary)
			stage := p.StageByIndex(idx)
			stage.Steps = append(stage.Steps, "Address: "+idea.Summary)
		case ideas.ClusterTracking:
			p.Tracking.Notes = append(p.Tracking.Notes, idea.Summary)
		case ideas.ClusterAgents:
			if agent := agentForIdea(p, idea.Summary); agent != nil {
				agent.Notes = append(agent.Notes, idea.Summary)
			}
		case ideas.ClusterPaths, ideas.ClusterFiles:
			if ref := fileRefForIdea(idea); ref != nil {
				p.Files = append(p.Files, *ref)
			}
		}
	}

	logger.Debug("Synthesized plan: %d stages, %d agents, %d file refs",
		len(p.Stages), len(p.Agents), len(p.Files))
	return p
}

// stageKeywords maps wording in a STAGES idea to the stage it most
// plausibly concerns. First match in order wins; unmatched ideas attach
// to the extraction stage, the pipeline's workhorse.
var stageKeywords = []struct {
	re    *regexp.Regexp
	stage int
}{
	{regexp.MustCompile(`\b(intake|inbox|sources?|notes?)\b`), 1},
	{regexp.MustCompile(`\b(extract\w*|normali[sz]\w*|dedup\w*|ideas?)\b`), 2},
	{regexp.MustCompile(`\b(synth\w*|master plan|blueprint|diagrams?)\b`), 3},
	{regexp.MustCompile(`\b(tasks?|tracking)\b`), 4},
	{regexp.MustCompile(`\b(draft\w*|implement\w*|coding)\b`), 5},
	{regexp.MustCompile(`\b(review\w*|pack\w*|handoff|final\w*|bundle)\b`), 6},
}

func stageForIdea(summary string) int {
	lower := strings.ToLower(summary)
	for _, kw := range stageKeywords {
		if kw.re.MatchString(lower) {
			return kw.stage
		}
	}
	return 2
}

// agentForIdea returns the registry entry named in the idea summary,
// or nil when no specific agent is mentioned.
func agentForIdea(p *Plan, summary string) *Agent {
	lower := strings.ToLower(summary)
	for _, name := range []string{AgentMonitor, AgentClean, AgentPack} {
		if strings.Contains(lower, name) {
			return p.AgentByName(name)
		}
	}
	return nil
}

var pathTokenRe = regexp.MustCompile(`[\w./-]*(?:/[\w./-]+|\.\w{2,4})\b`)

// fileRefForIdea pulls the first path-like or filename-like token out
// of a PATHS/FILES idea. Ideas that talk about paths without naming one
// contribute nothing.
func fileRefForIdea(idea ideas.Idea) *FileRef {
	tok := pathTokenRe.FindString(idea.Summary)
	if tok == "" {
		return nil
	}
	tok = strings.TrimRight(tok, ".")
	if tok == "" || tok == "/" {
		return nil
	}
	return &FileRef{Path: tok, Role: "declared by idea " + idea.ID}
}
