package plan

import (
	"fmt"
	"strings"
)

// DiagramFence delimits embedded diagram blocks in the markdown plan.
// The review engine checks that every fence is balanced and every block
// body is non-empty.
const DiagramFence = "```mermaid"

// OverviewDiagram renders the stage-handoff graph as a mermaid
// flowchart. It is a pure formatting function over the stage list.
func (p *Plan) OverviewDiagram() string {
	var b strings.Builder
	b.WriteString(DiagramFence + "\n")
	b.WriteString("flowchart TD\n")

	for _, st := range p.Stages {
		fmt.Fprintf(&b, "    S%d[Stage %d: %s]\n", st.Index, st.Index, st.Name)
	}
	b.WriteString("    OUT[Downstream Systems]\n")

	for _, st := range p.Stages {
		if st.Index == 1 {
			continue
		}
		prev := p.StageByIndex(st.Index - 1)
		label := "handoff"
		if len(prev.Outputs) > 0 {
			label = prev.Outputs[0]
		}
		fmt.Fprintf(&b, "    S%d -->|%s| S%d\n", prev.Index, label, st.Index)
	}

	last := p.Stages[len(p.Stages)-1]
	label := "handoff"
	if len(last.Outputs) > 0 {
		label = last.Outputs[len(last.Outputs)-1]
	}
	fmt.Fprintf(&b, "    S%d -->|%s| OUT\n", last.Index, label)

	b.WriteString("```")
	return b.String()
}

// AgentsDiagram renders the agent-observation graph: every support
// agent watches every stage, and pack feeds the downstream consumer.
func (p *Plan) AgentsDiagram() string {
	var b strings.Builder
	b.WriteString(DiagramFence + "\n")
	b.WriteString("flowchart LR\n")

	b.WriteString("    subgraph Pipeline\n")
	for _, st := range p.Stages {
		fmt.Fprintf(&b, "        P%d[Stage %d: %s]\n", st.Index, st.Index, st.Name)
	}
	b.WriteString("    end\n")

	b.WriteString("    subgraph Support Agents\n")
	for _, ag := range p.Agents {
		fmt.Fprintf(&b, "        %s[%s agent]\n", agentNode(ag.Name), ag.Name)
	}
	b.WriteString("    end\n")

	for i := 1; i < len(p.Stages); i++ {
		fmt.Fprintf(&b, "    P%d --> P%d\n", p.Stages[i-1].Index, p.Stages[i].Index)
	}
	for _, ag := range p.Agents {
		for _, st := range p.Stages {
			fmt.Fprintf(&b, "    %s --> P%d\n", agentNode(ag.Name), st.Index)
		}
	}
	fmt.Fprintf(&b, "    %s -->|%s| OUT[External Orchestrator]\n", agentNode(AgentPack), ArtifactBundle)

	b.WriteString("```")
	return b.String()
}

func agentNode(name string) string {
	return strings.ToUpper(name)
}

// Markdown renders the human-readable form of the plan with both
// diagrams embedded.
func (p *Plan) Markdown() string {
	var b strings.Builder

	b.WriteString("# Master Plan\n\n")
	b.WriteString("## Overview\n\n")
	b.WriteString(p.OverviewDiagram())
	b.WriteString("\n\n## Agents\n\n")
	b.WriteString(p.AgentsDiagram())
	b.WriteString("\n")

	for _, ag := range p.Agents {
		fmt.Fprintf(&b, "\n- **%s** — %s", ag.Name, ag.Description)
		for _, note := range ag.Notes {
			fmt.Fprintf(&b, "\n  - %s", note)
		}
	}
	b.WriteString("\n\n## Tracking\n\n")
	fmt.Fprintf(&b, "Pattern: `%s`\n", p.Tracking.Pattern)
	for _, ex := range p.Tracking.Examples {
		fmt.Fprintf(&b, "- example: `%s`\n", ex)
	}
	for _, note := range p.Tracking.Notes {
		fmt.Fprintf(&b, "- %s\n", note)
	}

	b.WriteString("\n## Stages\n")
	for _, st := range p.Stages {
		fmt.Fprintf(&b, "\n### Stage %d: %s\n\n", st.Index, st.Name)
		fmt.Fprintf(&b, "**Goal:** %s\n\n", st.Goal)
		writeList(&b, "Inputs", st.Inputs)
		writeList(&b, "Outputs", st.Outputs)
		writeList(&b, "Agents", st.Agents)
		writeList(&b, "Steps", st.Steps)
	}

	if len(p.Files) > 0 {
		b.WriteString("\n## Files\n\n")
		for _, f := range p.Files {
			fmt.Fprintf(&b, "- `%s` — %s\n", f.Path, f.Role)
		}
	}

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
