package review

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/syntax-syndicate/cogflow/internal/ideas"
	"github.com/syntax-syndicate/cogflow/internal/plan"
	"github.com/syntax-syndicate/cogflow/internal/tasks"
)

func goodInput(t *testing.T) Input {
	t.Helper()
	p := plan.Synthesize(&ideas.Set{})
	list := tasks.Expand(p, time.Now().UTC())
	return Input{
		Plan:         p,
		Tasks:        list,
		PlanMarkdown: p.Markdown(),
		IdeaCount:    3,
		InboxRoot:    filepath.Join(t.TempDir(), "inbox"),
		ProjectRoot:  t.TempDir(),
	}
}

func checkByName(t *testing.T, v *Verdict, name string) CheckResult {
	t.Helper()
	for _, c := range v.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q missing from verdict", name)
	return CheckResult{}
}

func TestRunCleanVerdict(t *testing.T) {
	v := Run(goodInput(t))

	if v.Status != StatusOK {
		t.Fatalf("verdict = %s, want ok; checks: %+v", v.Status, v.Checks)
	}
	if len(v.Checks) != 7 {
		t.Errorf("expected 7 checks, got %d", len(v.Checks))
	}
}

func TestStageIndicesCheck(t *testing.T) {
	in := goodInput(t)
	in.Plan.Stages = in.Plan.Stages[:5]

	v := Run(in)
	if v.Status != StatusFail {
		t.Errorf("verdict = %s, want fail", v.Status)
	}
	if c := checkByName(t, v, "stage-indices"); c.Status != StatusFail {
		t.Errorf("stage-indices = %s, want fail", c.Status)
	}
}

func TestStageIndicesNotContiguous(t *testing.T) {
	in := goodInput(t)
	in.Plan.Stages[2].Index = 9

	if c := checkByName(t, Run(in), "stage-indices"); c.Status != StatusFail {
		t.Errorf("stage-indices = %s, want fail", c.Status)
	}
}

func TestAgentRegistryCheck(t *testing.T) {
	t.Run("missing agent", func(t *testing.T) {
		in := goodInput(t)
		in.Plan.Agents = in.Plan.Agents[:2]
		if c := checkByName(t, Run(in), "agent-registry"); c.Status != StatusFail {
			t.Errorf("agent-registry = %s, want fail", c.Status)
		}
	})

	t.Run("empty description", func(t *testing.T) {
		in := goodInput(t)
		in.Plan.AgentByName(plan.AgentClean).Description = "  "
		if c := checkByName(t, Run(in), "agent-registry"); c.Status != StatusFail {
			t.Errorf("agent-registry = %s, want fail", c.Status)
		}
	})
}

func TestTaskIDsCheck(t *testing.T) {
	t.Run("malformed id", func(t *testing.T) {
		in := goodInput(t)
		in.Tasks.Tasks[0].ID = "task-1"
		if c := checkByName(t, Run(in), "task-ids"); c.Status != StatusFail {
			t.Errorf("task-ids = %s, want fail", c.Status)
		}
	})

	t.Run("inconsistent stage", func(t *testing.T) {
		in := goodInput(t)
		in.Tasks.Tasks[0].Stage = 4
		if c := checkByName(t, Run(in), "task-ids"); c.Status != StatusFail {
			t.Errorf("task-ids = %s, want fail", c.Status)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		in := goodInput(t)
		in.Tasks.Tasks[1] = in.Tasks.Tasks[0]
		if c := checkByName(t, Run(in), "task-ids"); c.Status != StatusFail {
			t.Errorf("task-ids = %s, want fail", c.Status)
		}
	})
}

func TestArtifactRootsCheck(t *testing.T) {
	t.Run("absolute path outside roots", func(t *testing.T) {
		in := goodInput(t)
		in.Plan.Files = append(in.Plan.Files, plan.FileRef{Path: "/etc/passwd", Role: "bad"})
		if c := checkByName(t, Run(in), "artifact-roots"); c.Status != StatusFail {
			t.Errorf("artifact-roots = %s, want fail", c.Status)
		}
	})

	t.Run("relative escape", func(t *testing.T) {
		in := goodInput(t)
		in.Plan.Files = append(in.Plan.Files, plan.FileRef{Path: "../outside.txt", Role: "bad"})
		if c := checkByName(t, Run(in), "artifact-roots"); c.Status != StatusFail {
			t.Errorf("artifact-roots = %s, want fail", c.Status)
		}
	})

	t.Run("relative path under project root", func(t *testing.T) {
		in := goodInput(t)
		in.Plan.Files = append(in.Plan.Files, plan.FileRef{Path: "notes/extra.md", Role: "fine"})
		if c := checkByName(t, Run(in), "artifact-roots"); c.Status != StatusOK {
			t.Errorf("artifact-roots = %s, want ok", c.Status)
		}
	})
}

func TestDiagramBlocksCheck(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     Status
	}{
		{"well formed", "intro\n```mermaid\nflowchart TD\nA --> B\n```\ntail", StatusOK},
		{"unbalanced", "```mermaid\nflowchart TD\nA --> B", StatusFail},
		{"empty body", "```mermaid\n\n```", StatusFail},
		{"no blocks", "plain markdown only", StatusWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := goodInput(t)
			in.PlanMarkdown = tt.markdown
			if c := checkByName(t, Run(in), "diagram-blocks"); c.Status != tt.want {
				t.Errorf("diagram-blocks = %s, want %s", c.Status, tt.want)
			}
		})
	}
}

func TestBundleCheck(t *testing.T) {
	t.Run("absent bundle is ok", func(t *testing.T) {
		in := goodInput(t)
		in.BundlePath = filepath.Join(t.TempDir(), "stage2_handoff.json")
		if c := checkByName(t, Run(in), "handoff-bundle"); c.Status != StatusOK {
			t.Errorf("handoff-bundle = %s, want ok", c.Status)
		}
	})

	t.Run("corrupt bundle fails", func(t *testing.T) {
		in := goodInput(t)
		path := filepath.Join(t.TempDir(), "stage2_handoff.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		in.BundlePath = path
		if c := checkByName(t, Run(in), "handoff-bundle"); c.Status != StatusFail {
			t.Errorf("handoff-bundle = %s, want fail", c.Status)
		}
	})
}

func TestIdeaCoverageWarn(t *testing.T) {
	in := goodInput(t)
	in.IdeaCount = 0

	v := Run(in)
	if v.Status != StatusWarn {
		t.Errorf("verdict = %s, want warn", v.Status)
	}
	if c := checkByName(t, v, "idea-coverage"); c.Status != StatusWarn {
		t.Errorf("idea-coverage = %s, want warn", c.Status)
	}
}

func TestAggregationMonotonic(t *testing.T) {
	// fail dominates warn: adding a failing check can never improve the verdict.
	in := goodInput(t)
	in.IdeaCount = 0
	in.Tasks.Tasks[0].ID = "broken"

	v := Run(in)
	if v.Status != StatusFail {
		t.Errorf("verdict = %s, want fail when both warn and fail present", v.Status)
	}
	if notes := v.FailNotes(); len(notes) == 0 {
		t.Error("expected fail notes")
	}
}

func TestVerifyBundle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")

	t.Run("valid", func(t *testing.T) {
		artifacts := "{"
		for i, key := range RequiredManifestKeys {
			if i > 0 {
				artifacts += ","
			}
			artifacts += `"` + key + `":"somewhere.json"`
		}
		artifacts += "}"
		content := `{"version":1,"artifacts":` + artifacts + `}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if err := VerifyBundle(path); err != nil {
			t.Errorf("VerifyBundle() = %v, want nil", err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		content := `{"version":1,"artifacts":{"unique_ideas":"x.json"}}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if err := VerifyBundle(path); err == nil {
			t.Error("expected error for incomplete manifest")
		}
	})

	t.Run("bad version", func(t *testing.T) {
		content := `{"version":0,"artifacts":{}}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if err := VerifyBundle(path); err == nil {
			t.Error("expected error for non-positive version")
		}
	})
}
