package ideas

import (
	"strings"
	"testing"

	"github.com/syntax-syndicate/cogflow/internal/ident"
)

func newTestExtractor() *Extractor {
	return NewExtractor(ident.NewAllocator())
}

func TestExtractMergesNearDuplicates(t *testing.T) {
	notes := []SourceNote{
		{Origin: "perplexity", Content: "The pipeline has six stages with clear handoffs."},
		{Origin: "chatgpt", Content: "There should be six stages with clean handoffs."},
	}

	set := newTestExtractor().Extract(notes)

	if len(set.Ideas) != 1 {
		t.Fatalf("expected the two phrasings to merge into one idea, got %d", len(set.Ideas))
	}

	idea := set.Ideas[0]
	if idea.ID != "I-001" {
		t.Errorf("merged idea id = %q, want I-001", idea.ID)
	}
	// First-seen wording wins.
	if !strings.Contains(idea.Summary, "clear handoffs") {
		t.Errorf("merged idea kept wrong wording: %q", idea.Summary)
	}
	if len(idea.Sources) != 2 {
		t.Fatalf("merged idea sources = %v, want both origins", idea.Sources)
	}
}

func TestExtractKeepsDistinctIdeas(t *testing.T) {
	notes := []SourceNote{
		{Origin: "a", Content: "- The pipeline has six stages\n- Tasks use tracking ids\n- Store drafts in projects/current_project"},
	}

	set := newTestExtractor().Extract(notes)

	if len(set.Ideas) != 3 {
		t.Fatalf("expected 3 distinct ideas, got %d", len(set.Ideas))
	}
	for i, want := range []string{"I-001", "I-002", "I-003"} {
		if set.Ideas[i].ID != want {
			t.Errorf("idea %d id = %q, want %q", i, set.Ideas[i].ID, want)
		}
	}
}

func TestExtractEmptyNotes(t *testing.T) {
	set := newTestExtractor().Extract(nil)
	if !set.Empty() {
		t.Errorf("expected empty set for no notes, got %d ideas", len(set.Ideas))
	}
}

func TestExtractDuplicateSameOrigin(t *testing.T) {
	notes := []SourceNote{
		{Origin: "a", Content: "The pipeline has six stages with clear handoffs.\n\nThe pipeline has six stages with clear handoffs."},
	}

	set := newTestExtractor().Extract(notes)

	if len(set.Ideas) != 1 {
		t.Fatalf("expected 1 idea, got %d", len(set.Ideas))
	}
	if len(set.Ideas[0].Sources) != 1 {
		t.Errorf("same origin must not be recorded twice: %v", set.Ideas[0].Sources)
	}
}

func TestExtractDeduplicationIdempotent(t *testing.T) {
	notes := []SourceNote{
		{Origin: "perplexity", Content: "# Research\n- The pipeline has six stages with clear handoffs.\n- Tasks use tracking ids like handoff-2-task-1.\n- Store drafts in projects/current_project"},
		{Origin: "chatgpt", Content: "There should be six stages with clean handoffs.\n\n- The monitor agent should flag empty stages."},
	}

	first := newTestExtractor().Extract(notes)
	if first.Empty() {
		t.Fatal("first pass produced no ideas")
	}

	// Feed the deduplicated set back through a fresh extractor, one note
	// per surviving idea. Nothing new to merge means nothing changes.
	refed := make([]SourceNote, len(first.Ideas))
	for i, idea := range first.Ideas {
		refed[i] = SourceNote{Origin: idea.Sources[0], Content: idea.Summary}
	}
	second := newTestExtractor().Extract(refed)

	if len(second.Ideas) != len(first.Ideas) {
		t.Fatalf("second pass idea count = %d, want %d", len(second.Ideas), len(first.Ideas))
	}
	for i := range first.Ideas {
		if second.Ideas[i].ID != first.Ideas[i].ID {
			t.Errorf("idea %d id = %q, want %q", i, second.Ideas[i].ID, first.Ideas[i].ID)
		}
		if second.Ideas[i].Summary != first.Ideas[i].Summary {
			t.Errorf("idea %d summary = %q, want %q", i, second.Ideas[i].Summary, first.Ideas[i].Summary)
		}
		if second.Ideas[i].Cluster != first.Ideas[i].Cluster {
			t.Errorf("idea %d cluster = %q, want %q", i, second.Ideas[i].Cluster, first.Ideas[i].Cluster)
		}
	}
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "headings and bullets",
			content: "# Title\n- first point\n* second point\n1. third point",
			want:    []string{"Title", "first point", "second point", "third point"},
		},
		{
			name:    "plain lines accumulate until blank",
			content: "one line\nand another\n\nnew chunk",
			want:    []string{"one line and another", "new chunk"},
		},
		{
			name:    "whitespace only",
			content: "   \n\n  \t ",
			want:    nil,
		},
		{
			name:    "empty bullet dropped",
			content: "- \n- real",
			want:    []string{"real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segment(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("segment() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("candidate %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		candidate string
		want      Cluster
	}{
		{"Use handoff-2-task-1 for tracking", ClusterTracking},
		{"Task ids should be stable", ClusterTracking},
		{"The pipeline has six stages with clear handoffs", ClusterStages},
		{"there should be six stages with clean handoffs", ClusterStages},
		{"The monitor agent watches everything", ClusterAgents},
		{"Write results to stage4_tasks.json", ClusterFiles},
		{"Keep drafts under projects/current_project", ClusterPaths},
		{"The inbox holds raw notes", ClusterPaths},
		{"Quality matters most", ClusterMisc},
		// Word boundaries: "stage1" alone is not stage wording.
		{"Read stage1_notes.md first", ClusterFiles},
	}

	for _, tt := range tests {
		if got := classify(tt.candidate); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.candidate, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	a := normalize("The pipeline has six stages with clear handoffs")
	b := normalize("There should be six stages with clean handoffs")

	if got := similarity(a, b); got < SimilarityThreshold {
		t.Errorf("similarity = %.2f, want >= %.2f", got, SimilarityThreshold)
	}

	c := normalize("Completely unrelated topic about databases")
	if got := similarity(a, c); got >= SimilarityThreshold {
		t.Errorf("unrelated similarity = %.2f, want < %.2f", got, SimilarityThreshold)
	}

	if got := similarity(normalize(""), a); got != 0 {
		t.Errorf("empty set similarity = %.2f, want 0", got)
	}
}

func TestNormalize(t *testing.T) {
	tokens := normalize("The Pipeline, has SIX stages!")
	for _, stop := range []string{"the", "has"} {
		if tokens[stop] {
			t.Errorf("stopword %q survived normalization", stop)
		}
	}
	for _, want := range []string{"pipeline", "six", "stages"} {
		if !tokens[want] {
			t.Errorf("token %q missing after normalization", want)
		}
	}
}
