package ideas

// Cluster is one of the six fixed topical buckets ideas are grouped
// into. The enumeration is closed; every idea belongs to exactly one.
type Cluster string

const (
	ClusterStages   Cluster = "STAGES"
	ClusterTracking Cluster = "TRACKING"
	ClusterPaths    Cluster = "PATHS"
	ClusterAgents   Cluster = "AGENTS"
	ClusterFiles    Cluster = "FILES"
	ClusterMisc     Cluster = "MISC"
)

// Clusters lists all clusters in canonical order.
var Clusters = []Cluster{
	ClusterStages,
	ClusterTracking,
	ClusterPaths,
	ClusterAgents,
	ClusterFiles,
	ClusterMisc,
}

// SourceNote is one free-text input note. Notes are immutable once
// loaded; the set for a run is whatever was found in the inbox root and
// project root at orchestration start.
type SourceNote struct {
	Origin  string `json:"origin"`
	Content string `json:"content"`
	Path    string `json:"path"`
}

// Idea is one deduplicated statement extracted from the source notes.
// Sources records every origin label that contributed; it grows only by
// merging, never shrinks.
type Idea struct {
	ID      string   `json:"id"`
	Summary string   `json:"summary"`
	Cluster Cluster  `json:"cluster"`
	Sources []string `json:"sources"`
}

// Set is the clustered idea list persisted as the stage-2 artifact.
type Set struct {
	Ideas []Idea `json:"ideas"`
}

// ByCluster returns the ideas belonging to one cluster, in extraction
// order.
func (s *Set) ByCluster(c Cluster) []Idea {
	var out []Idea
	for _, idea := range s.Ideas {
		if idea.Cluster == c {
			out = append(out, idea)
		}
	}
	return out
}

// Empty reports whether the set contains no ideas at all. An empty set
// is legal; downstream stages fall back to default plan content and the
// review engine flags it as a warning.
func (s *Set) Empty() bool { return len(s.Ideas) == 0 }
