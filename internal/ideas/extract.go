package ideas

import (
	"regexp"
	"strings"

	"github.com/syntax-syndicate/cogflow/internal/ident"
	"github.com/syntax-syndicate/cogflow/internal/logger"
)

// SimilarityThreshold is the fixed cutoff above which two candidates in
// the same cluster are considered duplicates. Similarity is the token
// overlap ratio |A∩B| / min(|A|,|B|) over normalized, stopword-filtered
// token sets; the min-denominator makes a short restatement of a longer
// idea still count as a duplicate.
const SimilarityThreshold = 0.6

// Extractor merges free-text source notes into a clustered,
// deduplicated idea set. It owns no global state: idea ids come from
// the allocator handed in by the run context.
type Extractor struct {
	alloc *ident.Allocator
}

// NewExtractor creates an extractor drawing ids from alloc.
func NewExtractor(alloc *ident.Allocator) *Extractor {
	return &Extractor{alloc: alloc}
}

// Extract segments every note into candidate statements, clusters them,
// and deduplicates within each cluster. First-seen wording wins: a
// duplicate only unions its origin label into the existing idea. An
// empty note set yields an empty idea set.
func (e *Extractor) Extract(notes []SourceNote) *Set {
	set := &Set{}
	// Normalized token sets per idea, parallel to set.Ideas.
	tokens := make([]map[string]bool, 0)

	for _, note := range notes {
		for _, candidate := range segment(note.Content) {
			cluster := classify(candidate)
			candTokens := normalize(candidate)

			merged := false
			for i := range set.Ideas {
				if set.Ideas[i].Cluster != cluster {
					continue
				}
				if similarity(candTokens, tokens[i]) >= SimilarityThreshold {
					set.Ideas[i].Sources = unionSource(set.Ideas[i].Sources, note.Origin)
					merged = true
					break
				}
			}
			if merged {
				continue
			}

			set.Ideas = append(set.Ideas, Idea{
				ID:      e.alloc.NextIdeaID(),
				Summary: candidate,
				Cluster: cluster,
				Sources: []string{note.Origin},
			})
			tokens = append(tokens, candTokens)
		}
	}

	logger.Debug("Extracted %d ideas from %d notes", len(set.Ideas), len(notes))
	return set
}

var (
	headingRe = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	bulletRe  = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.*)$`)
)

// segment splits note content into candidate statements on heading and
// bullet boundaries. Plain lines between delimiters accumulate into one
// chunk; empty or whitespace-only candidates are discarded.
func segment(content string) []string {
	var candidates []string
	var chunk []string

	flush := func() {
		if len(chunk) > 0 {
			text := strings.TrimSpace(strings.Join(chunk, " "))
			if text != "" {
				candidates = append(candidates, text)
			}
			chunk = chunk[:0]
		}
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case headingRe.MatchString(line):
			flush()
			if text := strings.TrimSpace(headingRe.FindStringSubmatch(line)[1]); text != "" {
				candidates = append(candidates, text)
			}
		case bulletRe.MatchString(line):
			flush()
			if text := strings.TrimSpace(bulletRe.FindStringSubmatch(line)[1]); text != "" {
				candidates = append(candidates, text)
			}
		case strings.TrimSpace(line) == "":
			flush()
		default:
			chunk = append(chunk, strings.TrimSpace(line))
		}
	}
	flush()

	return candidates
}

var (
	trackingIDRe = regexp.MustCompile(`\bhandoff-\S+|\btrack(ing)?\b|\btask ids?\b`)
	stagesRe     = regexp.MustCompile(`\bstages?\b|\bpipeline\b|\bphases?\b|\bhandoffs?\b`)
	agentsRe     = regexp.MustCompile(`\bagents?\b|\bmonitor\b|\bclean\b|\bpack\b|\breviewer\b|\bplanner\b|\banalyzer\b`)
	pathsRe      = regexp.MustCompile(`\S/\S|\bdirector(y|ies)\b|\bfolders?\b|\bpaths?\b|\binbox\b|\broot\b`)
	filesRe      = regexp.MustCompile(`\b\S+\.(json|md|txt|ya?ml|csv|log)\b`)
)

// classify assigns a candidate to one of the six clusters. Rule order
// matters: the tracking-id pattern is the strongest signal, and stage
// wording beats agent wording so "six stages with clean handoffs" lands
// in STAGES, not AGENTS.
func classify(candidate string) Cluster {
	lower := strings.ToLower(candidate)
	switch {
	case trackingIDRe.MatchString(lower):
		return ClusterTracking
	case stagesRe.MatchString(lower):
		return ClusterStages
	case agentsRe.MatchString(lower):
		return ClusterAgents
	case filesRe.MatchString(lower):
		return ClusterFiles
	case pathsRe.MatchString(lower):
		return ClusterPaths
	default:
		return ClusterMisc
	}
}

// stopwords are excluded from similarity comparison; they carry no
// topical signal and would otherwise dilute the overlap ratio.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true,
	"have": true, "in": true, "into": true, "is": true, "it": true,
	"of": true, "on": true, "or": true, "should": true, "that": true,
	"the": true, "there": true, "this": true, "to": true, "was": true,
	"will": true, "with": true,
}

var punctRe = regexp.MustCompile(`[^a-z0-9\s-]+`)

// normalize case-folds, strips punctuation, collapses whitespace, and
// drops stopwords, returning the candidate's token set.
func normalize(text string) map[string]bool {
	lower := strings.ToLower(text)
	lower = punctRe.ReplaceAllString(lower, " ")
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(lower) {
		if !stopwords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// similarity is the token set overlap ratio |A∩B| / min(|A|,|B|).
// Empty sets never match anything.
func similarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	return float64(inter) / float64(minLen)
}

func unionSource(sources []string, origin string) []string {
	for _, s := range sources {
		if s == origin {
			return sources
		}
	}
	return append(sources, origin)
}
