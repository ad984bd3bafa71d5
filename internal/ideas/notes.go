package ideas

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/syntax-syndicate/cogflow/internal/logger"
)

// notePatterns are the filename globs recognized as stage-1 source
// notes inside a note directory.
var notePatterns = []string{"stage1*.md", "stage1*.json", "stage1*.txt"}

// LoadNotes collects the source notes found in the given directories,
// deduplicated by path and sorted for a deterministic run. A missing
// directory contributes nothing; empty and whitespace-only files are
// skipped. An empty result is not an error.
func LoadNotes(dirs ...string) ([]SourceNote, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		for _, pattern := range notePatterns {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					paths = append(paths, m)
				}
			}
		}
	}
	sort.Strings(paths)

	var notes []SourceNote
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable note %s: %v", path, err)
			continue
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			continue
		}
		notes = append(notes, SourceNote{
			Origin:  originLabel(path),
			Content: content,
			Path:    path,
		})
	}

	logger.Debug("Loaded %d source notes from %d directories", len(notes), len(dirs))
	return notes, nil
}

// sectionPrefix marks the start of one note section in the aggregated
// stage-1 document. The full marker line is "## source: <origin>".
const sectionPrefix = "## source: "

// ComposeDoc renders the loaded notes as the single aggregated stage-1
// document, one marked section per note in load order.
func ComposeDoc(notes []SourceNote) string {
	var b strings.Builder
	b.WriteString("# Source Notes\n")
	for _, note := range notes {
		b.WriteString("\n" + sectionPrefix + note.Origin + "\n\n")
		b.WriteString(strings.TrimRight(note.Content, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// ParseDoc reverses ComposeDoc: it splits the aggregated document back
// into source notes on the section markers. Content before the first
// marker (the document title) is discarded. Sections that end up empty
// are dropped, mirroring LoadNotes.
func ParseDoc(content string) []SourceNote {
	var notes []SourceNote
	var current *SourceNote
	var chunk []string

	flush := func() {
		if current == nil {
			return
		}
		text := strings.TrimSpace(strings.Join(chunk, "\n"))
		if text != "" {
			current.Content = text
			notes = append(notes, *current)
		}
		current = nil
		chunk = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, sectionPrefix) {
			flush()
			current = &SourceNote{Origin: strings.TrimSpace(strings.TrimPrefix(line, sectionPrefix))}
			continue
		}
		if current != nil {
			chunk = append(chunk, line)
		}
	}
	flush()

	return notes
}

// originLabel derives the origin label from a note filename:
// "stage1_perplexity.md" becomes "perplexity".
func originLabel(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimPrefix(base, "stage1_")
	base = strings.TrimPrefix(base, "stage1")
	if base == "" {
		return filepath.Base(path)
	}
	return base
}
