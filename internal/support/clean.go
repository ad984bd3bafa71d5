package support

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/syntax-syndicate/cogflow/internal/logger"
)

// SkipEntry records one file the clean agent inspected but left alone.
type SkipEntry struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// CleanReport is the clean agent's artifact.
type CleanReport struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Inspected   int         `json:"inspected"`
	Rewritten   []string    `json:"rewritten"`
	Skipped     []SkipEntry `json:"skipped"`
}

// Clean walks root for structured (.json) artifacts and rewrites each
// one in canonical form: two-space indentation, sorted-by-encoder key
// order, one trailing newline. Files that do not parse are skipped and
// reported, never modified or deleted. Already-canonical files are
// counted as inspected but not rewritten.
func Clean(root string, now time.Time) (*CleanReport, error) {
	report := &CleanReport{GeneratedAt: now}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		report.Inspected++

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			report.Skipped = append(report.Skipped, SkipEntry{Path: rel, Reason: "unreadable: " + readErr.Error()})
			return nil
		}

		var v any
		if jsonErr := json.Unmarshal(data, &v); jsonErr != nil {
			report.Skipped = append(report.Skipped, SkipEntry{Path: rel, Reason: "does not parse: " + jsonErr.Error()})
			return nil
		}

		canonical, marshalErr := json.MarshalIndent(v, "", "  ")
		if marshalErr != nil {
			report.Skipped = append(report.Skipped, SkipEntry{Path: rel, Reason: "cannot re-serialize: " + marshalErr.Error()})
			return nil
		}
		canonical = append(canonical, '\n')

		if bytes.Equal(data, canonical) {
			return nil
		}
		if writeErr := os.WriteFile(path, canonical, 0644); writeErr != nil {
			report.Skipped = append(report.Skipped, SkipEntry{Path: rel, Reason: "rewrite failed: " + writeErr.Error()})
			return nil
		}
		report.Rewritten = append(report.Rewritten, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Clean pass: %d inspected, %d rewritten, %d skipped",
		report.Inspected, len(report.Rewritten), len(report.Skipped))
	return report, nil
}
