// Package artifact implements the typed artifact store. Artifacts are
// the handoff boundary between stages: a stage persists its outputs
// here at completion and downstream stages re-read them from disk, so
// every stage is independently resumable from persisted state.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cferr "github.com/syntax-syndicate/cogflow/internal/errors"
	"github.com/syntax-syndicate/cogflow/internal/events"
	"github.com/syntax-syndicate/cogflow/internal/logger"
)

// ErrMissing is returned by reads when the named artifact does not
// exist. Absence is an expected condition, distinct from malformed
// content which surfaces as a *errors.ParseError.
var ErrMissing = errors.New("artifact missing")

// IsMissing reports whether err indicates an absent artifact.
func IsMissing(err error) bool { return errors.Is(err, ErrMissing) }

// Store reads and writes named artifacts under a single root directory.
// Names are slash-separated relative paths ("stage4_tasks.json",
// "_meta/monitor_summary.json"); the mapping from name to path is
// deterministic. Overwrite is always permitted: the orchestrator is the
// single writer for a run, so last-write-wins is safe.
type Store struct {
	root string
	sink events.Sink
}

// NewStore creates a store rooted at dir, mirroring every write into
// the given event sink. A nil sink disables mirroring (used by tests
// that only exercise path and parse behavior).
func NewStore(dir string, sink events.Sink) *Store {
	return &Store{root: dir, sink: sink}
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Path resolves an artifact name to its absolute path under the root.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// WriteJSON persists v as two-space-indented JSON with a trailing
// newline. Parent directories are created as needed.
func (s *Store) WriteJSON(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact %q: %w", name, err)
	}
	return s.writeBytes(ctx, name, append(data, '\n'))
}

// WriteText persists text content with normalized (LF) line endings and
// exactly one trailing newline.
func (s *Store) WriteText(ctx context.Context, name, content string) error {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return s.writeBytes(ctx, name, []byte(content))
}

func (s *Store) writeBytes(ctx context.Context, name string, data []byte) error {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory for %q: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %q: %w", name, err)
	}

	logger.Debug("Wrote artifact %s (%d bytes)", path, len(data))

	if s.sink != nil {
		payload := map[string]any{"name": name, "path": path, "bytes": len(data)}
		if err := s.sink.Append(ctx, "artifact_write", name, payload); err != nil {
			return fmt.Errorf("failed to record artifact write for %q: %w", name, err)
		}
	}
	return nil
}

// ReadJSON reads and unmarshals the named artifact into v. A missing
// file returns ErrMissing; malformed content returns a *ParseError
// carrying the offending path.
func (s *Store) ReadJSON(name string, v any) error {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("artifact %q: %w", name, ErrMissing)
		}
		return fmt.Errorf("failed to read artifact %q: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &cferr.ParseError{Path: path, Err: err}
	}
	return nil
}

// ReadText reads the named artifact as text with normalized line
// endings. A missing file returns ErrMissing.
func (s *Store) ReadText(name string) (string, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("artifact %q: %w", name, ErrMissing)
		}
		return "", fmt.Errorf("failed to read artifact %q: %w", name, err)
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	return string(data), nil
}

// Exists reports whether the named artifact is present on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}
