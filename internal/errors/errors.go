// Package errors defines the typed error taxonomy for the pipeline.
// Stage-local failures are never swallowed: they wrap into a StageError
// and terminate the run, leaving previously persisted artifacts intact.
package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// ParseError reports a persisted artifact that exists but does not parse.
// The owning stage aborts the run when it sees one.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed artifact %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingInputError reports a declared input artifact that is absent
// when a stage starts.
type MissingInputError struct {
	Stage string
	Name  string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("stage %s: required input artifact %q is missing", e.Stage, e.Name)
}

// ValidationFailure is returned when the review verdict is fail. It
// blocks the terminal bundle from being assembled; everything written
// before review stays on disk for inspection.
type ValidationFailure struct {
	Notes []string
}

func (e *ValidationFailure) Error() string {
	if len(e.Notes) == 0 {
		return "review verdict is fail"
	}
	return fmt.Sprintf("review verdict is fail: %s", strings.Join(e.Notes, "; "))
}

// StageError associates a failure with the stage that produced it so
// the caller can report which stage aborted the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PanicError wraps a recovered panic with its stack trace.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover runs fn and converts a panic into a *PanicError.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, StackTrace: string(debug.Stack())}
		}
	}()
	return fn()
}

// MultiError collects errors from independent cleanup steps, such as
// orchestrator shutdown, where later steps still run after a failure.
type MultiError struct {
	Errors []error
}

// Append adds a non-nil error to the collection.
func (m *MultiError) Append(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil when no errors were collected, the sole error
// when there is exactly one, and the MultiError itself otherwise.
func (m *MultiError) ErrorOrNil() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(m.Errors), strings.Join(msgs, "; "))
}

// IsParse reports whether err is or wraps a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsMissingInput reports whether err is or wraps a MissingInputError.
func IsMissingInput(err error) bool {
	var me *MissingInputError
	return errors.As(err, &me)
}
