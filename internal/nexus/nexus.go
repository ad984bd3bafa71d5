// Package nexus defines the agent collaborator interface. The pipeline
// core treats text generation as an opaque capability: it hands over a
// task id, instructions, and sampling parameters, and gets text back.
// Two implementations exist: a deterministic Placeholder with no
// external dependencies, and whatever live backend the caller plugs in
// at run construction.
package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the flavor of agent being invoked. The set is closed;
// each kind carries a canonical default temperature and token budget.
type Kind string

const (
	KindAgent    Kind = "agent"
	KindResearch Kind = "research"
	KindAnalyzer Kind = "analyzer"
	KindPlanner  Kind = "planner"
	KindCoder    Kind = "coder"
	KindReviewer Kind = "reviewer"
)

// Defaults returns the canonical sampling temperature and max token
// budget for a kind. Analysis and review run cold; general agents run
// warmer.
func (k Kind) Defaults() (temperature float64, maxTokens int) {
	switch k {
	case KindResearch:
		return 0.3, 3000
	case KindAnalyzer:
		return 0.1, 2000
	case KindPlanner:
		return 0.15, 2400
	case KindCoder:
		return 0.2, 3000
	case KindReviewer:
		return 0.0, 800
	default:
		return 0.7, 2000
	}
}

// Request carries one agent invocation. Zero Temperature and MaxTokens
// mean "use the kind's defaults".
type Request struct {
	Kind         Kind
	TaskID       string
	Instructions string
	Temperature  float64
	MaxTokens    int
}

// Usage reports approximate token consumption for one invocation.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
}

// Response is the result of one agent invocation.
type Response struct {
	Text      string    `json:"text"`
	Tokens    Usage     `json:"tokens"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	TaskID    string    `json:"task_id"`
}

// Invoker is the capability interface the pipeline calls. The core
// never retries; retry policy, if any, belongs to the implementation.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// Placeholder is the deterministic stub backend. Its output depends
// only on the request, so placeholder runs are reproducible end to end.
type Placeholder struct{}

// NewPlaceholder returns the deterministic stub invoker.
func NewPlaceholder() *Placeholder { return &Placeholder{} }

// Invoke returns synthetic JSON text describing the request. No
// external calls are made and no credentials are required.
func (p *Placeholder) Invoke(_ context.Context, req Request) (*Response, error) {
	if req.Kind == "" {
		return nil, fmt.Errorf("agent kind is required")
	}

	body, err := json.MarshalIndent(map[string]any{
		"status":              "placeholder",
		"message":             fmt.Sprintf("Placeholder response for %s agent", req.Kind),
		"task_id":             req.TaskID,
		"agent_kind":          string(req.Kind),
		"instructions_length": len(req.Instructions),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to build placeholder response: %w", err)
	}

	text := string(body)
	return &Response{
		Text: text,
		Tokens: Usage{
			Prompt:     countWords(req.Instructions),
			Completion: countWords(text),
		},
		Model:     "placeholder-model",
		Timestamp: time.Now().UTC(),
		TaskID:    req.TaskID,
	}, nil
}

func countWords(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\n' || r == '\t' || r == '\r':
			inWord = false
		case !inWord:
			inWord = true
			n++
		}
	}
	return n
}
