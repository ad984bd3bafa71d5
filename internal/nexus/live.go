package nexus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/syntax-syndicate/cogflow/internal/keys"
	"github.com/syntax-syndicate/cogflow/internal/logger"
)

// Live is the production backend: it spawns an opencode subprocess per
// invocation and streams its JSON events. The required credential is
// checked once at construction; its value is held only to populate the
// subprocess environment and never logged.
type Live struct {
	model   string
	workDir string
}

// NewLive creates a live invoker for the given model spec (for example
// "anthropic/claude-sonnet-4-5"). It fails fast when the provider's
// credential is not available, naming the missing variable but never a
// value.
func NewLive(model, workDir string) (*Live, error) {
	if model == "" {
		return nil, fmt.Errorf("live agent mode requires a model")
	}
	if _, err := keys.Require(credentialForModel(model)); err != nil {
		return nil, err
	}
	return &Live{model: model, workDir: workDir}, nil
}

// credentialForModel maps a provider-prefixed model spec to the logical
// credential key that provider needs.
func credentialForModel(model string) string {
	provider := model
	if i := strings.IndexByte(model, '/'); i >= 0 {
		provider = model[:i]
	}
	switch provider {
	case "openai":
		return "openai_api_key"
	case "perplexity":
		return "perplexity_api_key"
	case "groq":
		return "groq_api_key"
	case "deepseek":
		return "deepseek_api_key"
	default:
		return "anthropic_api_key"
	}
}

// Invoke runs one opencode invocation: the instructions go to stdin and
// text events stream back on stdout as JSON lines.
func (l *Live) Invoke(ctx context.Context, req Request) (*Response, error) {
	if req.Kind == "" {
		return nil, fmt.Errorf("agent kind is required")
	}
	temperature, maxTokens := req.Temperature, req.MaxTokens
	if temperature == 0 && maxTokens == 0 {
		temperature, maxTokens = req.Kind.Defaults()
	}

	args := []string{"run", "--format", "json", "--model", l.model}
	logger.Debug("Invoking %s agent for %s (temp=%.2f max_tokens=%d)", req.Kind, req.TaskID, temperature, maxTokens)

	cmd := exec.CommandContext(ctx, "opencode", args...)
	cmd.Dir = l.workDir
	cmd.Env = os.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start opencode: %w", err)
	}

	if _, err := io.WriteString(stdin, req.Instructions); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, fmt.Errorf("failed to write instructions: %w", err)
	}
	stdin.Close()

	var text strings.Builder
	var invokeErr error
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if t, e := parseEventLine(line); e != nil {
			invokeErr = e
		} else {
			text.WriteString(t)
		}
	}

	if ctx.Err() != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		cmd.Wait()
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("opencode failed: %w", err)
	}
	if invokeErr != nil {
		return nil, invokeErr
	}

	out := text.String()
	return &Response{
		Text: out,
		Tokens: Usage{
			Prompt:     countWords(req.Instructions),
			Completion: countWords(out),
		},
		Model:     l.model,
		Timestamp: time.Now().UTC(),
		TaskID:    req.TaskID,
	}, nil
}

// parseEventLine decodes one JSON event line. Text events contribute
// output; error events become the invocation error; everything else is
// informational.
func parseEventLine(line string) (string, error) {
	var event struct {
		Type string `json:"type"`
		Part *struct {
			Text string `json:"text"`
		} `json:"part"`
		Error *struct {
			Name string `json:"name"`
			Data *struct {
				Message string `json:"message"`
			} `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		logger.Warn("Failed to parse event JSON: %v", err)
		return "", nil
	}

	switch event.Type {
	case "text":
		if event.Part != nil {
			return event.Part.Text, nil
		}
	case "error":
		if event.Error != nil {
			msg := event.Error.Name
			if event.Error.Data != nil && event.Error.Data.Message != "" {
				msg = event.Error.Data.Message
			}
			return "", fmt.Errorf("%s", msg)
		}
	}
	return "", nil
}
