package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file returns nil", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		if cfg != nil {
			t.Error("expected nil config for absent file")
		}
	})

	t.Run("valid file parses", func(t *testing.T) {
		dir := t.TempDir()
		content := "version: 1\nhooks:\n  run_start:\n    command: echo hello\n  stage_complete:\n    command: echo stage {{stage}}\n    timeout: 5\n"
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Version != 1 {
			t.Errorf("version = %d", cfg.Version)
		}
		if cfg.Hooks.RunStart == nil || cfg.Hooks.RunStart.Command != "echo hello" {
			t.Errorf("run_start = %+v", cfg.Hooks.RunStart)
		}
		if cfg.Hooks.StageComplete == nil || cfg.Hooks.StageComplete.Timeout != 5 {
			t.Errorf("stage_complete = %+v", cfg.Hooks.StageComplete)
		}
		if cfg.Hooks.RunComplete != nil {
			t.Error("run_complete should be nil when unset")
		}
	})

	t.Run("corrupt file errors", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(":\nnot yaml at all: ["), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(dir); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()

	t.Run("nil hook is a no-op", func(t *testing.T) {
		out, err := Execute(ctx, nil, workDir, Variables{})
		if err != nil || out != "" {
			t.Errorf("Execute(nil) = (%q, %v)", out, err)
		}
	})

	t.Run("command output captured", func(t *testing.T) {
		hook := &HookConfig{Command: "echo ok", Timeout: 5}
		out, err := Execute(ctx, hook, workDir, Variables{})
		if err != nil {
			t.Fatal(err)
		}
		if out != "ok\n" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("variables expanded", func(t *testing.T) {
		hook := &HookConfig{Command: "echo run={{run}} stage={{stage}}", Timeout: 5}
		out, err := Execute(ctx, hook, workDir, Variables{Run: "demo", Stage: "3"})
		if err != nil {
			t.Fatal(err)
		}
		if out != "run=demo stage=3\n" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("failure degrades gracefully", func(t *testing.T) {
		hook := &HookConfig{Command: "exit 3", Timeout: 5}
		out, err := Execute(ctx, hook, workDir, Variables{})
		if err != nil {
			t.Fatalf("failure should not return error, got %v", err)
		}
		if !strings.Contains(out, "Hook command failed") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("timeout degrades gracefully", func(t *testing.T) {
		hook := &HookConfig{Command: "sleep 5", Timeout: 1}
		out, err := Execute(ctx, hook, workDir, Variables{})
		if err != nil {
			t.Fatalf("timeout should not return error, got %v", err)
		}
		if !strings.Contains(out, "timed out") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("cancellation propagates", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		hook := &HookConfig{Command: "echo never", Timeout: 5}
		if _, err := Execute(cancelled, hook, workDir, Variables{}); err == nil {
			t.Error("expected context error")
		}
	})
}

func TestExpandVariables(t *testing.T) {
	got := expandVariables("pre {{run}} mid {{stage}} post", Variables{Run: "r", Stage: "2"})
	if got != "pre r mid 2 post" {
		t.Errorf("expandVariables = %q", got)
	}
}
