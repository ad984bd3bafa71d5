package nats

import "testing"

func TestSubjects(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"run wildcard", SubjectForRun("current-project"), "cogflow.current-project.>"},
		{"event subject", SubjectForEvent("current-project", KindArtifactWrite), "cogflow.current-project.artifact_write"},
		{"stage event", SubjectForEvent("demo", KindStageStart), "cogflow.demo.stage_start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEmbeddedServerLifecycle(t *testing.T) {
	ns, err := StartEmbedded(t.TempDir())
	if err != nil {
		t.Fatalf("failed to start embedded server: %v", err)
	}

	nc, err := ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		t.Fatalf("failed to connect in-process: %v", err)
	}
	if !nc.IsConnected() {
		t.Error("connection not established")
	}

	if err := Shutdown(nc, ns); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
	// Idempotent against nil references.
	if err := Shutdown(nil, nil); err != nil {
		t.Errorf("nil shutdown failed: %v", err)
	}
}
