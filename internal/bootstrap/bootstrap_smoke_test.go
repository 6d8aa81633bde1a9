package bootstrap

import (
	"context"
	"testing"
)

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init",
		"observability:setup-hooks",
		"storage:open-audit",
		"moderation:init-graph",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestExecuteInitGraph(t *testing.T) {
	t.Chdir(t.TempDir())

	state := &appState{}
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	if state.config == nil {
		t.Fatal("config is nil after init")
	}
	if state.logger == nil {
		t.Fatal("logger is nil after init")
	}
	if state.pipeline == nil {
		t.Fatal("pipeline is nil after init")
	}
	if state.hub == nil {
		t.Fatal("hub is nil after init")
	}
	if state.coordinator == nil {
		t.Fatal("coordinator is nil after init")
	}
	if state.audit == nil {
		t.Fatal("audit store is nil after init")
	}
	if state.observabilityShutdown == nil {
		t.Fatal("observability shutdown hook not set")
	}
	defer state.logger.Close()
	defer state.audit.Close()
	defer state.observabilityShutdown(context.Background())
	state.registry.Shutdown()
}

func TestExecuteInitGraphRejectsUnknownRecognizer(t *testing.T) {
	t.Chdir(t.TempDir())

	steps := InitGraph()
	state := &appState{}
	for _, step := range steps[:2] {
		if err := step.Execute(context.Background(), state); err != nil {
			t.Fatalf("%s failed: %v", step.ID, err)
		}
	}
	defer state.logger.Close()

	state.config.Classifier.Recognizer = "tesseract"
	if _, err := buildRecognizer(state.config, state.logger); err == nil {
		t.Fatal("expected error for unknown recognizer")
	}
}
