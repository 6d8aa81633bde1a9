package config

import (
	"os"
	"path/filepath"
	"testing"

	platformerrors "sketchwall-server-go/internal/platform/errors"
)

func TestLoaderDefaultsWhenNoFile(t *testing.T) {
	loader := NewLoader().
		WithDotEnv(false).
		WithPaths(filepath.Join(t.TempDir(), "missing.yaml"))

	result, err := loader.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if result.Path != "" {
		t.Errorf("expected empty path for defaults, got %q", result.Path)
	}

	cfg := result.Config
	if cfg.Moderation.DelegateTimeoutMs != 8000 {
		t.Errorf("default delegate timeout = %d, want 8000", cfg.Moderation.DelegateTimeoutMs)
	}
	if cfg.Moderation.AutoRemoveDelayMs != 5000 {
		t.Errorf("default auto remove delay = %d, want 5000", cfg.Moderation.AutoRemoveDelayMs)
	}
	if cfg.Transport.WebSocket.Path != "/ws" {
		t.Errorf("default ws path = %q, want /ws", cfg.Transport.WebSocket.Path)
	}
}

func TestLoaderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
transport:
  websocket:
    port: 9100
classifier:
  blocked_words: ["foo", "bar"]
moderation:
  auto_remove_delay_ms: 1500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := NewLoader().WithDotEnv(false).WithPaths(path).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if result.Path != path {
		t.Errorf("result path = %q, want %q", result.Path, path)
	}

	cfg := result.Config
	if cfg.Transport.WebSocket.Port != 9100 {
		t.Errorf("ws port = %d, want 9100", cfg.Transport.WebSocket.Port)
	}
	if len(cfg.Classifier.BlockedWords) != 2 || cfg.Classifier.BlockedWords[0] != "foo" {
		t.Errorf("blocked words not applied: %v", cfg.Classifier.BlockedWords)
	}
	if cfg.Moderation.AutoRemoveDelayMs != 1500 {
		t.Errorf("auto remove delay = %d, want 1500", cfg.Moderation.AutoRemoveDelayMs)
	}
	// Untouched sections keep their defaults.
	if cfg.Moderation.DelegateTimeoutMs != 8000 {
		t.Errorf("delegate timeout = %d, want default 8000", cfg.Moderation.DelegateTimeoutMs)
	}
}

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("SKETCHWALL_WS_PORT", "9200")
	t.Setenv("SKETCHWALL_LOG_LEVEL", "debug")

	result, err := NewLoader().
		WithDotEnv(false).
		WithPaths(filepath.Join(t.TempDir(), "missing.yaml")).
		Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if result.Config.Transport.WebSocket.Port != 9200 {
		t.Errorf("ws port = %d, want 9200", result.Config.Transport.WebSocket.Port)
	}
	if result.Config.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", result.Config.Log.Level)
	}
}

func TestLoaderRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("moderation:\n  delegate_timeout_ms: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader().WithDotEnv(false).WithPaths(path).Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Errorf("expected config kind error, got %v", err)
	}
}
