package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider.Name != "openai" {
		t.Errorf("expected provider=openai, got %s", cfg.Provider.Name)
	}
	if cfg.Provider.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.Provider.MaxRetries)
	}
	if cfg.Ingest.ChunkTokens != 120 {
		t.Errorf("expected ChunkTokens=120, got %d", cfg.Ingest.ChunkTokens)
	}
	if cfg.Budget.ReservedPercent != 20 {
		t.Errorf("expected ReservedPercent=20, got %d", cfg.Budget.ReservedPercent)
	}
	if !cfg.Chat.UseKnowledge {
		t.Error("expected UseKnowledge=true by default")
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "aissistant.yaml")

	content := `
provider:
  name: deepseek
  model: deepseek-chat
chat:
  history_limit: 10
  stream: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider.Name != "deepseek" {
		t.Errorf("expected provider=deepseek, got %s", cfg.Provider.Name)
	}
	if cfg.Chat.HistoryLimit != 10 {
		t.Errorf("expected HistoryLimit=10, got %d", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.Stream {
		t.Error("expected Stream=false")
	}
	// Untouched sections keep their defaults.
	if cfg.Ingest.ChunkTokens != 120 {
		t.Errorf("expected default ChunkTokens=120, got %d", cfg.Ingest.ChunkTokens)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "aissistant.yaml")

	content := `
budget:
  context_window: 32000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Budget.ContextWindow != 32000 {
		t.Errorf("expected ContextWindow=32000, got %d", cfg.Budget.ContextWindow)
	}
}

func TestLoadFromDir_HiddenLocation(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".aissistant"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".aissistant", "config.yaml")
	if err := os.WriteFile(configPath, []byte("chat:\n  persona: reviewer\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chat.Persona != "reviewer" {
		t.Errorf("expected persona=reviewer, got %s", cfg.Chat.Persona)
	}
}

func TestStoreDBPath(t *testing.T) {
	path := StoreDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".aissistant", "assistant.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}
