package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Routing.IncludeThreshold != 0.4 || cfg.Routing.ExecThreshold != 0.4 {
		t.Fatalf("unexpected routing thresholds: %+v", cfg.Routing)
	}
	if cfg.Routing.GapThreshold != 0.1 || cfg.Routing.TopN != 3 {
		t.Fatalf("unexpected routing thresholds: %+v", cfg.Routing)
	}
	if cfg.Routing.MaxDisambiguationOptions != 3 {
		t.Fatalf("unexpected disambiguation cap: %d", cfg.Routing.MaxDisambiguationOptions)
	}
	if cfg.Pipeline.MaxRetries != 3 {
		t.Fatalf("unexpected max retries: %d", cfg.Pipeline.MaxRetries)
	}
	if cfg.Execution.TimeoutSeconds != 30 {
		t.Fatalf("unexpected execution timeout: %d", cfg.Execution.TimeoutSeconds)
	}
	if cfg.Execution.MultiTargetWorkerCap != 8 {
		t.Fatalf("unexpected worker cap: %d", cfg.Execution.MultiTargetWorkerCap)
	}
	if cfg.Embedding.Backend != "hash" {
		t.Fatalf("unexpected embedding backend: %q", cfg.Embedding.Backend)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	data := []byte("routing:\n  exec_threshold: 0.6\n  top_n: 5\npipeline:\n  max_retries: 1\n  mode: plan_first\nembedding:\n  backend: ollama\n  model: nomic-embed-text\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Routing.ExecThreshold != 0.6 || cfg.Routing.TopN != 5 {
		t.Fatalf("file routing values not applied: %+v", cfg.Routing)
	}
	if cfg.Pipeline.MaxRetries != 1 || cfg.Pipeline.Mode != "plan_first" {
		t.Fatalf("file pipeline values not applied: %+v", cfg.Pipeline)
	}
	if cfg.Embedding.Backend != "ollama" || cfg.Embedding.Model != "nomic-embed-text" {
		t.Fatalf("file embedding values not applied: %+v", cfg.Embedding)
	}
	// Unset values still default.
	if cfg.Routing.IncludeThreshold != 0.4 {
		t.Fatalf("include threshold should default: %v", cfg.Routing.IncludeThreshold)
	}
}

func TestEnvKeysTakePrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte("api_keys:\n  anthropic: file-ant\n  openai: file-openai\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "env-ant")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AnthropicAPIKey != "env-ant" {
		t.Fatalf("env key should win: %q", cfg.AnthropicAPIKey)
	}
	if cfg.OpenAIAPIKey != "file-openai" {
		t.Fatalf("file key should back-fill unset env: %q", cfg.OpenAIAPIKey)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("routing: ["), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromDir(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestHasAdapter(t *testing.T) {
	cfg := &Config{AnthropicAPIKey: "k"}
	if !cfg.HasAdapter("anthropic") {
		t.Fatalf("expected anthropic adapter")
	}
	if cfg.HasAdapter("openai") || cfg.HasAdapter("unknown") {
		t.Fatalf("unexpected adapters reported")
	}
}
