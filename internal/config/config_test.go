package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMergesIncludedFile(t *testing.T) {
	dir := t.TempDir()

	basePath := filepath.Join(dir, "base.yaml")
	if err := os.WriteFile(basePath, []byte("listen_addr: \":8080\"\nloop:\n  max_iterations: 25\n"), 0o644); err != nil {
		t.Fatalf("write base.yaml: %v", err)
	}

	mainPath := filepath.Join(dir, "main.yaml")
	mainContent := "$include: base.yaml\nloop:\n  max_retry_on_multiple_tools: 3\n"
	if err := os.WriteFile(mainPath, []byte(mainContent), 0o644); err != nil {
		t.Fatalf("write main.yaml: %v", err)
	}

	cfg, err := Load(mainPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected listen_addr from the included file, got %q", cfg.ListenAddr)
	}
	if cfg.Loop.MaxIterations != 25 {
		t.Fatalf("expected max_iterations from the included file, got %d", cfg.Loop.MaxIterations)
	}
	if cfg.Loop.MaxRetryOnMultipleTools != 3 {
		t.Fatalf("expected max_retry_on_multiple_tools from the including file, got %d", cfg.Loop.MaxRetryOnMultipleTools)
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("anthropic:\n  api_key: \"${TEST_AGENTCORE_API_KEY}\"\n"), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}

	t.Setenv("TEST_AGENTCORE_API_KEY", "sk-test-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-test-key" {
		t.Fatalf("expected the environment variable to be expanded, got %q", cfg.Anthropic.APIKey)
	}
}

func TestLoadDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.yaml")
	bPath := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(aPath, []byte("$include: b.yaml\n"), 0o644); err != nil {
		t.Fatalf("write a.yaml: %v", err)
	}
	if err := os.WriteFile(bPath, []byte("$include: a.yaml\n"), 0o644); err != nil {
		t.Fatalf("write b.yaml: %v", err)
	}

	if _, err := Load(aPath); err == nil {
		t.Fatal("expected an include cycle to be rejected")
	}
}
