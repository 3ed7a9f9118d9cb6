package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IsDetectorEnabled("erc20-transfer-limit") {
		t.Fatalf("detectors must be enabled by default")
	}
	if got := cfg.GetDetectorSeverity("erc20-transfer-limit", "info"); got != "info" {
		t.Fatalf("expected default severity info, got %s", got)
	}
}

func TestLoadFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "erc20lint.json")
	content := `{
  "detectors": {
    "erc20-change-balance": "off",
    "erc20-transfer-limit": "warning"
  },
  "ignorePatterns": ["*.draft.json"]
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.IsDetectorEnabled("erc20-change-balance") {
		t.Fatalf("erc20-change-balance should be off")
	}
	if got := cfg.GetDetectorSeverity("erc20-transfer-limit", "info"); got != "warning" {
		t.Fatalf("expected warning, got %s", got)
	}
	if !cfg.ShouldIgnoreFile("tokens.draft.json") {
		t.Fatalf("ignore pattern not applied")
	}
	if cfg.ShouldIgnoreFile("tokens.json") {
		t.Fatalf("non-matching file ignored")
	}
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "erc20lint.yaml")
	content := `detectors:
  erc20-transfer-limit: error
policyDir: ./policies
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if got := cfg.GetDetectorSeverity("erc20-transfer-limit", "info"); got != "error" {
		t.Fatalf("expected error severity, got %s", got)
	}
	if cfg.PolicyDir != "./policies" {
		t.Fatalf("policyDir lost: %+v", cfg)
	}
	if cfg.IgnorePatterns == nil {
		t.Fatalf("defaults not applied after YAML load")
	}
}

func TestLoadFileRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "erc20lint.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "erc20lint.json")

	cfg := DefaultConfig()
	cfg.Detectors["erc20-change-balance"] = "warning"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if got := loaded.GetDetectorSeverity("erc20-change-balance", "info"); got != "warning" {
		t.Fatalf("round trip lost severity, got %s", got)
	}
}
