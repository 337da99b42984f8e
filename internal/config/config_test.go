package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port == 0 {
		t.Error("expected default port")
	}
	if cfg.MinSamples != 100 {
		t.Errorf("expected default min_samples 100, got %d", cfg.MinSamples)
	}
	if cfg.MinAbundance != 0.5 {
		t.Errorf("expected default min_abundance 0.5, got %f", cfg.MinAbundance)
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Error("expected default CORS origins")
	}
}

func TestLoadNonExistent(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("expected no error for nonexistent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config")
	}
	if cfg.DataDir != "data" {
		t.Errorf("expected default data dir, got %q", cfg.DataDir)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
data_dir: /srv/sandpiper
port: 9090
min_samples: 50
cors_origins:
  - "http://example.test"
`

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "microlens.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.DataDir != "/srv/sandpiper" {
		t.Errorf("expected data dir from file, got %q", cfg.DataDir)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.MinSamples != 50 {
		t.Errorf("expected min_samples 50, got %d", cfg.MinSamples)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://example.test" {
		t.Errorf("expected CORS origins from file, got %v", cfg.CORSOrigins)
	}

	// Fields absent from the file keep their defaults
	if cfg.MinAbundance != 0.5 {
		t.Errorf("expected default min_abundance, got %f", cfg.MinAbundance)
	}
	if cfg.ExportPath == "" {
		t.Error("expected default export path")
	}
}

func TestMergeNil(t *testing.T) {
	cfg := Default()
	cfg.Merge(nil)
	if cfg.Port != Default().Port {
		t.Error("merge with nil should not change config")
	}
}
