package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.Analysis.SamplesPerWindow != 15 {
		t.Errorf("samples per window = %d, want 15", cfg.Analysis.SamplesPerWindow)
	}
	if cfg.Variants.Count != 3 {
		t.Errorf("variant count = %d, want 3", cfg.Variants.Count)
	}
	if cfg.Narration.NoiseThreshold != -30.0 {
		t.Errorf("noise threshold = %v, want -30", cfg.Narration.NoiseThreshold)
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelforge.yaml")
	contents := `concurrency: 8
variants:
  count: 5
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("concurrency = %d, want overridden 8", cfg.Concurrency)
	}
	if cfg.Variants.Count != 5 {
		t.Errorf("variant count = %d, want overridden 5", cfg.Variants.Count)
	}
	// Untouched keys keep defaults.
	if cfg.Analysis.SamplesPerWindow != 15 {
		t.Errorf("samples per window = %d, want default 15", cfg.Analysis.SamplesPerWindow)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.WorkDir = "/tmp/reelforge-test"
	cfg.Narration.Padding = 0.12

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.WorkDir != cfg.WorkDir {
		t.Errorf("work dir = %q, want %q", loaded.WorkDir, cfg.WorkDir)
	}
	if loaded.Narration.Padding != 0.12 {
		t.Errorf("padding = %v, want 0.12", loaded.Narration.Padding)
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Concurrency = 9

	ctx := WithConfig(context.Background(), cfg)
	if got := FromContext(ctx); got.Concurrency != 9 {
		t.Errorf("context config concurrency = %d, want 9", got.Concurrency)
	}

	// Missing config falls back to defaults.
	if got := FromContext(context.Background()); got.Concurrency != 4 {
		t.Errorf("fallback config concurrency = %d, want 4", got.Concurrency)
	}
}
