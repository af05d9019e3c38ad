package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Trace.MaxDepth != 64 {
		t.Errorf("MaxDepth = %d, want 64", cfg.Trace.MaxDepth)
	}
	if cfg.Trace.MaxSteps != 10000 {
		t.Errorf("MaxSteps = %d, want 10000", cfg.Trace.MaxSteps)
	}
	if !cfg.Trace.FirstSolutionOnly {
		t.Error("FirstSolutionOnly should default to true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Trace.MaxDepth != 64 {
		t.Errorf("MaxDepth = %d, want default 64", cfg.Trace.MaxDepth)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portray.yaml")
	content := `
trace:
  max_depth: 12
  max_steps: 500
  first_solution_only: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Trace.MaxDepth != 12 {
		t.Errorf("MaxDepth = %d, want 12", cfg.Trace.MaxDepth)
	}
	if cfg.Trace.MaxSteps != 500 {
		t.Errorf("MaxSteps = %d, want 500", cfg.Trace.MaxSteps)
	}
	if cfg.Trace.FirstSolutionOnly {
		t.Error("FirstSolutionOnly should be false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORTRAY_MAX_DEPTH", "7")
	t.Setenv("PORTRAY_MAX_STEPS", "333")
	t.Setenv("PORTRAY_ALL_SOLUTIONS", "true")
	t.Setenv("PORTRAY_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Trace.MaxDepth != 7 {
		t.Errorf("MaxDepth = %d, want 7", cfg.Trace.MaxDepth)
	}
	if cfg.Trace.MaxSteps != 333 {
		t.Errorf("MaxSteps = %d, want 333", cfg.Trace.MaxSteps)
	}
	if cfg.Trace.FirstSolutionOnly {
		t.Error("PORTRAY_ALL_SOLUTIONS=true should disable FirstSolutionOnly")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("PORTRAY_MAX_DEPTH", "not-a-number")
	t.Setenv("PORTRAY_MAX_STEPS", "-5")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Trace.MaxDepth != 64 || cfg.Trace.MaxSteps != 10000 {
		t.Errorf("invalid env values must keep defaults, got depth=%d steps=%d",
			cfg.Trace.MaxDepth, cfg.Trace.MaxSteps)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "portray.yaml")
	cfg := DefaultConfig()
	cfg.Trace.MaxDepth = 21

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Trace.MaxDepth != 21 {
		t.Errorf("MaxDepth = %d, want 21 after round trip", loaded.Trace.MaxDepth)
	}
}

func TestValidateRejectsBadLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trace.MaxDepth = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero max_depth should fail validation")
	}
	cfg = DefaultConfig()
	cfg.Trace.MaxSteps = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative max_steps should fail validation")
	}
}
