package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}

	// Check chain bounds
	if cfg.Chains.MaxHops != 5 {
		t.Errorf("MaxHops = %d, want 5", cfg.Chains.MaxHops)
	}
	if cfg.Chains.MaxPaths != 100000 {
		t.Errorf("MaxPaths = %d, want 100000", cfg.Chains.MaxPaths)
	}

	// Check scoring weights and thresholds
	if cfg.Scoring.SeverityWeight != 0.4 {
		t.Errorf("SeverityWeight = %v, want 0.4", cfg.Scoring.SeverityWeight)
	}
	if cfg.Scoring.TopThreshold != 0.7 {
		t.Errorf("TopThreshold = %v, want 0.7", cfg.Scoring.TopThreshold)
	}
	if cfg.Scoring.MidThreshold != 0.4 {
		t.Errorf("MidThreshold = %v, want 0.4", cfg.Scoring.MidThreshold)
	}

	// Check extraction defaults
	if cfg.Extract.Backend != "scip" {
		t.Errorf("Backend = %q, want %q", cfg.Extract.Backend, "scip")
	}

	if len(cfg.Detect.Extensions) == 0 {
		t.Error("Extensions should not be empty")
	}
	if !cfg.Storage.Enabled {
		t.Error("Storage should be enabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Expected default config, got version %d", cfg.Version)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Chains.MaxHops = 8
	cfg.Extract.Backend = "synthetic"
	cfg.Logging.Level = "debug"

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ConfigDirName, "config.json")); err != nil {
		t.Fatalf("Config file not written: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Chains.MaxHops != 8 {
		t.Errorf("MaxHops = %d, want 8", loaded.Chains.MaxHops)
	}
	if loaded.Extract.Backend != "synthetic" {
		t.Errorf("Backend = %q, want %q", loaded.Extract.Backend, "synthetic")
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Level = %q, want %q", loaded.Logging.Level, "debug")
	}
	// Untouched fields keep defaults
	if loaded.Scoring.TopThreshold != 0.7 {
		t.Errorf("TopThreshold = %v, want 0.7", loaded.Scoring.TopThreshold)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad version", func(c *Config) { c.Version = 2 }},
		{"zero max hops", func(c *Config) { c.Chains.MaxHops = 0 }},
		{"zero max paths", func(c *Config) { c.Chains.MaxPaths = 0 }},
		{"inverted thresholds", func(c *Config) { c.Scoring.TopThreshold = 0.2 }},
		{"unknown backend", func(c *Config) { c.Extract.Backend = "static" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
