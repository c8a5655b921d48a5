package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected default logging config: %+v", cfg.Logging)
	}
	if cfg.Debug.Enabled {
		t.Fatalf("expected debug server disabled by default")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[logging]
level = "debug"

[debug]
enabled = true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected overridden level 'debug', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected default format to survive the overlay, got %q", cfg.Logging.Format)
	}
	if !cfg.Debug.Enabled {
		t.Fatalf("expected debug.enabled overridden to true")
	}
	if cfg.Debug.BindAddress != "127.0.0.1:9091" {
		t.Fatalf("expected default bind_address to survive the overlay, got %q", cfg.Debug.BindAddress)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error loading a missing config file")
	}
}
