package config

import (
	"testing"
	"testing/fstest"
)

func TestLoadSettings(t *testing.T) {
	settingsToml := `container_command = "singularity"
container_store = "/data/containers"
log_level = "debug"
dry_run = true
`

	fsys := fstest.MapFS{
		"settings.toml": &fstest.MapFile{Data: []byte(settingsToml)},
	}

	s, err := LoadSettings(fsys)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if s.ContainerCommand != "singularity" {
		t.Errorf("expected container_command singularity, got %s", s.ContainerCommand)
	}
	if s.ContainerStore != "/data/containers" {
		t.Errorf("expected container_store /data/containers, got %s", s.ContainerStore)
	}
	if s.LogLevel != "debug" {
		t.Errorf("expected log_level debug, got %s", s.LogLevel)
	}
	if !s.DryRun {
		t.Error("expected dry_run true")
	}
}

func TestLoadSettings_LegacySingularityPath(t *testing.T) {
	settingsToml := `singularity_path = "/usr/bin/singularity"
`

	fsys := fstest.MapFS{
		"settings.toml": &fstest.MapFile{Data: []byte(settingsToml)},
	}

	s, err := LoadSettings(fsys)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if s.ContainerCommand != "/usr/bin/singularity" {
		t.Errorf("expected legacy path to populate container_command, got %s", s.ContainerCommand)
	}
}

func TestLoadSettings_Missing(t *testing.T) {
	if _, err := LoadSettings(fstest.MapFS{}); err == nil {
		t.Error("expected error for missing settings.toml")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.LogLevel != "info" {
		t.Errorf("expected default log_level info, got %s", s.LogLevel)
	}
	if s.DryRun {
		t.Error("expected default dry_run false")
	}
}
