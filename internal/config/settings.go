package config

import (
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// Settings are optional user-level overrides loaded from settings.toml.
// Anything not set here falls back to the dataset configuration.
type Settings struct {
	ContainerCommand string `toml:"container_command"`
	ContainerStore   string `toml:"container_store"`
	LogLevel         string `toml:"log_level"`
	DryRun           bool   `toml:"dry_run"`

	// Deprecated: use container_command.
	SingularityPath string `toml:"singularity_path,omitempty"`
}

// DefaultSettings returns a Settings with default values.
func DefaultSettings() Settings {
	return Settings{
		LogLevel: "info",
	}
}

// LoadSettings loads and parses a settings.toml file from the given
// filesystem.
func LoadSettings(fsys fs.FS) (Settings, error) {
	s := DefaultSettings()

	data, err := fs.ReadFile(fsys, "settings.toml")
	if err != nil {
		return s, fmt.Errorf("reading settings.toml: %w", err)
	}

	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return s, fmt.Errorf("parsing settings.toml: %w", err)
	}

	// Handle legacy 'singularity_path' field if 'container_command' is not
	// explicitly set.
	if !md.IsDefined("container_command") && md.IsDefined("singularity_path") {
		s.ContainerCommand = s.SingularityPath
	}

	if s.LogLevel == "" {
		s.LogLevel = "info"
	}

	return s, nil
}
