// Package runspec loads the YAML document that selects what to run: which
// pipeline, which participants and sessions, and the run-time template
// bindings.
package runspec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bidsflow/bidsflow/internal/models"
)

// RunSpec is the parsed run.yaml.
type RunSpec struct {
	Name         string              `yaml:"name,omitempty"`
	ConfigPath   string              `yaml:"config"`
	DatasetRoot  string              `yaml:"dataset_root"`
	Kind         models.PipelineKind `yaml:"pipeline_kind"`
	Pipeline     string              `yaml:"pipeline"`
	Version      string              `yaml:"version"`
	Stage        string              `yaml:"stage,omitempty"`
	Participants []string            `yaml:"participants,omitempty"`
	Sessions     []string            `yaml:"sessions,omitempty"`
	TemplateVars map[string]string   `yaml:"template_vars,omitempty"`
	NConcurrent  int                 `yaml:"n_concurrent,omitempty"`
	DryRun       bool                `yaml:"dry_run,omitempty"`
	LogLevel     string              `yaml:"log_level,omitempty"`
}

// Default returns a RunSpec with default values.
func Default() RunSpec {
	return RunSpec{
		Kind:        models.KindProc,
		NConcurrent: 1,
		LogLevel:    "info",
	}
}

// Load loads and parses a run.yaml file.
func Load(path string) (RunSpec, error) {
	spec := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("reading run spec: %w", err)
	}

	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("parsing run spec: %w", err)
	}

	// Apply defaults for missing values
	if spec.Kind == "" {
		spec.Kind = models.KindProc
	}
	if spec.NConcurrent == 0 {
		spec.NConcurrent = 1
	}
	if spec.LogLevel == "" {
		spec.LogLevel = "info"
	}

	if spec.ConfigPath == "" {
		return spec, fmt.Errorf("run spec: 'config' is required")
	}
	if spec.DatasetRoot == "" {
		return spec, fmt.Errorf("run spec: 'dataset_root' is required")
	}
	if spec.Pipeline == "" {
		return spec, fmt.Errorf("run spec: 'pipeline' is required")
	}
	if spec.Version == "" {
		return spec, fmt.Errorf("run spec: 'version' is required")
	}
	if !spec.Kind.Valid() {
		return spec, fmt.Errorf("run spec: unknown pipeline_kind %q", spec.Kind)
	}

	return spec, nil
}
