package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PipelineKind selects one of the three pipeline collections in a
// GlobalConfig.
type PipelineKind string

const (
	KindBids    PipelineKind = "bids"
	KindProc    PipelineKind = "proc"
	KindTabular PipelineKind = "tabular"
)

// Valid reports whether k names a known pipeline collection.
func (k PipelineKind) Valid() bool {
	switch k {
	case KindBids, KindProc, KindTabular:
		return true
	}
	return false
}

// GlobalConfig is the parsed dataset configuration file. Keys are
// case-sensitive and match the on-disk JSON exactly.
type GlobalConfig struct {
	DatasetName     string          `json:"DATASET_NAME"`
	ContainerConfig ContainerConfig `json:"CONTAINER_CONFIG"`
	Sessions        []string        `json:"SESSIONS"`
	Visits          []string        `json:"VISITS"`
	Bids            Pipelines       `json:"BIDS"`
	ProcPipelines   Pipelines       `json:"PROC_PIPELINES"`
	Tabular         Pipelines       `json:"TABULAR"`
	Workflows       []string        `json:"WORKFLOWS,omitempty"`
}

// Collection returns the pipeline collection for the given kind, or nil if
// the kind is unknown.
func (c *GlobalConfig) Collection(kind PipelineKind) Pipelines {
	switch kind {
	case KindBids:
		return c.Bids
	case KindProc:
		return c.ProcPipelines
	case KindTabular:
		return c.Tabular
	}
	return nil
}

// ContainerConfig holds container-runtime settings: the runtime command and
// the arguments passed to it. At the top level of a GlobalConfig it supplies
// the defaults; inside a stage it supplies per-stage overrides.
type ContainerConfig struct {
	Command string            `json:"COMMAND,omitempty"`
	Args    []string          `json:"ARGS,omitempty"`
	EnvVars map[string]string `json:"ENV_VARS,omitempty"`
}

// Pipelines maps pipeline name to version string to the stage set registered
// for that version.
type Pipelines map[string]map[string]PipelineVersion

// PipelineVersion is the value under a version key. In the JSON it is either
// a stage object directly (single-stage pipelines) or a map of named stage
// objects.
type PipelineVersion struct {
	stages      map[string]StageConfig
	singleStage bool
}

// stageFieldKeys are the keys that identify an object as a stage rather than
// a map of stages.
var stageFieldKeys = []string{
	"CONTAINER",
	"URI",
	"INVOCATION",
	"CONTAINER_CONFIG",
	"TRACKER_CONFIG",
	"DESCRIPTION",
}

// UnmarshalJSON decodes either form. An object containing any stage-level
// key is treated as a single anonymous stage; otherwise every value must
// itself be a stage object.
func (v *PipelineVersion) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	isStage := false
	for _, key := range stageFieldKeys {
		if _, ok := raw[key]; ok {
			isStage = true
			break
		}
	}

	if isStage {
		var stage StageConfig
		if err := json.Unmarshal(data, &stage); err != nil {
			return err
		}
		v.stages = map[string]StageConfig{"": stage}
		v.singleStage = true
		return nil
	}

	stages := make(map[string]StageConfig, len(raw))
	for name, msg := range raw {
		var stage StageConfig
		if err := json.Unmarshal(msg, &stage); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
		stages[name] = stage
	}
	v.stages = stages
	v.singleStage = false
	return nil
}

// NewSingleStageVersion builds a single-stage pipeline version.
func NewSingleStageVersion(stage StageConfig) PipelineVersion {
	return PipelineVersion{
		stages:      map[string]StageConfig{"": stage},
		singleStage: true,
	}
}

// NewStagedVersion builds a pipeline version with named stages.
func NewStagedVersion(stages map[string]StageConfig) PipelineVersion {
	copied := make(map[string]StageConfig, len(stages))
	for name, stage := range stages {
		copied[name] = stage
	}
	return PipelineVersion{stages: copied}
}

// SingleStage reports whether the version holds exactly one anonymous stage.
func (v PipelineVersion) SingleStage() bool {
	return v.singleStage
}

// Stage looks up a stage by name. For single-stage versions the empty name
// returns the stage; any other name misses.
func (v PipelineVersion) Stage(name string) (StageConfig, bool) {
	stage, ok := v.stages[name]
	return stage, ok
}

// StageNames returns the sorted stage names. Single-stage versions return a
// single empty name.
func (v PipelineVersion) StageNames() []string {
	names := make([]string, 0, len(v.stages))
	for name := range v.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StageConfig is one runnable step of a pipeline version.
type StageConfig struct {
	Description     string           `json:"DESCRIPTION,omitempty"`
	Container       string           `json:"CONTAINER,omitempty"`
	URI             string           `json:"URI,omitempty"`
	Invocation      map[string]any   `json:"INVOCATION,omitempty"`
	ContainerConfig *ContainerConfig `json:"CONTAINER_CONFIG,omitempty"`
	TrackerConfig   TrackerConfig    `json:"TRACKER_CONFIG,omitempty"`
}

// TrackerConfig maps a completion-check label to an ordered list of file
// glob patterns, relative to the pipeline output directory.
type TrackerConfig map[string][]string

// Labels returns the sorted tracker labels.
func (t TrackerConfig) Labels() []string {
	labels := make([]string, 0, len(t))
	for label := range t {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
