// Package resolver turns a declarative pipeline configuration plus a run
// context into concrete invocation parameters. Resolution is a pure
// function: the input configuration is never mutated and identical inputs
// yield identical descriptors, so it is safe to call concurrently.
package resolver

import (
	"fmt"
	"log/slog"

	"github.com/bidsflow/bidsflow/internal/models"
	"github.com/bidsflow/bidsflow/internal/template"
)

// Resolve looks up the selected pipeline/version/stage in the configuration
// and substitutes all placeholder tokens, producing a ready-to-run
// invocation descriptor. The stage argument is empty for single-stage
// pipelines.
func Resolve(cfg *models.GlobalConfig, kind models.PipelineKind, name, version, stage string, runCtx Context) (*models.InvocationDescriptor, error) {
	stageCfg, err := LookupStage(cfg, kind, name, version, stage)
	if err != nil {
		return nil, err
	}

	prefix := fieldPrefix(kind, name, version, stage)
	if stageCfg.Container == "" {
		return nil, &models.SchemaError{Field: prefix + ".CONTAINER", Reason: "missing"}
	}
	if stageCfg.URI == "" {
		return nil, &models.SchemaError{Field: prefix + ".URI", Reason: "missing"}
	}

	slog.Debug("resolving pipeline invocation",
		"kind", kind,
		"pipeline", name,
		"version", version,
		"stage", stage,
		"bids_id", runCtx.BidsID,
		"session", runCtx.Session)

	versionVars := template.MapVars(map[string]string{"version": version})
	runtime := template.LookupFunc(runCtx.Lookup)

	container, err := template.Expand(stageCfg.Container, "CONTAINER", versionVars, runtime)
	if err != nil {
		return nil, err
	}

	uri, err := template.Expand(stageCfg.URI, "URI", versionVars, runtime)
	if err != nil {
		return nil, err
	}

	invocation, err := resolveInvocation(stageCfg.Invocation, versionVars, runtime)
	if err != nil {
		return nil, err
	}

	args, err := mergeArgs(cfg.ContainerConfig, stageCfg.ContainerConfig, versionVars, runtime)
	if err != nil {
		return nil, err
	}

	return &models.InvocationDescriptor{
		Kind:            kind,
		PipelineName:    name,
		PipelineVersion: version,
		Stage:           stage,
		Container:       container,
		URI:             uri,
		Invocation:      invocation,
		ContainerArgs:   args,
		Env:             mergeEnv(cfg.ContainerConfig, stageCfg.ContainerConfig),
	}, nil
}

// ResolveTracker substitutes run-context tokens into every tracker pattern,
// returning a fresh label-to-patterns mapping. Version tokens do not occur
// in tracker patterns, so brace characters pass through untouched (they can
// be meaningful in glob syntax).
func ResolveTracker(trackerCfg models.TrackerConfig, runCtx Context) (map[string][]string, error) {
	runtime := template.LookupFunc(runCtx.Lookup)

	resolved := make(map[string][]string, len(trackerCfg))
	for _, label := range trackerCfg.Labels() {
		patterns := trackerCfg[label]
		out := make([]string, len(patterns))
		for i, pattern := range patterns {
			field := fmt.Sprintf("TRACKER_CONFIG.%s[%d]", label, i)
			expanded, err := template.ExpandRuntime(pattern, field, runtime)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		resolved[label] = out
	}
	return resolved, nil
}

// LookupStage fetches the stage configuration for the given selectors
// without resolving any tokens.
func LookupStage(cfg *models.GlobalConfig, kind models.PipelineKind, name, version, stage string) (models.StageConfig, error) {
	coll := cfg.Collection(kind)
	if coll == nil {
		return models.StageConfig{}, &models.NotFoundError{Kind: kind, Pipeline: name}
	}

	versions, ok := coll[name]
	if !ok {
		return models.StageConfig{}, &models.NotFoundError{Kind: kind, Pipeline: name}
	}

	pv, ok := versions[version]
	if !ok {
		return models.StageConfig{}, &models.NotFoundError{Kind: kind, Pipeline: name, Version: version}
	}

	stageCfg, ok := pv.Stage(stage)
	if !ok {
		return models.StageConfig{}, &models.NotFoundError{
			Kind:     kind,
			Pipeline: name,
			Version:  version,
			Stage:    stage,
		}
	}
	return stageCfg, nil
}

func fieldPrefix(kind models.PipelineKind, name, version, stage string) string {
	field := ""
	switch kind {
	case models.KindBids:
		field = "BIDS"
	case models.KindProc:
		field = "PROC_PIPELINES"
	case models.KindTabular:
		field = "TABULAR"
	}
	field = fmt.Sprintf("%s.%s.%s", field, name, version)
	if stage != "" {
		field = fmt.Sprintf("%s.%s", field, stage)
	}
	return field
}

// resolveInvocation deep-copies the invocation mapping, substituting tokens
// in every string it can reach. Non-string leaves pass through unchanged.
func resolveInvocation(invocation map[string]any, version, runtime template.LookupFunc) (map[string]any, error) {
	if invocation == nil {
		return nil, nil
	}
	out, err := resolveValue(invocation, "INVOCATION", version, runtime)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func resolveValue(value any, field string, version, runtime template.LookupFunc) (any, error) {
	switch v := value.(type) {
	case string:
		return template.Expand(v, field, version, runtime)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			resolved, err := resolveValue(elem, fmt.Sprintf("%s[%d]", field, i), version, runtime)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			resolved, err := resolveValue(elem, fmt.Sprintf("%s.%s", field, key), version, runtime)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// mergeArgs appends stage-level container args after the global defaults.
// Duplicates are preserved: argument order and repetition matter to the
// container runtime (repeated --bind flags, for instance).
func mergeArgs(global models.ContainerConfig, stage *models.ContainerConfig, version, runtime template.LookupFunc) ([]string, error) {
	merged := make([]string, 0, len(global.Args))
	merged = append(merged, global.Args...)
	if stage != nil {
		merged = append(merged, stage.Args...)
	}

	for i, arg := range merged {
		expanded, err := template.Expand(arg, fmt.Sprintf("CONTAINER_CONFIG.ARGS[%d]", i), version, runtime)
		if err != nil {
			return nil, err
		}
		merged[i] = expanded
	}

	if len(merged) == 0 {
		return nil, nil
	}
	return merged, nil
}

// mergeEnv overlays stage env vars onto the global ones, stage winning per
// key. Values are passed through verbatim.
func mergeEnv(global models.ContainerConfig, stage *models.ContainerConfig) map[string]string {
	if len(global.EnvVars) == 0 && (stage == nil || len(stage.EnvVars) == 0) {
		return nil
	}

	merged := make(map[string]string, len(global.EnvVars))
	for key, value := range global.EnvVars {
		merged[key] = value
	}
	if stage != nil {
		for key, value := range stage.EnvVars {
			merged[key] = value
		}
	}
	return merged
}
