package models

// InvocationDescriptor is a fully resolved set of parameters for one
// pipeline run. All placeholder tokens have been substituted; the caller
// must treat it as read-only.
type InvocationDescriptor struct {
	Kind            PipelineKind      `json:"kind"`
	PipelineName    string            `json:"pipeline_name"`
	PipelineVersion string            `json:"pipeline_version"`
	Stage           string            `json:"stage,omitempty"`
	Container       string            `json:"container"`
	URI             string            `json:"uri"`
	Invocation      map[string]any    `json:"invocation,omitempty"`
	ContainerArgs   []string          `json:"container_args,omitempty"`
	Env             map[string]string `json:"env,omitempty"`
}
