// Package launcher turns resolved invocation descriptors into container
// runtime command lines and runs them.
package launcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bidsflow/bidsflow/internal/models"
)

// Launcher runs resolved invocations against a local container runtime
// (apptainer/singularity style).
type Launcher struct {
	Command        string // container runtime binary
	ContainerStore string // directory holding container images
	LogDir         string // directory for per-run logs
	DryRun         bool
}

// BuildArgs constructs the runtime argument list for a descriptor: the
// merged container args, then the image path, then the invocation
// parameters as long flags in sorted key order.
func (l *Launcher) BuildArgs(d *models.InvocationDescriptor) []string {
	args := []string{"run"}
	args = append(args, d.ContainerArgs...)
	args = append(args, filepath.Join(l.ContainerStore, d.Container))

	keys := make([]string, 0, len(d.Invocation))
	for key := range d.Invocation {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "--"+key, fmt.Sprint(d.Invocation[key]))
	}
	return args
}

// Run executes the descriptor's invocation. In dry-run mode the command is
// logged but not executed.
func (l *Launcher) Run(ctx context.Context, d *models.InvocationDescriptor) error {
	if l.Command == "" {
		return fmt.Errorf("no container runtime command configured")
	}

	runID := uuid.NewString()
	args := l.BuildArgs(d)

	slog.Info("launching pipeline",
		"run_id", runID,
		"pipeline", d.PipelineName,
		"version", d.PipelineVersion,
		"stage", d.Stage,
		"command", l.Command,
		"args", args)

	if l.DryRun {
		slog.Info("dry run, not executing", "run_id", runID)
		return nil
	}

	var stdout io.Writer = os.Stdout
	var stderr io.Writer = os.Stderr
	if l.LogDir != "" {
		logFile, err := os.Create(l.logPath(d, runID))
		if err != nil {
			return fmt.Errorf("creating run log: %w", err)
		}
		defer logFile.Close()
		stdout = io.MultiWriter(os.Stdout, logFile)
		stderr = io.MultiWriter(os.Stderr, logFile)
	}

	cmd := exec.CommandContext(ctx, l.Command, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), envList(d.Env)...)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s %s: %w", d.PipelineName, d.PipelineVersion, err)
	}
	return nil
}

func (l *Launcher) logPath(d *models.InvocationDescriptor, runID string) string {
	timestamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("%s-%s-%s-%s.log", d.PipelineName, d.PipelineVersion, timestamp, runID[:8])
	return filepath.Join(l.LogDir, name)
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for key, value := range env {
		out = append(out, key+"="+value)
	}
	sort.Strings(out)
	return out
}
