package launcher

import (
	"context"
	"reflect"
	"testing"

	"github.com/bidsflow/bidsflow/internal/models"
)

func TestBuildArgs(t *testing.T) {
	l := &Launcher{
		Command:        "apptainer",
		ContainerStore: "/data/containers",
	}

	d := &models.InvocationDescriptor{
		PipelineName:    "fmriprep",
		PipelineVersion: "20.2.7",
		Container:       "fmriprep-20.2.7.sif",
		ContainerArgs:   []string{"--cleanenv", "--bind", "/opt/fs/license.txt"},
		Invocation: map[string]any{
			"fs_license_file": "/opt/fs/license.txt",
			"bids_dir":        "/data/study-01/bids",
			"n_cpus":          float64(4),
		},
	}

	want := []string{
		"run",
		"--cleanenv", "--bind", "/opt/fs/license.txt",
		"/data/containers/fmriprep-20.2.7.sif",
		"--bids_dir", "/data/study-01/bids",
		"--fs_license_file", "/opt/fs/license.txt",
		"--n_cpus", "4",
	}

	if got := l.BuildArgs(d); !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs() = %v, want %v", got, want)
	}
}

func TestRun_DryRun(t *testing.T) {
	l := &Launcher{
		Command: "apptainer",
		DryRun:  true,
	}

	d := &models.InvocationDescriptor{
		PipelineName:    "fmriprep",
		PipelineVersion: "20.2.7",
		Container:       "fmriprep-20.2.7.sif",
	}

	if err := l.Run(context.Background(), d); err != nil {
		t.Fatalf("dry run should not execute anything: %v", err)
	}
}

func TestRun_NoCommand(t *testing.T) {
	l := &Launcher{}
	d := &models.InvocationDescriptor{PipelineName: "fmriprep"}

	if err := l.Run(context.Background(), d); err == nil {
		t.Error("expected error when no runtime command is configured")
	}
}

func TestEnvList(t *testing.T) {
	got := envList(map[string]string{
		"TEMPLATEFLOW_HOME": "/opt/templateflow",
		"FS_LICENSE":        "/opt/fs/license.txt",
	})
	want := []string{
		"FS_LICENSE=/opt/fs/license.txt",
		"TEMPLATEFLOW_HOME=/opt/templateflow",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("envList() = %v, want %v", got, want)
	}

	if envList(nil) != nil {
		t.Error("expected nil for empty env")
	}
}
