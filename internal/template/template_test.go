package template

import (
	"errors"
	"testing"

	"github.com/bidsflow/bidsflow/internal/models"
)

func TestExpandVersion(t *testing.T) {
	vars := MapVars(map[string]string{"version": "20.2.7"})

	tests := []struct {
		name    string
		in      string
		want    string
		wantTok string
	}{
		{"no tokens", "fmriprep.sif", "fmriprep.sif", ""},
		{"single token", "fmriprep-{version}.sif", "fmriprep-20.2.7.sif", ""},
		{"repeated token", "{version}/{version}", "20.2.7/20.2.7", ""},
		{"unknown token", "fmriprep-{ver}.sif", "", "{ver}"},
		{"empty name", "fmriprep-{}.sif", "", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandVersion(tt.in, "CONTAINER", vars)
			if tt.wantTok != "" {
				var unresolved *models.UnresolvedPlaceholderError
				if !errors.As(err, &unresolved) {
					t.Fatalf("expected UnresolvedPlaceholderError, got %v", err)
				}
				if unresolved.Token != tt.wantTok {
					t.Errorf("expected token %q, got %q", tt.wantTok, unresolved.Token)
				}
				if unresolved.Field != "CONTAINER" {
					t.Errorf("expected field CONTAINER, got %q", unresolved.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandVersion: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExpandRuntime(t *testing.T) {
	lookup := MapVars(map[string]string{
		"bids_id": "sub-01",
		"session": "ses-A",
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no tokens", "no_replace", "no_replace"},
		{"single token", "[[NIPOPPY_BIDS_ID]]", "sub-01"},
		{"embedded tokens", "[[NIPOPPY_BIDS_ID]]/[[NIPOPPY_SESSION]]/anat/*.nii.gz", "sub-01/ses-A/anat/*.nii.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRuntime(tt.in, "TRACKER_CONFIG.pipeline_complete[0]", lookup)
			if err != nil {
				t.Fatalf("ExpandRuntime: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExpandRuntime_Unresolved(t *testing.T) {
	_, err := ExpandRuntime("[[NIPOPPY_FS_LICENSE_FILE]]", "INVOCATION.fs_license_file", MapVars(nil))

	var unresolved *models.UnresolvedPlaceholderError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedPlaceholderError, got %v", err)
	}
	if unresolved.Token != "[[NIPOPPY_FS_LICENSE_FILE]]" {
		t.Errorf("unexpected token %q", unresolved.Token)
	}
	if unresolved.Field != "INVOCATION.fs_license_file" {
		t.Errorf("unexpected field %q", unresolved.Field)
	}
}

func TestExpand_NoChainedResolution(t *testing.T) {
	// A replacement value containing a token must be emitted verbatim, not
	// re-scanned.
	lookup := MapVars(map[string]string{
		"outer": "[[NIPOPPY_INNER]]",
		"inner": "should-not-appear",
	})

	got, err := ExpandRuntime("[[NIPOPPY_OUTER]]", "INVOCATION.x", lookup)
	if err != nil {
		t.Fatalf("ExpandRuntime: %v", err)
	}
	if got != "[[NIPOPPY_INNER]]" {
		t.Errorf("expected verbatim replacement, got %q", got)
	}
}

func TestExpand_BothFamilies(t *testing.T) {
	version := MapVars(map[string]string{"version": "0.12.2"})
	runtime := MapVars(map[string]string{"dataset_root": "/data/study"})

	got, err := Expand("[[NIPOPPY_DATASET_ROOT]]/containers/heudiconv_{version}.sif", "CONTAINER", version, runtime)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := "/data/study/containers/heudiconv_0.12.2.sif"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
