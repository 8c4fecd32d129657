package layout

import (
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	l := New("/data/study-01")

	tests := []struct {
		got  string
		want string
	}{
		{l.Bids(), "/data/study-01/bids"},
		{l.Proc(), "/data/study-01/proc"},
		{l.Scratch(), "/data/study-01/scratch"},
		{l.RawDicom(), "/data/study-01/scratch/raw_dicom"},
		{l.Tabular(), "/data/study-01/tabular"},
		{l.Derivatives(), "/data/study-01/derivatives"},
		{l.BidsIgnore(), "/data/study-01/proc/bids_ignore"},
		{l.Logs(), "/data/study-01/scratch/logs"},
		{l.Manifest(), "/data/study-01/tabular/manifest.csv"},
		{l.StatusTable(), "/data/study-01/derivatives/bagel.csv"},
		{l.PipelineOutput("fmriprep", "20.2.7"), "/data/study-01/derivatives/fmriprep/20.2.7"},
	}

	for _, tt := range tests {
		if tt.got != filepath.FromSlash(tt.want) {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestVar(t *testing.T) {
	l := New("/data/study-01")

	if got, ok := l.Var("dpath_bids"); !ok || got != filepath.FromSlash("/data/study-01/bids") {
		t.Errorf("Var(dpath_bids) = (%q, %v)", got, ok)
	}
	if got, ok := l.Var("fpath_manifest"); !ok || got != filepath.FromSlash("/data/study-01/tabular/manifest.csv") {
		t.Errorf("Var(fpath_manifest) = (%q, %v)", got, ok)
	}
	if _, ok := l.Var("dpath_unknown"); ok {
		t.Error("expected unknown variable to miss")
	}
}
