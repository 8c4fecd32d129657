// Package layout derives the conventional dataset directory tree from the
// dataset root.
package layout

import "path/filepath"

const (
	fnameManifest    = "manifest.csv"
	fnameStatusTable = "bagel.csv"
)

// Layout resolves paths inside a dataset directory.
type Layout struct {
	Root string
}

// New creates a Layout rooted at the given dataset directory.
func New(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) Bids() string        { return filepath.Join(l.Root, "bids") }
func (l Layout) Proc() string        { return filepath.Join(l.Root, "proc") }
func (l Layout) Scratch() string     { return filepath.Join(l.Root, "scratch") }
func (l Layout) RawDicom() string    { return filepath.Join(l.Root, "scratch", "raw_dicom") }
func (l Layout) Tabular() string     { return filepath.Join(l.Root, "tabular") }
func (l Layout) Derivatives() string { return filepath.Join(l.Root, "derivatives") }
func (l Layout) BidsIgnore() string  { return filepath.Join(l.Root, "proc", "bids_ignore") }
func (l Layout) Logs() string        { return filepath.Join(l.Root, "scratch", "logs") }

// Manifest is the participant manifest file.
func (l Layout) Manifest() string {
	return filepath.Join(l.Tabular(), fnameManifest)
}

// StatusTable is the pipeline completion status table.
func (l Layout) StatusTable() string {
	return filepath.Join(l.Derivatives(), fnameStatusTable)
}

// PipelineOutput is the output directory for one pipeline version.
func (l Layout) PipelineOutput(pipeline, version string) string {
	return filepath.Join(l.Derivatives(), pipeline, version)
}

// Var resolves a layout-derived template variable (dpath_bids,
// dpath_derivatives, ...). Unknown names miss so the caller can fall back to
// other sources.
func (l Layout) Var(key string) (string, bool) {
	switch key {
	case "dataset_root":
		return l.Root, true
	case "dpath_bids":
		return l.Bids(), true
	case "dpath_proc":
		return l.Proc(), true
	case "dpath_scratch":
		return l.Scratch(), true
	case "dpath_raw_dicom":
		return l.RawDicom(), true
	case "dpath_tabular":
		return l.Tabular(), true
	case "dpath_derivatives":
		return l.Derivatives(), true
	case "dpath_bids_ignore":
		return l.BidsIgnore(), true
	case "fpath_manifest":
		return l.Manifest(), true
	}
	return "", false
}
