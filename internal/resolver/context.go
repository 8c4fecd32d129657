package resolver

import "github.com/bidsflow/bidsflow/internal/layout"

// Context supplies the run-time values for [[NIPOPPY_*]] tokens: the
// subject/session being processed, the dataset location, and any extra
// bindings (e.g. license file paths) the invocation needs.
type Context struct {
	BidsID      string
	Session     string
	DatasetRoot string
	Layout      *layout.Layout
	Extra       map[string]string
}

// Lookup resolves a canonical token name. Explicit fields win over extra
// bindings, which win over layout-derived paths.
func (c Context) Lookup(key string) (string, bool) {
	switch key {
	case "bids_id":
		if c.BidsID != "" {
			return c.BidsID, true
		}
	case "session":
		if c.Session != "" {
			return c.Session, true
		}
	case "dataset_root":
		if c.DatasetRoot != "" {
			return c.DatasetRoot, true
		}
	}

	if value, ok := c.Extra[key]; ok {
		return value, true
	}

	if c.Layout != nil {
		if value, ok := c.Layout.Var(key); ok {
			return value, true
		}
	}

	return "", false
}
