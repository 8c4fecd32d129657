// Package template implements placeholder substitution for configuration
// strings. Two token families exist: {name} tokens are resolved at
// config-resolution time from the enclosing version key, and
// [[NIPOPPY_NAME]] tokens are resolved from the per-run context.
//
// Substitution is a single textual pass: a replacement value that itself
// contains a token is emitted verbatim and never re-scanned.
package template

import (
	"regexp"
	"strings"

	"github.com/bidsflow/bidsflow/internal/models"
)

var (
	versionPattern = regexp.MustCompile(`\{([A-Za-z0-9_]*)\}`)
	runtimePattern = regexp.MustCompile(`\[\[NIPOPPY_([A-Z0-9_]+)\]\]`)
)

// LookupFunc resolves a canonical (lowercased) token name to its value.
type LookupFunc func(key string) (string, bool)

// MapVars adapts a plain map to a LookupFunc.
func MapVars(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := vars[key]
		return value, ok
	}
}

// ExpandVersion substitutes {name} tokens in s. The field argument is the
// key path used in error reporting.
func ExpandVersion(s, field string, lookup LookupFunc) (string, error) {
	return expand(s, field, versionPattern, lookup, func(name string) string {
		return name
	})
}

// ExpandRuntime substitutes [[NIPOPPY_NAME]] tokens in s, looking NAME up
// lowercased.
func ExpandRuntime(s, field string, lookup LookupFunc) (string, error) {
	return expand(s, field, runtimePattern, lookup, strings.ToLower)
}

// Expand substitutes both token families in s. Either lookup may be nil to
// make that family unresolvable.
func Expand(s, field string, version, runtime LookupFunc) (string, error) {
	out, err := ExpandVersion(s, field, version)
	if err != nil {
		return "", err
	}
	return ExpandRuntime(out, field, runtime)
}

func expand(s, field string, pattern *regexp.Regexp, lookup LookupFunc, canon func(string) string) (string, error) {
	var unresolved *models.UnresolvedPlaceholderError

	out := pattern.ReplaceAllStringFunc(s, func(token string) string {
		key := canon(pattern.FindStringSubmatch(token)[1])
		if lookup != nil {
			if value, ok := lookup(key); ok {
				return value
			}
		}
		if unresolved == nil {
			unresolved = &models.UnresolvedPlaceholderError{Token: token, Field: field}
		}
		return token
	})

	if unresolved != nil {
		return "", unresolved
	}
	return out, nil
}
