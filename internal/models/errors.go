package models

import "fmt"

// SchemaError indicates that a configuration document is missing a required
// key or holds a value of the wrong shape. It is not recoverable: the
// document has to be fixed.
type SchemaError struct {
	Field  string // key path within the document
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates that a requested pipeline, version, or stage does
// not exist in the configuration. Zero-valued selectors were not part of the
// request.
type NotFoundError struct {
	Kind     PipelineKind
	Pipeline string
	Version  string
	Stage    string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no config found for %s pipeline %q", e.Kind, e.Pipeline)
	if e.Version != "" {
		msg += fmt.Sprintf(" version %q", e.Version)
	}
	if e.Stage != "" {
		msg += fmt.Sprintf(" stage %q", e.Stage)
	}
	return msg
}

// UnresolvedPlaceholderError indicates that a placeholder token in a
// configuration string has no substitution in the run context or version
// variables.
type UnresolvedPlaceholderError struct {
	Token string // the literal token, delimiters included
	Field string // key path of the string the token occurred in
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("unable to replace %s in %s", e.Token, e.Field)
}
