// Package errors provides the typed error kinds used across composewait.
// Each failure category has exactly one kind so callers can decide how to
// propagate an error with errors.As instead of inspecting message text.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error by how the poller must react to it
type Kind string

const (
	// KindConfig is a misconfiguration observed at runtime (e.g. an empty manifest).
	// The current attempt fails; polling continues.
	KindConfig Kind = "config"
	// KindQuery is a transient runtime query failure. The current attempt fails;
	// polling continues.
	KindQuery Kind = "query"
	// KindLoad is a fatal manifest load/parse failure. It escapes the polling core.
	KindLoad Kind = "load"
	// KindInstall is a container runtime installation failure.
	KindInstall Kind = "install"
)

// Error represents a structured error with additional context
type Error struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Config returns a configuration error
func Config(message string, args ...interface{}) *Error {
	return New(KindConfig, fmt.Sprintf(message, args...))
}

// Query wraps a runtime query failure
func Query(op string, cause error) *Error {
	return Wrap(KindQuery, op, cause)
}

// Load wraps a manifest load failure for the given path
func Load(path string, cause error) *Error {
	return (&Error{
		Kind:    KindLoad,
		Message: "failed to load service manifest",
		Details: path,
		Cause:   cause,
	}).WithContext("path", path)
}

// Install wraps a runtime installation failure
func Install(cause error) *Error {
	return Wrap(KindInstall, "failed to install Docker", cause)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsConfig reports whether err is a configuration error
func IsConfig(err error) bool { return KindOf(err) == KindConfig }

// IsQuery reports whether err is a transient query error
func IsQuery(err error) bool { return KindOf(err) == KindQuery }

// IsLoad reports whether err is a fatal manifest load error
func IsLoad(err error) bool { return KindOf(err) == KindLoad }

// IsInstall reports whether err is an installation failure
func IsInstall(err error) bool { return KindOf(err) == KindInstall }
