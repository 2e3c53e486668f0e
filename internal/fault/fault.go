// Package fault defines the failure categories surfaced by the service.
package fault

import (
	"errors"
	"fmt"
)

// Kind is a stable failure category included in API error responses.
type Kind string

const (
	// InvalidInput means the caller-supplied request is structurally
	// incomplete, such as an empty prompt. Never retried.
	InvalidInput Kind = "invalid_input"
	// UpstreamUnavailable means the completion backend or the history
	// store could not be reached within its timeout.
	UpstreamUnavailable Kind = "upstream_unavailable"
	// UnparsableResponse means the completion backend replied but not in
	// the expected shape. Always recovered locally with a fallback value.
	UnparsableResponse Kind = "unparsable_response"
	// UnsupportedDialect means the requested IaC tool is not one of
	// terraform, cloudformation, pulumi.
	UnsupportedDialect Kind = "unsupported_dialect"
	// UnsupportedProvider means the requested cloud provider is unknown.
	UnsupportedProvider Kind = "unsupported_provider"
	// PersistenceFailure means a history store write or read failed.
	// Writes degrade to best-effort; the in-memory record is still
	// returned to the caller.
	PersistenceFailure Kind = "persistence_failure"
	// NotFound means the requested record does not exist.
	NotFound Kind = "not_found"
)

// Error carries a failure kind alongside a wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a fault with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap creates a fault wrapping an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, or an empty Kind if err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
