package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures. Classification happens at the
// point of origin (the component that observed the failure), never by
// inspecting error message text downstream.
type ErrorKind int

const (
	// KindIngestionFailed covers extraction, chunking, and embedding
	// failures while building an index.
	KindIngestionFailed ErrorKind = iota + 1
	// KindInvalidCredentials covers a malformed API key (local shape check)
	// or a provider-side auth rejection.
	KindInvalidCredentials
	// KindProviderFailure covers any other synthesis-time provider error.
	KindProviderFailure
	// KindPersistenceFailure covers history or index read/write failures.
	KindPersistenceFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindIngestionFailed:
		return "ingestion_failed"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindProviderFailure:
		return "provider_failure"
	case KindPersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline error wrapping its cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError classifies err with kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf classifies a formatted error with kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err, or 0 when err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
