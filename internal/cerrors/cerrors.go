// Package cerrors provides the structured error taxonomy used across the
// indexing and query pipeline: an abstract Kind plus a CodeError that wraps
// an underlying cause while remaining errors.Is/errors.As friendly.
package cerrors

import (
	"errors"
	"fmt"
)

// Kind is one of the abstract error categories the pipeline distinguishes.
type Kind string

const (
	// InvalidInput: caller-supplied argument failed validation.
	InvalidInput Kind = "invalid_input"
	// NotFound: named record absent.
	NotFound Kind = "not_found"
	// Parse: tree-sitter failure for a given file.
	Parse Kind = "parse"
	// Embedding: ML inference failure.
	Embedding Kind = "embedding"
	// Storage: underlying database error.
	Storage Kind = "storage"
	// Io: file read failure.
	Io Kind = "io"
	// AlreadyExists: used for reindex semantics.
	AlreadyExists Kind = "already_exists"
	// Internal: catch-all for invariants violated.
	Internal Kind = "internal"
)

// CodeError is the structured error type threaded through the pipeline.
type CodeError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *CodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CodeError) Unwrap() error { return e.Cause }

// Is matches by Kind so errors.Is(err, cerrors.New(cerrors.NotFound, "")) works.
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds a CodeError with no cause.
func New(kind Kind, message string) *CodeError {
	return &CodeError{Kind: kind, Message: message}
}

// Wrap builds a CodeError around an existing cause.
func Wrap(kind Kind, message string, cause error) *CodeError {
	if cause == nil {
		return nil
	}
	return &CodeError{Kind: kind, Message: message, Cause: cause}
}

// Of reports the Kind of err, or Internal if err is not a *CodeError.
func Of(err error) Kind {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Internal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}
