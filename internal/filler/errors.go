package filler

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures by how far they propagate
type ErrorKind int

const (
	// KindLoad means a records or lookup file could not be loaded; nothing was generated.
	KindLoad ErrorKind = iota + 1
	// KindRecord means one record failed to fill or save; the batch continues.
	KindRecord
	// KindFatal means a run-level failure aborted the remaining batch.
	KindFatal
)

// String returns a string representation of the ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindLoad:
		return "LOAD_ERROR"
	case KindRecord:
		return "RECORD_FAILURE"
	case KindFatal:
		return "FATAL_BATCH_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// ErrValueRejected is wrapped by Widget implementations when a value does not fit the
// widget, e.g. a checked state for a text field or a radio value that is not an option.
// The widget keeps its template value and the record is still saved.
var ErrValueRejected = errors.New("value rejected by widget")

// Error is the error type returned by the filler package
type Error struct {
	Kind ErrorKind
	Op   string // operation, e.g. "open", "save", "load lookup table"
	Path string // file the operation was working on, if any
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// IsKind reports whether err is, or wraps, a filler Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
