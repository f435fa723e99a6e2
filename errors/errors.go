// Package errors provides typed error handling for the cgroupdetect-go
// resource detection library.
//
// This package defines domain-specific error types that enable better error
// classification, debugging, and user feedback. All errors support the standard
// errors.Is() and errors.As() functions for error inspection.
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrPathTooLong indicates a constructed cgroup path exceeded PATH_MAX.
	ErrPathTooLong ErrorKind = iota
	// ErrFileMissing indicates a controller interface file does not exist.
	ErrFileMissing
	// ErrParseError indicates a controller interface file could not be parsed.
	ErrParseError
	// ErrKernelMisconfigured indicates a required controller is disabled or
	// absent in the kernel's /proc/cgroups registry.
	ErrKernelMisconfigured
	// ErrMountNotFound indicates no cgroup2 (or cgroup v1 controller) mount
	// could be located in mountinfo.
	ErrMountNotFound
	// ErrInternal indicates an internal error not attributable to the host's
	// cgroup configuration.
	ErrInternal
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrPathTooLong:
		return "path too long"
	case ErrFileMissing:
		return "file missing"
	case ErrParseError:
		return "parse error"
	case ErrKernelMisconfigured:
		return "kernel misconfigured"
	case ErrMountNotFound:
		return "mount not found"
	case ErrInternal:
		return "internal error"
	default:
		return "unknown error"
	}
}

// DetectError represents an error encountered while detecting or reading a
// cgroup resource limit.
type DetectError struct {
	// Op is the operation that failed (e.g., "read_number", "construct_path").
	Op string
	// Path is the cgroup or proc file involved, if applicable.
	Path string
	// Err is the underlying error.
	Err error
	// Kind is the error classification.
	Kind ErrorKind
	// Detail provides additional context about the error.
	Detail string
}

// Error returns the error message.
func (e *DetectError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var msg string
	if e.Path != "" {
		msg = fmt.Sprintf("%s: ", e.Path)
	}
	if e.Op != "" {
		msg += fmt.Sprintf("%s: ", e.Op)
	}
	if e.Detail != "" {
		msg += e.Detail
	} else {
		msg += e.Kind.String()
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DetectError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether the error matches the target.
// It matches if the target is a *DetectError with the same Kind.
func (e *DetectError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if t, ok := target.(*DetectError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a new DetectError with the given kind.
func New(kind ErrorKind, op string, detail string) *DetectError {
	return &DetectError{
		Op:     op,
		Kind:   kind,
		Detail: detail,
	}
}

// Wrap wraps an underlying error with a kind and operation.
func Wrap(err error, kind ErrorKind, op string) *DetectError {
	return &DetectError{
		Op:   op,
		Err:  err,
		Kind: kind,
	}
}

// WrapWithPath wraps an underlying error with the cgroup/proc file path
// that produced it.
func WrapWithPath(err error, kind ErrorKind, op string, path string) *DetectError {
	return &DetectError{
		Op:   op,
		Path: path,
		Err:  err,
		Kind: kind,
	}
}

// WrapWithDetail wraps an error with additional detail.
func WrapWithDetail(err error, kind ErrorKind, op string, detail string) *DetectError {
	return &DetectError{
		Op:     op,
		Err:    err,
		Kind:   kind,
		Detail: detail,
	}
}

// IsKind checks if an error is of a specific kind.
func IsKind(err error, kind ErrorKind) bool {
	var derr *DetectError
	if errors.As(err, &derr) {
		return derr.Kind == kind
	}
	return false
}

// GetKind returns the error kind if the error is a DetectError.
func GetKind(err error) (ErrorKind, bool) {
	var derr *DetectError
	if errors.As(err, &derr) {
		return derr.Kind, true
	}
	return 0, false
}

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
