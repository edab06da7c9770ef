package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable classification of a per-request failure. Every
// user-visible error carries a Kind plus a human-readable reason; none of
// them are fatal to the process.
type Kind string

const (
	// KindValidation covers bad role/status combinations, no-op transitions
	// and invalid clock sequences. Rejected synchronously, never partially
	// applied.
	KindValidation Kind = "validation"
	// KindConflict means a concurrent writer won the race. Safe to retry
	// after re-reading state.
	KindConflict Kind = "conflict"
	// KindNotFound means the referenced assignment, entry or user does not
	// exist.
	KindNotFound Kind = "not_found"
	// KindPersistence means the underlying store was unavailable. Retryable
	// with backoff; writes carry idempotency keys so retries cannot
	// duplicate history.
	KindPersistence Kind = "persistence"
	// KindSideEffect marks a coordinator side-effect failure that was logged
	// and surfaced but did not revert the committed transition.
	KindSideEffect Kind = "side_effect"
)

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a classified error without a cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

// Validationf builds a validation error with a formatted reason.
func Validationf(format string, args ...interface{}) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf extracts the Kind from err, or KindPersistence for unclassified
// errors (the safe default: callers treat them as retryable infrastructure
// failures).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether the caller may retry the operation.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindPersistence:
		return true
	}
	return false
}

// HTTPStatus maps an error kind to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
