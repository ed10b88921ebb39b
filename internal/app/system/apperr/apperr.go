// Package apperr defines the error taxonomy shared by every operation:
// validation, forbidden, not-found, conflict, and transient. Lower-level
// document-store errors are wrapped with the step that failed but never
// swallowed, so callers can still test against the store sentinels with
// errors.Is.
package apperr

import (
	"errors"
	"fmt"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
)

// Kind classifies an operation failure.
type Kind int

const (
	// KindValidation: a required field is missing or malformed. Never retried.
	KindValidation Kind = iota
	// KindForbidden: a role or ownership check failed. Never retried.
	KindForbidden
	// KindNotFound: a referenced document is absent or belongs to
	// another group. Never retried.
	KindNotFound
	// KindConflict: a uniqueness constraint lost (duplicate membership,
	// invite-code generation exhausted). Retried internally up to the
	// documented bound before surfacing.
	KindConflict
	// KindTransient: the store timed out or was unavailable mid-flight.
	// Safe to re-issue the identical call; every multi-step operation
	// re-derives remaining work from current state.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// Error carries a kind, a single human-readable message, and an optional
// wrapped cause. There is no partial-success payload shape; callers
// re-query state after an error to learn what committed.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a missing or malformed input.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Forbidden reports a failed role or ownership check. Authorization
// failures are always surfaced, never downgraded to a no-op.
func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

// NotFound reports an absent or cross-group reference.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Conflict reports an exhausted retry or duplicate document.
func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// Wrap attaches operation context to a lower-level error, classifying
// store sentinels into the taxonomy. A nil err returns nil.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		// Already classified; keep the kind, add the step context.
		return &Error{Kind: appErr.Kind, Message: fmt.Sprintf(format, args...), Err: err}
	}
	kind := KindTransient
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, docstore.ErrConflict):
		kind = KindConflict
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
