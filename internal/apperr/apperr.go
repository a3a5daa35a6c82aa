// Package apperr defines the error kinds services return to the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthenticated
	KindInsufficientRole
	KindInvalidCredentials
	KindNotFound
	KindStorage
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInsufficientRole:
		return "insufficient_role"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error carries a kind, a caller-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

func newErr(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation reports bad caller input. No side effects have happened.
func Validation(msg string) error { return newErr(KindValidation, msg, nil) }

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return newErr(KindValidation, fmt.Sprintf(format, args...), nil)
}

// Unauthenticated reports a missing or invalid token.
func Unauthenticated(msg string) error { return newErr(KindUnauthenticated, msg, nil) }

// InsufficientRole reports a valid token whose roles do not match.
func InsufficientRole(msg string) error { return newErr(KindInsufficientRole, msg, nil) }

// InvalidCredentials is returned for any failed login.
func InvalidCredentials() error {
	return newErr(KindInvalidCredentials, "invalid username or password", nil)
}

// NotFound reports an absent entity or media record.
func NotFound(msg string) error { return newErr(KindNotFound, msg, nil) }

// Storage wraps an object store failure.
func Storage(msg string, err error) error { return newErr(KindStorage, msg, err) }

// Persistence wraps a database failure.
func Persistence(msg string, err error) error { return newErr(KindPersistence, msg, err) }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the caller-safe message of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
