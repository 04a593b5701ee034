// Package apperr holds the sentinel errors shared by the credential store,
// session manager and review service. Match them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// Credential errors.
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrUpdateFailed      = errors.New("update failed")
	ErrPasswordMismatch  = errors.New("passwords do not match")

	// Session errors.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Resource errors.
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	ErrInvalidSortParameter = errors.New("invalid sorting parameters")

	// ErrStoreUnavailable wraps any failure of the persistent store.
	// Its text never reaches clients.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsSessionFailure reports whether err means the caller has no usable session.
func IsSessionFailure(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrNotFound)
}

// IsAccessDenied reports whether err is one of the two outcomes that are
// answered identically for a single review: missing or owned by someone else.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}

// Store marks err as a store failure for op while keeping the cause
// available to errors.Is/As.
func Store(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
