// Package apperr defines the error kinds surfaced by the feed engine.
//
// Every error returned from the engine wraps exactly one of the sentinels
// below, so callers classify with errors.Is or Kind.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any store call.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a duplicate like edge insert.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated marks a mutation attempted without an actor.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden marks a mutation attempted by someone other than the owner.
	ErrForbidden = errors.New("not permitted")
	// ErrNotFound marks an operation against an id that no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks a store or network failure. Never retried here.
	ErrTransient = errors.New("store unavailable")
)

// Validation wraps ErrValidation with a formatted message
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound naming the missing entity
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// Forbidden wraps ErrForbidden
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Transient wraps a driver failure so it classifies as ErrTransient while
// keeping the original error in the chain.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransient, op, err)
}

// IsAuthorization reports whether err is either authorization kind
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrForbidden)
}

// IsKnown reports whether err already carries one of the engine's kinds
func IsKnown(err error) bool {
	return Kind(err) != nil
}

// Kind returns the sentinel err wraps, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrConflict, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrTransient} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
