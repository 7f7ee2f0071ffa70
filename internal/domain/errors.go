package domain

import (
	"errors"
	"fmt"
)

// Request failure taxonomy. The HTTP layer maps these to statuses with
// errors.Is, so every error produced below the adapter boundary wraps
// exactly one of them.
var (
	// ErrInvalidRequest marks malformed or contradictory query parameters.
	// Rejected before any I/O.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound marks an empty spatial match or an empty filtered result.
	ErrNotFound = errors.New("not found")

	// ErrTooManyLocations marks a request above the location cap. Rejected
	// before any partition scan.
	ErrTooManyLocations = errors.New("too many locations")

	// ErrConflict marks a true constraint violation on the ingest path.
	ErrConflict = errors.New("conflict")

	// ErrUpstreamUnavailable marks an unreachable storage backend. Not
	// retried here; retry policy belongs to the caller.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
