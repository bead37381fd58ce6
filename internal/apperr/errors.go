// Package apperr defines the sentinel errors shared by the repository, service and
// handler layers. Callers match them with errors.Is.
package apperr

import "errors"

var (
	// Domain errors.
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Infrastructure errors: the store could not be reached or timed out.
	ErrUnavailable = errors.New("store unavailable")
)

// IsDomain reports whether err is one of the domain errors, as opposed to an
// infrastructure or unexpected failure.
func IsDomain(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput)
}
