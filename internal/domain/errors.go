// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Services return (or wrap) one of these
// sentinels and the API layer maps them to status codes with errors.Is.
var (
	// ErrUnauthorized is returned when no identity can be resolved for the caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidArgument is returned when caller input is missing or malformed.
	// It is usually wrapped in a ValidationError naming the offending field.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a scene, session or prompt does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a session exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a session was modified concurrently.
	// Callers may retry after re-reading the session.
	ErrConflict = errors.New("conflict")
)

// Entity-specific not found errors.
var (
	ErrSceneNotFound   = fmt.Errorf("%w: scene", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrPromptNotFound  = fmt.Errorf("%w: prompt", ErrNotFound)
)

// ErrSessionNotOwned is returned when the caller does not own the session.
var ErrSessionNotOwned = fmt.Errorf("%w: session belongs to another user", ErrForbidden)

// ErrSessionEnded is returned when a prompt is resolved on a finished session.
var ErrSessionEnded = fmt.Errorf("%w: session has already ended", ErrInvalidArgument)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel so errors.Is works.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError. A nil err defaults to
// ErrInvalidArgument.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrInvalidArgument
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
