package session

import (
	"errors"
	"fmt"

	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// ServiceError wraps unexpected failures with the operation that produced
// them. Expected conditions are returned as domain sentinels instead.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("session service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError translates store errors into the domain taxonomy. Domain
// errors pass through unchanged; anything else is wrapped.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return domain.ErrSessionNotFound
	case errors.Is(err, store.ErrSceneNotFound):
		return domain.ErrSceneNotFound
	case errors.Is(err, store.ErrPromptNotFound):
		return domain.ErrPromptNotFound
	case errors.Is(err, store.ErrVersionConflict):
		return fmt.Errorf("%w: session was modified concurrently", domain.ErrConflict)
	}

	if isDomainError(err) {
		return err
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrInvalidArgument) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrUnauthorized)
}
