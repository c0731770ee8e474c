package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tinysteps/smart-explorer/internal/api/shared"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/service/auth"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes based on the
// error type. Anything unrecognized is a 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingSubject):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err. Internal details
// never appear in the result.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var vErr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingSubject):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, domain.ErrSessionEnded):
		return "Session has already ended"
	case errors.As(err, &vErr):
		return "Invalid " + vErr.Error()
	case errors.Is(err, domain.ErrInvalidArgument):
		return "Invalid request"

	case errors.Is(err, domain.ErrSceneNotFound):
		return "Scene not found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, domain.ErrPromptNotFound):
		return "Prompt not found"
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"

	case errors.Is(err, domain.ErrSessionNotOwned):
		return "You do not own this session"
	case errors.Is(err, domain.ErrForbidden):
		return "Forbidden"

	case errors.Is(err, domain.ErrConflict):
		return "Session was modified concurrently, please retry"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a request validation failure into a
// user-friendly message naming the first failing field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", lowerFirst(fe.Field()), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "must be a UUID"
	default:
		return "validation failed"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// HandleAPIError maps err to a status and safe message, logs the redacted
// details with the trace id, and writes the error response. A non-empty
// fallback replaces the generic message for internal errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
