package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/api/shared"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/redact"
	"github.com/tinysteps/smart-explorer/internal/service/auth"
	"github.com/tinysteps/smart-explorer/internal/service/identity"
)

// AuthMiddleware authenticates requests with a bearer identity token and
// resolves the token subject to a user id.
type AuthMiddleware struct {
	jwtService auth.JWTService
	resolver   identity.Resolver
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, resolver identity.Resolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		resolver:   resolver,
	}
}

// Authenticate validates the Authorization header and adds the caller's user
// id to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), strings.TrimSpace(token))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Token expired", err)
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrMissingSubject):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err,
					shared.WithElevatedLogLevel())
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			}
			return
		}

		userID, err := m.resolver.Resolve(r.Context(), claims.Subject)
		if err != nil {
			logger.FromContext(r.Context()).Warn("failed to resolve identity",
				slog.String("error", redact.Error(err)))
			status := http.StatusInternalServerError
			message := "Authentication error"
			if errors.Is(err, domain.ErrUnauthorized) {
				status = http.StatusUnauthorized
				message = "Invalid token"
			}
			shared.RespondWithErrorAndLog(w, r, status, message, err)
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
		ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(slog.String("user_id", userID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
