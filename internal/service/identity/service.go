// Package identity maps external identity subjects to stable user ids,
// provisioning users on first contact.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tinysteps/smart-explorer/internal/domain"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
	"github.com/tinysteps/smart-explorer/internal/store"
)

// MaxExternalIDLength bounds the subjects accepted from identity tokens.
const MaxExternalIDLength = 255

// Resolver resolves an external identity to a user id.
type Resolver interface {
	Resolve(ctx context.Context, externalID string) (uuid.UUID, error)
}

// Service implements Resolver on top of a UserStore.
type Service struct {
	users  store.UserStore
	now    func() time.Time
	logger *slog.Logger
}

var _ Resolver = (*Service)(nil)

// NewService creates an identity service.
func NewService(users store.UserStore, logger *slog.Logger) *Service {
	if users == nil {
		panic("users cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		now:    time.Now,
		logger: logger.With(slog.String("component", "identity_service")),
	}
}

// Resolve returns the user id for externalID, creating the user if needed.
// Blank or oversized subjects are rejected as unauthorized.
func (s *Service) Resolve(ctx context.Context, externalID string) (uuid.UUID, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" || len(externalID) > MaxExternalIDLength {
		return uuid.Nil, domain.ErrUnauthorized
	}

	user, err := s.users.UpsertByExternalID(ctx, externalID, s.now().UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to resolve identity",
			slog.String("error", err.Error()))
		return uuid.Nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	return user.ID, nil
}
