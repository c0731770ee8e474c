package domain

import (
	"time"

	"github.com/google/uuid"
)

// User validation errors
var (
	ErrEmptyUserID     = NewValidationError("userId", "cannot be empty", nil)
	ErrEmptyExternalID = NewValidationError("externalId", "cannot be empty", nil)
)

// User is a player known to the service. Identity is owned by an external
// provider; ExternalID is that provider's subject and maps to a stable ID
// on first contact.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"externalId"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// NewUser creates a new User for the given external identity.
func NewUser(externalID string, now time.Time) (*User, error) {
	u := &User{
		ID:         uuid.New(),
		ExternalID: externalID,
		CreatedAt:  now.UTC(),
		LastSeenAt: now.UTC(),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.ExternalID == "" {
		return ErrEmptyExternalID
	}
	return nil
}
