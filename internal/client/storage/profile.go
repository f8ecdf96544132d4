package storage

import (
	"context"
	"time"
)

//go:generate moq -out profile_mock.go . ProfileStorage

// ProfileStorage defines interface for the persisted operator profile.
// The profile is only read to resolve the acting user for provenance fields.
type ProfileStorage interface {
	// SaveProfile stores the profile, replacing any previous one
	SaveProfile(ctx context.Context, profile *Profile) error

	// GetProfile retrieves the stored profile
	// Returns ErrProfileNotFound if no profile exists
	GetProfile(ctx context.Context) (*Profile, error)

	// DeleteProfile removes the stored profile
	DeleteProfile(ctx context.Context) error
}

// Profile represents the locally persisted operator identity
type Profile struct {
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
}
