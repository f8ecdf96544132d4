// Package profile resolves the acting operator from the persisted profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/validation"
)

// AnonymousUserID is used for provenance when no profile has been stored.
const AnonymousUserID = "anonymous"

// Service reads and writes the operator profile. It is the IdentityProvider
// used by the sync engine to stamp userId and modifiedBy.
type Service struct {
	storage storage.ProfileStorage
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new profile service over storage
func NewService(storage storage.ProfileStorage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// CurrentUserID returns the stored user id, or AnonymousUserID if no profile
// exists yet. Storage failures are returned to the caller.
func (s *Service) CurrentUserID(ctx context.Context) (string, error) {
	p, err := s.storage.GetProfile(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			return AnonymousUserID, nil
		}
		return "", fmt.Errorf("failed to read profile: %w", err)
	}

	if p.UserID == "" {
		return AnonymousUserID, nil
	}
	return p.UserID, nil
}

// SetProfile validates and stores the operator identity.
func (s *Service) SetProfile(ctx context.Context, userID, username, displayName string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}

	p := &storage.Profile{
		UserID:      userID,
		Username:    username,
		DisplayName: displayName,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.storage.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.Info("Profile saved", "user_id", userID, "username", username)
	return nil
}

// Profile returns the stored profile.
func (s *Service) Profile(ctx context.Context) (*storage.Profile, error) {
	return s.storage.GetProfile(ctx)
}

// Clear removes the stored profile; a missing profile is not an error.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.storage.DeleteProfile(ctx); err != nil && !errors.Is(err, storage.ErrProfileNotFound) {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
