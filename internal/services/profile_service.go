package services

import (
	"context"
	"errors"
	"fmt"

	"mhmd-mcp/backend/internal/repository"
	"mhmd-mcp/backend/pkg/models"
)

// ErrInvalidPreference is returned when a write carries a preference value
// outside the OPT_IN/OPT_OUT enumeration.
var ErrInvalidPreference = errors.New("preference must be OPT_IN or OPT_OUT")

// ProfileService is a service for managing the single user profile record.
// Reads of an empty store surface the default profile rather than an error,
// so callers always see a well-formed record.
type ProfileService struct {
	store repository.ProfileStore
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store repository.ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// Get returns the stored profile, or the default profile when none exists.
func (s *ProfileService) Get(ctx context.Context) (*models.UserProfile, error) {
	profile, err := s.store.GetProfile(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.DefaultProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return profile, nil
}

// Put replaces the whole profile record.
func (s *ProfileService) Put(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if !profile.Preference.Valid() {
		return nil, ErrInvalidPreference
	}
	if err := s.store.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return profile, nil
}

// Patch merges the non-empty fields of update into the stored record and
// writes the result back.
func (s *ProfileService) Patch(ctx context.Context, update *models.UserProfile) (*models.UserProfile, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		current.Name = update.Name
	}
	if update.Email != "" {
		current.Email = update.Email
	}
	if update.Preference != "" {
		if !update.Preference.Valid() {
			return nil, ErrInvalidPreference
		}
		current.Preference = update.Preference
	}

	if err := s.store.PutProfile(ctx, current); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return current, nil
}

// Delete resets the record to the default profile. Deleting an already-reset
// record is a no-op, not an error.
func (s *ProfileService) Delete(ctx context.Context) error {
	if err := s.store.DeleteProfile(ctx); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}
