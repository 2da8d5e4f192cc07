package repository

import (
	"context"
	"errors"

	"mhmd-mcp/backend/pkg/models"
)

// ErrNotFound is returned by GetProfile when no complete profile record
// exists in the store.
var ErrNotFound = errors.New("profile not found")

// ProfileStore is a whole-record store for the single user profile.
// Implementations must make each read and write atomic; the dispatcher does
// no locking of its own. There is no partial-field update primitive: callers
// wanting one must read-modify-write.
type ProfileStore interface {
	// GetProfile retrieves the stored profile, or ErrNotFound when absent.
	GetProfile(ctx context.Context) (*models.UserProfile, error)
	// PutProfile overwrites the stored profile wholesale.
	PutProfile(ctx context.Context, profile *models.UserProfile) error
	// DeleteProfile resets the store to its default record. Deleting an
	// already-absent profile is a successful no-op.
	DeleteProfile(ctx context.Context) error
}

// DefaultProfile is the record an empty store resets to.
func DefaultProfile() *models.UserProfile {
	return &models.UserProfile{
		Name:       "",
		Email:      "",
		Preference: models.PreferenceOptOut,
	}
}
