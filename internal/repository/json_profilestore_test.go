package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhmd-mcp/backend/pkg/models"
)

func newTestStore(t *testing.T) *JSONProfileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_data.json")
	store, err := NewJSONProfileStore(path)
	require.NoError(t, err)
	return store
}

func TestJSONProfileStore_EmptyStoreReadsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetProfile(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONProfileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	profile := &models.UserProfile{
		Name:       "Ada",
		Email:      "ada@example.com",
		Preference: models.PreferenceOptOut,
	}
	require.NoError(t, store.PutProfile(ctx, profile))

	got, err := store.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile, got)
}

func TestJSONProfileStore_PutRejectsInvalidPreference(t *testing.T) {
	store := newTestStore(t)

	err := store.PutProfile(context.Background(), &models.UserProfile{
		Name:       "Ada",
		Email:      "ada@example.com",
		Preference: "MAYBE",
	})
	assert.Error(t, err)
}

func TestJSONProfileStore_DeleteResetsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.PutProfile(ctx, &models.UserProfile{
		Name:       "Ada",
		Email:      "ada@example.com",
		Preference: models.PreferenceOptIn,
	}))

	require.NoError(t, store.DeleteProfile(ctx))
	_, err := store.GetProfile(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an already-absent profile is a successful no-op.
	require.NoError(t, store.DeleteProfile(ctx))
	_, err = store.GetProfile(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONProfileStore_CorruptedFileReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "user_data.json")
	store, err := NewJSONProfileStore(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err = store.GetProfile(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// The store recovers on the next write.
	require.NoError(t, store.PutProfile(ctx, &models.UserProfile{
		Name:       "Ada",
		Email:      "ada@example.com",
		Preference: models.PreferenceOptOut,
	}))
	got, err := store.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PreferenceOptOut, got.Preference)
}
