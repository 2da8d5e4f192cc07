package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"mhmd-mcp/backend/pkg/models"
)

func TestPostgresProfileStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	store := NewPostgresProfileStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}

	t.Run("empty store reads not found", func(t *testing.T) {
		_, err := store.GetProfile(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		profile := &models.UserProfile{
			Name:       "Ada",
			Email:      "ada@example.com",
			Preference: models.PreferenceOptOut,
		}
		err := store.PutProfile(ctx, profile)
		assert.NoError(t, err)

		retrieved, err := store.GetProfile(ctx)
		assert.NoError(t, err)
		assert.Equal(t, profile, retrieved)
	})

	t.Run("put overwrites wholesale", func(t *testing.T) {
		err := store.PutProfile(ctx, &models.UserProfile{
			Name:       "Grace",
			Email:      "grace@example.com",
			Preference: models.PreferenceOptIn,
		})
		assert.NoError(t, err)

		retrieved, err := store.GetProfile(ctx)
		assert.NoError(t, err)
		assert.Equal(t, "Grace", retrieved.Name)
		assert.Equal(t, models.PreferenceOptIn, retrieved.Preference)
	})

	t.Run("delete resets and is idempotent", func(t *testing.T) {
		assert.NoError(t, store.DeleteProfile(ctx))
		_, err := store.GetProfile(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, store.DeleteProfile(ctx))
		_, err = store.GetProfile(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
