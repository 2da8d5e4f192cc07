package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mhmd-mcp/backend/pkg/models"
)

// profileRowID is the fixed key of the single profile row. The store is
// single-tenant by design; a multi-user deployment would key this table by an
// explicit user identifier instead.
const profileRowID = 1

// PostgresProfileStore is a PostgreSQL implementation of the ProfileStore
// interface, keeping the single profile in a one-row table.
type PostgresProfileStore struct {
	db *pgxpool.Pool
}

// NewPostgresProfileStore creates a new PostgresProfileStore.
func NewPostgresProfileStore(db *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

// EnsureSchema creates the profile table when it does not exist.
func (s *PostgresProfileStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS user_profile (
		id INT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		mhmd_preference TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create user_profile table: %w", err)
	}
	return nil
}

// GetProfile retrieves the stored profile, or ErrNotFound when the row is
// missing or incomplete.
func (s *PostgresProfileStore) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.QueryRow(ctx,
		"SELECT name, email, mhmd_preference FROM user_profile WHERE id = $1",
		profileRowID,
	).Scan(&profile.Name, &profile.Email, &profile.Preference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	if !profile.Complete() || !profile.Preference.Valid() {
		return nil, ErrNotFound
	}
	return &profile, nil
}

// PutProfile overwrites the stored profile wholesale via upsert.
func (s *PostgresProfileStore) PutProfile(ctx context.Context, profile *models.UserProfile) error {
	if !profile.Preference.Valid() {
		return fmt.Errorf("invalid preference %q", profile.Preference)
	}
	_, err := s.db.Exec(ctx, `INSERT INTO user_profile (id, name, email, mhmd_preference)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $2, email = $3, mhmd_preference = $4`,
		profileRowID, profile.Name, profile.Email, profile.Preference,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// DeleteProfile resets the row to the default record. Repeated deletes
// succeed as no-ops.
func (s *PostgresProfileStore) DeleteProfile(ctx context.Context) error {
	return s.PutProfile(ctx, DefaultProfile())
}
