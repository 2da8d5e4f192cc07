package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mhmd-mcp/backend/pkg/models"
)

// fileSchema is the on-disk shape of the data file. The profile sits under a
// "user" key so the file stays compatible with the original frontend tooling.
type fileSchema struct {
	User models.UserProfile `json:"user"`
}

// JSONProfileStore persists the single profile record as a whole-file JSON
// document. A mutex plus write-to-temp-then-rename keeps each read and write
// atomic with respect to concurrent dispatch calls in this process.
type JSONProfileStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONProfileStore creates the store and the backing file with default
// contents when it does not exist yet.
func NewJSONProfileStore(path string) (*JSONProfileStore, error) {
	s := &JSONProfileStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(fileSchema{User: *DefaultProfile()}); err != nil {
			return nil, fmt.Errorf("failed to create data file: %w", err)
		}
	}
	return s, nil
}

// GetProfile retrieves the stored profile, or ErrNotFound when the record is
// absent or incomplete.
func (s *JSONProfileStore) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	if !data.User.Complete() {
		return nil, ErrNotFound
	}
	if !data.User.Preference.Valid() {
		return nil, ErrNotFound
	}
	profile := data.User
	return &profile, nil
}

// PutProfile overwrites the stored profile wholesale.
func (s *JSONProfileStore) PutProfile(ctx context.Context, profile *models.UserProfile) error {
	if !profile.Preference.Valid() {
		return fmt.Errorf("invalid preference %q", profile.Preference)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(fileSchema{User: *profile})
}

// DeleteProfile resets the store to its default record. Repeated deletes
// succeed as no-ops.
func (s *JSONProfileStore) DeleteProfile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(fileSchema{User: *DefaultProfile()})
}

func (s *JSONProfileStore) read() (fileSchema, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileSchema{User: *DefaultProfile()}, nil
		}
		return fileSchema{}, fmt.Errorf("failed to read data file: %w", err)
	}

	var data fileSchema
	if err := json.Unmarshal(raw, &data); err != nil {
		// Corrupted file reads as the default record, matching the
		// reset-on-delete semantics.
		return fileSchema{User: *DefaultProfile()}, nil
	}
	return data, nil
}

func (s *JSONProfileStore) write(data fileSchema) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data file: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".user_data-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
