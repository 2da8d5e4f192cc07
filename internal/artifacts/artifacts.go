// Package artifacts persists workflow screenshots and verification records.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mhmd-mcp/backend/pkg/models"
)

const timestampLayout = "20060102_150405"

// Saver writes artifacts under a base directory, screenshots as PNG files
// and verification records as JSON snapshots, each tagged with a timestamp.
type Saver struct {
	baseDir string
	logger  *zap.Logger
	now     func() time.Time
}

// NewSaver creates a Saver rooted at baseDir.
func NewSaver(baseDir string, logger *zap.Logger) *Saver {
	return &Saver{
		baseDir: baseDir,
		logger:  logger.Named("artifacts"),
		now:     time.Now,
	}
}

// SaveScreenshot writes PNG bytes under <base>/screenshots.
func (s *Saver) SaveScreenshot(data []byte, workflow string) (*models.Artifact, error) {
	dir := filepath.Join(s.baseDir, "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshots dir: %w", err)
	}

	created := s.now()
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", workflow, created.Format(timestampLayout)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write screenshot: %w", err)
	}

	s.logger.Info("screenshot saved", zap.String("path", path))
	return &models.Artifact{
		ID:          uuid.New().String(),
		Kind:        models.ArtifactScreenshot,
		Path:        path,
		Description: workflow + " screenshot",
		CreatedAt:   created,
	}, nil
}

// verificationRecord is the on-disk shape of a verification snapshot.
type verificationRecord struct {
	Timestamp string `json:"timestamp"`
	Workflow  string `json:"workflow_type"`
	Data      any    `json:"verification_data"`
}

// SaveVerification writes a verification snapshot under <base>/verifications.
func (s *Saver) SaveVerification(data any, workflow string) (*models.Artifact, error) {
	dir := filepath.Join(s.baseDir, "verifications")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create verifications dir: %w", err)
	}

	created := s.now()
	record := verificationRecord{
		Timestamp: created.Format(timestampLayout),
		Workflow:  workflow,
		Data:      data,
	}
	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verification record: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_verification_%s.json", workflow, created.Format(timestampLayout)))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write verification record: %w", err)
	}

	s.logger.Info("verification record saved", zap.String("path", path))
	return &models.Artifact{
		ID:          uuid.New().String(),
		Kind:        models.ArtifactVerification,
		Path:        path,
		Description: workflow + " verification",
		CreatedAt:   created,
	}, nil
}
