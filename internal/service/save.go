package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/basel-ax/neonqr/internal/domain"
	"github.com/basel-ax/neonqr/internal/platform"
	"github.com/basel-ax/neonqr/internal/repository"
)

// SaveService implements the domain.ArtifactSaver interface
type SaveService struct {
	platform *platform.Provider
	repo     repository.SavedCopyRepository
	logger   *logrus.Logger
	now      func() time.Time
}

// NewSaveService creates a save service. repo may be nil when no catalog is
// configured.
func NewSaveService(p *platform.Provider, repo repository.SavedCopyRepository, logger *logrus.Logger) *SaveService {
	if repo == nil {
		repo = repository.NopSavedCopyRepository{}
	}
	return &SaveService{platform: p, repo: repo, logger: logger, now: time.Now}
}

// Save copies whatever the artifact's temp path currently holds into the
// platform save directory.
func (s *SaveService) Save(ctx context.Context, artifact *domain.QRArtifact) (*domain.SavedCopy, error) {
	if artifact == nil || artifact.Path == "" {
		return nil, domain.ErrNoArtifact
	}

	src, err := os.Open(artifact.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoArtifact, artifact.Path)
		}
		return nil, fmt.Errorf("failed to open temp artifact: %w", err)
	}
	defer src.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.platform.SaveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}

	dst, err := s.platform.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to close destination: %w", err)
	}

	path, err := filepath.Abs(dst.Name())
	if err != nil {
		path = dst.Name()
	}
	saved := &domain.SavedCopy{
		ID:         uuid.NewString(),
		Path:       path,
		SourcePath: artifact.Path,
		Payload:    artifact.Payload,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, saved); err != nil {
		s.logger.WithError(err).WithField("path", saved.Path).Error("Failed to record saved copy")
	}

	s.logger.WithField("path", saved.Path).Info("Saved artifact copy")
	return saved, nil
}
