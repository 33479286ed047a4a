package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/basel-ax/neonqr/internal/repository"
)

// RetentionSweeper removes catalogued saved copies past their retention
type RetentionSweeper struct {
	repo      repository.SavedCopyRepository
	retention time.Duration
	logger    *logrus.Logger
	now       func() time.Time
}

// NewRetentionSweeper creates a sweeper. A zero retention disables sweeping.
func NewRetentionSweeper(repo repository.SavedCopyRepository, retention time.Duration, logger *logrus.Logger) *RetentionSweeper {
	return &RetentionSweeper{repo: repo, retention: retention, logger: logger, now: time.Now}
}

// Sweep deletes expired copies from disk and from the catalog. It returns
// the number of copies removed.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	expired, err := s.repo.ListOlderThan(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("failed to list expired copies: %w", err)
	}

	removed := 0
	for _, c := range expired {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := os.Remove(c.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithError(err).WithField("path", c.Path).Error("Failed to remove expired copy")
			continue
		}
		if err := s.repo.Delete(ctx, c.ID); err != nil {
			s.logger.WithError(err).WithField("id", c.ID).Error("Failed to delete catalog entry")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Swept expired saved copies")
	}
	return removed, nil
}

// Schedule runs Sweep on a seconds-enabled cron spec until ctx is done
func (s *RetentionSweeper) Schedule(ctx context.Context, spec string) error {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(spec, func() {
		s.logger.Debug("[CRON] Running retention sweep...")
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.WithError(err).Error("[CRON] Retention sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	c.Start()
	s.logger.WithField("schedule", spec).Info("Retention sweeper started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Retention sweeper stopped")
	return nil
}
