package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelasquez/taskflow-backend/internal/notifications"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
)

// NotificationCleanupJob deletes seen notification rows past the retention
// window. Unseen rows are kept regardless of age.
type NotificationCleanupJob struct {
	repo      notifications.Repository
	logg      *logger.Logger
	retention time.Duration
	now       func() time.Time
}

// NotificationCleanupParams configure the cleanup job.
type NotificationCleanupParams struct {
	Repo      notifications.Repository
	Logger    *logger.Logger
	Retention time.Duration
}

// NewNotificationCleanupJob builds the cleanup job.
func NewNotificationCleanupJob(params NotificationCleanupParams) (*NotificationCleanupJob, error) {
	if params.Repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Retention <= 0 {
		return nil, errors.New("retention must be positive")
	}
	return &NotificationCleanupJob{
		repo:      params.Repo,
		logg:      params.Logger,
		retention: params.Retention,
		now:       time.Now,
	}, nil
}

func (j *NotificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *NotificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.DeleteSeenOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete seen notifications: %w", err)
	}
	ctx = j.logg.WithField(ctx, "deleted", deleted)
	ctx = j.logg.WithField(ctx, "cutoff", cutoff.Format(time.RFC3339))
	j.logg.Info(ctx, "notification cleanup finished")
	return nil
}
