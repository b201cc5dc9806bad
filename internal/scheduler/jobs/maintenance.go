package jobs

import (
	"context"
	"time"

	"github.com/wonny/epl-etl/pkg/logger"
)

// StaleCleaner removes leftovers of interrupted publishes
type StaleCleaner interface {
	CleanStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// StagingCleanupJob cleans staging/retired partitions left by crashed runs
type StagingCleanupJob struct {
	cleaner StaleCleaner
	maxAge  time.Duration
	logger  *logger.Logger
}

// NewStagingCleanupJob creates a new cleanup job
func NewStagingCleanupJob(cleaner StaleCleaner, maxAge time.Duration, log *logger.Logger) *StagingCleanupJob {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &StagingCleanupJob{
		cleaner: cleaner,
		maxAge:  maxAge,
		logger:  log,
	}
}

// Name returns the job name
func (j *StagingCleanupJob) Name() string {
	return "staging_cleanup"
}

// Schedule returns the cron schedule (every hour)
func (j *StagingCleanupJob) Schedule() string {
	return "0 30 * * * *" // Every hour at :30
}

// Run executes the cleanup
func (j *StagingCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled staging cleanup")

	count, err := j.cleaner.CleanStale(ctx, j.maxAge)
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Staging cleanup completed")
	}

	return nil
}
