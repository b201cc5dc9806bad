package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/pipeline"
	"github.com/wonny/epl-etl/pkg/logger"
)

// Runner runs one pipeline pass
type Runner interface {
	Run(ctx context.Context, cfg pipeline.RunConfig) (*pipeline.RunResult, error)
}

// ETLJob recomputes both tables from scratch on a schedule
// ⭐ SSOT: 정기 재계산 스케줄은 이 Job에서만
type ETLJob struct {
	runner   Runner
	config   pipeline.RunConfig
	schedule string
	logger   *logger.Logger
}

// NewETLJob creates a new ETL job. Every run gets a fresh run id.
func NewETLJob(runner Runner, cfg pipeline.RunConfig, schedule string, log *logger.Logger) *ETLJob {
	cfg.RunID = ""
	return &ETLJob{
		runner:   runner,
		config:   cfg,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ETLJob) Name() string {
	return "etl_full_recompute"
}

// Schedule returns the cron schedule (default: every day at 3 AM)
func (j *ETLJob) Schedule() string {
	if j.schedule == "" {
		return "0 0 3 * * *" // 3 AM daily (with seconds)
	}
	return j.schedule
}

// Run executes the full pipeline
func (j *ETLJob) Run(ctx context.Context) error {
	j.logger.WithFields(map[string]interface{}{
		"input_path":  j.config.InputPath,
		"output_path": j.config.OutputPath,
	}).Info("Starting scheduled ETL run")

	result, err := j.runner.Run(ctx, j.config)
	if err != nil {
		return fmt.Errorf("etl run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"seasons":      len(result.Manifest.Seasons),
		"positions":    len(result.Positions),
		"best_scoring": len(result.BestScoring),
		"duration":     result.Duration.Seconds(),
	}).Info("Scheduled ETL run completed")

	return nil
}

// Retryable reports whether another attempt could succeed.
// Bad records and bad file names fail the same way every time.
func (j *ETLJob) Retryable(err error) bool {
	return !errors.Is(err, contracts.ErrSchema) && !errors.Is(err, contracts.ErrSeasonParse)
}
