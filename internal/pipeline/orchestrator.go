package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/s0_ingest"
	"github.com/wonny/epl-etl/internal/s1_standings"
	"github.com/wonny/epl-etl/internal/s2_topscorer"
	"github.com/wonny/epl-etl/pkg/logger"
	"github.com/wonny/epl-etl/pkg/metrics"
)

// Orchestrator runs the ETL state machine
// INGESTING → TAGGING → AGGREGATING → RANKING → PUBLISHING → DONE (any failure → FAILED)
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	collector *s0_ingest.Collector
	tagger    contracts.Tagger
	publisher contracts.Publisher
	metrics   *metrics.Manager
	logger    *logger.Logger
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	State           contracts.Stage // DONE or FAILED once Run returns
	FailedStage     contracts.Stage
	Success         bool
	Error           error
	CompletedStages []contracts.Stage
	Sources         []contracts.Source
	Skipped         []string
	Matches         []contracts.MatchRecord
	Positions       []contracts.TeamSeasonStanding
	BestScoring     []contracts.TopScorerRecord
	Manifest        *contracts.RunManifest
	StageDurations  map[contracts.Stage]time.Duration
	StartedAt       time.Time
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator.
// metrics may be nil.
func NewOrchestrator(
	collector *s0_ingest.Collector,
	tagger contracts.Tagger,
	publisher contracts.Publisher,
	m *metrics.Manager,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		collector: collector,
		tagger:    tagger,
		publisher: publisher,
		metrics:   m,
		logger:    log.WithField("module", "pipeline"),
	}
}

// Run executes one full recompute. On failure no sink is touched and the
// returned error is a *contracts.StageError naming the failing stage.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.OnTagError == "" {
		cfg.OnTagError = TagAbort
	}

	result := &RunResult{
		RunID:           cfg.RunID,
		State:           contracts.StageIngesting,
		CompletedStages: make([]contracts.Stage, 0, len(contracts.AllStages())),
		StageDurations:  make(map[contracts.Stage]time.Duration),
		StartedAt:       time.Now(),
	}
	log := o.logger.WithRun(cfg.RunID)

	if err := cfg.Validate(); err != nil {
		return o.fail(result, log, contracts.StageIngesting, fmt.Errorf("invalid run config: %w", err))
	}

	log.WithFields(map[string]interface{}{
		"input_path":   cfg.InputPath,
		"output_path":  cfg.OutputPath,
		"workers":      cfg.Workers,
		"on_tag_error": cfg.OnTagError,
	}).Info("Starting pipeline run")

	// S0: Ingesting
	var batches []s0_ingest.Batch
	if err := o.stage(ctx, result, log, contracts.StageIngesting, func(ctx context.Context) error {
		var err error
		batches, err = o.collector.Collect(ctx, cfg.InputPath, s0_ingest.Config{Workers: cfg.Workers})
		return err
	}); err != nil {
		return result, err
	}

	// S1: Tagging
	if err := o.stage(ctx, result, log, contracts.StageTagging, func(ctx context.Context) error {
		return o.tag(ctx, result, log, batches, cfg.OnTagError)
	}); err != nil {
		return result, err
	}

	standings := s1_standings.NewBuilder(cfg.Workers, o.logger)
	topScorers := s2_topscorer.NewBuilder(cfg.Workers, o.logger)

	// S2: Aggregating (both tables independently)
	var (
		table  s1_standings.Table
		totals s2_topscorer.Totals
	)
	if err := o.stage(ctx, result, log, contracts.StageAggregating, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			table, err = standings.Aggregate(gctx, result.Matches)
			return err
		})
		g.Go(func() error {
			var err error
			totals, err = topScorers.Aggregate(gctx, result.Matches)
			return err
		})
		return g.Wait()
	}); err != nil {
		return result, err
	}

	// S3: Ranking
	if err := o.stage(ctx, result, log, contracts.StageRanking, func(ctx context.Context) error {
		var err error
		if result.Positions, err = standings.Rank(ctx, table); err != nil {
			return err
		}
		result.BestScoring, err = topScorers.Select(ctx, totals)
		return err
	}); err != nil {
		return result, err
	}

	// S4: Publishing
	rs := o.resultSet(cfg, result)
	if err := o.stage(ctx, result, log, contracts.StagePublishing, func(ctx context.Context) error {
		if o.publisher == nil {
			return fmt.Errorf("no publisher configured")
		}
		rs.Manifest.FinishedAt = time.Now().UTC()
		if err := o.publisher.Publish(ctx, rs); err != nil {
			return fmt.Errorf("publish %s: %w", o.publisher.Name(), err)
		}
		return nil
	}); err != nil {
		return result, err
	}
	result.Manifest = rs.Manifest

	result.State = contracts.StageDone
	result.Success = true
	result.Duration = time.Since(result.StartedAt)

	o.metrics.RecordRun(true, result.Duration)
	o.metrics.SetRowsPublished(contracts.TablePositions, len(result.Positions))
	o.metrics.SetRowsPublished(contracts.TableBestScoring, len(result.BestScoring))

	log.WithFields(map[string]interface{}{
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
		"seasons":  len(rs.Seasons),
		"matches":  len(result.Matches),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// stage runs fn as the given stage and records the transition
func (o *Orchestrator) stage(ctx context.Context, result *RunResult, log *logger.Logger, stage contracts.Stage, fn func(context.Context) error) error {
	result.State = stage
	if err := ctx.Err(); err != nil {
		_, err = o.fail(result, log, stage, err)
		return err
	}

	log.Infof("Running %s: %s", stage.ShortName(), stage)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	result.StageDurations[stage] = elapsed
	o.metrics.ObserveStage(stage.String(), elapsed)

	if err != nil {
		_, err = o.fail(result, log, stage, err)
		return err
	}

	result.CompletedStages = append(result.CompletedStages, stage)
	return nil
}

func (o *Orchestrator) fail(result *RunResult, log *logger.Logger, stage contracts.Stage, err error) (*RunResult, error) {
	stageErr := &contracts.StageError{Stage: stage, Err: err}

	result.State = contracts.StageFailed
	result.FailedStage = stage
	result.Success = false
	result.Error = stageErr
	result.Positions = nil
	result.BestScoring = nil
	result.Duration = time.Since(result.StartedAt)

	o.metrics.RecordRun(false, result.Duration)
	log.WithError(err).WithField("stage", stage.String()).Error("Pipeline run failed")

	return result, stageErr
}

// tag assigns a season to every batch according to policy
func (o *Orchestrator) tag(ctx context.Context, result *RunResult, log *logger.Logger, batches []s0_ingest.Batch, policy TagPolicy) error {
	total := 0
	for _, b := range batches {
		total += len(b.Matches)
	}
	matches := make([]contracts.MatchRecord, 0, total)

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		season, err := o.tagger.Tag(b.Source.ID)
		if err != nil {
			if policy == TagSkip {
				log.WithError(err).WithField("source", b.Source.ID).Warn("Skipping source without season")
				result.Skipped = append(result.Skipped, b.Source.ID)
				o.metrics.IncSkippedSource()
				continue
			}
			return err
		}

		src := b.Source
		src.Season = season
		result.Sources = append(result.Sources, src)

		for _, raw := range b.Matches {
			m := raw.Tag(season)
			if err := m.Validate(); err != nil {
				return &contracts.SchemaError{Source: raw.SourceID, Record: raw.Record, Reason: err.Error()}
			}
			matches = append(matches, m)
		}
	}

	result.Matches = matches
	o.metrics.AddMatches(len(matches))

	log.WithFields(map[string]interface{}{
		"sources": len(result.Sources),
		"skipped": len(result.Skipped),
		"matches": len(matches),
	}).Info("Tagging completed")

	return nil
}

// resultSet assembles what the sinks receive
func (o *Orchestrator) resultSet(cfg RunConfig, result *RunResult) *contracts.ResultSet {
	counts := make(map[string]contracts.RowCounts)
	for _, src := range result.Sources {
		if _, ok := counts[src.Season]; !ok {
			counts[src.Season] = contracts.RowCounts{}
		}
	}
	for _, m := range result.Matches {
		c := counts[m.Season]
		c.Matches++
		counts[m.Season] = c
	}
	for _, r := range result.Positions {
		c := counts[r.Season]
		c.Positions++
		counts[r.Season] = c
	}
	for _, r := range result.BestScoring {
		c := counts[r.Season]
		c.BestScoring++
		counts[r.Season] = c
	}

	seasons := make([]string, 0, len(counts))
	for s := range counts {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)

	sourceIDs := make([]string, 0, len(result.Sources))
	for _, src := range result.Sources {
		sourceIDs = append(sourceIDs, src.ID)
	}

	return &contracts.ResultSet{
		RunID:       cfg.RunID,
		Seasons:     seasons,
		Positions:   result.Positions,
		BestScoring: result.BestScoring,
		Manifest: &contracts.RunManifest{
			RunID:       cfg.RunID,
			StartedAt:   result.StartedAt.UTC(),
			RunFileHash: cfg.RunFileHash,
			InputPath:   cfg.InputPath,
			OutputPath:  cfg.OutputPath,
			Sources:     sourceIDs,
			Skipped:     result.Skipped,
			Seasons:     counts,
		},
	}
}
