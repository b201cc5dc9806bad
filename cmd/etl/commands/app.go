package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/pipeline"
	"github.com/wonny/epl-etl/internal/publish"
	"github.com/wonny/epl-etl/internal/s0_ingest"
	"github.com/wonny/epl-etl/pkg/config"
	"github.com/wonny/epl-etl/pkg/database"
	"github.com/wonny/epl-etl/pkg/logger"
	"github.com/wonny/epl-etl/pkg/metrics"
	"github.com/wonny/epl-etl/pkg/redis"
)

// app holds the shared runtime of every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Manager
	db      *database.DB  // nil unless postgres is enabled
	redis   *redis.Client // nil unless redis is enabled
}

// newApp loads config and builds the logger and metrics
func newApp() (*app, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	a := &app{
		cfg: cfg,
		log: logger.New(cfg),
	}
	if cfg.MetricsEnabled {
		a.metrics = metrics.NewManager()
	}
	return a, nil
}

// connect opens the optional postgres and redis connections
func (a *app) connect(ctx context.Context, usePostgres, useRedis bool) error {
	if usePostgres {
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.log.Info("Connected to database")
	}

	if useRedis {
		a.cfg.Redis.Enabled = true
		rc, err := redis.New(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = rc
		a.log.Info("Connected to redis")
	}
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) cacheStore() *publish.CacheStore {
	if a.redis == nil {
		return nil
	}
	return publish.NewCacheStore(redis.NewCache(a.redis, a.cfg.Redis.Prefix), a.cfg.Redis.TTL, a.log)
}

// publisher builds the sink chain: file first, then postgres, then redis
func (a *app) publisher(ctx context.Context, outputPath string) (contracts.Publisher, error) {
	sinks := []contracts.Publisher{publish.NewFileStore(outputPath, a.log)}

	if a.db != nil {
		pg := publish.NewPostgresStore(a.db.Pool, a.log)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, pg)
	}
	if cs := a.cacheStore(); cs != nil {
		sinks = append(sinks, cs)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return publish.NewMulti(a.log, sinks...), nil
}

// orchestrator wires the file collector and season tagger to pub
func (a *app) orchestrator(pub contracts.Publisher) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(
		s0_ingest.NewFileCollector(a.log),
		s0_ingest.NewSeasonTagger(),
		pub,
		a.metrics,
		a.log,
	)
}

func sinkNames(usePostgres, useRedis bool) string {
	names := []string{"file"}
	if usePostgres {
		names = append(names, "postgres")
	}
	if useRedis {
		names = append(names, "redis")
	}
	return strings.Join(names, "+")
}
