package publish

import (
	"context"
	"errors"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
)

// ReadThrough serves reads from a cache and falls back to the primary store,
// filling the cache on a miss
type ReadThrough struct {
	primary contracts.ResultReader
	cache   *CacheStore
	logger  *logger.Logger
}

// NewReadThrough wraps primary with cache; cache may be nil
func NewReadThrough(primary contracts.ResultReader, cache *CacheStore, log *logger.Logger) *ReadThrough {
	return &ReadThrough{
		primary: primary,
		cache:   cache,
		logger:  log.WithField("module", "publish.read"),
	}
}

// Seasons always comes from the primary store
func (r *ReadThrough) Seasons(ctx context.Context) ([]string, error) {
	return r.primary.Seasons(ctx)
}

// ReadPositions implements contracts.ResultReader
func (r *ReadThrough) ReadPositions(ctx context.Context, season string) ([]contracts.TeamSeasonStanding, error) {
	if r.cache != nil {
		rows, err := r.cache.ReadPositions(ctx, season)
		if err == nil {
			return rows, nil
		}
		if !errors.Is(err, ErrNotFound) {
			r.logger.WithError(err).Warn("Cache read failed, using primary store")
		}
	}

	rows, err := r.primary.ReadPositions(ctx, season)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, partitionKey{table: contracts.TablePositions, season: season}, rows)
	return rows, nil
}

// ReadBestScoring implements contracts.ResultReader
func (r *ReadThrough) ReadBestScoring(ctx context.Context, season string) ([]contracts.TopScorerRecord, error) {
	if r.cache != nil {
		rows, err := r.cache.ReadBestScoring(ctx, season)
		if err == nil {
			return rows, nil
		}
		if !errors.Is(err, ErrNotFound) {
			r.logger.WithError(err).Warn("Cache read failed, using primary store")
		}
	}

	rows, err := r.primary.ReadBestScoring(ctx, season)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, partitionKey{table: contracts.TableBestScoring, season: season}, rows)
	return rows, nil
}

type partitionKey struct {
	table  string
	season string
}

func (r *ReadThrough) fill(ctx context.Context, key partitionKey, rows interface{}) {
	if r.cache == nil {
		return
	}
	if err := r.cache.set(ctx, key.table, key.season, rows); err != nil {
		r.logger.WithError(err).Warn("Cache fill failed")
	}
}
