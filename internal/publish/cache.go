package publish

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
	"github.com/wonny/epl-etl/pkg/redis"
)

// CacheStore publishes result tables to Redis, one JSON value per (table, season)
// ⭐ SSOT: Redis 출력 키 구성은 여기서만
type CacheStore struct {
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCacheStore creates a new Redis sink
func NewCacheStore(cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CacheStore {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &CacheStore{
		cache:  cache,
		ttl:    ttl,
		logger: log.WithField("module", "publish.cache"),
	}
}

// Name implements contracts.Publisher
func (s *CacheStore) Name() string { return "redis" }

// Publish writes every (table, season) value plus the merged season index
// in one MULTI/EXEC transaction
func (s *CacheStore) Publish(ctx context.Context, rs *contracts.ResultSet) error {
	known, err := s.Seasons(ctx)
	if err != nil {
		return err
	}

	positions := rs.PositionsBySeason()
	best := rs.BestScoringBySeason()

	values := make(map[string]interface{}, 2*len(rs.Seasons)+1)
	for _, season := range rs.Seasons {
		values[redis.PositionsKey(season)] = positions[season]
		values[redis.BestScoringKey(season)] = best[season]
	}
	values[redis.SeasonsKey()] = mergeSeasons(known, rs.Seasons)

	if err := s.cache.SetMany(ctx, values, s.ttl); err != nil {
		return fmt.Errorf("cache publish: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":  rs.RunID,
		"seasons": len(rs.Seasons),
		"keys":    len(values),
		"ttl":     s.ttl.String(),
	}).Info("Redis output published")

	return nil
}

// Seasons returns the cached season index
func (s *CacheStore) Seasons(ctx context.Context) ([]string, error) {
	var seasons []string
	if _, err := s.cache.Get(ctx, redis.SeasonsKey(), &seasons); err != nil {
		return nil, err
	}
	if seasons == nil {
		seasons = []string{}
	}
	return seasons, nil
}

// ReadPositions returns one season's cached positions rows
func (s *CacheStore) ReadPositions(ctx context.Context, season string) ([]contracts.TeamSeasonStanding, error) {
	var rows []contracts.TeamSeasonStanding
	found, err := s.cache.Get(ctx, redis.PositionsKey(season), &rows)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return rows, nil
}

// ReadBestScoring returns one season's cached best_scoring_team rows
func (s *CacheStore) ReadBestScoring(ctx context.Context, season string) ([]contracts.TopScorerRecord, error) {
	var rows []contracts.TopScorerRecord
	found, err := s.cache.Get(ctx, redis.BestScoringKey(season), &rows)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return rows, nil
}

func mergeSeasons(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// set stores a single (table, season) value
func (s *CacheStore) set(ctx context.Context, table, season string, rows interface{}) error {
	key := redis.PositionsKey(season)
	if table == contracts.TableBestScoring {
		key = redis.BestScoringKey(season)
	}
	return s.cache.Set(ctx, key, rows, s.ttl)
}
