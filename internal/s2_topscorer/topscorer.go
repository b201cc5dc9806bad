package s2_topscorer

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/reduce"
	"github.com/wonny/epl-etl/pkg/logger"
)

// Totals maps (season, team) to goals scored in both roles
type Totals map[contracts.SeasonKey]int

// Builder produces the best_scoring_team table
// ⭐ SSOT: 최다 득점 팀 선별 로직은 여기서만
type Builder struct {
	workers int
	logger  *logger.Logger
}

var _ contracts.TopScorerBuilder = (*Builder)(nil)

// NewBuilder creates a new top scorer builder
func NewBuilder(workers int, log *logger.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	return &Builder{
		workers: workers,
		logger:  log.WithField("module", "s2_topscorer"),
	}
}

// Build aggregates and selects in one call
func (b *Builder) Build(ctx context.Context, matches []contracts.MatchRecord) ([]contracts.TopScorerRecord, error) {
	totals, err := b.Aggregate(ctx, matches)
	if err != nil {
		return nil, err
	}
	return b.Select(ctx, totals)
}

// Aggregate sums goals scored per (season, team)
func (b *Builder) Aggregate(ctx context.Context, matches []contracts.MatchRecord) (Totals, error) {
	totals, err := reduce.MapReduce(ctx, matches, b.workers,
		func(m contracts.MatchRecord, emit reduce.Emitter[contracts.SeasonKey, int]) {
			emit(contracts.SeasonKey{Season: m.Season, Team: m.HomeTeam}, m.HomeGoals)
			emit(contracts.SeasonKey{Season: m.Season, Team: m.AwayTeam}, m.AwayGoals)
		},
		func(x, y int) int { return x + y },
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate goals: %w", err)
	}
	return Totals(totals), nil
}

// Select keeps every team that reached its season's maximum.
// Ties produce one row per tied team; rows are sorted by season, then team.
func (b *Builder) Select(ctx context.Context, totals Totals) ([]contracts.TopScorerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("select top scorers: %w", err)
	}

	best := make(map[string]int)
	for key, goals := range totals {
		if cur, ok := best[key.Season]; !ok || goals > cur {
			best[key.Season] = goals
		}
	}

	out := make([]contracts.TopScorerRecord, 0, len(best))
	for key, goals := range totals {
		if goals == best[key.Season] {
			out = append(out, contracts.TopScorerRecord{
				Season:     key.Season,
				Team:       key.Team,
				TotalGoals: goals,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Team < out[j].Team
	})

	b.logger.WithFields(map[string]interface{}{
		"seasons": len(best),
		"rows":    len(out),
	}).Debug("Top scorers selected")

	return out, nil
}
