package s1_standings

import (
	"context"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
)

// Builder produces the positions table from tagged matches
// ⭐ SSOT: 순위표 집계/순위 로직은 여기서만
type Builder struct {
	workers int
	logger  *logger.Logger
}

var _ contracts.StandingsBuilder = (*Builder)(nil)

// NewBuilder creates a new standings builder
func NewBuilder(workers int, log *logger.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	return &Builder{
		workers: workers,
		logger:  log.WithField("module", "s1_standings"),
	}
}

// Build aggregates and ranks in one call
func (b *Builder) Build(ctx context.Context, matches []contracts.MatchRecord) ([]contracts.TeamSeasonStanding, error) {
	table, err := b.Aggregate(ctx, matches)
	if err != nil {
		return nil, err
	}
	return b.Rank(ctx, table)
}
