package s1_standings

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/reduce"
)

// Rank turns tallies into the positions table.
// Rows are sorted by season, rank, then team name.
func (b *Builder) Rank(ctx context.Context, table Table) ([]contracts.TeamSeasonStanding, error) {
	rows := make([]contracts.TeamSeasonStanding, 0, len(table))
	for key, t := range table {
		rows = append(rows, contracts.TeamSeasonStanding{
			Season:         key.Season,
			Team:           key.Team,
			Points:         t.Points,
			GoalsScored:    t.Scored,
			GoalsConceded:  t.Conceded,
			GoalDifference: t.Scored - t.Conceded,
		})
	}

	bySeason := reduce.GroupBy(rows, func(r contracts.TeamSeasonStanding) string { return r.Season })

	var mu sync.Mutex
	ranked := make(map[string][]contracts.TeamSeasonStanding, len(bySeason))
	err := reduce.ForEachGroup(ctx, bySeason, b.workers, func(_ context.Context, season string, seasonRows []contracts.TeamSeasonStanding) error {
		RankSeason(seasonRows)
		mu.Lock()
		ranked[season] = seasonRows
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rank standings: %w", err)
	}

	seasons := make([]string, 0, len(ranked))
	for s := range ranked {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)

	out := make([]contracts.TeamSeasonStanding, 0, len(rows))
	for _, s := range seasons {
		out = append(out, ranked[s]...)
	}

	b.logger.WithFields(map[string]interface{}{
		"seasons": len(seasons),
		"rows":    len(out),
	}).Debug("Standings ranked")

	return out, nil
}

// RankSeason sorts one season's rows and assigns standard competition ranks
// (1,1,3,...): a row shares the previous row's rank when all ranking keys tie,
// otherwise its rank is its 1-based position.
// Team name only orders rows inside a tie; it never changes a rank.
func RankSeason(rows []contracts.TeamSeasonStanding) {
	// Points DESC → GD DESC → GF DESC → Team ASC
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RanksAbove(rows[j]) {
			return true
		}
		if rows[j].RanksAbove(rows[i]) {
			return false
		}
		return rows[i].Team < rows[j].Team
	})

	for i := range rows {
		if i > 0 && rows[i].SameRecord(rows[i-1]) {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
}
