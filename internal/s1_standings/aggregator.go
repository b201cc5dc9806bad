package s1_standings

import (
	"context"
	"fmt"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/reduce"
)

// Tally is the running total of one team in one season
type Tally struct {
	Points   int
	Scored   int
	Conceded int
}

// Add merges two tallies by summation
func (t Tally) Add(o Tally) Tally {
	return Tally{
		Points:   t.Points + o.Points,
		Scored:   t.Scored + o.Scored,
		Conceded: t.Conceded + o.Conceded,
	}
}

// Table maps (season, team) to its tally
type Table map[contracts.SeasonKey]Tally

// Contributions returns the home-role and away-role tallies of one match
func Contributions(m contracts.MatchRecord) (home, away Tally) {
	hp, ap := AssignPoints(m.HomeGoals, m.AwayGoals)
	home = Tally{Points: hp, Scored: m.HomeGoals, Conceded: m.AwayGoals}
	away = Tally{Points: ap, Scored: m.AwayGoals, Conceded: m.HomeGoals}
	return home, away
}

func emitContributions(m contracts.MatchRecord, emit reduce.Emitter[contracts.SeasonKey, Tally]) {
	home, away := Contributions(m)
	emit(contracts.SeasonKey{Season: m.Season, Team: m.HomeTeam}, home)
	emit(contracts.SeasonKey{Season: m.Season, Team: m.AwayTeam}, away)
}

// Aggregate folds every match into per-(season, team) tallies
func (b *Builder) Aggregate(ctx context.Context, matches []contracts.MatchRecord) (Table, error) {
	tallies, err := reduce.MapReduce(ctx, matches, b.workers, emitContributions, Tally.Add)
	if err != nil {
		return nil, fmt.Errorf("aggregate standings: %w", err)
	}

	b.logger.WithFields(map[string]interface{}{
		"matches": len(matches),
		"teams":   len(tallies),
		"workers": b.workers,
	}).Debug("Standings aggregated")

	return Table(tallies), nil
}
