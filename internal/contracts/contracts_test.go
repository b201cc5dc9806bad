package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		match   MatchRecord
		wantErr bool
	}{
		{"valid", MatchRecord{Season: "9394", HomeTeam: "A", AwayTeam: "B", HomeGoals: 2, AwayGoals: 1}, false},
		{"goalless draw", MatchRecord{Season: "9394", HomeTeam: "A", AwayTeam: "B"}, false},
		{"no season", MatchRecord{HomeTeam: "A", AwayTeam: "B"}, true},
		{"empty team", MatchRecord{Season: "9394", HomeTeam: "", AwayTeam: "B"}, true},
		{"same team", MatchRecord{Season: "9394", HomeTeam: "A", AwayTeam: "A"}, true},
		{"negative goals", MatchRecord{Season: "9394", HomeTeam: "A", AwayTeam: "B", HomeGoals: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.match.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRawMatch_Tag(t *testing.T) {
	raw := RawMatch{SourceID: "season-9394.json", Record: 3, HomeTeam: "A", AwayTeam: "B", HomeGoals: 2, AwayGoals: 1}
	got := raw.Tag("9394")

	assert.Equal(t, MatchRecord{Season: "9394", HomeTeam: "A", AwayTeam: "B", HomeGoals: 2, AwayGoals: 1}, got)
	assert.False(t, got.IsDraw())
}

func TestTeamSeasonStanding_Ordering(t *testing.T) {
	a := TeamSeasonStanding{Points: 10, GoalDifference: 5, GoalsScored: 20}
	b := TeamSeasonStanding{Points: 10, GoalDifference: 5, GoalsScored: 18}
	c := TeamSeasonStanding{Points: 10, GoalDifference: 6, GoalsScored: 1}
	d := TeamSeasonStanding{Points: 10, GoalDifference: 5, GoalsScored: 20, Team: "other"}

	assert.True(t, a.RanksAbove(b))
	assert.True(t, c.RanksAbove(a))
	assert.False(t, a.RanksAbove(d))
	assert.False(t, d.RanksAbove(a))
	assert.True(t, a.SameRecord(d))
	assert.False(t, a.SameRecord(b))
}

func TestTeamSeasonStanding_ColumnNames(t *testing.T) {
	data, err := json.Marshal(TeamSeasonStanding{Season: "9394", Team: "A", Points: 3, GoalsScored: 2, GoalsConceded: 1, GoalDifference: 1, Rank: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"season":"9394","Team":"A","Points":3,"Goals_Scored":2,"Goals_Conceded":1,"Goal_Difference":1,"Rank":1}`, string(data))

	data, err = json.Marshal(TopScorerRecord{Season: "9394", Team: "A", TotalGoals: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"season":"9394","Team":"A","Total_Goals":2}`, string(data))
}

func TestResultSet_BySeason(t *testing.T) {
	rs := &ResultSet{
		Seasons: []string{"9394", "9495"},
		Positions: []TeamSeasonStanding{
			{Season: "9394", Team: "A", Rank: 1},
			{Season: "9394", Team: "B", Rank: 2},
		},
		BestScoring: []TopScorerRecord{{Season: "9394", Team: "A", TotalGoals: 2}},
	}

	pos := rs.PositionsBySeason()
	assert.Len(t, pos["9394"], 2)
	assert.NotNil(t, pos["9495"])
	assert.Empty(t, pos["9495"])

	best := rs.BestScoringBySeason()
	assert.Len(t, best["9394"], 1)
	assert.Empty(t, best["9495"])
}

func TestStage(t *testing.T) {
	assert.Equal(t, "S0", StageIngesting.ShortName())
	assert.Equal(t, "S3", StageRanking.ShortName())
	assert.Equal(t, "UNKNOWN", Stage("nope").ShortName())
	assert.Equal(t, "시즌 태깅", StageTagging.Description())

	path := []Stage{}
	for s := StageIngesting; !s.IsTerminal(); s = s.Next() {
		path = append(path, s)
	}
	assert.Equal(t, AllStages(), path)

	assert.True(t, IsValidStage("RANKING"))
	assert.True(t, IsValidStage("FAILED"))
	assert.False(t, IsValidStage("S0_DATA_QUALITY"))
	assert.Equal(t, StageFailed, StageFailed.Next())
}

func TestErrors(t *testing.T) {
	t.Run("season parse", func(t *testing.T) {
		err := fmt.Errorf("tag: %w", &SeasonParseError{Identifier: "sesaon-9394.json"})
		var spe *SeasonParseError
		require.True(t, errors.As(err, &spe))
		assert.Equal(t, "sesaon-9394.json", spe.Identifier)
		assert.ErrorIs(t, err, ErrSeasonParse)
		assert.NotErrorIs(t, err, ErrSchema)
	})

	t.Run("schema", func(t *testing.T) {
		err := &SchemaError{Source: "season-9394.json", Record: 4, Field: "FTHG", Reason: "missing"}
		assert.ErrorIs(t, err, ErrSchema)
		assert.Equal(t, "schema season-9394.json record 4 field FTHG: missing", err.Error())
	})

	t.Run("ingest", func(t *testing.T) {
		empty := &IngestError{InputPath: "/data"}
		assert.ErrorIs(t, empty, ErrIngest)
		assert.Contains(t, empty.Error(), "no season sources")

		wrapped := &IngestError{InputPath: "/data", Err: fs.ErrNotExist}
		assert.ErrorIs(t, wrapped, ErrIngest)
		assert.ErrorIs(t, wrapped, fs.ErrNotExist)
	})

	t.Run("stage", func(t *testing.T) {
		err := fmt.Errorf("run: %w", &StageError{Stage: StageTagging, Err: &SeasonParseError{Identifier: "x"}})
		assert.Equal(t, StageTagging, FailedStage(err))
		assert.ErrorIs(t, err, ErrSeasonParse)
		assert.Equal(t, Stage(""), FailedStage(errors.New("plain")))
	})
}
