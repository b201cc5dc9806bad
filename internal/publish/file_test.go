package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
)

func resultSet(runID string, seasons ...string) *contracts.ResultSet {
	rs := &contracts.ResultSet{
		RunID:    runID,
		Seasons:  seasons,
		Manifest: &contracts.RunManifest{RunID: runID, StartedAt: time.Now().UTC(), Seasons: map[string]contracts.RowCounts{}},
	}
	for _, s := range seasons {
		rs.Positions = append(rs.Positions,
			contracts.TeamSeasonStanding{Season: s, Team: "A-" + runID, Points: 3, GoalsScored: 2, GoalsConceded: 1, GoalDifference: 1, Rank: 1},
			contracts.TeamSeasonStanding{Season: s, Team: "B-" + runID, Points: 0, GoalsScored: 1, GoalsConceded: 2, GoalDifference: -1, Rank: 2},
		)
		rs.BestScoring = append(rs.BestScoring, contracts.TopScorerRecord{Season: s, Team: "A-" + runID, TotalGoals: 2})
		rs.Manifest.Seasons[s] = contracts.RowCounts{Matches: 1, Positions: 2, BestScoring: 1}
	}
	return rs
}

func TestFileStore_PublishAndRead(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, logger.Nop())
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, resultSet("r1", "9394", "9495")))

	assert.FileExists(t, filepath.Join(root, "positions", "season=9394", "part-00000.jsonl"))
	assert.FileExists(t, filepath.Join(root, "best_scoring_team", "season=9495", "part-00000.jsonl"))
	assert.FileExists(t, filepath.Join(root, "_manifest.json"))

	seasons, err := store.Seasons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"9394", "9495"}, seasons)

	pos, err := store.ReadPositions(ctx, "9394")
	require.NoError(t, err)
	require.Len(t, pos, 2)
	assert.Equal(t, "A-r1", pos[0].Team)
	assert.Equal(t, 1, pos[0].Rank)

	best, err := store.ReadBestScoring(ctx, "9495")
	require.NoError(t, err)
	assert.Equal(t, []contracts.TopScorerRecord{{Season: "9495", Team: "A-r1", TotalGoals: 2}}, best)

	m, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", m.RunID)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".staging-")
	}
}

func TestFileStore_ColumnNames(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, logger.Nop())
	require.NoError(t, store.Publish(context.Background(), resultSet("r1", "9394")))

	data, err := os.ReadFile(filepath.Join(root, "positions", "season=9394", "part-00000.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"season":"9394","Team":"A-r1","Points":3,"Goals_Scored":2,"Goals_Conceded":1,"Goal_Difference":1,"Rank":1}`)

	data, err = os.ReadFile(filepath.Join(root, "best_scoring_team", "season=9394", "part-00000.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "{\"season\":\"9394\",\"Team\":\"A-r1\",\"Total_Goals\":2}\n", string(data))
}

func TestFileStore_ReplacesOnlyRunSeasons(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, logger.Nop())
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, resultSet("r1", "9394", "9495")))
	require.NoError(t, store.Publish(ctx, resultSet("r2", "9495", "9596")))

	seasons, err := store.Seasons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"9394", "9495", "9596"}, seasons)

	old, err := store.ReadPositions(ctx, "9394")
	require.NoError(t, err)
	assert.Equal(t, "A-r1", old[0].Team)

	replaced, err := store.ReadPositions(ctx, "9495")
	require.NoError(t, err)
	require.Len(t, replaced, 2)
	assert.Equal(t, "A-r2", replaced[0].Team)

	entries, err := os.ReadDir(filepath.Join(root, "positions"))
	require.NoError(t, err)
	assert.Len(t, entries, 3, "retired partitions must be removed")
}

func TestFileStore_EmptySeasonPartition(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, logger.Nop())
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, resultSet("r1", "9394")))
	require.NoError(t, store.Publish(ctx, &contracts.ResultSet{RunID: "r2", Seasons: []string{"9394"}}))

	rows, err := store.ReadPositions(ctx, "9394")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFileStore_PublishNoSeasonsWritesManifest(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, logger.Nop())
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, resultSet("r1")))

	m, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", m.RunID)

	seasons, err := store.Seasons(ctx)
	require.NoError(t, err)
	assert.Empty(t, seasons)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".staging-")
	}
}

func TestFileStore_FailedPublishLeavesOutputIntact(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, logger.Nop())
	ctx := context.Background()

	require.NoError(t, store.Publish(ctx, resultSet("r1", "9394")))

	t.Run("invalid season", func(t *testing.T) {
		err := store.Publish(ctx, resultSet("r2", "9394", "../x"))
		require.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := store.Publish(cctx, resultSet("r3", "9394"))
		assert.ErrorIs(t, err, context.Canceled)
	})

	rows, err := store.ReadPositions(ctx, "9394")
	require.NoError(t, err)
	assert.Equal(t, "A-r1", rows[0].Team)

	m, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", m.RunID)
}

func TestFileStore_NotFound(t *testing.T) {
	store := NewFileStore(t.TempDir(), logger.Nop())
	ctx := context.Background()

	seasons, err := store.Seasons(ctx)
	require.NoError(t, err)
	assert.Empty(t, seasons)

	_, err = store.ReadPositions(ctx, "9394")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.ReadBestScoring(ctx, "../../etc")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.ReadManifest(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestValidSeason(t *testing.T) {
	assert.True(t, ValidSeason("9394"))
	assert.False(t, ValidSeason("939"))
	assert.False(t, ValidSeason("93945"))
	assert.False(t, ValidSeason("../x"))
}

func TestFileStore_CleanStale(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, logger.Nop())
	require.NoError(t, store.Publish(context.Background(), resultSet("r1", "9394")))

	old := time.Now().Add(-2 * time.Hour)
	staleStaging := filepath.Join(root, ".staging-dead")
	staleRetired := filepath.Join(root, "positions", ".old-dead-season=9394")
	fresh := filepath.Join(root, ".staging-live")
	for _, d := range []string{staleStaging, staleRetired, fresh} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	require.NoError(t, os.Chtimes(staleStaging, old, old))
	require.NoError(t, os.Chtimes(staleRetired, old, old))

	removed, err := store.CleanStale(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoDirExists(t, staleStaging)
	assert.NoDirExists(t, staleRetired)
	assert.DirExists(t, fresh)
	assert.DirExists(t, filepath.Join(root, "positions", "season=9394"))
}
