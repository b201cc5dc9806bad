package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/pkg/logger"
)

type recordingSink struct {
	name  string
	err   error
	calls *[]string
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(ctx context.Context, rs *contracts.ResultSet) error {
	*s.calls = append(*s.calls, s.name)
	return s.err
}

func TestMulti_Order(t *testing.T) {
	var calls []string
	m := NewMulti(logger.Nop(),
		&recordingSink{name: "file", calls: &calls},
		&recordingSink{name: "postgres", calls: &calls},
	)

	assert.Equal(t, "file+postgres", m.Name())
	require.NoError(t, m.Publish(context.Background(), &contracts.ResultSet{RunID: "r1"}))
	assert.Equal(t, []string{"file", "postgres"}, calls)
}

func TestMulti_StopsAtFirstError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	m := NewMulti(logger.Nop(),
		&recordingSink{name: "file", calls: &calls, err: boom},
		&recordingSink{name: "redis", calls: &calls},
	)

	err := m.Publish(context.Background(), &contracts.ResultSet{RunID: "r1"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "sink file")
	assert.Equal(t, []string{"file"}, calls)
}

func TestMulti_NoSinks(t *testing.T) {
	assert.Error(t, NewMulti(logger.Nop()).Publish(context.Background(), &contracts.ResultSet{}))
}

func TestReadThrough_NoCache(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, logger.Nop())
	require.NoError(t, store.Publish(context.Background(), resultSet("r1", "9394")))

	r := NewReadThrough(store, nil, logger.Nop())
	rows, err := r.ReadPositions(context.Background(), "9394")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = r.ReadBestScoring(context.Background(), "9999")
	assert.ErrorIs(t, err, ErrNotFound)

	seasons, err := r.Seasons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"9394"}, seasons)
}

func TestMergeSeasons(t *testing.T) {
	assert.Equal(t, []string{"9394", "9495", "9596"}, mergeSeasons([]string{"9495", "9394"}, []string{"9596", "9495"}))
	assert.Equal(t, []string{}, mergeSeasons(nil, nil))
}
