package s0_ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/epl-etl/internal/contracts"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFileFinder_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "season-9495.json", "[]")
	writeFile(t, dir, "season-9394.json", "[]")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "season-9596.csv", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "season-0000.json"), 0o755))

	sources, err := NewFileFinder().Find(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "season-9394.json", sources[0].ID)
	assert.Equal(t, "season-9495.json", sources[1].ID)
	assert.Equal(t, filepath.Join(dir, "season-9394.json"), sources[0].Path)
}

func TestFileFinder_SingleFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "sesaon-9394.json", "[]")

	sources, err := NewFileFinder().Find(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "sesaon-9394.json", sources[0].ID)
}

func TestFileFinder_Errors(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := NewFileFinder().Find(context.Background(), t.TempDir())
		var ie *contracts.IngestError
		require.True(t, errors.As(err, &ie))
		assert.ErrorIs(t, err, contracts.ErrIngest)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := NewFileFinder().Find(context.Background(), filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, contracts.ErrIngest)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewFileFinder().Find(ctx, t.TempDir())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
