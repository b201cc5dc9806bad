package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/epl-etl/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(context.Background(), &config.Config{})
	cache := NewCache(client, "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	assert.NoError(t, cache.SetMany(ctx, map[string]interface{}{"a": 1, "b": 2}, time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	cache := NewCache(&Client{}, "epl")

	assert.Equal(t, "epl:cache:positions:9394", cache.Key(PositionsKey("9394")))
	assert.Equal(t, "epl:cache:best_scoring_team:9495", cache.Key(BestScoringKey("9495")))
	assert.Equal(t, "epl:cache:seasons", cache.Key(SeasonsKey()))
}

func TestCache_RoundTrip(t *testing.T) {
	if os.Getenv("REDIS_ENABLED") != "true" {
		t.Skip("REDIS_ENABLED not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	client, err := New(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, "epl-test")
	require.NoError(t, cache.SetMany(ctx, map[string]interface{}{
		"a": []string{"9394"},
		"b": map[string]int{"goals": 3},
	}, time.Minute))

	var seasons []string
	found, err := cache.Get(ctx, "a", &seasons)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"9394"}, seasons)

	require.NoError(t, cache.Delete(ctx, "a"))
	require.NoError(t, cache.Delete(ctx, "b"))
}
