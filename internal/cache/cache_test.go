package cache

import (
	"context"
	"testing"
	"time"

	"github.com/fentz26/cleanops/internal/stats"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c StatsCache = Nop{}

	require.NoError(t, c.Set(ctx, &stats.Stats{Pending: 1}))
	s, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.NoError(t, c.Invalidate(ctx))
}

func TestNewRedis_DefaultTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	assert.Equal(t, 10*time.Second, NewRedis(client, 0).ttl)
	assert.Equal(t, time.Minute, NewRedis(client, time.Minute).ttl)
}

func TestRedis_Unreachable(t *testing.T) {
	// Nothing listens on port 1; every call must surface an error rather
	// than a silent miss.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewRedis(client, time.Second)
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, &stats.Stats{}))
	assert.Error(t, c.Invalidate(ctx))
}
