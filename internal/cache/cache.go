// Package cache holds the optional read-through cache for aggregate stats.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fentz26/cleanops/internal/stats"
	"github.com/redis/go-redis/v9"
)

// StatsCache stores the most recent aggregate.
type StatsCache interface {
	// Get returns the cached aggregate, or ok=false on a miss.
	Get(ctx context.Context) (s *stats.Stats, ok bool, err error)
	Set(ctx context.Context, s *stats.Stats) error
	// Invalidate drops the cached aggregate after a mutation.
	Invalidate(ctx context.Context) error
}

// Nop never caches.
type Nop struct{}

var _ StatsCache = Nop{}

func (Nop) Get(context.Context) (*stats.Stats, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, *stats.Stats) error         { return nil }
func (Nop) Invalidate(context.Context) error                { return nil }

const statsKey = "cleanops:stats"

// Redis caches the aggregate as a JSON blob with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ StatsCache = (*Redis)(nil)

// NewRedis wraps client. A ttl <= 0 defaults to ten seconds.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{client: client, ttl: ttl}
}

// Get reads the cached aggregate.
func (r *Redis) Get(ctx context.Context) (*stats.Stats, bool, error) {
	data, err := r.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get stats: %w", err)
	}

	var s stats.Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return &s, true, nil
}

// Set stores s until the TTL elapses.
func (r *Redis) Set(ctx context.Context, s *stats.Stats) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := r.client.Set(ctx, statsKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}
	return nil
}

// Invalidate deletes the cached aggregate.
func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("redis del stats: %w", err)
	}
	return nil
}
