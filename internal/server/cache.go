package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const standingsKeyPrefix = "standings:"

// StandingsCache keeps rendered leaderboard JSON in Redis so viewers
// refreshing on every change notification do not recompute the board
// each time. A nil cache is valid and means compute-per-request.
type StandingsCache struct {
	rdb    *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

func NewStandingsCache(rdb *redis.Client, logger *slog.Logger) *StandingsCache {
	if rdb == nil {
		return nil
	}
	return &StandingsCache{rdb: rdb, logger: logger, ttl: 30 * time.Second}
}

func (c *StandingsCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, standingsKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *StandingsCache) Set(ctx context.Context, key string, data []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, standingsKeyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("standings cache set failed", "key", key, "error", err)
	}
}

// Invalidate clears every cached board. Called after any write touching
// teams, progress, or purchases; rank order is globally order-dependent
// so partial invalidation is never safe.
func (c *StandingsCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	keys, err := c.rdb.Keys(ctx, standingsKeyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("standings cache invalidation failed", "error", err)
	}
}
