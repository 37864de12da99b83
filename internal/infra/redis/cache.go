package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
)

// lastTTL bounds how long a stale fallback view survives.
const lastTTL = 7 * 24 * time.Hour

// StatsCache stores computed views under a per-user generation number.
// Invalidate bumps the generation, so older entries are never read again and
// expire on their own.
type StatsCache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewStatsCache(rdb *goredis.Client, prefix string, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *StatsCache) genKey(userID int64) string {
	return fmt.Sprintf("%sstats:gen:%d", c.prefix, userID)
}

func (c *StatsCache) lastKey(userID int64, kind stats.Kind) string {
	return fmt.Sprintf("%sstats:last:%d:%s", c.prefix, userID, kind)
}

func (c *StatsCache) viewKey(ctx context.Context, userID int64, key string) (string, error) {
	gen, err := c.rdb.Get(ctx, c.genKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", fmt.Errorf("get generation: %w", err)
	}
	return fmt.Sprintf("%sstats:view:%d:%s:%s", c.prefix, userID, gen, key), nil
}

func (c *StatsCache) Get(ctx context.Context, userID int64, key string) (*stats.View, bool, error) {
	k, err := c.viewKey(ctx, userID, key)
	if err != nil {
		return nil, false, err
	}
	return c.read(ctx, k)
}

func (c *StatsCache) Set(ctx context.Context, userID int64, key string, view *stats.View) error {
	k, err := c.viewKey(ctx, userID, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, k, raw, c.ttl)
	pipe.Set(ctx, c.lastKey(userID, view.Kind), raw, lastTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set view: %w", err)
	}
	return nil
}

func (c *StatsCache) Last(ctx context.Context, userID int64, kind stats.Kind) (*stats.View, bool, error) {
	return c.read(ctx, c.lastKey(userID, kind))
}

func (c *StatsCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.rdb.Incr(ctx, c.genKey(userID)).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

func (c *StatsCache) read(ctx context.Context, key string) (*stats.View, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get view: %w", err)
	}

	var v stats.View
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("unmarshal view: %w", err)
	}
	return &v, true, nil
}
