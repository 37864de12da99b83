package memory

import (
	"context"
	"sync"

	"github.com/aliskhannn/flashcards-engine/internal/domain/stats"
)

type lastKey struct {
	userID int64
	kind   stats.Kind
}

// StatsCache is a process-local service.StatsCache.
type StatsCache struct {
	mu    sync.RWMutex
	views map[int64]map[string]stats.View
	last  map[lastKey]stats.View
}

func NewStatsCache() *StatsCache {
	return &StatsCache{
		views: make(map[int64]map[string]stats.View),
		last:  make(map[lastKey]stats.View),
	}
}

func (c *StatsCache) Get(_ context.Context, userID int64, key string) (*stats.View, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[userID][key]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *StatsCache) Set(_ context.Context, userID int64, key string, view *stats.View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.views[userID] == nil {
		c.views[userID] = make(map[string]stats.View)
	}
	c.views[userID][key] = *view
	c.last[lastKey{userID, view.Kind}] = *view
	return nil
}

func (c *StatsCache) Last(_ context.Context, userID int64, kind stats.Kind) (*stats.View, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.last[lastKey{userID, kind}]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *StatsCache) Invalidate(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, userID)
	return nil
}
