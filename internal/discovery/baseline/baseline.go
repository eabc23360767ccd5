// Package baseline caches the marketplace-wide 30-day acceptance rate used
// as the smoothing prior. The value changes slowly and is refreshed
// externally, so a few minutes of staleness is acceptable.
package baseline

import (
	"context"
	"math"
	"sync"
	"time"

	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/common/metrics"
)

// Source loads the current baseline. found is false when no baseline row
// exists yet.
type Source interface {
	AcceptanceBaseline(ctx context.Context) (value float64, found bool, err error)
}

// Cache is a short-TTL read-through cache owned by one pipeline instance.
type Cache struct {
	source   Source
	ttl      time.Duration
	fallback float64
	logger   logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	value   float64
	loaded  bool
	expires time.Time
}

// NewCache wraps source. fallback is served when the source has no row.
func NewCache(source Source, ttl time.Duration, fallback float64, log logger.Logger) *Cache {
	return &Cache{
		source:   source,
		ttl:      ttl,
		fallback: fallback,
		logger:   log,
		now:      time.Now,
	}
}

// Get returns the cached baseline, refreshing it once the TTL has passed.
// When a refresh fails and a previous value exists, the stale value is
// served and the error is logged.
func (c *Cache) Get(ctx context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.loaded && now.Before(c.expires) {
		metrics.BaselineCache.WithLabelValues("memory", "hit").Inc()
		return c.value, nil
	}
	metrics.BaselineCache.WithLabelValues("memory", "miss").Inc()

	value, found, err := c.source.AcceptanceBaseline(ctx)
	if err != nil {
		if c.loaded {
			c.logger.Warn("baseline refresh failed, serving stale value", map[string]interface{}{
				"error":    err.Error(),
				"baseline": c.value,
			})
			return c.value, nil
		}
		return 0, err
	}

	if !found || math.IsNaN(value) || value < 0 || value > 1 {
		value = c.fallback
	}

	c.value = value
	c.loaded = true
	c.expires = now.Add(c.ttl)
	return value, nil
}

// Reset drops the cached value.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.value = 0
	c.expires = time.Time{}
}
