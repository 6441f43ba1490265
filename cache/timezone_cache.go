package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cityweather/datasource"
	"cityweather/models"
)

// CachedTimezoneSource remembers city→timezone identifiers. The second lookup
// (current time for an identifier) always goes upstream since it changes every second.
type CachedTimezoneSource struct {
	source         datasource.TimezoneSource
	cache          map[string]timezoneCacheEntry
	mutex          sync.RWMutex
	cacheDuration  time.Duration
	cacheHitCount  int
	cacheMissCount int
	now            func() time.Time
	logger         *slog.Logger
}

type timezoneCacheEntry struct {
	ID        models.TimezoneID
	Timestamp time.Time
}

// NewCachedTimezoneSource creates a new cached wrapper around a timezone source
func NewCachedTimezoneSource(source datasource.TimezoneSource, cacheDuration time.Duration, logger *slog.Logger) *CachedTimezoneSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedTimezoneSource{
		source:        source,
		cache:         make(map[string]timezoneCacheEntry),
		cacheDuration: cacheDuration,
		now:           time.Now,
		logger:        logger,
	}
}

// Name returns the name of the underlying source with a [Cached] suffix
func (c *CachedTimezoneSource) Name() string {
	return c.source.Name() + " [Cached]"
}

// LookupTimezone returns a cached identifier when one is fresh
func (c *CachedTimezoneSource) LookupTimezone(ctx context.Context, city string) (models.TimezoneID, error) {
	key := cacheKey(city)

	c.mutex.RLock()
	entry, found := c.cache[key]
	c.mutex.RUnlock()

	if found && c.now().Sub(entry.Timestamp) < c.cacheDuration {
		c.mutex.Lock()
		c.cacheHitCount++
		c.mutex.Unlock()

		c.logger.Debug("timezone cache hit", "city", city, "timezone", entry.ID)
		return entry.ID, nil
	}

	c.mutex.Lock()
	c.cacheMissCount++
	c.mutex.Unlock()

	c.logger.Debug("timezone cache miss", "city", city, "source", c.source.Name())

	id, err := c.source.LookupTimezone(ctx, city)
	if err != nil {
		return "", err
	}

	c.mutex.Lock()
	c.cache[key] = timezoneCacheEntry{ID: id, Timestamp: c.now()}
	c.mutex.Unlock()

	return id, nil
}

// LookupTime passes through to the underlying source
func (c *CachedTimezoneSource) LookupTime(ctx context.Context, id models.TimezoneID) (models.WorldTime, error) {
	return c.source.LookupTime(ctx, id)
}

// CacheStats returns statistics about cache hits and misses
func (c *CachedTimezoneSource) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cacheHitCount, c.cacheMissCount
}

var _ datasource.TimezoneSource = (*CachedTimezoneSource)(nil)
