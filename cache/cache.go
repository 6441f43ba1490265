package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cityweather/datasource"
	"cityweather/models"
)

// CachedWeatherSource wraps a WeatherSource and keeps successful readings for a while
type CachedWeatherSource struct {
	source         datasource.WeatherSource
	cache          map[string]cacheEntry
	mutex          sync.RWMutex
	cacheDuration  time.Duration
	cacheHitCount  int
	cacheMissCount int
	now            func() time.Time
	logger         *slog.Logger
}

// cacheEntry represents a cached reading with its timestamp
type cacheEntry struct {
	Data      models.WeatherReading
	Timestamp time.Time
}

// NewCachedWeatherSource creates a new cached wrapper around a weather source
func NewCachedWeatherSource(source datasource.WeatherSource, cacheDuration time.Duration, logger *slog.Logger) *CachedWeatherSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedWeatherSource{
		source:        source,
		cache:         make(map[string]cacheEntry),
		cacheDuration: cacheDuration,
		now:           time.Now,
		logger:        logger,
	}
}

// Name returns the name of the underlying source with a [Cached] suffix
func (c *CachedWeatherSource) Name() string {
	return c.source.Name() + " [Cached]"
}

// FetchWeather returns a cached reading when one is fresh, otherwise asks the
// underlying source. Errors are never cached.
func (c *CachedWeatherSource) FetchWeather(ctx context.Context, city string) (models.WeatherReading, error) {
	key := cacheKey(city)

	c.mutex.RLock()
	entry, found := c.cache[key]
	c.mutex.RUnlock()

	if found {
		age := c.now().Sub(entry.Timestamp)
		if age < c.cacheDuration {
			c.mutex.Lock()
			c.cacheHitCount++
			c.mutex.Unlock()

			c.logger.Debug("weather cache hit",
				"city", city, "source", c.source.Name(), "age", age.Round(time.Second))
			return entry.Data, nil
		}
	}

	c.mutex.Lock()
	c.cacheMissCount++
	c.mutex.Unlock()

	c.logger.Debug("weather cache miss", "city", city, "source", c.source.Name())

	data, err := c.source.FetchWeather(ctx, city)
	if err != nil {
		return models.WeatherReading{}, err
	}

	c.mutex.Lock()
	c.cache[key] = cacheEntry{Data: data, Timestamp: c.now()}
	c.mutex.Unlock()

	return data, nil
}

// CacheStats returns statistics about cache hits and misses
func (c *CachedWeatherSource) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cacheHitCount, c.cacheMissCount
}

// cacheKey folds case and surrounding space so "Auckland" and " auckland" share an entry
func cacheKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

var _ datasource.WeatherSource = (*CachedWeatherSource)(nil)
