package weather

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/yegors/flightboard/pkg/logger"
)

// Cache keeps recent METAR observations per airport with an expiry
type Cache struct {
	lru    *expirable.LRU[string, Observation]
	logger *logger.Logger
}

// NewCache creates a new weather cache
func NewCache(config WeatherConfig, logger *logger.Logger) *Cache {
	size := config.CacheSize
	if size <= 0 {
		size = 64
	}
	ttl := time.Duration(config.CacheExpiryMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		lru:    expirable.NewLRU[string, Observation](size, nil, ttl),
		logger: logger.Named("weather-cache"),
	}
}

// Get returns a non-expired observation
func (c *Cache) Get(airport string) (Observation, bool) {
	return c.lru.Get(strings.ToUpper(airport))
}

// Set stores an observation
func (c *Cache) Set(obs Observation) {
	c.lru.Add(strings.ToUpper(obs.Airport), obs)
	c.logger.Debug("METAR cached",
		logger.String("airport", obs.Airport),
		logger.Time("fetched_at", obs.FetchedAt))
}

// Invalidate clears the cache
func (c *Cache) Invalidate() {
	c.lru.Purge()
	c.logger.Info("Weather cache invalidated")
}

// Len returns the number of cached airports
func (c *Cache) Len() int {
	return c.lru.Len()
}
