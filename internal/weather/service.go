package weather

import (
	"context"
	"strings"
	"time"

	"github.com/yegors/flightboard/pkg/logger"
)

// Service answers METAR requests from cache, fetching on a miss
type Service struct {
	client *Client
	cache  *Cache
	now    func() time.Time
	logger *logger.Logger
}

// NewService creates a new weather service
func NewService(config WeatherConfig, logger *logger.Logger) *Service {
	return &Service{
		client: NewClient(config, logger),
		cache:  NewCache(config, logger),
		now:    time.Now,
		logger: logger.Named("weather-service"),
	}
}

// METAR returns the raw observation text or Unavailable. It never fails.
func (s *Service) METAR(ctx context.Context, airport string) string {
	airport = strings.ToUpper(strings.TrimSpace(airport))
	if airport == "" {
		return Unavailable
	}

	if obs, ok := s.cache.Get(airport); ok {
		return obs.Raw
	}

	text, err := s.client.FetchMETAR(ctx, airport)
	if err != nil {
		s.logger.Warn("METAR unavailable",
			logger.String("airport", airport),
			logger.Error(err))
		return Unavailable
	}

	s.cache.Set(Observation{Airport: airport, Raw: text, FetchedAt: s.now().UTC()})
	return text
}

// GetStats returns cache statistics
func (s *Service) GetStats() map[string]any {
	return map[string]any{
		"cached_airports": s.cache.Len(),
	}
}
