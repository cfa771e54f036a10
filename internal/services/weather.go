package services

import (
	"context"
	"time"

	"github.com/dpup/prefab/logging"
	"golang.org/x/sync/singleflight"

	"github.com/atlascommand/chaincontrol/server/internal/cache"
	"github.com/atlascommand/chaincontrol/server/internal/config"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/metrics"
)

// DefaultWeatherCacheTTL is used when the config leaves the TTL unset
const DefaultWeatherCacheTTL = 10 * time.Minute

// WeatherService is a WeatherLookup that caches the upstream client's answers
// by rounded coordinate. Concurrent lookups for the same key share one call.
type WeatherService struct {
	client chaincontrol.WeatherLookup
	store  cache.Store
	ttl    time.Duration
	group  singleflight.Group
}

// NewWeatherService creates a new WeatherService
func NewWeatherService(client chaincontrol.WeatherLookup, store cache.Store, cfg *config.WeatherConfig) *WeatherService {
	ttl := DefaultWeatherCacheTTL
	if cfg != nil && cfg.CacheTTL > 0 {
		ttl = cfg.CacheTTL
	}
	if store == nil {
		store = cache.NoopStore{}
	}
	return &WeatherService{
		client: client,
		store:  store,
		ttl:    ttl,
	}
}

// GetWeatherByCoordinates returns cached conditions when available, otherwise
// asks the client and caches a successful answer. Client errors are returned
// unchanged; unknown weather is returned as (nil, nil) and not cached.
func (s *WeatherService) GetWeatherByCoordinates(ctx context.Context, lat, lng float64) (*chaincontrol.WeatherSnapshot, error) {
	key := cache.WeatherKey(lat, lng)

	var cached chaincontrol.WeatherSnapshot
	found, err := s.store.Get(ctx, key, &cached)
	if err != nil {
		logging.Warnw(ctx, "Weather cache read failed", "key", key, "error", err)
	}
	if found {
		metrics.CacheHits.WithLabelValues("weather").Inc()
		return &cached, nil
	}
	metrics.CacheMisses.WithLabelValues("weather").Inc()

	v, err := sharedCall(ctx, &s.group, key, func(ctx context.Context) (interface{}, error) {
		snapshot, err := s.client.GetWeatherByCoordinates(ctx, lat, lng)
		if err != nil || snapshot == nil {
			return snapshot, err
		}
		if err := s.store.Set(ctx, key, snapshot, s.ttl); err != nil {
			logging.Warnw(ctx, "Failed to cache weather", "key", key, "error", err)
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}

	snapshot, _ := v.(*chaincontrol.WeatherSnapshot)
	if snapshot == nil {
		return nil, nil
	}
	// Callers may hold on to the result; do not share the pointer between them
	out := *snapshot
	return &out, nil
}

var _ chaincontrol.WeatherLookup = (*WeatherService)(nil)
