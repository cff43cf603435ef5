// Package backend assembles the geocoder selected by configuration: a
// provider client, optionally wrapped in a result cache.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/geocoder-bridge/internal/adapter/cache"
	"github.com/couchcryptid/geocoder-bridge/internal/adapter/mapbox"
	"github.com/couchcryptid/geocoder-bridge/internal/adapter/nominatim"
	"github.com/couchcryptid/geocoder-bridge/internal/config"
	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
)

// New builds the configured geocoder. The returned close func releases any
// connections the cache holds and is always safe to call.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.Geocoder, func(), error) {
	noop := func() {}

	var g domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.ProviderMapbox:
		g = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		logger.Info("mapbox geocoding enabled", "timeout", cfg.MapboxTimeout)
	case config.ProviderNominatim:
		g = nominatim.NewClient(nominatim.Options{
			BaseURL:   cfg.NominatimURL,
			UserAgent: cfg.NominatimUserAgent,
			Timeout:   cfg.NominatimTimeout,
			RateLimit: cfg.NominatimRateLimit,
		}, metrics, logger)
		logger.Info("nominatim geocoding enabled", "url", cfg.NominatimURL, "rate_limit", cfg.NominatimRateLimit)
	default:
		logger.Info("geocoding disabled")
		metrics.GeocodeAvailable.Set(0)
		return domain.Unavailable{}, noop, nil
	}
	metrics.GeocodeAvailable.Set(1)

	switch cfg.CacheBackend {
	case config.CacheMemory:
		store := cache.NewMemoryStore(cfg.CacheSize, cfg.CacheTTL, clockwork.NewRealClock())
		logger.Info("memory geocode cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
		return cache.NewGeocoder(g, store, metrics), noop, nil
	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("geocode cache: %w", err)
		}
		logger.Info("redis geocode cache enabled", "ttl", cfg.CacheTTL)
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}
		store := cache.NewRedisStore(client, cfg.CacheTTL, logger)
		return cache.NewGeocoder(g, store, metrics), closeFn, nil
	default:
		return g, noop, nil
	}
}
