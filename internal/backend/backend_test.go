package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geocoder-bridge/internal/adapter/cache"
	"github.com/couchcryptid/geocoder-bridge/internal/adapter/mapbox"
	"github.com/couchcryptid/geocoder-bridge/internal/adapter/nominatim"
	"github.com/couchcryptid/geocoder-bridge/internal/config"
	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseConfig() *config.Config {
	return &config.Config{
		GeocoderProvider:   config.ProviderNominatim,
		MapboxToken:        "pk.test",
		MapboxTimeout:      time.Second,
		NominatimURL:       "http://nominatim.invalid",
		NominatimUserAgent: "test",
		NominatimTimeout:   time.Second,
		NominatimRateLimit: 1,
		CacheBackend:       config.CacheNone,
		CacheSize:          10,
		CacheTTL:           time.Minute,
	}
}

func TestNew_None(t *testing.T) {
	cfg := baseConfig()
	cfg.GeocoderProvider = config.ProviderNone
	metrics := observability.NewMetricsForTesting()

	g, closeFn, err := New(context.Background(), cfg, metrics, discardLogger())
	require.NoError(t, err)
	defer closeFn()

	assert.False(t, g.Available(context.Background()))
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.GeocodeAvailable), 0)
}

func TestNew_ProviderWithoutCache(t *testing.T) {
	tests := []struct {
		provider string
		check    func(t *testing.T, g domain.Geocoder)
	}{
		{config.ProviderMapbox, func(t *testing.T, g domain.Geocoder) {
			assert.IsType(t, &mapbox.Client{}, g)
		}},
		{config.ProviderNominatim, func(t *testing.T, g domain.Geocoder) {
			assert.IsType(t, &nominatim.Client{}, g)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := baseConfig()
			cfg.GeocoderProvider = tt.provider
			metrics := observability.NewMetricsForTesting()

			g, closeFn, err := New(context.Background(), cfg, metrics, discardLogger())
			require.NoError(t, err)
			defer closeFn()

			tt.check(t, g)
			assert.True(t, g.Available(context.Background()))
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeAvailable), 0)
		})
	}
}

func TestNew_MemoryCache(t *testing.T) {
	cfg := baseConfig()
	cfg.CacheBackend = config.CacheMemory

	g, closeFn, err := New(context.Background(), cfg, observability.NewMetricsForTesting(), discardLogger())
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &cache.Geocoder{}, g)
	assert.True(t, g.Available(context.Background()))
}

func TestNew_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.CacheBackend = config.CacheRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	g, closeFn, err := New(context.Background(), cfg, observability.NewMetricsForTesting(), discardLogger())
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &cache.Geocoder{}, g)
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := baseConfig()
	cfg.CacheBackend = config.CacheRedis
	cfg.RedisURL = "redis://" + addr

	_, closeFn, err := New(context.Background(), cfg, observability.NewMetricsForTesting(), discardLogger())
	closeFn()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode cache")
}
