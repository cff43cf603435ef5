// Package cache provides a caching decorator for geocoding backends.
package cache

import (
	"context"
	"fmt"

	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
)

// Store holds cached lookup results by key.
type Store interface {
	Get(ctx context.Context, key string) ([]domain.NativeAddress, bool)
	Put(ctx context.Context, key string, value []domain.NativeAddress)
}

// Geocoder wraps a domain.Geocoder with a Store. Only successful, non-empty
// results are cached so that "not found" answers are asked again.
type Geocoder struct {
	inner   domain.Geocoder
	store   Store
	metrics *observability.Metrics
}

// NewGeocoder creates a cache decorator around inner.
func NewGeocoder(inner domain.Geocoder, store Store, metrics *observability.Metrics) *Geocoder {
	return &Geocoder{
		inner:   inner,
		store:   store,
		metrics: metrics,
	}
}

// Available delegates to the wrapped backend; a cached answer never hides
// an absent backend.
func (g *Geocoder) Available(ctx context.Context) bool {
	return g.inner.Available(ctx)
}

func (g *Geocoder) FromQuery(ctx context.Context, query string, maxResults int) ([]domain.NativeAddress, error) {
	key := fmt.Sprintf("fwd:%s|%d", query, maxResults)
	return g.cached(ctx, key, "forward", func() ([]domain.NativeAddress, error) {
		return g.inner.FromQuery(ctx, query, maxResults)
	})
}

func (g *Geocoder) FromCoordinates(ctx context.Context, lat, lon float64, maxResults int) ([]domain.NativeAddress, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f|%d", lat, lon, maxResults)
	return g.cached(ctx, key, "reverse", func() ([]domain.NativeAddress, error) {
		return g.inner.FromCoordinates(ctx, lat, lon, maxResults)
	})
}

func (g *Geocoder) cached(ctx context.Context, key, method string, load func() ([]domain.NativeAddress, error)) ([]domain.NativeAddress, error) {
	if result, ok := g.store.Get(ctx, key); ok {
		g.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return result, nil
	}
	g.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	result, err := load()
	if err != nil {
		return result, err
	}
	if len(result) > 0 {
		g.store.Put(ctx, key, result)
	}
	return result, nil
}
