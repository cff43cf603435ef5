//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_FromQuery(t *testing.T) {
	c := smokeClient(t)

	got, err := domain.Lookup(context.Background(), c, domain.ByQuery{Address: "1600 Pennsylvania Ave NW, Washington"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), domain.MaxResults)

	require.NotNil(t, got[0].Coordinates)
	assert.InDelta(t, 38.9, got[0].Coordinates.Latitude, 0.1)
	assert.InDelta(t, -77.03, got[0].Coordinates.Longitude, 0.1)
	assert.Equal(t, "US", domain.Value(got[0].CountryCode))
}

func TestSmoke_FromCoordinates(t *testing.T) {
	c := smokeClient(t)

	got, err := domain.Lookup(context.Background(), c, domain.ByCoordinates{Latitude: 30.2672, Longitude: -97.7431})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.NotEmpty(t, got[0].AddressLine)
}
