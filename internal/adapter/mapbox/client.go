package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
)

const (
	providerName   = "mapbox"
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Available reports whether an access token is configured.
func (c *Client) Available(context.Context) bool {
	return c.token != ""
}

// FromQuery forward-geocodes free text.
func (c *Client) FromQuery(ctx context.Context, query string, maxResults int) ([]domain.NativeAddress, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {strconv.Itoa(maxResults)},
	}

	return c.doRequest(ctx, u+"?"+params.Encode(), "forward")
}

// FromCoordinates reverse-geocodes a coordinate pair. Mapbox rejects a
// reverse limit above 1 unless exactly one type is requested, so no limit is
// sent: the default answer holds one feature per hierarchy level, most
// specific first, and is cut to maxResults here.
func (c *Client) FromCoordinates(ctx context.Context, lat, lon float64, maxResults int) ([]domain.NativeAddress, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	u := fmt.Sprintf("%s/%s.json", c.baseURL, coord)
	params := url.Values{
		"access_token": {c.token},
	}

	addresses, err := c.doRequest(ctx, u+"?"+params.Encode(), "reverse")
	if len(addresses) > maxResults {
		addresses = addresses[:maxResults]
	}
	return addresses, err
}

func (c *Client) doRequest(ctx context.Context, fullURL, method string) ([]domain.NativeAddress, error) {
	start := time.Now()
	addresses, err := c.fetch(ctx, fullURL, method)
	c.metrics.GeocodeAPIDuration.WithLabelValues(providerName, method).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues(providerName, method, "error").Inc()
		c.logger.Warn("mapbox request failed", "method", method, "error", err)
	case len(addresses) == 0:
		c.metrics.GeocodeRequests.WithLabelValues(providerName, method, "empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues(providerName, method, "success").Inc()
	}
	return addresses, err
}

func (c *Client) fetch(ctx context.Context, fullURL, method string) ([]domain.NativeAddress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	addresses := make([]domain.NativeAddress, 0, len(mapboxResp.Features))
	for _, f := range mapboxResp.Features {
		addresses = append(addresses, toNativeAddress(f))
	}
	return addresses, nil
}

// toNativeAddress maps a feature and its context hierarchy onto the
// platform address attributes.
func toNativeAddress(f feature) domain.NativeAddress {
	a := domain.NativeAddress{
		FeatureName: domain.Optional(f.Text),
	}
	if f.PlaceName != "" {
		a.Lines = []string{f.PlaceName}
	}
	if len(f.Center) == 2 {
		a.Location = &domain.Coordinates{Latitude: f.Center[1], Longitude: f.Center[0]}
	}
	if hasType(f.PlaceType, "address") {
		a.Thoroughfare = domain.Optional(f.Text)
		a.SubThoroughfare = domain.Optional(f.Address)
	}

	// The feature itself sits at one level of the hierarchy; the context
	// array lists its parents from most to least specific.
	levels := append([]contextEntry{{ID: f.ID, Text: f.Text, ShortCode: f.ShortCode}}, f.Context...)
	for _, e := range levels {
		switch layer(e.ID) {
		case "postcode":
			a.PostalCode = domain.Optional(e.Text)
		case "place":
			a.Locality = domain.Optional(e.Text)
		case "locality", "neighborhood":
			if a.SubLocality == nil {
				a.SubLocality = domain.Optional(e.Text)
			}
		case "district":
			a.SubAdminArea = domain.Optional(e.Text)
		case "region":
			a.AdminArea = domain.Optional(e.Text)
		case "country":
			a.CountryName = domain.Optional(e.Text)
			a.CountryCode = domain.Optional(strings.ToUpper(e.ShortCode))
		}
	}
	return a
}

// layer extracts the type prefix of a Mapbox id such as "place.12345".
func layer(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID        string         `json:"id"`
	PlaceType []string       `json:"place_type"`
	Center    []float64      `json:"center"` // [lon, lat]
	PlaceName string         `json:"place_name"`
	Text      string         `json:"text"`
	Address   string         `json:"address"` // house number on address features
	ShortCode string         `json:"short_code,omitempty"`
	Relevance float64        `json:"relevance"`
	Context   []contextEntry `json:"context"`
}

type contextEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code,omitempty"`
}
