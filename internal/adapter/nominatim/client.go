package nominatim

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

	"golang.org/x/time/rate"

	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
)

const providerName = "nominatim"

// Client implements domain.Geocoder against a Nominatim server. Requests are
// throttled to the configured rate; the public server allows one per second.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	RateLimit float64 // requests per second
}

// NewClient creates a Nominatim geocoding client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		metrics: metrics,
		logger:  logger,
	}
}

// Available reports whether a server URL is configured.
func (c *Client) Available(context.Context) bool {
	return c.baseURL != ""
}

// FromQuery forward-geocodes free text via /search.
func (c *Client) FromQuery(ctx context.Context, query string, maxResults int) ([]domain.NativeAddress, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(maxResults))

	return c.doRequest(ctx, c.baseURL+"/search?"+params.Encode(), "forward", func(body io.Reader) ([]place, error) {
		var places []place
		if err := json.NewDecoder(body).Decode(&places); err != nil {
			return nil, err
		}
		return places, nil
	})
}

// FromCoordinates reverse-geocodes via /reverse. Nominatim returns a single
// place for a coordinate pair, so at most one address comes back.
func (c *Client) FromCoordinates(ctx context.Context, lat, lon float64, maxResults int) ([]domain.NativeAddress, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")

	addresses, err := c.doRequest(ctx, c.baseURL+"/reverse?"+params.Encode(), "reverse", func(body io.Reader) ([]place, error) {
		var p reversePlace
		if err := json.NewDecoder(body).Decode(&p); err != nil {
			return nil, err
		}
		// "Unable to geocode" is how Nominatim reports an empty result.
		if p.Error != "" {
			return nil, nil
		}
		return []place{p.place}, nil
	})
	if len(addresses) > maxResults {
		addresses = addresses[:maxResults]
	}
	return addresses, err
}

func (c *Client) doRequest(ctx context.Context, fullURL, method string, decode func(io.Reader) ([]place, error)) ([]domain.NativeAddress, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate limit: %w", err)
	}

	start := time.Now()
	addresses, err := c.fetch(ctx, fullURL, method, decode)
	c.metrics.GeocodeAPIDuration.WithLabelValues(providerName, method).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues(providerName, method, "error").Inc()
		c.logger.Warn("nominatim request failed", "method", method, "error", err)
	case len(addresses) == 0:
		c.metrics.GeocodeRequests.WithLabelValues(providerName, method, "empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues(providerName, method, "success").Inc()
	}
	return addresses, err
}

func (c *Client) fetch(ctx context.Context, fullURL, method string, decode func(io.Reader) ([]place, error)) ([]domain.NativeAddress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nominatim upstream error: status %d: %s", resp.StatusCode, body)
	}

	places, err := decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	addresses := make([]domain.NativeAddress, 0, len(places))
	for _, p := range places {
		addresses = append(addresses, toNativeAddress(p))
	}
	return addresses, nil
}

func toNativeAddress(p place) domain.NativeAddress {
	a := domain.NativeAddress{
		FeatureName:     domain.Optional(p.Name),
		Thoroughfare:    domain.Optional(p.Address.Road),
		SubThoroughfare: domain.Optional(p.Address.HouseNumber),
		Locality:        domain.Optional(firstNonEmpty(p.Address.City, p.Address.Town, p.Address.Village, p.Address.Hamlet)),
		SubLocality:     domain.Optional(firstNonEmpty(p.Address.Suburb, p.Address.Neighbourhood)),
		AdminArea:       domain.Optional(p.Address.State),
		SubAdminArea:    domain.Optional(p.Address.County),
		PostalCode:      domain.Optional(p.Address.Postcode),
		CountryName:     domain.Optional(p.Address.Country),
		CountryCode:     domain.Optional(strings.ToUpper(p.Address.CountryCode)),
	}
	if p.DisplayName != "" {
		a.Lines = []string{p.DisplayName}
	}

	lat, latErr := strconv.ParseFloat(p.Lat, 64)
	lon, lonErr := strconv.ParseFloat(p.Lon, 64)
	if latErr == nil && lonErr == nil {
		a.Location = &domain.Coordinates{Latitude: lat, Longitude: lon}
	}
	return a
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Nominatim API response types.

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
}

type reversePlace struct {
	place
	Error string `json:"error"`
}

type address struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	Hamlet        string `json:"hamlet"`
	Village       string `json:"village"`
	Town          string `json:"town"`
	City          string `json:"city"`
	County        string `json:"county"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
}
