package domain

import (
	"context"
	"fmt"
)

// MaxResults caps the number of records requested from a backend per lookup.
const MaxResults = 3

// Wire names of the two supported operations.
const (
	MethodFindByQuery       = "findAddressesFromQuery"
	MethodFindByCoordinates = "findAddressesFromCoordinates"
)

// Geocoder is a forward and reverse geocoding backend.
type Geocoder interface {
	// Available reports whether the backend is present and configured.
	// It must not perform network I/O.
	Available(ctx context.Context) bool

	// FromQuery resolves free text into at most maxResults addresses.
	FromQuery(ctx context.Context, query string, maxResults int) ([]NativeAddress, error)

	// FromCoordinates resolves a coordinate pair into at most maxResults addresses.
	FromCoordinates(ctx context.Context, lat, lon float64, maxResults int) ([]NativeAddress, error)
}

// LookupRequest is one of ByQuery or ByCoordinates.
type LookupRequest interface {
	// Method returns the wire name of the operation.
	Method() string
	lookup(ctx context.Context, g Geocoder, maxResults int) ([]NativeAddress, error)
}

// ByQuery is a forward geocoding request.
type ByQuery struct {
	Address string
}

func (ByQuery) Method() string { return MethodFindByQuery }

func (r ByQuery) lookup(ctx context.Context, g Geocoder, maxResults int) ([]NativeAddress, error) {
	return g.FromQuery(ctx, r.Address, maxResults)
}

func (r ByQuery) String() string { return fmt.Sprintf("query %q", r.Address) }

// ByCoordinates is a reverse geocoding request.
type ByCoordinates struct {
	Latitude  float64
	Longitude float64
}

func (ByCoordinates) Method() string { return MethodFindByCoordinates }

func (r ByCoordinates) lookup(ctx context.Context, g Geocoder, maxResults int) ([]NativeAddress, error) {
	return g.FromCoordinates(ctx, r.Latitude, r.Longitude, maxResults)
}

func (r ByCoordinates) String() string {
	return fmt.Sprintf("coordinates %.6f,%.6f", r.Latitude, r.Longitude)
}

// Lookup checks that g is available, then runs req against it. Backend
// failures are wrapped in a *LookupError.
func Lookup(ctx context.Context, g Geocoder, req LookupRequest) ([]ResolvedAddress, error) {
	if g == nil || !g.Available(ctx) {
		return nil, ErrNotAvailable
	}

	addresses, err := req.lookup(ctx, g, MaxResults)
	if err != nil {
		return nil, &LookupError{Err: err}
	}
	if len(addresses) > MaxResults {
		addresses = addresses[:MaxResults]
	}
	return ResolveAll(addresses), nil
}

// Unavailable is a Geocoder that is never present. It stands in when no
// backend is configured.
type Unavailable struct{}

func (Unavailable) Available(context.Context) bool { return false }

func (Unavailable) FromQuery(context.Context, string, int) ([]NativeAddress, error) {
	return nil, ErrNotAvailable
}

func (Unavailable) FromCoordinates(context.Context, float64, float64, int) ([]NativeAddress, error) {
	return nil, ErrNotAvailable
}
