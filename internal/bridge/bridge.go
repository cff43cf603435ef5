// Package bridge exposes a geocoding backend through a method-call
// interface: a named operation with an argument bag in, exactly one
// success, error or not-implemented response out.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
)

// Bridge dispatches method calls to a shared, stateless geocoder. Each
// lookup runs on its own goroutine and completes its Result exactly once.
type Bridge struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
	inflight sync.WaitGroup
}

// New creates a Bridge over geocoder. A nil geocoder behaves as one that is
// never available.
func New(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Bridge {
	if geocoder == nil {
		geocoder = domain.Unavailable{}
	}
	return &Bridge{
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// HandleMethodCall routes call to its operation. Lookups are started on a
// background goroutine and the method returns immediately; unknown methods
// are answered synchronously with NotImplemented. Cancelling ctx does not
// abort a lookup that has already been dispatched.
func (b *Bridge) HandleMethodCall(ctx context.Context, call MethodCall, result Result) {
	req, err := decodeRequest(call)
	if errors.Is(err, errNotImplemented) {
		b.logger.Debug("method not implemented", "method", call.Method)
		b.metrics.Calls.WithLabelValues(call.Method, StatusNotImplemented).Inc()
		result.NotImplemented()
		return
	}
	if err != nil {
		b.logger.Warn("invalid method call", "method", call.Method, "error", err)
		b.metrics.Calls.WithLabelValues(call.Method, domain.CodeFailed).Inc()
		result.Error(domain.CodeFailed, err.Error(), nil)
		return
	}

	b.dispatch(context.WithoutCancel(ctx), req, result)
}

func (b *Bridge) dispatch(ctx context.Context, req domain.LookupRequest, result Result) {
	b.inflight.Add(1)
	b.metrics.InflightCalls.Inc()

	go func() {
		defer b.inflight.Done()
		defer b.metrics.InflightCalls.Dec()

		method := req.Method()
		start := time.Now()
		addresses, err := b.Lookup(ctx, req)
		b.metrics.CallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

		if err != nil {
			code := domain.ErrorCode(err)
			b.logger.Warn("lookup failed", "method", method, "request", req, "code", code, "error", err)
			b.metrics.Calls.WithLabelValues(method, code).Inc()
			result.Error(code, err.Error(), nil)
			return
		}

		outcome := "success"
		if len(addresses) == 0 {
			outcome = "empty"
		}
		b.metrics.Calls.WithLabelValues(method, outcome).Inc()
		b.metrics.CallResults.Observe(float64(len(addresses)))
		result.Success(addresses)
	}()
}

// Lookup runs req synchronously against the geocoder. The returned slice is
// never nil on success and holds at most domain.MaxResults records.
func (b *Bridge) Lookup(ctx context.Context, req domain.LookupRequest) ([]domain.ResolvedAddress, error) {
	addresses, err := domain.Lookup(ctx, b.geocoder, req)
	if err != nil {
		return nil, err
	}
	for _, a := range addresses {
		b.logger.Debug("address resolved", "method", req.Method(), "address_line1", a.AddressLine1)
	}
	return addresses, nil
}

// Wait blocks until every dispatched lookup has completed.
func (b *Bridge) Wait() {
	b.inflight.Wait()
}

// CheckReadiness reports whether the geocoding backend is available.
func (b *Bridge) CheckReadiness(ctx context.Context) error {
	if !b.geocoder.Available(ctx) {
		return domain.ErrNotAvailable
	}
	return nil
}
