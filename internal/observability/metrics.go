package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geocoder_bridge"

// Metrics holds the Prometheus collectors for the bridge, its backends and
// its transports.
type Metrics struct {
	// Bridge call metrics.
	Calls         *prometheus.CounterVec   // labels: method, outcome={success,empty,failed,not_available,not_implemented}
	CallDuration  *prometheus.HistogramVec // labels: method
	CallResults   prometheus.Histogram
	InflightCalls prometheus.Gauge

	// Backend metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: provider, method={forward,reverse}, outcome={success,error,empty}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: provider, method
	GeocodeCache       *prometheus.CounterVec   // labels: method, result={hit,miss}
	GeocodeAvailable   prometheus.Gauge

	// Kafka channel metrics.
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	DecodeErrors     prometheus.Counter
	ChannelRunning   prometheus.Gauge
	BatchSize        prometheus.Histogram
	BatchDuration    prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Method calls handled by the bridge, by method and outcome.",
		}, []string{"method", "outcome"}),
		CallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Time from dispatch to completion of a lookup call.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		CallResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_results",
			Help:      "Number of addresses returned per successful lookup.",
			Buckets:   []float64{0, 1, 2, 3},
		}),
		InflightCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_calls",
			Help:      "Lookups currently running on a background worker.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Backend geocoding requests by provider, method and outcome.",
		}, []string{"provider", "method", "outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Backend geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider", "method"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_available",
			Help:      "1 when a geocoding backend is configured, 0 otherwise.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_messages_consumed_total",
			Help:      "Method-call messages read from the request topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_messages_produced_total",
			Help:      "Reply messages written to the reply topic.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_decode_errors_total",
			Help:      "Method-call messages that could not be decoded.",
		}),
		ChannelRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_running",
			Help:      "1 when the Kafka channel loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "channel_batch_size",
			Help:      "Number of method calls per batch fetched from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "channel_batch_duration_seconds",
			Help:      "Duration of a complete fetch-dispatch-reply cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Calls,
		m.CallDuration,
		m.CallResults,
		m.InflightCalls,
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
		m.GeocodeCache,
		m.GeocodeAvailable,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.DecodeErrors,
		m.ChannelRunning,
		m.BatchSize,
		m.BatchDuration,
	}
}
