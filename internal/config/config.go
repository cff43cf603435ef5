package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoding providers.
const (
	ProviderMapbox    = "mapbox"
	ProviderNominatim = "nominatim"
	ProviderNone      = "none"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// GeocoderProvider selects the backend: mapbox, nominatim or none.
	GeocoderProvider string

	MapboxToken   string
	MapboxTimeout time.Duration

	NominatimURL       string
	NominatimUserAgent string
	NominatimTimeout   time.Duration
	NominatimRateLimit float64 // requests per second

	CacheBackend string
	CacheSize    int
	CacheTTL     time.Duration
	RedisURL     string

	// Kafka method channel.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaRequestTopic  string
	KafkaReplyTopic    string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := parsePositiveDuration("NOMINATIM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NOMINATIM_RATE_LIMIT", "1"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid NOMINATIM_RATE_LIMIT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	defaultProvider := ProviderNominatim
	if mapboxToken != "" {
		defaultProvider = ProviderMapbox
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocoderProvider: sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", defaultProvider),

		MapboxToken:   mapboxToken,
		MapboxTimeout: mapboxTimeout,

		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "geocoder-bridge/1.0"),
		NominatimTimeout:   nominatimTimeout,
		NominatimRateLimit: rateLimit,

		CacheBackend: sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory),
		CacheSize:    parseCacheSize(),
		CacheTTL:     cacheTTL,
		RedisURL:     os.Getenv("REDIS_URL"),

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRequestTopic:  sharedcfg.EnvOrDefault("KAFKA_REQUEST_TOPIC", "geocoder-calls"),
		KafkaReplyTopic:    sharedcfg.EnvOrDefault("KAFKA_REPLY_TOPIC", "geocoder-replies"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "geocoder-bridge"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.GeocoderProvider {
	case ProviderMapbox:
		if c.MapboxToken == "" {
			return errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	case ProviderNominatim:
		if c.NominatimURL == "" {
			return errors.New("GEOCODER_PROVIDER is nominatim but NOMINATIM_URL is empty")
		}
	case ProviderNone:
	default:
		return fmt.Errorf("invalid GEOCODER_PROVIDER %q", c.GeocoderProvider)
	}

	switch c.CacheBackend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New("CACHE_BACKEND is redis but REDIS_URL is not set")
		}
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
		if c.KafkaRequestTopic == "" {
			return errors.New("KAFKA_REQUEST_TOPIC is required")
		}
		if c.KafkaReplyTopic == "" {
			return errors.New("KAFKA_REPLY_TOPIC is required")
		}
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
