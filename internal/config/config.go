package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/incident-data-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Incident source and cache behaviour.
	CSVPath             string
	CacheTTL            time.Duration
	ReloadTimeout       time.Duration
	ReloadRetryInterval time.Duration
	CategoriesPath      string

	// StatsLocation is the zone time-of-day statistics are bucketed in.
	StatsLocation *time.Location

	// Coordinate fallback. A zero JitterSeed picks a random seed per process.
	FallbackLatitude      float64
	FallbackLongitude     float64
	FallbackJitterDegrees float64
	JitterSeed            uint64

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Snapshot publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int
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

	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	reloadTimeout, err := parsePositiveDuration("RELOAD_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	retryInterval, err := parsePositiveDuration("RELOAD_RETRY_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	lat, err := parseFloat("FALLBACK_LATITUDE", domain.DefaultCentroidLat)
	if err != nil {
		return nil, err
	}
	lng, err := parseFloat("FALLBACK_LONGITUDE", domain.DefaultCentroidLng)
	if err != nil {
		return nil, err
	}
	jitter, err := parseFloat("FALLBACK_JITTER_DEGREES", domain.DefaultJitterDegrees)
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("JITTER_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid JITTER_SEED")
	}

	statsLoc, err := time.LoadLocation(sharedcfg.EnvOrDefault("STATS_TIMEZONE", "Asia/Kolkata"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_TIMEZONE: %w", err)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CSVPath:             sharedcfg.EnvOrDefault("INCIDENTS_CSV_PATH", "MERGED_FILE.csv"),
		CacheTTL:            cacheTTL,
		ReloadTimeout:       reloadTimeout,
		ReloadRetryInterval: retryInterval,
		CategoriesPath:      os.Getenv("CATEGORIES_PATH"),
		StatsLocation:       statsLoc,

		FallbackLatitude:      lat,
		FallbackLongitude:     lng,
		FallbackJitterDegrees: jitter,
		JitterSeed:            seed,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "incidents-snapshot"),
		BatchSize:    batchSize,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CSVPath == "" {
		return errors.New("INCIDENTS_CSV_PATH is required")
	}
	if math.Abs(c.FallbackLatitude) > 90 {
		return errors.New("FALLBACK_LATITUDE must be within [-90, 90]")
	}
	if math.Abs(c.FallbackLongitude) > 180 {
		return errors.New("FALLBACK_LONGITUDE must be within [-180, 180]")
	}
	if c.FallbackJitterDegrees < 0 {
		return errors.New("FALLBACK_JITTER_DEGREES must not be negative")
	}
	// Synthesized points must never land on a zero axis.
	if math.Abs(c.FallbackLatitude) <= c.FallbackJitterDegrees || math.Abs(c.FallbackLongitude) <= c.FallbackJitterDegrees {
		return errors.New("FALLBACK_LATITUDE and FALLBACK_LONGITUDE must be further from zero than FALLBACK_JITTER_DEGREES")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

// ResolverConfig returns the coordinate fallback settings.
func (c *Config) ResolverConfig() domain.ResolverConfig {
	return domain.ResolverConfig{
		CentroidLat:   c.FallbackLatitude,
		CentroidLng:   c.FallbackLongitude,
		JitterDegrees: c.FallbackJitterDegrees,
		Seed:          c.JitterSeed,
	}
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseFloat(name string, def float64) (float64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
