// Package models - Service configuration and operational settings.
// This file defines configuration structures for all service components.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, governance, etc.)
// - Environment-friendly defaults that work out of the box
// - Comprehensive validation to catch misconfigurations early
// - Support for multiple deployment scenarios (development, production, cloud)
package models

import (
	"errors"
	"fmt"
	"time"
)

// Storage type constants
const (
	StorageTypeJSON     = "json"
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Storage       StorageConfig       `yaml:"storage" json:"storage"`             // Plan/catalog persistence settings
	Governance    GovernanceConfig    `yaml:"governance" json:"governance"`       // Admission control limits
	Suggest       SuggestConfig       `yaml:"suggest" json:"suggest"`             // Autocomplete behavior
	AI            AIConfig            `yaml:"ai" json:"ai"`                       // Upstream AI call settings
	Geocode       GeocodeConfig       `yaml:"geocode" json:"geocode"`             // Upstream geocoding settings
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Logging and output configuration
	Cache         CacheConfig         `yaml:"cache" json:"cache"`                 // Suggestion result caching
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Prometheus metrics endpoint
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing and service identity
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

type StorageConfig struct {
	Type     string            `yaml:"type" json:"type"`
	Path     string            `yaml:"path" json:"path"`
	Database DatabaseConfig    `yaml:"database" json:"database"`
	Options  map[string]string `yaml:"options" json:"options"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver" json:"driver"`
	DSN          string `yaml:"dsn" json:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" json:"max_idle_conns"`
}

// GovernanceConfig holds all admission-control limits. The defaults mirror
// the limits the product shipped with; operators rarely need to change them.
type GovernanceConfig struct {
	BucketCapacity    int           `yaml:"bucket_capacity" json:"bucket_capacity"`         // Burst tokens per identity
	RefillPerSecond   float64       `yaml:"refill_per_second" json:"refill_per_second"`     // Token refill rate
	PerMinuteLimit    int           `yaml:"per_minute_limit" json:"per_minute_limit"`       // Sustained per-minute cap
	PerHourLimit      int           `yaml:"per_hour_limit" json:"per_hour_limit"`           // Sustained per-hour cap
	BurstWindowLimit  int           `yaml:"burst_window_limit" json:"burst_window_limit"`   // Requests in 10s before a block
	MaxRequestBytes   int           `yaml:"max_request_bytes" json:"max_request_bytes"`     // Payload size policy
	BlockDuration     time.Duration `yaml:"block_duration" json:"block_duration"`           // Suspicious-client block length
	IdleExpiry        time.Duration `yaml:"idle_expiry" json:"idle_expiry"`                 // Bucket/window retention
	MaintenanceEvery  time.Duration `yaml:"maintenance_every" json:"maintenance_every"`     // Purge cadence
	BreakerTickEvery  time.Duration `yaml:"breaker_tick_every" json:"breaker_tick_every"`   // Breaker timer cadence
	BreakerThreshold  int           `yaml:"breaker_threshold" json:"breaker_threshold"`     // Failures before opening
	BreakerOpenFor    time.Duration `yaml:"breaker_open_for" json:"breaker_open_for"`       // Open to half-open delay
	BreakerRecoverFor time.Duration `yaml:"breaker_recover_for" json:"breaker_recover_for"` // Half-open to closed delay
}

type SuggestConfig struct {
	MinQueryLength  int  `yaml:"min_query_length" json:"min_query_length"`
	MaxResults      int  `yaml:"max_results" json:"max_results"`
	ExternalLookup  bool `yaml:"external_lookup" json:"external_lookup"`
	FallbackToLocal bool `yaml:"fallback_to_local" json:"fallback_to_local"`
}

type AIConfig struct {
	Endpoint      string        `yaml:"endpoint" json:"endpoint"`
	APIKey        string        `yaml:"api_key" json:"api_key"`
	Model         string        `yaml:"model" json:"model"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries    int           `yaml:"max_retries" json:"max_retries"`
	SchemaVersion string        `yaml:"schema_version" json:"schema_version"` // Semver constraint for response schema
	MockFallback  bool          `yaml:"mock_fallback" json:"mock_fallback"`
}

type GeocodeConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Language string        `yaml:"language" json:"language"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`         // debug, info, warn, error
	Format   string `yaml:"format" json:"format"`       // json, text
	Output   string `yaml:"output" json:"output"`       // stdout, stderr, file
	FilePath string `yaml:"file_path" json:"file_path"` // Used when output is file
}

type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	TTL           time.Duration `yaml:"ttl" json:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Exporter string `yaml:"exporter" json:"exporter"` // stdout, otlp
	Endpoint string `yaml:"endpoint" json:"endpoint"` // OTLP gRPC endpoint
}

// NewDefaultConfig returns a configuration with production-safe defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Type: StorageTypeMemory,
			Path: "./data/plans.json",
			Database: DatabaseConfig{
				Driver:       "sqlite",
				MaxOpenConns: 10,
				MaxIdleConns: 5,
			},
		},
		Governance: GovernanceConfig{
			BucketCapacity:    20,
			RefillPerSecond:   0.5,
			PerMinuteLimit:    10,
			PerHourLimit:      100,
			BurstWindowLimit:  5,
			MaxRequestBytes:   50_000,
			BlockDuration:     15 * time.Minute,
			IdleExpiry:        2 * time.Hour,
			MaintenanceEvery:  5 * time.Minute,
			BreakerTickEvery:  time.Minute,
			BreakerThreshold:  5,
			BreakerOpenFor:    5 * time.Minute,
			BreakerRecoverFor: 10 * time.Minute,
		},
		Suggest: SuggestConfig{
			MinQueryLength:  2,
			MaxResults:      8,
			ExternalLookup:  true,
			FallbackToLocal: true,
		},
		AI: AIConfig{
			Endpoint:      "https://ai.example.com",
			Model:         "travel-planner-1",
			Timeout:       30 * time.Second,
			MaxRetries:    3,
			SchemaVersion: ">= 1.0.0, < 2.0.0",
			MockFallback:  true,
		},
		Geocode: GeocodeConfig{
			Endpoint: "https://photon.komoot.io",
			Timeout:  6 * time.Second,
			Language: "en",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           5 * time.Minute,
			SweepInterval: 10 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "tripplanner",
			Tracing: TracingConfig{
				Enabled:  false,
				Exporter: "stdout",
			},
		},
	}
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case StorageTypeJSON:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for json storage"))
		}
	case StorageTypeMemory:
		// No additional configuration required.
	case StorageTypePostgres, StorageTypeSQLite:
		if c.Storage.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.database.dsn is required for %s storage", c.Storage.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage type: %s", c.Storage.Type))
	}

	if c.Governance.BucketCapacity < 1 {
		errs = append(errs, fmt.Errorf("governance.bucket_capacity must be at least 1, got %d", c.Governance.BucketCapacity))
	}
	if c.Governance.RefillPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("governance.refill_per_second must be positive, got %f", c.Governance.RefillPerSecond))
	}
	if c.Governance.PerMinuteLimit < 1 {
		errs = append(errs, fmt.Errorf("governance.per_minute_limit must be at least 1, got %d", c.Governance.PerMinuteLimit))
	}
	if c.Governance.PerHourLimit < c.Governance.PerMinuteLimit {
		errs = append(errs, fmt.Errorf("governance.per_hour_limit (%d) must not be below per_minute_limit (%d)",
			c.Governance.PerHourLimit, c.Governance.PerMinuteLimit))
	}
	if c.Governance.MaxRequestBytes < 1 {
		errs = append(errs, fmt.Errorf("governance.max_request_bytes must be positive, got %d", c.Governance.MaxRequestBytes))
	}
	if c.Governance.BreakerThreshold < 1 {
		errs = append(errs, fmt.Errorf("governance.breaker_threshold must be at least 1, got %d", c.Governance.BreakerThreshold))
	}

	if c.Suggest.MinQueryLength < 1 {
		errs = append(errs, fmt.Errorf("suggest.min_query_length must be at least 1, got %d", c.Suggest.MinQueryLength))
	}
	if c.Suggest.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("suggest.max_results must be at least 1, got %d", c.Suggest.MaxResults))
	}

	if c.AI.Endpoint == "" {
		errs = append(errs, errors.New("ai.endpoint is required"))
	}
	if c.AI.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("ai.max_retries must not be negative, got %d", c.AI.MaxRetries))
	}
	if c.Geocode.Endpoint == "" && c.Suggest.ExternalLookup {
		errs = append(errs, errors.New("geocode.endpoint is required when suggest.external_lookup is enabled"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error; got %s", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %s", c.Logging.Format))
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		errs = append(errs, errors.New("logging.file_path is required when output is file"))
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive when cache is enabled, got %s", c.Cache.TTL))
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			errs = append(errs, fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port))
		}
		if c.Metrics.Port == c.Server.Port {
			errs = append(errs, errors.New("metrics.port must differ from server.port"))
		}
	}

	return errors.Join(errs...)
}
