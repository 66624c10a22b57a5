// Package config loads service configuration from defaults, an optional YAML
// file, and TRIPPLANNER_* environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tripplanner/internal/models"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("TRIPPLANNER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("TRIPPLANNER_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("TRIPPLANNER_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("TRIPPLANNER_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("TRIPPLANNER_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	// Storage configuration
	if storageType := os.Getenv("TRIPPLANNER_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}

	if storagePath := os.Getenv("TRIPPLANNER_STORAGE_PATH"); storagePath != "" {
		config.Storage.Path = storagePath
	}

	if dsn := os.Getenv("TRIPPLANNER_DATABASE_DSN"); dsn != "" {
		config.Storage.Database.DSN = dsn
	}

	if driver := os.Getenv("TRIPPLANNER_DATABASE_DRIVER"); driver != "" {
		config.Storage.Database.Driver = driver
	}

	// Governance configuration
	if capacity := os.Getenv("TRIPPLANNER_BUCKET_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			config.Governance.BucketCapacity = c
		}
	}

	if refill := os.Getenv("TRIPPLANNER_REFILL_PER_SECOND"); refill != "" {
		if r, err := strconv.ParseFloat(refill, 64); err == nil {
			config.Governance.RefillPerSecond = r
		}
	}

	if limit := os.Getenv("TRIPPLANNER_PER_MINUTE_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Governance.PerMinuteLimit = l
		}
	}

	if limit := os.Getenv("TRIPPLANNER_PER_HOUR_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Governance.PerHourLimit = l
		}
	}

	if size := os.Getenv("TRIPPLANNER_MAX_REQUEST_BYTES"); size != "" {
		if s, err := strconv.Atoi(size); err == nil {
			config.Governance.MaxRequestBytes = s
		}
	}

	if block := os.Getenv("TRIPPLANNER_BLOCK_DURATION"); block != "" {
		if d, err := time.ParseDuration(block); err == nil {
			config.Governance.BlockDuration = d
		}
	}

	// Suggest configuration
	if external := os.Getenv("TRIPPLANNER_EXTERNAL_LOOKUP"); external != "" {
		config.Suggest.ExternalLookup = strings.ToLower(external) == "true"
	}

	if fallback := os.Getenv("TRIPPLANNER_FALLBACK_TO_LOCAL"); fallback != "" {
		config.Suggest.FallbackToLocal = strings.ToLower(fallback) == "true"
	}

	if max := os.Getenv("TRIPPLANNER_MAX_RESULTS"); max != "" {
		if m, err := strconv.Atoi(max); err == nil {
			config.Suggest.MaxResults = m
		}
	}

	// AI configuration
	if endpoint := os.Getenv("TRIPPLANNER_AI_ENDPOINT"); endpoint != "" {
		config.AI.Endpoint = endpoint
	}

	if apiKey := os.Getenv("TRIPPLANNER_AI_API_KEY"); apiKey != "" {
		config.AI.APIKey = apiKey
	}

	if model := os.Getenv("TRIPPLANNER_AI_MODEL"); model != "" {
		config.AI.Model = model
	}

	if timeout := os.Getenv("TRIPPLANNER_AI_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.AI.Timeout = d
		}
	}

	if retries := os.Getenv("TRIPPLANNER_AI_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.AI.MaxRetries = r
		}
	}

	if mock := os.Getenv("TRIPPLANNER_AI_MOCK_FALLBACK"); mock != "" {
		config.AI.MockFallback = strings.ToLower(mock) == "true"
	}

	// Geocode configuration
	if endpoint := os.Getenv("TRIPPLANNER_GEOCODE_ENDPOINT"); endpoint != "" {
		config.Geocode.Endpoint = endpoint
	}

	if timeout := os.Getenv("TRIPPLANNER_GEOCODE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Geocode.Timeout = d
		}
	}

	// Logging configuration
	if level := os.Getenv("TRIPPLANNER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("TRIPPLANNER_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("TRIPPLANNER_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("TRIPPLANNER_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Cache configuration
	if cache := os.Getenv("TRIPPLANNER_CACHE_ENABLED"); cache != "" {
		config.Cache.Enabled = strings.ToLower(cache) == "true"
	}

	if ttl := os.Getenv("TRIPPLANNER_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.TTL = d
		}
	}

	// Metrics configuration
	if metrics := os.Getenv("TRIPPLANNER_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("TRIPPLANNER_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("TRIPPLANNER_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if name := os.Getenv("TRIPPLANNER_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	if tracing := os.Getenv("TRIPPLANNER_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("TRIPPLANNER_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("TRIPPLANNER_TRACING_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.Endpoint = endpoint
	}
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Get default config with some example values
	config := models.NewDefaultConfig()

	config.AI.APIKey = "tp_your-api-key-here"
	config.Storage.Type = models.StorageTypeSQLite
	config.Storage.Database.DSN = "file:tripplanner.db"
	config.Observability.Tracing.Enabled = true

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Write to file
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
