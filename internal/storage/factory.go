package storage

import (
	"fmt"

	"tripplanner/internal/models"
)

// Factory creates store instances from configuration, so backends can be
// swapped without touching call sites.
type Factory struct{}

// NewFactory creates a new storage factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a storage backend based on the provided configuration.
// Supported backends:
//   - memory: in-memory storage (default, for development and testing)
//   - json: JSON file-based storage
//   - sqlite: SQLite database storage
//   - postgres: PostgreSQL database storage
func (f *Factory) Create(config models.StorageConfig) (Store, error) {
	storageConfig := Config{
		Type:             config.Type,
		Path:             config.Path,
		ConnectionString: config.Database.DSN,
		Options:          config.Options,
	}

	switch config.Type {
	case models.StorageTypeMemory:
		return NewMemoryStore(storageConfig)
	case models.StorageTypeJSON:
		return NewJSONStore(storageConfig)
	case models.StorageTypeSQLite:
		return NewSQLiteStore(storageConfig)
	case models.StorageTypePostgres:
		return NewPostgresStore(storageConfig)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// SupportedBackends returns all supported storage backend types.
func (f *Factory) SupportedBackends() []string {
	return []string{models.StorageTypeMemory, models.StorageTypeJSON, models.StorageTypeSQLite, models.StorageTypePostgres}
}

// ValidateConfig checks that a storage configuration is usable for its type.
func (f *Factory) ValidateConfig(config models.StorageConfig) error {
	switch config.Type {
	case models.StorageTypeMemory:
		// No additional configuration required
	case models.StorageTypeJSON:
		if config.Path == "" {
			return fmt.Errorf("path is required for JSON storage")
		}
	case models.StorageTypeSQLite, models.StorageTypePostgres:
		if config.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for %s storage", config.Type)
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", config.Type)
	}
	return nil
}
