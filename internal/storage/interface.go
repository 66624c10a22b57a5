package storage

import (
	"context"

	"tripplanner/internal/models"
)

// Store defines the persistence interface for generated trip plans and the
// seeded destination catalog. It can be backed by memory, a JSON file,
// SQLite, or PostgreSQL.
type Store interface {
	// SavePlan stores or replaces a trip plan
	SavePlan(ctx context.Context, plan *models.TripPlan) error

	// GetPlan retrieves a plan by its ID
	GetPlan(ctx context.Context, id string) (*models.TripPlan, error)

	// ListPlans returns all stored plans, newest first
	ListPlans(ctx context.Context) ([]*models.TripPlan, error)

	// DeletePlan removes a plan by its ID
	DeletePlan(ctx context.Context, id string) error

	// Destinations returns the persisted destination catalog
	Destinations(ctx context.Context) ([]models.Destination, error)

	// SeedDestinations replaces the persisted destination catalog
	SeedDestinations(ctx context.Context, destinations []models.Destination) error

	// Close releases the backend's resources
	Close() error
}

// Config holds backend-agnostic storage settings, derived from
// models.StorageConfig by the factory.
type Config struct {
	// Type selects the backend (json, memory, sqlite, postgres)
	Type string

	// Path is used by file-based backends
	Path string

	// ConnectionString is used by database backends
	ConnectionString string

	// Options carries backend-specific settings
	Options map[string]string
}
