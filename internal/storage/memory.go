package storage

import (
	"context"
	"sort"
	"sync"

	"tripplanner/internal/models"
)

// MemoryStore implements the Store interface using in-memory data
// structures. It is the default backend for development and testing: fast,
// thread-safe, and forgetful across restarts.
type MemoryStore struct {
	mu           sync.RWMutex
	plans        map[string]*models.TripPlan
	destinations []models.Destination
}

// NewMemoryStore creates a new memory-backed store.
func NewMemoryStore(config Config) (*MemoryStore, error) {
	return &MemoryStore{
		plans: make(map[string]*models.TripPlan),
	}, nil
}

// SavePlan stores or replaces a trip plan.
func (m *MemoryStore) SavePlan(ctx context.Context, plan *models.TripPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Store a copy to prevent external modification
	planCopy := copyPlan(plan)
	m.plans[plan.ID] = planCopy
	return nil
}

// GetPlan retrieves a plan by its ID.
func (m *MemoryStore) GetPlan(ctx context.Context, id string) (*models.TripPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan, exists := m.plans[id]
	if !exists {
		return nil, ErrPlanNotFound
	}
	return copyPlan(plan), nil
}

// ListPlans returns all stored plans, newest first.
func (m *MemoryStore) ListPlans(ctx context.Context) ([]*models.TripPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plans := make([]*models.TripPlan, 0, len(m.plans))
	for _, plan := range m.plans {
		plans = append(plans, copyPlan(plan))
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[j].CreatedAt.Before(plans[i].CreatedAt)
	})
	return plans, nil
}

// DeletePlan removes a plan by its ID.
func (m *MemoryStore) DeletePlan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plans[id]; !exists {
		return ErrPlanNotFound
	}
	delete(m.plans, id)
	return nil
}

// Destinations returns the persisted destination catalog.
func (m *MemoryStore) Destinations(ctx context.Context) ([]models.Destination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Destination, len(m.destinations))
	copy(result, m.destinations)
	return result, nil
}

// SeedDestinations replaces the persisted destination catalog.
func (m *MemoryStore) SeedDestinations(ctx context.Context, destinations []models.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.destinations = make([]models.Destination, len(destinations))
	copy(m.destinations, destinations)
	return nil
}

// Close is a no-op for memory storage.
func (m *MemoryStore) Close() error {
	return nil
}

// copyPlan deep-copies a plan so callers cannot mutate stored state.
func copyPlan(plan *models.TripPlan) *models.TripPlan {
	planCopy := *plan
	planCopy.Interests = append([]string(nil), plan.Interests...)
	planCopy.Itinerary = make([]models.ItineraryDay, len(plan.Itinerary))
	for i, day := range plan.Itinerary {
		dayCopy := day
		dayCopy.Activities = append([]string(nil), day.Activities...)
		planCopy.Itinerary[i] = dayCopy
	}
	return &planCopy
}
