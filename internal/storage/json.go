package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"tripplanner/internal/models"
)

// JSONStore implements the Store interface backed by a single JSON file.
// All data is held in memory and flushed to disk on every mutation, which
// is plenty for the write rates this service sees.
type JSONStore struct {
	mu   sync.RWMutex
	path string
	data jsonFile
}

type jsonFile struct {
	Plans        map[string]*models.TripPlan `json:"plans"`
	Destinations []models.Destination        `json:"destinations"`
}

// NewJSONStore creates a JSON file-backed store, loading existing data if
// the file is present.
func NewJSONStore(config Config) (*JSONStore, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("path is required for JSON storage")
	}

	store := &JSONStore{
		path: config.Path,
		data: jsonFile{Plans: make(map[string]*models.TripPlan)},
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load storage file: %w", err)
	}
	return store, nil
}

func (j *JSONStore) load() error {
	raw, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := json.Unmarshal(raw, &j.data); err != nil {
		return fmt.Errorf("corrupt storage file %s: %w", j.path, err)
	}
	if j.data.Plans == nil {
		j.data.Plans = make(map[string]*models.TripPlan)
	}
	return nil
}

// persist writes the current state atomically via a temp file rename.
// Callers must hold the write lock.
func (j *JSONStore) persist() error {
	raw, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tripplanner-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), j.path)
}

// SavePlan stores or replaces a trip plan.
func (j *JSONStore) SavePlan(ctx context.Context, plan *models.TripPlan) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.data.Plans[plan.ID] = copyPlan(plan)
	return j.persist()
}

// GetPlan retrieves a plan by its ID.
func (j *JSONStore) GetPlan(ctx context.Context, id string) (*models.TripPlan, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	plan, exists := j.data.Plans[id]
	if !exists {
		return nil, ErrPlanNotFound
	}
	return copyPlan(plan), nil
}

// ListPlans returns all stored plans, newest first.
func (j *JSONStore) ListPlans(ctx context.Context) ([]*models.TripPlan, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	plans := make([]*models.TripPlan, 0, len(j.data.Plans))
	for _, plan := range j.data.Plans {
		plans = append(plans, copyPlan(plan))
	}

	sort.Slice(plans, func(i, k int) bool {
		return plans[k].CreatedAt.Before(plans[i].CreatedAt)
	})
	return plans, nil
}

// DeletePlan removes a plan by its ID.
func (j *JSONStore) DeletePlan(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, exists := j.data.Plans[id]; !exists {
		return ErrPlanNotFound
	}
	delete(j.data.Plans, id)
	return j.persist()
}

// Destinations returns the persisted destination catalog.
func (j *JSONStore) Destinations(ctx context.Context) ([]models.Destination, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := make([]models.Destination, len(j.data.Destinations))
	copy(result, j.data.Destinations)
	return result, nil
}

// SeedDestinations replaces the persisted destination catalog.
func (j *JSONStore) SeedDestinations(ctx context.Context, destinations []models.Destination) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.data.Destinations = make([]models.Destination, len(destinations))
	copy(j.data.Destinations, destinations)
	return j.persist()
}

// Close flushes the current state one last time.
func (j *JSONStore) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.persist()
}
