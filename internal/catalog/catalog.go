// Package catalog holds the static, read-only destination dataset and its
// fuzzy lookup. The dataset is embedded in the binary and queried only
// in-process; it is the always-available fallback when external lookups are
// disabled, rate-limited, or failing.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"tripplanner/internal/models"
)

//go:embed destinations.json
var destinationsJSON []byte

// Catalog is an immutable destination list. Construct once with Load.
type Catalog struct {
	destinations []models.Destination
}

// Load parses the embedded dataset.
func Load() (*Catalog, error) {
	var destinations []models.Destination
	if err := json.Unmarshal(destinationsJSON, &destinations); err != nil {
		return nil, fmt.Errorf("failed to parse embedded destination dataset: %w", err)
	}
	return &Catalog{destinations: destinations}, nil
}

// FromDestinations builds a catalog from an explicit list. Used by tests and
// by deployments that override the dataset from storage.
func FromDestinations(destinations []models.Destination) *Catalog {
	copied := make([]models.Destination, len(destinations))
	copy(copied, destinations)
	return &Catalog{destinations: copied}
}

// All returns a copy of every destination.
func (c *Catalog) All() []models.Destination {
	out := make([]models.Destination, len(c.destinations))
	copy(out, c.destinations)
	return out
}

// Len returns the dataset size.
func (c *Catalog) Len() int {
	return len(c.destinations)
}

// TopByPopularity returns the n most popular destinations, the curated list
// served for queries shorter than the minimum length.
func (c *Catalog) TopByPopularity(n int) []models.EnhancedResult {
	sorted := c.All()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Popularity > sorted[j].Popularity
	})
	if n > len(sorted) {
		n = len(sorted)
	}

	results := make([]models.EnhancedResult, 0, n)
	for _, d := range sorted[:n] {
		results = append(results, toResult(d, substringScore))
	}
	return results
}

// Search fuzzy-matches the query against destination names and display names,
// returning scored local results ordered by confidence then popularity.
// Results scoring below MinScore are excluded.
func (c *Catalog) Search(query string, limit int) []models.EnhancedResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var results []models.EnhancedResult
	for _, d := range c.destinations {
		score := Score(query, d.Name, d.Popularity)
		if alt := Score(query, d.DisplayName, d.Popularity); alt > score {
			score = alt
		}
		if score < MinScore {
			continue
		}
		results = append(results, toResult(d, score))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Popularity > results[j].Popularity
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func toResult(d models.Destination, confidence int) models.EnhancedResult {
	return models.EnhancedResult{
		Name:        d.Name,
		Country:     d.Country,
		DisplayName: d.DisplayName,
		Type:        d.Type,
		Popularity:  d.Popularity,
		Source:      models.SourceLocal,
		Confidence:  confidence,
	}
}
