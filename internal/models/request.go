// Package models - API request types and input validation.
// This file defines all incoming API request structures with validation.
//
// Validation Philosophy:
// - Fail fast with clear error messages for invalid input
// - Normalize input data for consistent processing (trimmed strings, clamped limits)
// - Separate validation from normalization for clear error reporting
package models

import (
	"errors"
	"fmt"
	"strings"
)

// SuggestRequest represents a destination autocomplete request.
type SuggestRequest struct {
	Query      string `json:"query"`       // Free-text query, may be shorter than the minimum length
	MaxResults int    `json:"max_results"` // 0 means use the configured default
	Language   string `json:"language"`    // BCP47-ish language hint for the geocoder
}

// Normalize trims the query and clamps MaxResults into a sane range.
func (r *SuggestRequest) Normalize(defaultMax int) {
	r.Query = strings.TrimSpace(r.Query)
	if r.MaxResults <= 0 {
		r.MaxResults = defaultMax
	}
	if r.MaxResults > 25 {
		r.MaxResults = 25
	}
	if r.Language == "" {
		r.Language = "en"
	}
}

// PlanRequest represents a request to generate a trip plan.
type PlanRequest struct {
	Destination string   `json:"destination"`
	Country     string   `json:"country,omitempty"`
	Days        int      `json:"days"`
	Interests   []string `json:"interests,omitempty"`
	Budget      string   `json:"budget,omitempty"` // free-text hint passed to the AI prompt
	Notes       string   `json:"notes,omitempty"`
}

// Validate checks the plan request for missing or out-of-range fields.
func (r *PlanRequest) Validate() error {
	var errs []error

	if strings.TrimSpace(r.Destination) == "" {
		errs = append(errs, errors.New("destination is required"))
	}
	if r.Days < 1 || r.Days > 30 {
		errs = append(errs, fmt.Errorf("days must be between 1 and 30, got %d", r.Days))
	}
	if len(r.Interests) > 10 {
		errs = append(errs, fmt.Errorf("at most 10 interests are supported, got %d", len(r.Interests)))
	}

	return errors.Join(errs...)
}

// Normalize trims free-text fields in place.
func (r *PlanRequest) Normalize() {
	r.Destination = strings.TrimSpace(r.Destination)
	r.Country = strings.TrimSpace(r.Country)
	for i := range r.Interests {
		r.Interests[i] = strings.TrimSpace(r.Interests[i])
	}
}
