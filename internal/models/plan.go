// Package models - Trip plan entities.
package models

import "time"

// PlanSource records how a plan was produced.
const (
	PlanSourceAI   = "ai"   // Generated by the upstream AI service
	PlanSourceMock = "mock" // Served from local mock data after upstream failure
)

// TripPlan is a generated itinerary, persisted after generation.
type TripPlan struct {
	ID          string        `json:"id"`
	Destination string        `json:"destination"`
	Country     string        `json:"country,omitempty"`
	Days        int           `json:"days"`
	Interests   []string      `json:"interests,omitempty"`
	Summary     string        `json:"summary"`
	Itinerary   []ItineraryDay `json:"itinerary"`
	Source      string        `json:"source"` // ai or mock
	CreatedAt   time.Time     `json:"created_at"`
}

// ItineraryDay describes one day of a trip plan.
type ItineraryDay struct {
	Day        int      `json:"day"`
	Title      string   `json:"title"`
	Activities []string `json:"activities"`
}
