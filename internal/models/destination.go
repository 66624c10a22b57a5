// Package models - Destination catalog and suggestion entities.
package models

// DestinationType classifies a catalog or suggestion entry.
type DestinationType string

const (
	DestinationCity    DestinationType = "city"
	DestinationCountry DestinationType = "country"
	DestinationRegion  DestinationType = "region"
)

// ResultSource records where a suggestion came from. Callers can use it to
// tell fresh upstream data apart from local or cached fallbacks.
type ResultSource string

const (
	SourceLocal ResultSource = "local"
	SourceAPI   ResultSource = "api"
	SourceCache ResultSource = "cache"
	SourceMixed ResultSource = "mixed"
)

// Destination is one entry of the static, read-only destination catalog.
type Destination struct {
	Name        string          `json:"name"`
	Country     string          `json:"country"`
	DisplayName string          `json:"display_name"`
	Type        DestinationType `json:"type"`
	Popularity  int             `json:"popularity"` // 1..10, higher is more popular
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EnhancedResult is a scored suggestion produced by merging local catalog
// matches with external geocoding results.
//
// Ordering is not inherent to the entity; ranking is a view computed by the
// suggestion service.
type EnhancedResult struct {
	Name        string          `json:"name"`
	Country     string          `json:"country"`
	DisplayName string          `json:"display_name"`
	Type        DestinationType `json:"type"`
	Popularity  int             `json:"popularity"`            // 1..10
	Coordinates *Coordinates    `json:"coordinates,omitempty"` // Unknown for purely local matches
	Source      ResultSource    `json:"source"`
	Confidence  int             `json:"confidence"` // 0..100
}
