// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Rich error information with codes for debugging
// - RFC3339 timestamps for international compatibility
package models

import "time"

// SuggestResponse carries a ranked suggestion list plus provenance fields so
// clients can tell cached and degraded responses apart from fresh ones.
type SuggestResponse struct {
	Query     string           `json:"query"`
	Results   []EnhancedResult `json:"results"`
	Source    ResultSource     `json:"source"`
	FromCache bool             `json:"from_cache"`
	// Degraded is set when the external lookup failed and local results were
	// served instead. The error itself is logged, not exposed.
	Degraded bool `json:"degraded,omitempty"`
}

// PlanResponse wraps a generated trip plan.
type PlanResponse struct {
	Plan *TripPlan `json:"plan"`
}

// ListPlansResponse carries stored plans.
type ListPlansResponse struct {
	Plans []*TripPlan `json:"plans"`
	Count int         `json:"count"`
}

// DestinationsResponse carries the static catalog.
type DestinationsResponse struct {
	Destinations []Destination `json:"destinations"`
	Count        int           `json:"count"`
}

// GovernorStatusResponse is the operator-facing view of the admission state
// for one client identity.
type GovernorStatusResponse struct {
	Identity        string     `json:"identity"`
	Blocked         bool       `json:"blocked"`
	BlockExpiresAt  *time.Time `json:"block_expires_at,omitempty"`
	RequestsLastMin int        `json:"requests_last_minute"`
	RequestsLastHr  int        `json:"requests_last_hour"`
	AvailableTokens float64    `json:"available_tokens"`
	BreakerState    string     `json:"breaker_state"`
}

// HealthResponse reports service liveness and dependency status.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse is the uniform error envelope for every endpoint.
type ErrorResponse struct {
	Error             string    `json:"error"`
	Code              string    `json:"code"`
	RetryAfterSeconds int       `json:"retry_after_seconds,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Error codes used across API responses.
const (
	ErrorCodeBadRequest         = "BAD_REQUEST"          // 400: Invalid request format
	ErrorCodeValidation         = "VALIDATION_ERROR"     // 422: Input validation failed
	ErrorCodeNotFound           = "NOT_FOUND"            // 404: Resource doesn't exist
	ErrorCodeRateLimited        = "RATE_LIMIT_EXCEEDED"  // 429: Admission rejected by rate limits
	ErrorCodeIdentityBlocked    = "IDENTITY_BLOCKED"     // 429: Identity is temporarily blocked
	ErrorCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"    // 413: Request exceeds the size policy
	ErrorCodeCircuitOpen        = "CIRCUIT_OPEN"         // 503: Upstream circuit breaker is open
	ErrorCodeUpstreamFailure    = "UPSTREAM_FAILURE"     // 502: Upstream call failed terminally
	ErrorCodeMalformedUpstream  = "MALFORMED_UPSTREAM"   // 502: Upstream returned unusable content
	ErrorCodeInternalError      = "INTERNAL_ERROR"       // 500: Server-side error
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE"  // 503: Service temporarily down
)

// NewErrorResponse creates an error envelope with the current timestamp.
func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}
}
