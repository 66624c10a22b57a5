// Package upstream contains the outbound AI and geocoding clients plus the
// shared error taxonomy for everything that can go wrong between admission
// and a usable response.
package upstream

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an upstream or governance failure. The kind decides both
// whether a retry can help and whether the failure counts against the
// process-wide circuit breaker.
type Kind string

const (
	// KindRateLimited - admission rejected by rate limits. Retryable after
	// the hint; never a breaker event (the request never reached the network).
	KindRateLimited Kind = "rate_limit_exceeded"

	// KindIdentityBlocked - the client identity is temporarily blocked.
	KindIdentityBlocked Kind = "identity_blocked"

	// KindPayloadTooLarge - request exceeds the size policy. Not retryable;
	// the caller must shrink the request.
	KindPayloadTooLarge Kind = "payload_too_large"

	// KindCircuitOpen - the breaker is open; systemic upstream distress
	// independent of the caller's identity.
	KindCircuitOpen Kind = "circuit_open"

	// KindTimeout - the upstream call exceeded its deadline. Retryable and
	// counted toward the breaker.
	KindTimeout Kind = "timeout"

	// KindNetworkError - transport failure or upstream 5xx. Retryable and
	// counted toward the breaker.
	KindNetworkError Kind = "network_error"

	// KindMalformedResponse - the transport succeeded but the content is
	// unusable (bad JSON, schema mismatch, incompatible schema version).
	// Not retryable: a retry reproduces the same bad content. Not a breaker
	// event: the service is reachable, its output is wrong.
	KindMalformedResponse Kind = "malformed_response"

	// KindClientError - upstream 4xx other than 429. Not retryable and never
	// a breaker event.
	KindClientError Kind = "upstream_client_error"
)

// RequestError is the error type for all upstream and governance failures.
type RequestError struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // Meaningful for rate-limit, block, and circuit rejections
	StatusCode int           // Upstream HTTP status, when one was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same request can succeed.
func (e *RequestError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetworkError:
		return true
	default:
		return false
	}
}

// BreakerFailure reports whether this failure should count against the
// circuit breaker. Only failures that suggest the upstream host is down or
// unreachable qualify; content problems and local governance rejections
// never do.
func (e *RequestError) BreakerFailure() bool {
	switch e.Kind {
	case KindTimeout, KindNetworkError:
		return true
	default:
		return false
	}
}

// KindOf extracts the Kind from an error chain, or "" if the chain holds no
// RequestError.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// RetryAfterOf extracts the retry hint from an error chain, zero if none.
func RetryAfterOf(err error) time.Duration {
	var re *RequestError
	if errors.As(err, &re) {
		return re.RetryAfter
	}
	return 0
}

// Error constructors.

func NewRateLimited(message string, retryAfter time.Duration) *RequestError {
	return &RequestError{Kind: KindRateLimited, Message: message, RetryAfter: retryAfter, StatusCode: 429}
}

func NewIdentityBlocked(retryAfter time.Duration) *RequestError {
	return &RequestError{Kind: KindIdentityBlocked, Message: "client identity is temporarily blocked", RetryAfter: retryAfter}
}

func NewPayloadTooLarge(sizeBytes, limit int) *RequestError {
	return &RequestError{
		Kind:    KindPayloadTooLarge,
		Message: fmt.Sprintf("request size %d exceeds the %d byte limit", sizeBytes, limit),
	}
}

func NewCircuitOpen(retryAfter time.Duration) *RequestError {
	return &RequestError{Kind: KindCircuitOpen, Message: "upstream circuit breaker is open", RetryAfter: retryAfter}
}

func NewTimeout(message string, err error) *RequestError {
	return &RequestError{Kind: KindTimeout, Message: message, Err: err}
}

func NewNetworkError(message string, statusCode int, err error) *RequestError {
	return &RequestError{Kind: KindNetworkError, Message: message, StatusCode: statusCode, Err: err}
}

func NewMalformedResponse(message string, err error) *RequestError {
	return &RequestError{Kind: KindMalformedResponse, Message: message, Err: err}
}

func NewClientError(message string, statusCode int) *RequestError {
	return &RequestError{Kind: KindClientError, Message: message, StatusCode: statusCode}
}
