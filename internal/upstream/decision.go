package upstream

import (
	"tripplanner/internal/governor"
)

// FromDecision converts a rejected admission decision into the matching
// RequestError. Callers must not pass an allowed decision.
func FromDecision(d governor.Decision) *RequestError {
	switch d.Reason {
	case governor.ReasonCircuitOpen:
		return NewCircuitOpen(d.RetryAfter)
	case governor.ReasonBlocked, governor.ReasonSuspicious:
		return NewIdentityBlocked(d.RetryAfter)
	case governor.ReasonPayloadTooLarge:
		return &RequestError{Kind: KindPayloadTooLarge, Message: "request exceeds the size policy"}
	default:
		return NewRateLimited("admission rejected: "+string(d.Reason), d.RetryAfter)
	}
}
