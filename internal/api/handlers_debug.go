package api

import (
	"net/http"

	"tripplanner/internal/governor"
	"tripplanner/internal/models"
)

// GovernorDebug is the operator surface the debug handlers need.
// *governor.Governor satisfies it.
type GovernorDebug interface {
	Status(identity string) governor.Status
	Reset(identity string)
}

// GovernorStatus reports the admission state for the calling identity.
// GET /api/v1/debug/governor
func (h *Handlers) GovernorStatus(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	status := h.governor.Status(identity)

	resp := models.GovernorStatusResponse{
		Identity:        status.Identity,
		Blocked:         status.Blocked,
		RequestsLastMin: status.RequestsLastMin,
		RequestsLastHr:  status.RequestsLastHr,
		AvailableTokens: status.AvailableTokens,
		BreakerState:    status.Breaker.State.String(),
	}
	if status.Blocked {
		expires := status.BlockExpiresAt
		resp.BlockExpiresAt = &expires
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// GovernorReset clears rate-limit history, block state, and breaker state for
// the calling identity.
// POST /api/v1/debug/governor/reset
func (h *Handlers) GovernorReset(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	h.governor.Reset(identity)

	h.logger.Info("governor state reset", "identity", identity)
	w.WriteHeader(http.StatusNoContent)
}
