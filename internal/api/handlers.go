package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"tripplanner/internal/catalog"
	"tripplanner/internal/models"
	"tripplanner/internal/plan"
	"tripplanner/internal/storage"
	"tripplanner/internal/suggest"
	"tripplanner/internal/upstream"
	"tripplanner/internal/version"
)

// Request bodies larger than this are rejected before decoding. The
// governor applies its own, stricter size policy on the upstream payload.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP handlers for the trip planner API.
type Handlers struct {
	suggestService *suggest.Service
	planService    *plan.Service
	governor       GovernorDebug
	catalog        *catalog.Catalog
	store          storage.Store
	logger         *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(suggestService *suggest.Service, planService *plan.Service, gov GovernorDebug, cat *catalog.Catalog, store storage.Store, logger *slog.Logger) *Handlers {
	return &Handlers{
		suggestService: suggestService,
		planService:    planService,
		governor:       gov,
		catalog:        cat,
		store:          store,
		logger:         logger.With("component", "api"),
	}
}

// Suggest handles autocomplete requests.
// GET /api/v1/suggest?q=rome&max_results=8&lang=en
func (h *Handlers) Suggest(w http.ResponseWriter, r *http.Request) {
	req := models.SuggestRequest{
		Query:    r.URL.Query().Get("q"),
		Language: r.URL.Query().Get("lang"),
	}
	if maxParam := r.URL.Query().Get("max_results"); maxParam != "" {
		maxResults, err := strconv.Atoi(maxParam)
		if err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "max_results must be an integer")
			return
		}
		req.MaxResults = maxResults
	}

	result, err := h.suggestService.Suggest(r.Context(), IdentityFrom(r.Context()), req)
	if err != nil {
		if errors.Is(err, suggest.ErrStaleQuery) {
			h.writeErrorResponse(w, http.StatusConflict, models.ErrorCodeBadRequest, "query superseded by a newer one")
			return
		}
		h.writeUpstreamError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.SuggestResponse{
		Query:     req.Query,
		Results:   result.Results,
		Source:    result.Source,
		FromCache: result.FromCache,
		Degraded:  result.Degraded,
	})
}

// CreatePlan handles plan generation requests.
// POST /api/v1/plans
func (h *Handlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req models.PlanRequest
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "invalid JSON body")
		return
	}

	generated, err := h.planService.GeneratePlan(r.Context(), IdentityFrom(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, models.PlanResponse{Plan: generated})
}

// GetPlan handles plan retrieval.
// GET /api/v1/plans/{plan_id}
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	planID := mux.Vars(r)["plan_id"]

	stored, err := h.planService.GetPlan(r.Context(), planID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.PlanResponse{Plan: stored})
}

// ListPlans handles plan listing.
// GET /api/v1/plans
func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planService.ListPlans(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.ListPlansResponse{Plans: plans, Count: len(plans)})
}

// DeletePlan handles plan deletion.
// DELETE /api/v1/plans/{plan_id}
func (h *Handlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	planID := mux.Vars(r)["plan_id"]

	if err := h.planService.DeletePlan(r.Context(), planID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Destinations serves the destination catalog.
// GET /api/v1/destinations
func (h *Handlers) Destinations(w http.ResponseWriter, r *http.Request) {
	destinations, err := h.store.Destinations(r.Context())
	if err != nil || len(destinations) == 0 {
		// The embedded catalog is the source of truth; storage holds a
		// seeded copy so other tools can query it.
		destinations = h.catalog.All()
	}

	h.writeJSONResponse(w, http.StatusOK, models.DestinationsResponse{
		Destinations: destinations,
		Count:        len(destinations),
	})
}

// HealthCheck reports service liveness.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"api": "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := h.store.ListPlans(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("error: %v", err)
	} else {
		checks["storage"] = "ok"
	}

	status := "healthy"
	code := http.StatusOK
	for _, check := range checks {
		if check != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	h.writeJSONResponse(w, code, models.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   version.GetInfo().Version,
		Checks:    checks,
	})
}

// writeJSONResponse writes a JSON response.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; just log.
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes an error envelope.
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, statusCode, models.NewErrorResponse(message, errorCode))
}

// writeServiceError maps a plan service error onto the wire, setting the
// Retry-After header when the service supplied a hint.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var se *plan.ServiceError
	if !errors.As(err, &se) {
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "internal error")
		return
	}

	resp := models.NewErrorResponse(se.Message, se.Code)
	if se.RetryAfter > 0 {
		seconds := int(se.RetryAfter.Seconds() + 0.5)
		if seconds < 1 {
			seconds = 1
		}
		resp.RetryAfterSeconds = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	h.writeJSONResponse(w, se.StatusCode, resp)
}

// writeUpstreamError maps the request error taxonomy onto the wire for the
// suggestion path, which surfaces upstream errors directly.
func (h *Handlers) writeUpstreamError(w http.ResponseWriter, err error) {
	var statusCode int
	var errorCode string

	switch upstream.KindOf(err) {
	case upstream.KindRateLimited:
		statusCode, errorCode = http.StatusTooManyRequests, models.ErrorCodeRateLimited
	case upstream.KindIdentityBlocked:
		statusCode, errorCode = http.StatusTooManyRequests, models.ErrorCodeIdentityBlocked
	case upstream.KindPayloadTooLarge:
		statusCode, errorCode = http.StatusRequestEntityTooLarge, models.ErrorCodePayloadTooLarge
	case upstream.KindCircuitOpen:
		statusCode, errorCode = http.StatusServiceUnavailable, models.ErrorCodeCircuitOpen
	case upstream.KindMalformedResponse:
		statusCode, errorCode = http.StatusBadGateway, models.ErrorCodeMalformedUpstream
	case upstream.KindTimeout, upstream.KindNetworkError, upstream.KindClientError:
		statusCode, errorCode = http.StatusBadGateway, models.ErrorCodeUpstreamFailure
	default:
		statusCode, errorCode = http.StatusInternalServerError, models.ErrorCodeInternalError
	}

	resp := models.NewErrorResponse("suggestion lookup failed", errorCode)
	if retryAfter := upstream.RetryAfterOf(err); retryAfter > 0 {
		seconds := int(retryAfter.Seconds() + 0.5)
		resp.RetryAfterSeconds = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	h.writeJSONResponse(w, statusCode, resp)
}
