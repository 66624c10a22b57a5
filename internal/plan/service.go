// Package plan generates trip itineraries through the governed upstream AI
// path: admission check, retry with backoff, breaker accounting, and a mock
// fallback that keeps the product usable during outages.
package plan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tripplanner/internal/governor"
	"tripplanner/internal/models"
	"tripplanner/internal/storage"
	"tripplanner/internal/upstream"
)

const planEndpoint = "plan"

// Generator produces one itinerary per call. *upstream.AIClient satisfies it.
type Generator interface {
	GeneratePlan(ctx context.Context, req models.PlanRequest) (*models.TripPlan, error)
}

// Admitter gates outbound requests. *governor.Governor satisfies it.
type Admitter interface {
	Admit(identity string, sizeBytes int, endpoint string) governor.Decision
}

// FailureRecorder receives the outcome of terminal upstream attempts.
// *governor.Breaker satisfies it.
type FailureRecorder interface {
	RecordFailure()
	RecordSuccess()
}

// Service handles plan generation and retrieval.
type Service struct {
	cfg     models.AIConfig
	ai      Generator
	admit   Admitter
	breaker FailureRecorder
	store   storage.Store
	logger  *slog.Logger
}

func NewService(cfg models.AIConfig, ai Generator, admit Admitter, breaker FailureRecorder, store storage.Store, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		ai:      ai,
		admit:   admit,
		breaker: breaker,
		store:   store,
		logger:  logger.With("component", "plan"),
	}
}

// GeneratePlan runs the full governed generation flow for one identity.
//
// The size estimate is computed from the serialized upstream payload before
// any network activity, rejected admissions fail immediately with a retry
// hint, and only terminal transport failures reach the breaker. A malformed
// upstream response is surfaced as its own error: retrying will not fix a
// structurally bad response and the service itself is not down.
func (s *Service) GeneratePlan(ctx context.Context, identity string, req models.PlanRequest) (*models.TripPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, NewValidationError("invalid plan request", err)
	}
	req.Normalize()

	size := upstream.EstimatePlanRequestSize(req, s.cfg.Model)
	if decision := s.admit.Admit(identity, size, planEndpoint); !decision.Allowed {
		s.logger.Info("plan request rejected",
			"identity", identity,
			"reason", decision.Reason,
			"retry_after", decision.RetryAfter)
		return nil, fromUpstream(upstream.FromDecision(decision))
	}

	generated, err := upstream.Retry(ctx, s.cfg.MaxRetries, func() (*models.TripPlan, error) {
		return s.ai.GeneratePlan(ctx, req)
	})
	if err != nil {
		return s.handleFailure(ctx, identity, req, err)
	}

	s.breaker.RecordSuccess()
	return s.finalize(ctx, generated), nil
}

// handleFailure records breaker state for terminal transport failures and
// serves the mock itinerary when fallback is enabled and the failure is the
// systemic kind a mock can paper over.
func (s *Service) handleFailure(ctx context.Context, identity string, req models.PlanRequest, err error) (*models.TripPlan, error) {
	var re *upstream.RequestError
	if errors.As(err, &re) && re.BreakerFailure() {
		s.breaker.RecordFailure()

		if s.cfg.MockFallback {
			s.logger.Warn("plan generation failed, serving mock itinerary",
				"identity", identity,
				"destination", req.Destination,
				"error", err)
			return s.finalize(ctx, mockPlan(req)), nil
		}
	}

	s.logger.Error("plan generation failed",
		"identity", identity,
		"destination", req.Destination,
		"error", err)
	return nil, fromUpstream(err)
}

// finalize assigns identity fields and persists the plan. Persistence is
// best effort: a storage failure loses history, not the response.
func (s *Service) finalize(ctx context.Context, plan *models.TripPlan) *models.TripPlan {
	plan.ID = uuid.New().String()
	plan.CreatedAt = time.Now().UTC()

	if s.store != nil {
		if err := s.store.SavePlan(ctx, plan); err != nil {
			s.logger.Warn("failed to persist plan", "plan_id", plan.ID, "error", err)
		}
	}
	return plan
}

// GetPlan retrieves a previously generated plan.
func (s *Service) GetPlan(ctx context.Context, id string) (*models.TripPlan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			return nil, NewPlanNotFoundError(id)
		}
		return nil, NewInternalError("failed to load plan", err)
	}
	return plan, nil
}

// ListPlans returns all stored plans, newest first.
func (s *Service) ListPlans(ctx context.Context) ([]*models.TripPlan, error) {
	plans, err := s.store.ListPlans(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list plans", err)
	}
	return plans, nil
}

// DeletePlan removes a stored plan.
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	if err := s.store.DeletePlan(ctx, id); err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			return NewPlanNotFoundError(id)
		}
		return NewInternalError("failed to delete plan", err)
	}
	return nil
}
