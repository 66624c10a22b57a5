package plan

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"tripplanner/internal/models"
	"tripplanner/internal/upstream"
)

// ServiceError represents errors from the plan service with HTTP context.
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error constructors for common service errors

func NewValidationError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeValidation,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewPlanNotFoundError(id string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeNotFound,
		Message:    fmt.Sprintf("plan '%s' not found", id),
		StatusCode: http.StatusNotFound,
	}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// fromUpstream maps the request error taxonomy onto HTTP-facing service
// errors, preserving retry hints.
func fromUpstream(err error) *ServiceError {
	var re *upstream.RequestError
	if !errors.As(err, &re) {
		return NewInternalError("plan generation failed", err)
	}

	switch re.Kind {
	case upstream.KindRateLimited:
		return &ServiceError{
			Code:       models.ErrorCodeRateLimited,
			Message:    "rate limit exceeded, slow down",
			StatusCode: http.StatusTooManyRequests,
			RetryAfter: re.RetryAfter,
			Err:        err,
		}
	case upstream.KindIdentityBlocked:
		return &ServiceError{
			Code:       models.ErrorCodeIdentityBlocked,
			Message:    "client is temporarily blocked",
			StatusCode: http.StatusTooManyRequests,
			RetryAfter: re.RetryAfter,
			Err:        err,
		}
	case upstream.KindPayloadTooLarge:
		return &ServiceError{
			Code:       models.ErrorCodePayloadTooLarge,
			Message:    "request exceeds the size limit",
			StatusCode: http.StatusRequestEntityTooLarge,
			Err:        err,
		}
	case upstream.KindCircuitOpen:
		return &ServiceError{
			Code:       models.ErrorCodeCircuitOpen,
			Message:    "service is recovering from upstream failures, try again later",
			StatusCode: http.StatusServiceUnavailable,
			RetryAfter: re.RetryAfter,
			Err:        err,
		}
	case upstream.KindMalformedResponse:
		return &ServiceError{
			Code:       models.ErrorCodeMalformedUpstream,
			Message:    "upstream returned an unusable plan",
			StatusCode: http.StatusBadGateway,
			Err:        err,
		}
	case upstream.KindTimeout, upstream.KindNetworkError, upstream.KindClientError:
		return &ServiceError{
			Code:       models.ErrorCodeUpstreamFailure,
			Message:    "plan generation failed upstream",
			StatusCode: http.StatusBadGateway,
			Err:        err,
		}
	default:
		return NewInternalError("plan generation failed", err)
	}
}
