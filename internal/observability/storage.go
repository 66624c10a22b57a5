package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"
)

// InstrumentedStore wraps a storage.Store implementation with OpenTelemetry
// tracing and metrics instrumentation.
type InstrumentedStore struct {
	inner    storage.Store
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedStore creates a storage wrapper that records trace spans,
// operation latency histograms, and error counters for every store call.
func NewInstrumentedStore(inner storage.Store) (*InstrumentedStore, error) {
	tracer := otel.Tracer("tripplanner/storage")
	meter := otel.Meter("tripplanner/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStore{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStore) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
}

func (s *InstrumentedStore) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (s *InstrumentedStore) SavePlan(ctx context.Context, plan *models.TripPlan) error {
	ctx, span := s.startSpan(ctx, "SavePlan", attribute.String("plan_id", plan.ID))
	start := time.Now()
	err := s.inner.SavePlan(ctx, plan)
	s.record(ctx, span, "SavePlan", start, err)
	return err
}

func (s *InstrumentedStore) GetPlan(ctx context.Context, id string) (*models.TripPlan, error) {
	ctx, span := s.startSpan(ctx, "GetPlan", attribute.String("plan_id", id))
	start := time.Now()
	result, err := s.inner.GetPlan(ctx, id)
	s.record(ctx, span, "GetPlan", start, err)
	return result, err
}

func (s *InstrumentedStore) ListPlans(ctx context.Context) ([]*models.TripPlan, error) {
	ctx, span := s.startSpan(ctx, "ListPlans")
	start := time.Now()
	result, err := s.inner.ListPlans(ctx)
	s.record(ctx, span, "ListPlans", start, err)
	return result, err
}

func (s *InstrumentedStore) DeletePlan(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeletePlan", attribute.String("plan_id", id))
	start := time.Now()
	err := s.inner.DeletePlan(ctx, id)
	s.record(ctx, span, "DeletePlan", start, err)
	return err
}

func (s *InstrumentedStore) Destinations(ctx context.Context) ([]models.Destination, error) {
	ctx, span := s.startSpan(ctx, "Destinations")
	start := time.Now()
	result, err := s.inner.Destinations(ctx)
	s.record(ctx, span, "Destinations", start, err)
	return result, err
}

func (s *InstrumentedStore) SeedDestinations(ctx context.Context, destinations []models.Destination) error {
	ctx, span := s.startSpan(ctx, "SeedDestinations")
	start := time.Now()
	err := s.inner.SeedDestinations(ctx, destinations)
	s.record(ctx, span, "SeedDestinations", start, err)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
