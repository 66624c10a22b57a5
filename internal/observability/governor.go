package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"tripplanner/internal/governor"
)

// Admitter is the admission surface this wrapper instruments.
// *governor.Governor satisfies it.
type Admitter interface {
	Admit(identity string, sizeBytes int, endpoint string) governor.Decision
}

// InstrumentedGovernor counts admission decisions by endpoint and outcome
// while delegating the decision itself.
type InstrumentedGovernor struct {
	inner      Admitter
	admissions metric.Int64Counter
	sizes      metric.Int64Histogram
}

// NewInstrumentedGovernor wraps an admitter with OpenTelemetry counters.
func NewInstrumentedGovernor(inner Admitter) (*InstrumentedGovernor, error) {
	meter := otel.Meter("tripplanner/governor")

	admissions, err := meter.Int64Counter(
		"governor.admissions",
		metric.WithDescription("Admission decisions by endpoint and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	sizes, err := meter.Int64Histogram(
		"governor.request.size",
		metric.WithDescription("Size in bytes of requests presented for admission"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedGovernor{
		inner:      inner,
		admissions: admissions,
		sizes:      sizes,
	}, nil
}

// RegisterBreakerGauge exports the circuit breaker state as an observable
// gauge (0=closed, 1=open, 2=half_open). The registration is returned so the
// caller can unregister it on shutdown.
func RegisterBreakerGauge(breaker *governor.Breaker) (metric.Registration, error) {
	meter := otel.Meter("tripplanner/governor")

	state, err := meter.Int64ObservableGauge(
		"governor.breaker.state",
		metric.WithDescription("Circuit breaker state (0=closed, 1=open, 2=half_open)"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(state, int64(breaker.State()))
		return nil
	}, state)
}

// Admit delegates the decision and records it.
func (g *InstrumentedGovernor) Admit(identity string, sizeBytes int, endpoint string) governor.Decision {
	decision := g.inner.Admit(identity, sizeBytes, endpoint)

	outcome := "allowed"
	if !decision.Allowed {
		outcome = string(decision.Reason)
	}

	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	)
	g.admissions.Add(ctx, 1, attrs)
	g.sizes.Record(ctx, int64(sizeBytes), metric.WithAttributes(attribute.String("endpoint", endpoint)))

	return decision
}
