package observability

import (
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"tripplanner/internal/governor"
)

type recordingAdmitter struct {
	decision governor.Decision
	calls    int
}

func (a *recordingAdmitter) Admit(identity string, sizeBytes int, endpoint string) governor.Decision {
	a.calls++
	return a.decision
}

func setupMeterProvider(t *testing.T) *promclient.Registry {
	t.Helper()

	registry := promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	require.NoError(t, err)

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	return registry
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, family := range families {
		if strings.Contains(family.GetName(), name) {
			return family
		}
	}
	return nil
}

func TestInstrumentedGovernor_CountsDecisions(t *testing.T) {
	registry := setupMeterProvider(t)

	inner := &recordingAdmitter{decision: governor.Decision{Allowed: true}}
	instrumented, err := NewInstrumentedGovernor(inner)
	require.NoError(t, err)

	for range 3 {
		decision := instrumented.Admit("id-1", 512, "plan")
		assert.True(t, decision.Allowed)
	}

	inner.decision = governor.Decision{Reason: governor.ReasonPerMinuteLimit, RetryAfter: time.Minute}
	rejected := instrumented.Admit("id-1", 512, "plan")
	assert.False(t, rejected.Allowed)

	assert.Equal(t, 4, inner.calls)

	families, err := registry.Gather()
	require.NoError(t, err)

	admissions := findFamily(families, "governor_admissions")
	require.NotNil(t, admissions, "admission counter not exported")

	var total float64
	outcomes := map[string]bool{}
	for _, m := range admissions.GetMetric() {
		total += m.GetCounter().GetValue()
		for _, label := range m.GetLabel() {
			if label.GetName() == "outcome" {
				outcomes[label.GetValue()] = true
			}
		}
	}
	assert.Equal(t, 4.0, total)
	assert.True(t, outcomes["allowed"])
	assert.True(t, outcomes["per_minute_limit"])

	sizes := findFamily(families, "governor_request_size")
	require.NotNil(t, sizes, "request size histogram not exported")
}

func TestRegisterBreakerGauge_TracksState(t *testing.T) {
	registry := setupMeterProvider(t)

	breaker := governor.NewBreaker(2, time.Minute, time.Minute)
	registration, err := RegisterBreakerGauge(breaker)
	require.NoError(t, err)
	defer registration.Unregister()

	families, err := registry.Gather()
	require.NoError(t, err)
	state := findFamily(families, "governor_breaker_state")
	require.NotNil(t, state, "breaker gauge not exported")
	require.Len(t, state.GetMetric(), 1)
	assert.Equal(t, 0.0, state.GetMetric()[0].GetGauge().GetValue())

	breaker.RecordFailure()
	breaker.RecordFailure()

	families, err = registry.Gather()
	require.NoError(t, err)
	state = findFamily(families, "governor_breaker_state")
	require.NotNil(t, state)
	assert.Equal(t, float64(governor.BreakerOpen), state.GetMetric()[0].GetGauge().GetValue())
}

func TestInstrumentedGovernor_PassesDecisionThrough(t *testing.T) {
	setupMeterProvider(t)

	inner := &recordingAdmitter{decision: governor.Decision{
		Reason:     governor.ReasonCircuitOpen,
		RetryAfter: 5 * time.Minute,
	}}
	instrumented, err := NewInstrumentedGovernor(inner)
	require.NoError(t, err)

	decision := instrumented.Admit("id-1", 100, "suggest")
	assert.False(t, decision.Allowed)
	assert.Equal(t, governor.ReasonCircuitOpen, decision.Reason)
	assert.Equal(t, 5*time.Minute, decision.RetryAfter)
}
