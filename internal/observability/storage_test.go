package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"
)

func setupMemoryStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewMemoryStore(storage.Config{Type: "memory"})
	require.NoError(t, err)
	return s
}

func testPlan(id string) *models.TripPlan {
	return &models.TripPlan{
		ID:          id,
		Destination: "Roma",
		Days:        2,
		Summary:     "Two days in Rome.",
		Itinerary: []models.ItineraryDay{
			{Day: 1, Title: "Centro", Activities: []string{"Colosseo"}},
			{Day: 2, Title: "Vaticano", Activities: []string{"Musei"}},
		},
		Source:    models.PlanSourceAI,
		CreatedAt: time.Now().UTC(),
	}
}

func TestNewInstrumentedStore(t *testing.T) {
	setupMeterProvider(t)
	instrumented, err := NewInstrumentedStore(setupMemoryStore(t))
	require.NoError(t, err)
	assert.NotNil(t, instrumented)
}

func TestInstrumentedStore_PlanOperations(t *testing.T) {
	setupMeterProvider(t)
	instrumented, err := NewInstrumentedStore(setupMemoryStore(t))
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, instrumented.SavePlan(ctx, testPlan("plan-1")))

	got, err := instrumented.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", got.ID)

	plans, err := instrumented.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	require.NoError(t, instrumented.DeletePlan(ctx, "plan-1"))

	_, err = instrumented.GetPlan(ctx, "plan-1")
	assert.ErrorIs(t, err, storage.ErrPlanNotFound)
}

func TestInstrumentedStore_DestinationOperations(t *testing.T) {
	setupMeterProvider(t)
	instrumented, err := NewInstrumentedStore(setupMemoryStore(t))
	require.NoError(t, err)

	ctx := context.Background()
	destinations := []models.Destination{
		{Name: "Roma", Country: "Italia", DisplayName: "Roma, Italia", Type: models.DestinationCity, Popularity: 10},
	}

	require.NoError(t, instrumented.SeedDestinations(ctx, destinations))

	got, err := instrumented.Destinations(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	assert.NoError(t, instrumented.Close())
}

func TestInstrumentedStore_ErrorsPropagate(t *testing.T) {
	setupMeterProvider(t)
	instrumented, err := NewInstrumentedStore(setupMemoryStore(t))
	require.NoError(t, err)

	_, err = instrumented.GetPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrPlanNotFound)
}
