package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/models"
)

func samplePlan(id string, createdAt time.Time) *models.TripPlan {
	return &models.TripPlan{
		ID:          id,
		Destination: "Roma",
		Country:     "Italia",
		Days:        3,
		Interests:   []string{"food", "history"},
		Summary:     "Three days of food and ruins.",
		Itinerary: []models.ItineraryDay{
			{Day: 1, Title: "Centro storico", Activities: []string{"Colosseo", "Foro Romano"}},
			{Day: 2, Title: "Vaticano", Activities: []string{"Musei Vaticani"}},
			{Day: 3, Title: "Trastevere", Activities: []string{"walking tour", "dinner"}},
		},
		Source:    models.PlanSourceAI,
		CreatedAt: createdAt,
	}
}

func sampleDestinations() []models.Destination {
	return []models.Destination{
		{Name: "Roma", Country: "Italia", DisplayName: "Roma, Italia", Type: models.DestinationCity, Popularity: 10},
		{Name: "Parigi", Country: "Francia", DisplayName: "Parigi, Francia", Type: models.DestinationCity, Popularity: 10},
	}
}

func TestMemoryStore_PlanCRUD(t *testing.T) {
	store, err := NewMemoryStore(Config{})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	plan := samplePlan("plan-1", time.Now().UTC())

	require.NoError(t, store.SavePlan(ctx, plan))

	got, err := store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, plan, got)

	require.NoError(t, store.DeletePlan(ctx, "plan-1"))

	_, err = store.GetPlan(ctx, "plan-1")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestMemoryStore_GetMissingPlan(t *testing.T) {
	store, err := NewMemoryStore(Config{})
	require.NoError(t, err)

	_, err = store.GetPlan(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	assert.ErrorIs(t, store.DeletePlan(context.Background(), "nope"), ErrPlanNotFound)
}

func TestMemoryStore_ListPlansNewestFirst(t *testing.T) {
	store, err := NewMemoryStore(Config{})
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Now().UTC()
	require.NoError(t, store.SavePlan(ctx, samplePlan("old", base.Add(-time.Hour))))
	require.NoError(t, store.SavePlan(ctx, samplePlan("new", base)))
	require.NoError(t, store.SavePlan(ctx, samplePlan("mid", base.Add(-30*time.Minute))))

	plans, err := store.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "new", plans[0].ID)
	assert.Equal(t, "mid", plans[1].ID)
	assert.Equal(t, "old", plans[2].ID)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store, err := NewMemoryStore(Config{})
	require.NoError(t, err)

	ctx := context.Background()
	plan := samplePlan("plan-1", time.Now().UTC())
	require.NoError(t, store.SavePlan(ctx, plan))

	// Mutating the original after save must not affect stored state.
	plan.Itinerary[0].Activities[0] = "changed"

	got, err := store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "Colosseo", got.Itinerary[0].Activities[0])

	// Mutating a retrieved plan must not affect stored state either.
	got.Interests[0] = "changed"

	again, err := store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "food", again.Interests[0])
}

func TestMemoryStore_SeedDestinations(t *testing.T) {
	store, err := NewMemoryStore(Config{})
	require.NoError(t, err)

	ctx := context.Background()

	empty, err := store.Destinations(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.SeedDestinations(ctx, sampleDestinations()))

	got, err := store.Destinations(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Seeding again replaces rather than appends.
	require.NoError(t, store.SeedDestinations(ctx, sampleDestinations()[:1]))
	got, err = store.Destinations(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
