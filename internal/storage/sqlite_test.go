package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(Config{
		ConnectionString: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RequiresConnectionString(t *testing.T) {
	_, err := NewSQLiteStore(Config{})
	require.Error(t, err)
}

func TestSQLiteStore_PlanCRUD(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	plan := samplePlan("plan-1", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.SavePlan(ctx, plan))

	got, err := store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)
	assert.Equal(t, plan.Destination, got.Destination)
	assert.Equal(t, plan.Days, got.Days)
	assert.Equal(t, plan.Interests, got.Interests)
	assert.Equal(t, plan.Itinerary, got.Itinerary)
	assert.Equal(t, plan.Source, got.Source)
	assert.True(t, plan.CreatedAt.Equal(got.CreatedAt))

	// Saving the same ID again replaces the stored plan.
	plan.Summary = "Updated summary."
	require.NoError(t, store.SavePlan(ctx, plan))
	got, err = store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated summary.", got.Summary)

	require.NoError(t, store.DeletePlan(ctx, "plan-1"))
	_, err = store.GetPlan(ctx, "plan-1")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestSQLiteStore_MissingPlan(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.GetPlan(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	assert.ErrorIs(t, store.DeletePlan(context.Background(), "nope"), ErrPlanNotFound)
}

func TestSQLiteStore_ListPlansNewestFirst(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SavePlan(ctx, samplePlan("old", base.Add(-time.Hour))))
	require.NoError(t, store.SavePlan(ctx, samplePlan("new", base)))

	plans, err := store.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "new", plans[0].ID)
	assert.Equal(t, "old", plans[1].ID)
}

func TestSQLiteStore_SeedDestinations(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.SeedDestinations(ctx, sampleDestinations()))

	got, err := store.Destinations(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Reseeding replaces the catalog.
	require.NoError(t, store.SeedDestinations(ctx, sampleDestinations()[:1]))
	got, err = store.Destinations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Roma", got[0].Name)
}
