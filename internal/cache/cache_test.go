package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/models"
)

// testClock lets tests advance time without sleeping.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	return c.t
}

func newTestCache(t *testing.T) (*ResultCache, *testClock) {
	t.Helper()
	c := New(5*time.Minute, 0) // sweep disabled; tests call SweepExpired directly
	t.Cleanup(c.Close)

	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.now
	return c, clock
}

func someResults() []models.EnhancedResult {
	return []models.EnhancedResult{
		{Name: "Roma", Country: "Italia", Source: models.SourceLocal, Confidence: 100, Popularity: 9},
	}
}

func TestKey_Normalization(t *testing.T) {
	assert.Equal(t, Key("  Rome ", 5), Key("rome", 5))
	assert.NotEqual(t, Key("rome", 5), Key("rome", 10),
		"different limits must not collide")
}

func TestResultCache_TTLRoundTrip(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set(Key("roma", 5), someResults(), time.Second)

	got, ok := c.Get(Key("roma", 5))
	require.True(t, ok)
	assert.Equal(t, someResults(), got)

	clock.t = clock.t.Add(1001 * time.Millisecond)
	_, ok = c.Get(Key("roma", 5))
	assert.False(t, ok, "entries past their TTL are absent")
	assert.Equal(t, 0, c.Size(), "expired entries are evicted on read")
}

func TestResultCache_DefaultTTL(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", someResults(), 0)

	clock.t = clock.t.Add(4 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.t = clock.t.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestResultCache_GetReturnsCopy(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("k", someResults(), time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	got[0].Name = "mutated"

	again, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "Roma", again[0].Name)
}

func TestResultCache_SweepExpired(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("a", someResults(), time.Second)
	c.Set("b", someResults(), time.Hour)
	clock.t = clock.t.Add(2 * time.Second)

	assert.Equal(t, 1, c.SweepExpired())
	assert.Equal(t, 1, c.Size())

	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestResultCache_Clear(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("a", someResults(), time.Hour)
	c.Set("b", someResults(), time.Hour)
	c.Clear()

	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
