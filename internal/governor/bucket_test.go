package governor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuckets_AdmissionFairness(t *testing.T) {
	// Capacity 20, refill 0.5/s: 21 instantaneous requests admit exactly 20.
	b := NewBuckets(20, 0.5)
	now := time.Now()

	for i := 0; i < 20; i++ {
		assert.True(t, b.TryConsume("client", now), "request %d should be admitted", i+1)
	}
	assert.False(t, b.TryConsume("client", now), "21st request should be burst-limited")
}

func TestBuckets_RefillNeverExceedsCapacity(t *testing.T) {
	b := NewBuckets(20, 0.5)
	now := time.Now()

	b.TryConsume("client", now)
	assert.InDelta(t, 19.0, b.Tokens("client", now), 0.01)

	// A long idle period refills to capacity, never beyond.
	later := now.Add(24 * time.Hour)
	assert.InDelta(t, 20.0, b.Tokens("client", later), 0.01)
}

func TestBuckets_RefillMonotonic(t *testing.T) {
	b := NewBuckets(20, 0.5)
	now := time.Now()

	for i := 0; i < 20; i++ {
		b.TryConsume("client", now)
	}

	prev := b.Tokens("client", now)
	for step := time.Second; step <= 10*time.Second; step += time.Second {
		tokens := b.Tokens("client", now.Add(step))
		assert.GreaterOrEqual(t, tokens, prev, "refill must never decrease tokens")
		prev = tokens
	}
	// 0.5 tokens/s for 10s recovers about 5 tokens.
	assert.InDelta(t, 5.0, prev, 0.1)
}

func TestBuckets_DrainedBucketRecoversAfterRefill(t *testing.T) {
	b := NewBuckets(2, 1.0)
	now := time.Now()

	assert.True(t, b.TryConsume("client", now))
	assert.True(t, b.TryConsume("client", now))
	assert.False(t, b.TryConsume("client", now))

	assert.True(t, b.TryConsume("client", now.Add(1500*time.Millisecond)),
		"one second at 1 token/s refills enough for one request")
}

func TestBuckets_IdentitiesAreIndependent(t *testing.T) {
	b := NewBuckets(1, 0.5)
	now := time.Now()

	assert.True(t, b.TryConsume("a", now))
	assert.False(t, b.TryConsume("a", now))
	assert.True(t, b.TryConsume("b", now), "identity b has its own bucket")
}

func TestBuckets_UnknownIdentityReportsFullCapacity(t *testing.T) {
	b := NewBuckets(20, 0.5)
	assert.Equal(t, 20.0, b.Tokens("nobody", time.Now()))
}

func TestBuckets_PurgeIdle(t *testing.T) {
	b := NewBuckets(20, 0.5)
	now := time.Now()

	for i := 0; i < 5; i++ {
		b.TryConsume(fmt.Sprintf("client-%d", i), now.Add(-3*time.Hour))
	}
	b.TryConsume("fresh", now)
	assert.Equal(t, 6, b.Size())

	purged := b.PurgeIdle(now.Add(-2 * time.Hour))
	assert.Equal(t, 5, purged)
	assert.Equal(t, 1, b.Size())
}

func TestBuckets_Remove(t *testing.T) {
	b := NewBuckets(1, 0.5)
	now := time.Now()

	assert.True(t, b.TryConsume("client", now))
	assert.False(t, b.TryConsume("client", now))

	b.Remove("client")
	assert.True(t, b.TryConsume("client", now), "removal restores a fresh full bucket")
}
