package governor

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucketEntry holds one identity's token bucket and its last access time for
// idle eviction.
type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Buckets is a per-identity token bucket collection backed by
// golang.org/x/time/rate. Each identity gets its own bucket, created lazily
// on first use. Safe for concurrent use.
type Buckets struct {
	refill   rate.Limit
	capacity int

	mu      sync.Mutex
	entries map[string]*bucketEntry
}

// NewBuckets creates a bucket collection with the given capacity and
// continuous refill rate (tokens per second).
func NewBuckets(capacity int, refillPerSecond float64) *Buckets {
	return &Buckets{
		refill:   rate.Limit(refillPerSecond),
		capacity: capacity,
		entries:  make(map[string]*bucketEntry),
	}
}

// TryConsume refills the identity's bucket up to now and consumes one token
// if available. Returns false when the identity is burst-limited. The bucket
// is created full on first use.
func (b *Buckets) TryConsume(identity string, now time.Time) bool {
	e := b.entry(identity, now)
	return e.limiter.AllowN(now, 1)
}

// Tokens reports the tokens available for the identity at the given time.
// An identity with no bucket yet reports full capacity.
func (b *Buckets) Tokens(identity string, now time.Time) float64 {
	b.mu.Lock()
	e, exists := b.entries[identity]
	b.mu.Unlock()
	if !exists {
		return float64(b.capacity)
	}

	tokens := e.limiter.TokensAt(now)
	if tokens < 0 {
		return 0
	}
	if tokens > float64(b.capacity) {
		return float64(b.capacity)
	}
	return tokens
}

// Remove drops the identity's bucket, if any.
func (b *Buckets) Remove(identity string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, identity)
}

// PurgeIdle evicts buckets not touched since the cutoff and returns the
// number removed.
func (b *Buckets) PurgeIdle(cutoff time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	purged := 0
	for identity, e := range b.entries {
		if e.lastSeen.Before(cutoff) {
			delete(b.entries, identity)
			purged++
		}
	}
	return purged
}

// Size returns the number of tracked identities. Useful for tests and the
// maintenance log line.
func (b *Buckets) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Buckets) entry(identity string, now time.Time) *bucketEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, exists := b.entries[identity]
	if !exists {
		e = &bucketEntry{
			limiter: rate.NewLimiter(b.refill, b.capacity),
		}
		b.entries[identity] = e
	}
	e.lastSeen = now
	return e
}
