// Package cache provides a TTL-based cache for autocomplete results, keyed by
// normalized query text plus the requested result limit so callers asking for
// different limits never collide. Expired entries are treated as absent and
// evicted on read; a periodic sweep bounds memory regardless of read pattern.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"tripplanner/internal/models"
)

// entry holds cached results and their expiry.
type entry struct {
	results   []models.EnhancedResult
	expiresAt time.Time
}

// ResultCache is a TTL cache of suggestion results. Safe for concurrent use.
// Construct with New and release with Close.
type ResultCache struct {
	defaultTTL    time.Duration
	sweepInterval time.Duration

	mu      sync.Mutex
	entries map[string]entry

	now func() time.Time

	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// New creates a cache with the given default TTL and starts the background
// sweep. A non-positive sweep interval disables the sweep (lazy expiry still
// applies).
func New(defaultTTL, sweepInterval time.Duration) *ResultCache {
	c := &ResultCache{
		defaultTTL:    defaultTTL,
		sweepInterval: sweepInterval,
		entries:       make(map[string]entry),
		now:           time.Now,
		done:          make(chan struct{}),
	}

	if sweepInterval > 0 {
		c.wg.Add(1)
		go c.sweep()
	}

	return c
}

// Key builds the cache key from a query and its result limit. The query is
// trimmed and lowercased so "Rome ", "rome" and "ROME" share an entry.
func Key(query string, maxResults int) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(query)), maxResults)
}

// Get returns the cached results for the key, or ok=false if absent or
// expired. Expired entries are evicted eagerly on read.
func (c *ResultCache) Get(key string) ([]models.EnhancedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if !e.expiresAt.After(c.now()) {
		delete(c.entries, key)
		return nil, false
	}

	// Return a copy so callers cannot mutate the cached slice.
	results := make([]models.EnhancedResult, len(e.results))
	copy(results, e.results)
	return results, true
}

// Set stores results under the key. A non-positive ttl uses the default.
func (c *ResultCache) Set(key string, results []models.EnhancedResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	stored := make([]models.EnhancedResult, len(results))
	copy(stored, results)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		results:   stored,
		expiresAt: c.now().Add(ttl),
	}
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// SweepExpired removes all expired entries and returns how many were evicted.
func (c *ResultCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Size returns the number of entries, expired included.
func (c *ResultCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the background sweep goroutine. Safe to call multiple times.
func (c *ResultCache) Close() {
	c.closed.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

// sweep periodically evicts expired entries.
func (c *ResultCache) sweep() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.SweepExpired()
		}
	}
}
