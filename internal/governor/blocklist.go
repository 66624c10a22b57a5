package governor

import (
	"sync"
	"time"
)

// BlockTable maps identities to block expiry timestamps. Entries are created
// by suspicious-burst detection and evicted lazily on lookup once expired.
type BlockTable struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewBlockTable creates an empty block table.
func NewBlockTable() *BlockTable {
	return &BlockTable{
		entries: make(map[string]time.Time),
	}
}

// Block blocks the identity until the given expiry.
func (t *BlockTable) Block(identity string, until time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[identity] = until
}

// Blocked reports whether the identity is currently blocked and, if so, when
// the block expires. Expired entries are evicted on lookup.
func (t *BlockTable) Blocked(identity string, now time.Time) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	until, exists := t.entries[identity]
	if !exists {
		return time.Time{}, false
	}
	if !until.After(now) {
		delete(t.entries, identity)
		return time.Time{}, false
	}
	return until, true
}

// Unblock removes the identity's block entry, if any.
func (t *BlockTable) Unblock(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, identity)
}

// Size returns the number of block entries, expired included.
func (t *BlockTable) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
