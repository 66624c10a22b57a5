package governor

import (
	"sync"
	"time"
)

// LogEntry is one admitted request in an identity's sliding-window history.
type LogEntry struct {
	At        time.Time
	SizeBytes int
	Endpoint  string
}

// WindowLog keeps an insertion-ordered request history per identity and
// answers trailing-window counts. Entries accumulate until PurgeOlderThan
// trims them. Safe for concurrent use.
type WindowLog struct {
	mu      sync.Mutex
	entries map[string][]LogEntry
}

// NewWindowLog creates an empty window log.
func NewWindowLog() *WindowLog {
	return &WindowLog{
		entries: make(map[string][]LogEntry),
	}
}

// Append records an admitted request for the identity.
func (w *WindowLog) Append(identity string, e LogEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[identity] = append(w.entries[identity], e)
}

// CountSince returns how many of the identity's requests fall within the
// trailing window ending at now.
func (w *WindowLog) CountSince(identity string, window time.Duration, now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-window)
	count := 0
	// Entries are insertion-ordered; scan from the newest end and stop at the
	// first entry outside the window.
	log := w.entries[identity]
	for i := len(log) - 1; i >= 0; i-- {
		if !log[i].At.After(cutoff) {
			break
		}
		count++
	}
	return count
}

// SizeAnomaly reports whether a candidate request size is suspicious relative
// to the identity's history: more than three times the historical average AND
// above an absolute floor, so small-request clients are never flagged for
// ordinary variance.
func (w *WindowLog) SizeAnomaly(identity string, sizeBytes int, floor int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	log := w.entries[identity]
	if len(log) == 0 {
		return false
	}

	total := 0
	for _, e := range log {
		total += e.SizeBytes
	}
	avg := float64(total) / float64(len(log))

	return float64(sizeBytes) > 3*avg && sizeBytes > floor
}

// Remove drops the identity's history.
func (w *WindowLog) Remove(identity string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entries, identity)
}

// PurgeOlderThan drops entries at or before the cutoff and returns how many
// were removed. Identities left with no entries are dropped entirely so the
// map does not grow with all-time clients.
func (w *WindowLog) PurgeOlderThan(cutoff time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	purged := 0
	for identity, log := range w.entries {
		keep := 0
		for _, e := range log {
			if e.At.After(cutoff) {
				break
			}
			keep++
		}
		if keep == 0 {
			continue
		}
		purged += keep
		if keep == len(log) {
			delete(w.entries, identity)
			continue
		}
		w.entries[identity] = append([]LogEntry(nil), log[keep:]...)
	}
	return purged
}

// Identities returns the number of identities with recorded history.
func (w *WindowLog) Identities() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}
