package governor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowLog_CountSince(t *testing.T) {
	w := NewWindowLog()
	now := time.Now()

	for i := 0; i < 10; i++ {
		w.Append("client", LogEntry{At: now.Add(-time.Duration(i*6) * time.Second), SizeBytes: 100, Endpoint: "suggest"})
	}

	assert.Equal(t, 10, w.CountSince("client", time.Minute, now))
	assert.Equal(t, 2, w.CountSince("client", 10*time.Second, now))
	assert.Equal(t, 10, w.CountSince("client", time.Hour, now))
	assert.Equal(t, 0, w.CountSince("stranger", time.Minute, now))
}

func TestWindowLog_CountSince_EntriesAgeOut(t *testing.T) {
	w := NewWindowLog()
	start := time.Now()

	for i := 0; i < 10; i++ {
		w.Append("client", LogEntry{At: start.Add(time.Duration(i*5) * time.Second), SizeBytes: 100})
	}

	// All ten fall inside the first minute.
	at59 := start.Add(59 * time.Second)
	assert.Equal(t, 10, w.CountSince("client", time.Minute, at59))

	// Past one minute from the first request, the oldest entries age out.
	at65 := start.Add(65 * time.Second)
	assert.Equal(t, 9, w.CountSince("client", time.Minute, at65))
}

func TestWindowLog_SizeAnomaly(t *testing.T) {
	w := NewWindowLog()
	now := time.Now()

	for i := 0; i < 5; i++ {
		w.Append("client", LogEntry{At: now, SizeBytes: 4000})
	}

	assert.True(t, w.SizeAnomaly("client", 15_000, 10_000),
		"15k is over 3x the 4k average and over the floor")
	assert.False(t, w.SizeAnomaly("client", 11_000, 10_000),
		"11k is under 3x the 4k average")
}

func TestWindowLog_SizeAnomaly_FloorProtectsSmallClients(t *testing.T) {
	w := NewWindowLog()
	now := time.Now()

	for i := 0; i < 5; i++ {
		w.Append("client", LogEntry{At: now, SizeBytes: 100})
	}

	// 1000 bytes is 10x the average but far below the absolute floor.
	assert.False(t, w.SizeAnomaly("client", 1000, 10_000))
}

func TestWindowLog_SizeAnomaly_NoHistory(t *testing.T) {
	w := NewWindowLog()
	assert.False(t, w.SizeAnomaly("client", 49_000, 10_000))
}

func TestWindowLog_PurgeOlderThan(t *testing.T) {
	w := NewWindowLog()
	now := time.Now()

	w.Append("old", LogEntry{At: now.Add(-3 * time.Hour)})
	w.Append("mixed", LogEntry{At: now.Add(-3 * time.Hour)})
	w.Append("mixed", LogEntry{At: now.Add(-time.Minute)})
	w.Append("fresh", LogEntry{At: now})

	purged := w.PurgeOlderThan(now.Add(-2 * time.Hour))
	assert.Equal(t, 2, purged)
	assert.Equal(t, 2, w.Identities(), "identities with no live entries are dropped")
	assert.Equal(t, 1, w.CountSince("mixed", time.Hour, now))
}

func TestBlockTable_BlockAndExpire(t *testing.T) {
	b := NewBlockTable()
	now := time.Now()

	b.Block("client", now.Add(15*time.Minute))

	until, blocked := b.Blocked("client", now)
	assert.True(t, blocked)
	assert.Equal(t, now.Add(15*time.Minute), until)

	_, blocked = b.Blocked("client", now.Add(16*time.Minute))
	assert.False(t, blocked, "expired blocks are evicted on lookup")
	assert.Equal(t, 0, b.Size())
}

func TestBlockTable_Unblock(t *testing.T) {
	b := NewBlockTable()
	now := time.Now()

	b.Block("client", now.Add(time.Hour))
	b.Unblock("client")

	_, blocked := b.Blocked("client", now)
	assert.False(t, blocked)
}
