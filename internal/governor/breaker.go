package governor

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current state.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// String returns the lowercase state name for logs and the debug surface.
func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker is a process-wide circuit breaker guarding all outbound upstream
// calls. It has no per-identity dimension: one upstream outage affects every
// client. Failures are recorded by the caller after an outbound call fails
// terminally; the breaker itself never performs I/O.
//
// Transitions:
//   - Closed: failures accumulate; at the threshold the breaker opens.
//   - Open: everything is rejected; after openFor without a new failure the
//     timer moves it to HalfOpen.
//   - HalfOpen: calls pass through to probe recovery; any failure reopens
//     immediately; recoverFor without a failure closes it and resets the count.
//
// RecordSuccess only resets the failure count. It never forces Open to
// Closed; only the timer does that, via HalfOpen.
type Breaker struct {
	threshold  int
	openFor    time.Duration
	recoverFor time.Duration

	mu            sync.Mutex
	state         BreakerState
	failureCount  int
	lastFailureAt time.Time
	halfOpenSince time.Time

	now func() time.Time
}

// BreakerSnapshot is a point-in-time view for the debug surface.
type BreakerSnapshot struct {
	State         BreakerState
	FailureCount  int
	LastFailureAt time.Time
}

// NewBreaker creates a closed breaker. threshold is the consecutive-failure
// count that opens it; openFor is the open-to-half-open delay; recoverFor is
// the failure-free half-open period required to close again.
func NewBreaker(threshold int, openFor, recoverFor time.Duration) *Breaker {
	return &Breaker{
		threshold:  threshold,
		openFor:    openFor,
		recoverFor: recoverFor,
		state:      BreakerClosed,
		now:        time.Now,
	}
}

// State applies any due timer transitions and returns the current state.
// Both the admission path and the periodic maintenance timer call this, so
// an idle process still recovers on its next request.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickLocked()
	return b.state
}

// Tick re-evaluates the time-driven transitions. Called at least once per
// minute by governor maintenance.
func (b *Breaker) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickLocked()
}

// RecordFailure registers a terminal upstream failure.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickLocked()

	now := b.now()
	switch b.state {
	case BreakerClosed:
		b.failureCount++
		b.lastFailureAt = now
		if b.failureCount >= b.threshold {
			b.state = BreakerOpen
		}
	case BreakerHalfOpen:
		// The probe failed; reopen immediately.
		b.state = BreakerOpen
		b.lastFailureAt = now
	case BreakerOpen:
		b.lastFailureAt = now
	}
}

// RecordSuccess registers a successful upstream call. It resets the failure
// count without changing state; closing from HalfOpen is timer-driven.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
}

// Snapshot returns the current state for the debug surface.
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickLocked()
	return BreakerSnapshot{
		State:         b.state,
		FailureCount:  b.failureCount,
		LastFailureAt: b.lastFailureAt,
	}
}

// tickLocked applies time-driven transitions. Caller holds b.mu.
func (b *Breaker) tickLocked() {
	now := b.now()
	switch b.state {
	case BreakerOpen:
		if now.Sub(b.lastFailureAt) > b.openFor {
			b.state = BreakerHalfOpen
			b.halfOpenSince = now
		}
	case BreakerHalfOpen:
		if now.Sub(b.halfOpenSince) > b.recoverFor {
			b.state = BreakerClosed
			b.failureCount = 0
		}
	}
}
