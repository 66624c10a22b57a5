// Package governor implements client request governance: a composite of
// per-identity token buckets, sliding-window request accounting, a suspicious
// client block table, and a process-wide circuit breaker, folded into one
// admission decision per request. It protects the metered upstream AI and
// geocoding APIs from bursty or abusive clients.
//
// The governance layer is advisory: identities are fingerprint-derived and
// collide across similar clients (see the identity package), so this is a
// cost guard, not a security boundary.
package governor

import (
	"log/slog"
	"sync"
	"time"

	"tripplanner/internal/models"
)

// Reason identifies why an admission was rejected.
type Reason string

const (
	ReasonCircuitOpen     Reason = "circuit_open"
	ReasonBlocked         Reason = "identity_blocked"
	ReasonPayloadTooLarge Reason = "payload_too_large"
	ReasonBurstLimited    Reason = "burst_limited"
	ReasonPerMinuteLimit  Reason = "per_minute_limit"
	ReasonPerHourLimit    Reason = "per_hour_limit"
	ReasonSuspicious      Reason = "suspicious_activity"
)

// Trailing windows used for sustained-rate and burst accounting.
const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
	burstWindow  = 10 * time.Second

	// sizeAnomalyFloor is the absolute minimum size for the anomaly signal;
	// below it a request is never suspicious regardless of history.
	sizeAnomalyFloor = 10_000

	// circuitRetryAfter is the fixed hint returned while the breaker is open.
	circuitRetryAfter = 300 * time.Second
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Reason     Reason        // Set when rejected
	RetryAfter time.Duration // Zero for permanent rejections (payload policy)
}

// Status is the operator-facing view of one identity's governance state.
type Status struct {
	Identity        string
	Blocked         bool
	BlockExpiresAt  time.Time
	RequestsLastMin int
	RequestsLastHr  int
	AvailableTokens float64
	Breaker         BreakerSnapshot
}

// Governor orchestrates all admission checks. Construct with New and release
// with Close; each instance owns its state, so tests get isolation by
// creating fresh instances.
type Governor struct {
	cfg     models.GovernanceConfig
	buckets *Buckets
	windows *WindowLog
	blocks  *BlockTable
	breaker *Breaker
	logger  *slog.Logger

	now func() time.Time

	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// New creates a governor and starts its background maintenance loop.
func New(cfg models.GovernanceConfig, logger *slog.Logger) *Governor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaintenanceEvery <= 0 {
		cfg.MaintenanceEvery = 5 * time.Minute
	}
	if cfg.BreakerTickEvery <= 0 {
		cfg.BreakerTickEvery = time.Minute
	}
	g := &Governor{
		cfg:     cfg,
		buckets: NewBuckets(cfg.BucketCapacity, cfg.RefillPerSecond),
		windows: NewWindowLog(),
		blocks:  NewBlockTable(),
		breaker: NewBreaker(cfg.BreakerThreshold, cfg.BreakerOpenFor, cfg.BreakerRecoverFor),
		logger:  logger,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	g.wg.Add(1)
	go g.maintain()

	return g
}

// Admit runs the admission checks in order, first failure wins:
//
//  1. circuit breaker open (cheapest, most global)
//  2. identity block table
//  3. payload size policy
//  4. token bucket burst check
//  5. per-minute sustained cap
//  6. per-hour sustained cap
//  7. suspicious burst / size anomaly (inspects full history and mutates
//     block state, so it runs only for otherwise legitimate-shaped requests)
//
// On success the request is appended to the window log. Admit never mutates
// the circuit breaker; recording upstream outcomes is the caller's job.
func (g *Governor) Admit(identity string, sizeBytes int, endpoint string) Decision {
	now := g.now()

	if g.breaker.State() == BreakerOpen {
		return Decision{Reason: ReasonCircuitOpen, RetryAfter: circuitRetryAfter}
	}

	if until, blocked := g.blocks.Blocked(identity, now); blocked {
		return Decision{Reason: ReasonBlocked, RetryAfter: until.Sub(now)}
	}

	if sizeBytes > g.cfg.MaxRequestBytes {
		return Decision{Reason: ReasonPayloadTooLarge}
	}

	if !g.buckets.TryConsume(identity, now) {
		return Decision{Reason: ReasonBurstLimited, RetryAfter: time.Minute}
	}

	if g.windows.CountSince(identity, minuteWindow, now) >= g.cfg.PerMinuteLimit {
		return Decision{Reason: ReasonPerMinuteLimit, RetryAfter: time.Minute}
	}

	if g.windows.CountSince(identity, hourWindow, now) >= g.cfg.PerHourLimit {
		return Decision{Reason: ReasonPerHourLimit, RetryAfter: time.Hour}
	}

	if g.windows.CountSince(identity, burstWindow, now) >= g.cfg.BurstWindowLimit ||
		g.windows.SizeAnomaly(identity, sizeBytes, sizeAnomalyFloor) {
		g.blocks.Block(identity, now.Add(g.cfg.BlockDuration))
		g.logger.Warn("identity blocked for suspicious activity",
			"identity", identity,
			"endpoint", endpoint,
			"size_bytes", sizeBytes,
			"block_duration", g.cfg.BlockDuration,
		)
		return Decision{Reason: ReasonSuspicious, RetryAfter: g.cfg.BlockDuration}
	}

	g.windows.Append(identity, LogEntry{At: now, SizeBytes: sizeBytes, Endpoint: endpoint})
	return Decision{Allowed: true}
}

// Status reports the identity's current governance state for the debug
// surface. Read-only except for lazy block eviction.
func (g *Governor) Status(identity string) Status {
	now := g.now()
	until, blocked := g.blocks.Blocked(identity, now)
	return Status{
		Identity:        identity,
		Blocked:         blocked,
		BlockExpiresAt:  until,
		RequestsLastMin: g.windows.CountSince(identity, minuteWindow, now),
		RequestsLastHr:  g.windows.CountSince(identity, hourWindow, now),
		AvailableTokens: g.buckets.Tokens(identity, now),
		Breaker:         g.breaker.Snapshot(),
	}
}

// Reset clears all governance state for one identity: bucket, window history,
// and block entry. The circuit breaker is process-wide and is not touched.
func (g *Governor) Reset(identity string) {
	g.buckets.Remove(identity)
	g.windows.Remove(identity)
	g.blocks.Unblock(identity)
	g.logger.Info("governance state reset", "identity", identity)
}

// Breaker exposes the process-wide circuit breaker so the upstream
// orchestrator can record call outcomes.
func (g *Governor) Breaker() *Breaker {
	return g.breaker
}

// Close stops the maintenance goroutine and waits for it to exit.
// Safe to call multiple times.
func (g *Governor) Close() {
	g.closed.Do(func() {
		close(g.done)
	})
	g.wg.Wait()
}

// maintain purges idle per-identity state every MaintenanceEvery and
// re-evaluates the breaker timers every BreakerTickEvery. Each sweep is
// O(live entries).
func (g *Governor) maintain() {
	defer g.wg.Done()

	purge := time.NewTicker(g.cfg.MaintenanceEvery)
	defer purge.Stop()
	tick := time.NewTicker(g.cfg.BreakerTickEvery)
	defer tick.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-purge.C:
			cutoff := g.now().Add(-g.cfg.IdleExpiry)
			entries := g.windows.PurgeOlderThan(cutoff)
			buckets := g.buckets.PurgeIdle(cutoff)
			if entries > 0 || buckets > 0 {
				g.logger.Debug("governance maintenance completed",
					"purged_entries", entries,
					"purged_buckets", buckets,
					"tracked_identities", g.windows.Identities(),
				)
			}
		case <-tick.C:
			g.breaker.Tick()
		}
	}
}
