// Package identity derives a best-effort pseudo-identifier for a client from
// request fingerprint signals. The identity is deterministic for a fixed set
// of signals but is NOT unique or stable across signal changes, and it is NOT
// a security boundary: clients with identical agents, locales, and screens
// collide, and any client can change its headers. Real abuse prevention
// requires a server-side, connection-authenticated identity. This package
// exists only to give the client-side throttle a stable-enough key.
package identity

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Signals is the fixed set of fingerprint inputs. Zero values are valid;
// an all-empty Signals still produces a deterministic identity.
type Signals struct {
	Agent    string // User-Agent header
	Locale   string // Accept-Language header
	Screen   string // X-Screen-Size header, e.g. "1920x1080"
	Timezone string // X-Timezone header, e.g. "Europe/Rome"
}

// Identify hashes the signals into an opaque identity string. Pure function:
// no I/O, no errors, no side effects.
func Identify(s Signals) string {
	h := xxhash.New()
	// Separator-delimited so ("ab","c") and ("a","bc") differ.
	h.WriteString(s.Agent)
	h.WriteString("\x00")
	h.WriteString(s.Locale)
	h.WriteString("\x00")
	h.WriteString(s.Screen)
	h.WriteString("\x00")
	h.WriteString(s.Timezone)
	return fmt.Sprintf("%016x", h.Sum64())
}
