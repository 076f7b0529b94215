// Package debounce suppresses flapping detector signals: two accepted
// start transitions for the same key must be separated by at least the
// configured window.
package debounce

import (
	"sync"
	"time"
)

// GlobalKey collapses every signal type into a single debounce slot when
// the gate is configured session-global.
const GlobalKey = "*"

// Gate tracks the last accepted timestamp per key. State is transient and
// reset when a new session starts.
type Gate struct {
	global       bool
	lastAccepted map[string]time.Time
	mu           sync.Mutex
}

// NewGate creates a Gate keyed per signal type.
func NewGate() *Gate {
	return &Gate{lastAccepted: make(map[string]time.Time)}
}

// NewGlobalGate creates a Gate with a single session-wide slot.
func NewGlobalGate() *Gate {
	return &Gate{global: true, lastAccepted: make(map[string]time.Time)}
}

// Accept reports whether an event at the given timestamp passes the gate.
// It returns true and records the timestamp when no prior record exists or
// at least window has elapsed since the last accepted event for the key;
// otherwise it returns false and leaves the record untouched.
func (g *Gate) Accept(key string, at time.Time, window time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.global {
		key = GlobalKey
	}

	last, ok := g.lastAccepted[key]
	if ok && at.Sub(last) < window {
		return false
	}
	g.lastAccepted[key] = at
	return true
}

// Reset clears all debounce state. Called when a new session starts.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastAccepted = make(map[string]time.Time)
}
