package domain

import (
	"time"
)

// SignalType represents the category of detector that raised a distraction
type SignalType string

const (
	SignalAttention SignalType = "attention"
	SignalIdle      SignalType = "idle"
	SignalContent   SignalType = "content"
	SignalPresence  SignalType = "presence"
)

// KnownSignalTypes lists every signal type a detector can emit.
var KnownSignalTypes = []SignalType{
	SignalAttention,
	SignalIdle,
	SignalContent,
	SignalPresence,
}

// UserResponse represents how the user reacted to a distraction prompt
type UserResponse string

const (
	ResponseReturned  UserResponse = "returned"
	ResponseExploring UserResponse = "exploring"
	ResponseIgnored   UserResponse = "ignored"
)

// DistractionEvent represents one recorded episode of disengagement.
// Duration is nil while the episode is ongoing and set exactly once on
// resolution.
type DistractionEvent struct {
	DetectedAt time.Time
	Duration   *time.Duration
	ID         string
	Resolved   bool
	Response   *UserResponse
	SessionID  string
	SignalType SignalType
}

// Resolve marks the event finished with the given duration. Negative
// durations are clamped to zero. Resolving an already-resolved event is a
// no-op returning false.
func (e *DistractionEvent) Resolve(d time.Duration) bool {
	if e.Resolved {
		return false
	}
	if d < 0 {
		d = 0
	}
	e.Duration = &d
	e.Resolved = true
	return true
}
