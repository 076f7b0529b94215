package domain

import "time"

// Transition is the closed union of detector outputs. Exactly two variants
// exist: TransitionStart and TransitionEnd. Each carries only the fields
// valid for that variant.
type Transition interface {
	Signal() SignalType
	transition()
}

// TransitionStart marks the beginning of a distraction episode.
type TransitionStart struct {
	At   time.Time
	Type SignalType
}

func (t TransitionStart) Signal() SignalType { return t.Type }
func (TransitionStart) transition()          {}

// TransitionEnd marks the resolution of a distraction episode, carrying
// the elapsed duration measured from when the episode actually began.
type TransitionEnd struct {
	At       time.Time
	Duration time.Duration
	Type     SignalType
}

func (t TransitionEnd) Signal() SignalType { return t.Type }
func (TransitionEnd) transition()          {}
