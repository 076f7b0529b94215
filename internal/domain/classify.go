package domain

import "time"

// Snapshot is an opaque capture of the user's current work surface,
// submitted to the classifier collaborators. The engine never inspects
// the payload.
type Snapshot struct {
	CapturedAt time.Time
	Data       []byte
	Source     string
}

// Verdict is a content-relevance judgement from the classifier.
type Verdict struct {
	Confidence float64
	Relevant   bool
}

// Presence is a presence-sensor judgement about whether a person is
// visibly present and facing the work surface.
type Presence struct {
	Confidence float64
	Present    bool
}
