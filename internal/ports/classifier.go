package ports

import (
	"context"

	"driftwatch/internal/domain"
)

// SnapshotSource captures the current state of the user's work surface
// for classification.
type SnapshotSource interface {
	Capture(ctx context.Context) (domain.Snapshot, error)
}

// Classifier judges whether a snapshot is relevant to the session goal.
// Errors and timeouts are treated by callers as inconclusive, never as a
// distraction signal.
type Classifier interface {
	Evaluate(ctx context.Context, snapshot domain.Snapshot) (domain.Verdict, error)
}

// PresenceSensor judges whether a person is visibly present and facing
// the work surface. Same failure contract as Classifier.
type PresenceSensor interface {
	Sense(ctx context.Context, snapshot domain.Snapshot) (domain.Presence, error)
}
