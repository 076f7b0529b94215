package ports

import (
	"context"
	"time"

	"driftwatch/internal/domain"
)

// CreateSessionParams carries the fields the store needs to create a
// session record.
type CreateSessionParams struct {
	CreatedAt       time.Time
	DestinationRef  string
	OwnerRef        string
	PlannedDuration time.Duration
}

// SessionPatch is a partial update applied when finalizing a session.
// Nil fields are left untouched.
type SessionPatch struct {
	ActualDuration   *time.Duration
	DistractionCount *int
	EndedAt          *time.Time
	Status           *domain.SessionStatus
}

// EventPatch is a partial update applied when resolving an event or
// recording the user's response.
type EventPatch struct {
	Duration *time.Duration
	Resolved *bool
	Response *domain.UserResponse
}

// SessionStore creates and finalizes session records
type SessionStore interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (*domain.Session, error)
	ListCompletedSessions(ctx context.Context, ownerRef string) ([]domain.Session, error)
	UpdateSession(ctx context.Context, id string, patch SessionPatch) (*domain.Session, error)
}

// EventStore persists distraction events
type EventStore interface {
	InsertEvent(ctx context.Context, event domain.DistractionEvent) error
	// ResolveEvent patches the most recent unresolved event of the given
	// signal type for the session. It reports whether a matching record
	// was found and updated.
	ResolveEvent(ctx context.Context, sessionID string, signalType domain.SignalType, patch EventPatch) (bool, error)
}

// SessionRepository is the composite persistence interface
type SessionRepository interface {
	SessionStore
	EventStore
	Close() error
}
