package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a focus session
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// PersistenceTag marks whether a session is backed by the remote store
// or exists only in memory because creation failed against the store.
type PersistenceTag string

const (
	PersistenceRemote    PersistenceTag = "remote"
	PersistenceLocalOnly PersistenceTag = "local-only"
)

// LocalIDPrefix marks synthetically generated session identities so they
// are never confused with store-confirmed ones.
const LocalIDPrefix = "local-"

// NewLocalSessionID generates a synthetic identity for a session that
// could not be created in the remote store.
func NewLocalSessionID() string {
	return LocalIDPrefix + uuid.New().String()
}

// IsLocalID reports whether an identity was synthesized locally.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// Session represents one timed focus period tied to a destination (domain entity).
// StartMark and EndMark are process-local monotonic readings used for duration
// arithmetic; they are never persisted.
type Session struct {
	ActualDuration   time.Duration
	CreatedAt        time.Time
	DestinationRef   string
	DistractionCount int
	EndMark          time.Time
	EndedAt          *time.Time
	ID               string
	OwnerRef         string
	Persistence      PersistenceTag
	PlannedDuration  time.Duration
	StartMark        time.Time
	Status           SessionStatus
}

// CanTransitionTo reports whether a status change is allowed. Transitions
// are one-directional: a session never reverts to active.
func (s *Session) CanTransitionTo(next SessionStatus) bool {
	if s.Status != StatusActive {
		return false
	}
	return next == StatusCompleted || next == StatusAbandoned
}
