package storage

import (
	"time"

	"driftwatch/internal/domain"
)

// sessionModelToDomain converts a SessionModel (GORM) to domain.Session.
// Monotonic marks are process-local and never persisted, so they are left
// zero here.
func sessionModelToDomain(m SessionModel) domain.Session {
	return domain.Session{
		ActualDuration:   time.Duration(m.ActualDurationMs) * time.Millisecond,
		CreatedAt:        m.CreatedAt,
		DestinationRef:   m.DestinationRef,
		DistractionCount: m.DistractionCount,
		EndedAt:          m.EndedAt,
		ID:               m.ID,
		OwnerRef:         m.OwnerRef,
		Persistence:      domain.PersistenceRemote,
		PlannedDuration:  time.Duration(m.PlannedDurationMs) * time.Millisecond,
		StartMark:        m.StartedAt,
		Status:           domain.SessionStatus(m.Status),
	}
}

// eventToModel converts a domain.DistractionEvent to EventModel (GORM)
func eventToModel(e domain.DistractionEvent) EventModel {
	m := EventModel{
		DetectedAt: e.DetectedAt,
		ID:         e.ID,
		Resolved:   e.Resolved,
		SessionID:  e.SessionID,
		SignalType: string(e.SignalType),
	}
	if e.Duration != nil {
		ms := e.Duration.Milliseconds()
		m.DurationMs = &ms
	}
	if e.Response != nil {
		response := string(*e.Response)
		m.Response = &response
	}
	return m
}
