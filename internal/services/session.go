// Package services holds the session orchestration layer. SessionService
// is the top-level state machine: it creates and finalizes sessions,
// activates and deactivates the signal monitor, and hands finalized data
// to the statistics engine. Session state lives in an explicit context
// object owned by the service and is exposed to consumers through the
// observer channel, never through shared globals.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"driftwatch/internal/clock"
	"driftwatch/internal/debounce"
	"driftwatch/internal/domain"
	"driftwatch/internal/logging"
	"driftwatch/internal/monitor"
	"driftwatch/internal/ports"
	"driftwatch/internal/recorder"
	"driftwatch/internal/stats"
)

// DefaultDebounceWindow is the reference gap between two accepted start
// transitions of the same signal type.
const DefaultDebounceWindow = 10 * time.Second

// StateIdle is the consumer-facing status when no session is active; the
// remaining statuses come from domain.SessionStatus.
const StateIdle = "idle"

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	// DebounceGlobal collapses all signal types into one debounce slot.
	DebounceGlobal bool
	DebounceWindow time.Duration
	Monitor        monitor.Config
	PersistTimeout time.Duration
}

// StateChange is the consumer-facing reactive snapshot.
type StateChange struct {
	Distracted       bool
	DistractionCount int
	Status           string
}

// Finished is the result of ending a session: the finalized entity, its
// event list, and the computed summary. Always best-effort non-nil even
// under total store outage.
type Finished struct {
	Events  []domain.DistractionEvent
	Session domain.Session
	Summary stats.Summary
}

// sessionContext bundles the live state for one active session.
type sessionContext struct {
	monitor  *monitor.Monitor
	recorder *recorder.Recorder
	session  domain.Session
}

// SessionService orchestrates the session lifecycle
type SessionService struct {
	cfg    Config
	clk    clock.Clock
	collab monitor.Collaborators
	gate   *debounce.Gate
	repo   ports.SessionRepository

	mu      sync.Mutex
	current *sessionContext

	subMu       sync.Mutex
	subscribers []chan StateChange
}

// NewSessionService creates a SessionService. A nil repository makes every
// session local-only.
func NewSessionService(repo ports.SessionRepository, collab monitor.Collaborators, clk clock.Clock, cfg Config) *SessionService {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}
	gate := debounce.NewGate()
	if cfg.DebounceGlobal {
		gate = debounce.NewGlobalGate()
	}
	return &SessionService{
		cfg:    cfg,
		clk:    clk,
		collab: collab,
		gate:   gate,
		repo:   repo,
	}
}

// Start creates a session and activates the signal monitor. Store failures
// never prevent the transition to active: the session degrades to a
// local-only identity and proceeds. Only missing identifiers are rejected.
func (s *SessionService) Start(ctx context.Context, destinationRef, ownerRef string, plannedDuration time.Duration) (*domain.Session, error) {
	if destinationRef == "" {
		return nil, domain.ErrMissingDestination
	}
	if ownerRef == "" {
		return nil, domain.ErrMissingOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil, domain.ErrSessionActive
	}

	now := s.clk.Now()
	session := domain.Session{
		CreatedAt:       now,
		DestinationRef:  destinationRef,
		OwnerRef:        ownerRef,
		Persistence:     domain.PersistenceRemote,
		PlannedDuration: plannedDuration,
		StartMark:       now,
		Status:          domain.StatusActive,
	}

	if s.repo == nil {
		session.ID = domain.NewLocalSessionID()
		session.Persistence = domain.PersistenceLocalOnly
	} else {
		created, err := s.repo.CreateSession(ctx, ports.CreateSessionParams{
			CreatedAt:       now,
			DestinationRef:  destinationRef,
			OwnerRef:        ownerRef,
			PlannedDuration: plannedDuration,
		})
		if err != nil {
			logging.Logger.Warn("failed to create session in store, continuing local-only",
				"destination", destinationRef,
				"error", err,
			)
			session.ID = domain.NewLocalSessionID()
			session.Persistence = domain.PersistenceLocalOnly
		} else {
			session.ID = created.ID
		}
	}

	rec := recorder.New(session.ID, s.eventStore(), s.gate, recorder.Options{
		DebounceWindow: s.cfg.DebounceWindow,
		LocalOnly:      session.Persistence == domain.PersistenceLocalOnly,
		PersistTimeout: s.cfg.PersistTimeout,
	})
	mon := monitor.New(s.clk, &observingSink{rec: rec, svc: s}, s.collab, s.cfg.Monitor)
	if err := mon.Activate(); err != nil {
		rec.Close()
		return nil, fmt.Errorf("failed to activate signal monitor: %w", err)
	}

	s.current = &sessionContext{monitor: mon, recorder: rec, session: session}

	logging.Logger.Info("session started",
		"session", session.ID,
		"destination", destinationRef,
		"planned", plannedDuration,
		"persistence", session.Persistence,
	)
	s.notify(s.snapshotLocked())

	result := session
	return &result, nil
}

// End finalizes the active session as completed. The monitor is
// deactivated before final counters are read, so no event recorded after
// this point can change the result. The second return value is false when
// there was nothing to end.
func (s *SessionService) End(ctx context.Context) (*Finished, bool) {
	return s.finish(ctx, domain.StatusCompleted)
}

// Abandon finalizes the active session as abandoned (the user walked away
// without finishing). Same shutdown discipline as End.
func (s *SessionService) Abandon(ctx context.Context) (*Finished, bool) {
	return s.finish(ctx, domain.StatusAbandoned)
}

func (s *SessionService) finish(ctx context.Context, status domain.SessionStatus) (*Finished, bool) {
	s.mu.Lock()
	c := s.current
	s.current = nil
	s.mu.Unlock()

	if c == nil {
		return nil, false
	}

	// Deactivate first: after this no detector callback can reach the
	// recorder, making the counters below final.
	c.monitor.Deactivate()
	c.recorder.Flush()

	endMark := s.clk.Now()
	actual := clock.Duration(c.session.StartMark, endMark)
	count := c.recorder.Count()
	events := c.recorder.Events()

	endedAt := endMark
	session := c.session
	session.ActualDuration = actual
	session.DistractionCount = count
	session.EndMark = endMark
	session.EndedAt = &endedAt
	session.Status = status

	if session.Persistence == domain.PersistenceRemote {
		updated, err := s.repo.UpdateSession(ctx, session.ID, ports.SessionPatch{
			ActualDuration:   &actual,
			DistractionCount: &count,
			EndedAt:          &endedAt,
			Status:           &status,
		})
		if err != nil {
			// The locally synthesized value stands; mark it unsynced.
			logging.Logger.Warn("failed to persist session finalization",
				"session", session.ID,
				"error", err,
			)
			session.Persistence = domain.PersistenceLocalOnly
		} else {
			session.ActualDuration = updated.ActualDuration
			session.DistractionCount = updated.DistractionCount
			session.EndedAt = updated.EndedAt
			session.Status = updated.Status
		}
	}
	c.recorder.Close()

	summary := stats.Summarize(session.ActualDuration, events)

	logging.Logger.Info("session finished",
		"session", session.ID,
		"status", status,
		"duration", clock.FormatDuration(session.ActualDuration),
		"distractions", count,
		"focus_quality", summary.FocusQuality,
	)
	s.notify(StateChange{DistractionCount: count, Status: string(status)})

	return &Finished{Events: events, Session: session, Summary: summary}, true
}

// RecordResponse attaches the user's reaction to the latest distraction
// episode of the active session.
func (s *SessionService) RecordResponse(response domain.UserResponse) error {
	switch response {
	case domain.ResponseReturned, domain.ResponseExploring, domain.ResponseIgnored:
	default:
		return fmt.Errorf("unknown user response %q", response)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.ErrSessionNotFound
	}
	s.current.recorder.RecordResponse(response)
	return nil
}

// SetAttention feeds the window-attention observation into the active
// session's monitor. No-op without an active session.
func (s *SessionService) SetAttention(has bool) {
	if mon := s.currentMonitor(); mon != nil {
		mon.SetAttention(has)
	}
}

// Activity feeds a user-input activity observation into the active
// session's monitor. No-op without an active session.
func (s *SessionService) Activity() {
	if mon := s.currentMonitor(); mon != nil {
		mon.Activity()
	}
}

// Snapshot returns the current consumer-facing state.
func (s *SessionService) Snapshot() StateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers an observer channel. Notifications are delivered
// with non-blocking sends; a slow consumer misses intermediate snapshots
// rather than stalling the engine.
func (s *SessionService) Subscribe() <-chan StateChange {
	ch := make(chan StateChange, 8)
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subMu.Unlock()
	return ch
}

// History lists completed sessions for an owner from the store.
func (s *SessionService) History(ctx context.Context, ownerRef string) ([]domain.Session, error) {
	if ownerRef == "" {
		return nil, domain.ErrMissingOwner
	}
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListCompletedSessions(ctx, ownerRef)
}

func (s *SessionService) currentMonitor() *monitor.Monitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.monitor
}

func (s *SessionService) snapshotLocked() StateChange {
	if s.current == nil {
		return StateChange{Status: StateIdle}
	}
	return StateChange{
		Distracted:       s.current.recorder.Distracted(),
		DistractionCount: s.current.recorder.Count(),
		Status:           string(domain.StatusActive),
	}
}

func (s *SessionService) notify(change StateChange) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- change:
		default:
			// Subscriber not keeping up; skip this snapshot.
		}
	}
}

func (s *SessionService) eventStore() ports.EventStore {
	if s.repo == nil {
		return nil
	}
	return s.repo
}

// observingSink forwards transitions to the recorder and then publishes a
// fresh snapshot to subscribers. It runs under the monitor mutex, which
// is what keeps counter updates and notifications in wall order.
type observingSink struct {
	rec *recorder.Recorder
	svc *SessionService
}

func (o *observingSink) HandleTransition(t domain.Transition) {
	o.rec.HandleTransition(t)
	o.svc.notify(StateChange{
		Distracted:       o.rec.Distracted(),
		DistractionCount: o.rec.Count(),
		Status:           string(domain.StatusActive),
	})
}
