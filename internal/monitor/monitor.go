// Package monitor runs one independent detector state machine per signal
// type while a session is active. All detector inputs and timer callbacks
// are serialized under a single mutex; deactivation synchronously cancels
// every armed timer and flips the active flag, so no late callback can
// mutate state after the session has ended.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"driftwatch/internal/clock"
	"driftwatch/internal/domain"
	"driftwatch/internal/logging"
	"driftwatch/internal/ports"
)

// ErrAlreadyActive is returned when Activate is called twice without an
// intervening Deactivate. Exactly one live detector per signal type is
// allowed per active session.
var ErrAlreadyActive = errors.New("signal monitor already active")

// TransitionSink receives every detector transition. The recorder is the
// production sink.
type TransitionSink interface {
	HandleTransition(t domain.Transition)
}

// Config carries the detector thresholds. Every value is externally
// tunable; zero fields fall back to the defaults below.
type Config struct {
	AttentionGrace   time.Duration
	EvaluateTimeout  time.Duration
	IdleThreshold    time.Duration
	PollInterval     time.Duration
	PresenceSustain  time.Duration
	RelevanceSustain time.Duration
}

// Default thresholds, used when the corresponding Config field is zero.
const (
	DefaultAttentionGrace   = 12 * time.Second
	DefaultEvaluateTimeout  = 10 * time.Second
	DefaultIdleThreshold    = 2 * time.Minute
	DefaultPollInterval     = 60 * time.Second
	DefaultPresenceSustain  = 15 * time.Second
	DefaultRelevanceSustain = 15 * time.Second
)

func (c Config) withDefaults() Config {
	if c.AttentionGrace <= 0 {
		c.AttentionGrace = DefaultAttentionGrace
	}
	if c.EvaluateTimeout <= 0 {
		c.EvaluateTimeout = DefaultEvaluateTimeout
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = DefaultIdleThreshold
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PresenceSustain <= 0 {
		c.PresenceSustain = DefaultPresenceSustain
	}
	if c.RelevanceSustain <= 0 {
		c.RelevanceSustain = DefaultRelevanceSustain
	}
	return c
}

// Collaborators are the optional external judges. A nil classifier or
// presence sensor simply disables that detector.
type Collaborators struct {
	Classifier ports.Classifier
	Presence   ports.PresenceSensor
	Snapshots  ports.SnapshotSource
}

// Monitor owns the per-signal detectors for one active session.
type Monitor struct {
	cfg    Config
	clk    clock.Clock
	collab Collaborators
	sink   TransitionSink

	mu        sync.Mutex
	active    bool
	attention *attentionDetector
	idle      *idleDetector
	presence  *verdictDetector
	relevance *verdictDetector
}

// New creates a Monitor. Detectors are not armed until Activate.
func New(clk clock.Clock, sink TransitionSink, collab Collaborators, cfg Config) *Monitor {
	return &Monitor{
		cfg:    cfg.withDefaults(),
		clk:    clk,
		collab: collab,
		sink:   sink,
	}
}

// Activate arms one detector per signal type. The idle detector starts its
// threshold timer immediately; the verdict detectors start polling only
// when their collaborator is configured.
func (m *Monitor) Activate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return ErrAlreadyActive
	}
	m.active = true

	now := m.clk.Now()
	m.attention = &attentionDetector{hasAttention: true, m: m}
	m.idle = newIdleDetector(m, now)
	if m.collab.Classifier != nil {
		m.relevance = newVerdictDetector(m, domain.SignalContent, m.cfg.RelevanceSustain, m.evaluateRelevance)
	}
	if m.collab.Presence != nil {
		m.presence = newVerdictDetector(m, domain.SignalPresence, m.cfg.PresenceSustain, m.evaluatePresence)
	}

	logging.Logger.Debug("signal monitor activated",
		"idle_threshold", m.cfg.IdleThreshold,
		"attention_grace", m.cfg.AttentionGrace,
		"poll_interval", m.cfg.PollInterval,
	)
	return nil
}

// Deactivate stops every armed timer and in-flight polling schedule.
// Idempotent; after it returns no detector callback can mutate state or
// reach the sink.
func (m *Monitor) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}
	m.active = false

	if m.attention != nil {
		m.attention.stopLocked()
	}
	if m.idle != nil {
		m.idle.stopLocked()
	}
	if m.relevance != nil {
		m.relevance.stopLocked()
	}
	if m.presence != nil {
		m.presence.stopLocked()
	}

	logging.Logger.Debug("signal monitor deactivated")
}

// SetAttention feeds the binary "has attention" observation into the
// attention detector. No-op when the monitor is inactive.
func (m *Monitor) SetAttention(has bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	m.attention.observeLocked(has)
}

// Activity notes that user input activity was just observed, re-arming
// the idle threshold. No-op when the monitor is inactive.
func (m *Monitor) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	m.idle.activityLocked()
}

// emitLocked forwards a transition to the sink. Callers hold m.mu, which
// is what serializes detector output: if transition A is emitted before B
// in wall order, the sink observes A before B.
func (m *Monitor) emitLocked(t domain.Transition) {
	m.sink.HandleTransition(t)
}

func (m *Monitor) evaluateRelevance(ctx context.Context) (negative, conclusive bool) {
	snapshot, err := m.captureSnapshot(ctx)
	if err != nil {
		return false, false
	}
	verdict, err := m.collab.Classifier.Evaluate(ctx, snapshot)
	if err != nil {
		logging.Logger.Debug("classifier inconclusive", "error", err)
		return false, false
	}
	return !verdict.Relevant, true
}

func (m *Monitor) evaluatePresence(ctx context.Context) (negative, conclusive bool) {
	snapshot, err := m.captureSnapshot(ctx)
	if err != nil {
		return false, false
	}
	presence, err := m.collab.Presence.Sense(ctx, snapshot)
	if err != nil {
		logging.Logger.Debug("presence sensor inconclusive", "error", err)
		return false, false
	}
	return !presence.Present, true
}

func (m *Monitor) captureSnapshot(ctx context.Context) (domain.Snapshot, error) {
	if m.collab.Snapshots == nil {
		return domain.Snapshot{CapturedAt: m.clk.Now()}, nil
	}
	snapshot, err := m.collab.Snapshots.Capture(ctx)
	if err != nil {
		logging.Logger.Debug("snapshot capture failed", "error", err)
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}
