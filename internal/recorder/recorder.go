// Package recorder turns accepted signal transitions into persisted
// distraction records and owns the authoritative in-memory counter. The
// counter and event list are always updated synchronously before any
// persistence is attempted; store failures are logged and swallowed, never
// propagated to the detectors or the session manager.
package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"driftwatch/internal/debounce"
	"driftwatch/internal/domain"
	"driftwatch/internal/logging"
	"driftwatch/internal/ports"
)

const opQueueSize = 64

// Options configures a Recorder for one session.
type Options struct {
	// DebounceWindow is the minimum gap between two accepted start
	// transitions of the same key.
	DebounceWindow time.Duration
	// LocalOnly skips all persistence attempts (the session was never
	// created in the remote store).
	LocalOnly bool
	// PersistTimeout bounds each store call. Zero means no timeout.
	PersistTimeout time.Duration
}

// Recorder records distraction episodes for a single session. Create one
// per session and Close it when the session ends.
type Recorder struct {
	gate      *debounce.Gate
	localOnly bool
	opts      Options
	sessionID string
	store     ports.EventStore

	mu     sync.Mutex
	count  int
	events []*domain.DistractionEvent

	closeOnce sync.Once
	ops       chan func(context.Context)
	wg        sync.WaitGroup
}

// New creates a Recorder for the given session. The gate is reset so no
// debounce state leaks across sessions. A nil store behaves like LocalOnly.
func New(sessionID string, store ports.EventStore, gate *debounce.Gate, opts Options) *Recorder {
	gate.Reset()
	r := &Recorder{
		gate:      gate,
		localOnly: opts.LocalOnly || store == nil,
		ops:       make(chan func(context.Context), opQueueSize),
		opts:      opts,
		sessionID: sessionID,
		store:     store,
	}
	go r.persistLoop()
	return r
}

// HandleTransition applies a detector transition. Start transitions pass
// through the debounce gate; end transitions are never debounced so a
// recorded episode can always close.
func (r *Recorder) HandleTransition(t domain.Transition) {
	switch tr := t.(type) {
	case domain.TransitionStart:
		r.handleStart(tr)
	case domain.TransitionEnd:
		r.handleEnd(tr)
	}
}

func (r *Recorder) handleStart(t domain.TransitionStart) {
	if !r.gate.Accept(string(t.Type), t.At, r.opts.DebounceWindow) {
		logging.Logger.Debug("distraction start suppressed by debounce gate",
			"session", r.sessionID,
			"signal", t.Type,
		)
		return
	}

	event := &domain.DistractionEvent{
		DetectedAt: t.At,
		ID:         r.newEventID(),
		SessionID:  r.sessionID,
		SignalType: t.Type,
	}

	r.mu.Lock()
	r.count++
	r.events = append(r.events, event)
	snapshot := *event
	r.mu.Unlock()

	logging.Logger.Info("distraction started",
		"session", r.sessionID,
		"signal", t.Type,
		"count", r.Count(),
	)

	if r.localOnly {
		return
	}
	r.enqueue(func(ctx context.Context) {
		if err := r.store.InsertEvent(ctx, snapshot); err != nil {
			logging.Logger.Warn("failed to persist distraction event",
				"session", r.sessionID,
				"signal", t.Type,
				"error", err,
			)
		}
	})
}

func (r *Recorder) handleEnd(t domain.TransitionEnd) {
	r.mu.Lock()
	event := r.latestUnresolvedLocked(t.Type)
	if event == nil {
		// The matching start was suppressed by the gate; there is no
		// episode to close, locally or remotely.
		r.mu.Unlock()
		return
	}
	event.Resolve(t.Duration)
	snapshot := *event
	r.mu.Unlock()

	logging.Logger.Info("distraction resolved",
		"session", r.sessionID,
		"signal", t.Type,
		"duration", *snapshot.Duration,
	)

	if r.localOnly {
		return
	}
	r.enqueue(func(ctx context.Context) {
		resolved := true
		patch := ports.EventPatch{
			Duration: snapshot.Duration,
			Resolved: &resolved,
			Response: snapshot.Response,
		}
		found, err := r.store.ResolveEvent(ctx, r.sessionID, t.Type, patch)
		if err != nil {
			logging.Logger.Warn("failed to resolve distraction event in store",
				"session", r.sessionID,
				"signal", t.Type,
				"error", err,
			)
			return
		}
		if found {
			return
		}
		// The start was never persisted; insert a single already-resolved
		// record so the remote history still shows the episode.
		if err := r.store.InsertEvent(ctx, snapshot); err != nil {
			logging.Logger.Warn("failed to persist resolved distraction event",
				"session", r.sessionID,
				"signal", t.Type,
				"error", err,
			)
		}
	})
}

// RecordResponse attaches the user's reaction to the latest episode. An
// ongoing episode carries the response into its resolution patch; an
// already-resolved episode is updated locally only.
func (r *Recorder) RecordResponse(response domain.UserResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return
	}
	r.events[len(r.events)-1].Response = &response
}

// Count returns the authoritative number of episodes recorded so far.
// It is monotone non-decreasing while the session is active.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Distracted reports whether any episode is currently unresolved.
func (r *Recorder) Distracted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if !e.Resolved {
			return true
		}
	}
	return false
}

// Events returns a copy of the recorded episodes, in detection order.
func (r *Recorder) Events() []domain.DistractionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DistractionEvent, len(r.events))
	for i, e := range r.events {
		out[i] = *e
	}
	return out
}

// Flush blocks until every queued persistence operation has finished.
func (r *Recorder) Flush() {
	r.wg.Wait()
}

// Close drains pending persistence and stops the worker. Safe to call once.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.wg.Wait()
		close(r.ops)
	})
}

func (r *Recorder) latestUnresolvedLocked(signalType domain.SignalType) *domain.DistractionEvent {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].SignalType == signalType && !r.events[i].Resolved {
			return r.events[i]
		}
	}
	return nil
}

func (r *Recorder) newEventID() string {
	if r.localOnly {
		return domain.LocalIDPrefix + uuid.New().String()
	}
	return uuid.New().String()
}

// enqueue hands a store operation to the persistence worker without ever
// blocking the detection path. Operations run in submission order, so the
// remote store sees the same event order the counter saw.
func (r *Recorder) enqueue(op func(context.Context)) {
	r.wg.Add(1)
	select {
	case r.ops <- op:
	default:
		r.wg.Done()
		logging.Logger.Warn("persistence queue full, dropping operation",
			"session", r.sessionID,
		)
	}
}

func (r *Recorder) persistLoop() {
	for op := range r.ops {
		ctx := context.Background()
		cancel := context.CancelFunc(func() {})
		if r.opts.PersistTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, r.opts.PersistTimeout)
		}
		op(ctx)
		cancel()
		r.wg.Done()
	}
}
