package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/internal/debounce"
	"driftwatch/internal/domain"
	"driftwatch/internal/ports"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeEventStore records calls and returns scripted results. Safe for the
// recorder's persistence worker goroutine.
type fakeEventStore struct {
	mu         sync.Mutex
	inserted   []domain.DistractionEvent
	insertErr  error
	resolved   []domain.SignalType
	resolveErr error
	found      bool
}

func (f *fakeEventStore) InsertEvent(ctx context.Context, event domain.DistractionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, event)
	return nil
}

func (f *fakeEventStore) ResolveEvent(ctx context.Context, sessionID string, signalType domain.SignalType, patch ports.EventPatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return false, f.resolveErr
	}
	f.resolved = append(f.resolved, signalType)
	return f.found, nil
}

func (f *fakeEventStore) insertedEvents() []domain.DistractionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DistractionEvent{}, f.inserted...)
}

func newRecorder(store ports.EventStore, window time.Duration) *Recorder {
	return New("session-1", store, debounce.NewGate(), Options{DebounceWindow: window})
}

func TestRecorder_StartIncrementsCounter(t *testing.T) {
	store := &fakeEventStore{found: true}
	r := newRecorder(store, 10*time.Second)
	defer r.Close()

	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalIdle})

	assert.Equal(t, 1, r.Count())
	assert.True(t, r.Distracted())

	r.Flush()
	require.Len(t, store.insertedEvents(), 1)
	assert.Equal(t, domain.SignalIdle, store.insertedEvents()[0].SignalType)
}

func TestRecorder_DebounceSuppressesSecondStart(t *testing.T) {
	store := &fakeEventStore{found: true}
	r := newRecorder(store, 10*time.Second)
	defer r.Close()

	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalAttention})
	r.HandleTransition(domain.TransitionStart{At: baseTime.Add(3 * time.Second), Type: domain.SignalAttention})

	assert.Equal(t, 1, r.Count(), "second start within the window must not count")

	r.Flush()
	assert.Len(t, store.insertedEvents(), 1)
}

func TestRecorder_EndResolvesLatestUnresolved(t *testing.T) {
	store := &fakeEventStore{found: true}
	r := newRecorder(store, 0)
	defer r.Close()

	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalIdle})
	r.HandleTransition(domain.TransitionEnd{
		At:       baseTime.Add(16 * time.Second),
		Duration: 16 * time.Second,
		Type:     domain.SignalIdle,
	})

	assert.Equal(t, 1, r.Count(), "resolution never decrements the counter")
	assert.False(t, r.Distracted())

	events := r.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].Resolved)
	assert.Equal(t, 16*time.Second, *events[0].Duration)
}

func TestRecorder_EndWithoutStartIsNoOp(t *testing.T) {
	store := &fakeEventStore{found: true}
	r := newRecorder(store, 10*time.Second)
	defer r.Close()

	// The start was debounced away; its end must not create an episode.
	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalAttention})
	r.HandleTransition(domain.TransitionEnd{At: baseTime.Add(time.Second), Duration: time.Second, Type: domain.SignalAttention})
	r.HandleTransition(domain.TransitionStart{At: baseTime.Add(3 * time.Second), Type: domain.SignalAttention})
	r.HandleTransition(domain.TransitionEnd{At: baseTime.Add(4 * time.Second), Duration: time.Second, Type: domain.SignalAttention})

	assert.Equal(t, 1, r.Count())
	assert.Len(t, r.Events(), 1)
}

func TestRecorder_EndInsertsResolvedRecordWhenStoreNeverSawStart(t *testing.T) {
	store := &fakeEventStore{insertErr: errors.New("store down")}
	r := newRecorder(store, 0)

	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalIdle})
	r.Flush()

	// Store recovers; the resolve finds nothing so a single
	// already-resolved record is inserted instead.
	store.mu.Lock()
	store.insertErr = nil
	store.found = false
	store.mu.Unlock()

	r.HandleTransition(domain.TransitionEnd{At: baseTime.Add(5 * time.Second), Duration: 5 * time.Second, Type: domain.SignalIdle})
	r.Close()

	inserted := store.insertedEvents()
	require.Len(t, inserted, 1)
	assert.True(t, inserted[0].Resolved)
	assert.Equal(t, 5*time.Second, *inserted[0].Duration)
	assert.Equal(t, 1, r.Count())
}

func TestRecorder_PersistenceFailuresNeverAffectCounter(t *testing.T) {
	store := &fakeEventStore{insertErr: errors.New("unreachable"), resolveErr: errors.New("unreachable")}
	r := newRecorder(store, 0)
	defer r.Close()

	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalIdle})
	r.HandleTransition(domain.TransitionEnd{At: baseTime.Add(time.Second), Duration: time.Second, Type: domain.SignalIdle})
	r.HandleTransition(domain.TransitionStart{At: baseTime.Add(time.Minute), Type: domain.SignalAttention})
	r.Flush()

	assert.Equal(t, 2, r.Count())
	events := r.Events()
	require.Len(t, events, 2)
	assert.True(t, events[0].Resolved)
}

func TestRecorder_LocalOnlySkipsPersistence(t *testing.T) {
	store := &fakeEventStore{found: true}
	r := New("local-abc", store, debounce.NewGate(), Options{LocalOnly: true})
	defer r.Close()

	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalIdle})
	r.HandleTransition(domain.TransitionEnd{At: baseTime.Add(time.Second), Duration: time.Second, Type: domain.SignalIdle})
	r.Flush()

	assert.Equal(t, 1, r.Count())
	assert.Empty(t, store.insertedEvents())
	store.mu.Lock()
	assert.Empty(t, store.resolved)
	store.mu.Unlock()
}

func TestRecorder_LocalOnlyEventIDsCarryPrefix(t *testing.T) {
	r := New("local-abc", nil, debounce.NewGate(), Options{})
	defer r.Close()

	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalIdle})

	events := r.Events()
	require.Len(t, events, 1)
	assert.True(t, domain.IsLocalID(events[0].ID))
}

func TestRecorder_ResponseRidesResolutionPatch(t *testing.T) {
	store := &fakeEventStore{found: true}
	r := newRecorder(store, 0)
	defer r.Close()

	r.HandleTransition(domain.TransitionStart{At: baseTime, Type: domain.SignalAttention})
	r.RecordResponse(domain.ResponseReturned)
	r.HandleTransition(domain.TransitionEnd{At: baseTime.Add(2 * time.Second), Duration: 2 * time.Second, Type: domain.SignalAttention})
	r.Flush()

	events := r.Events()
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Response)
	assert.Equal(t, domain.ResponseReturned, *events[0].Response)
}

func TestRecorder_GateResetOnNew(t *testing.T) {
	gate := debounce.NewGate()
	assert.True(t, gate.Accept(string(domain.SignalIdle), baseTime, 10*time.Second))

	r := New("session-2", nil, gate, Options{DebounceWindow: 10 * time.Second})
	defer r.Close()

	// Without the reset this start would be inside the previous session's window.
	r.HandleTransition(domain.TransitionStart{At: baseTime.Add(time.Second), Type: domain.SignalIdle})
	assert.Equal(t, 1, r.Count())
}
