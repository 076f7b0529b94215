package monitor

import (
	"context"
	"time"

	"driftwatch/internal/clock"
	"driftwatch/internal/domain"
)

// evaluateFunc asks an external collaborator for a judgement. It reports
// whether the verdict was negative (distracting) and whether it was
// conclusive at all. Collaborator errors and timeouts are inconclusive,
// never a distraction signal.
type evaluateFunc func(ctx context.Context) (negative, conclusive bool)

// verdictDetector drives the content-relevance and presence detectors:
// poll on a fixed cadence, and only after a negative verdict has been
// sustained past the threshold does a distraction start. A positive
// verdict closes any open episode with a duration measured from when the
// negative streak began.
type verdictDetector struct {
	distracted    bool
	episodeStart  time.Time
	evaluate      evaluateFunc
	inFlight      bool
	m             *Monitor
	negativeSince time.Time
	pollTimer     clock.Timer
	signal        domain.SignalType
	sustain       time.Duration
	sustainTimer  clock.Timer
}

func newVerdictDetector(m *Monitor, signal domain.SignalType, sustain time.Duration, evaluate evaluateFunc) *verdictDetector {
	d := &verdictDetector{
		evaluate: evaluate,
		m:        m,
		signal:   signal,
		sustain:  sustain,
	}
	d.pollTimer = m.clk.AfterFunc(m.cfg.PollInterval, d.poll)
	return d
}

// poll runs one evaluation round. It executes on the poll timer's own
// goroutine, so awaiting the collaborator here never blocks the other
// detectors; the next round is armed before evaluating so the cadence
// holds regardless of how long the collaborator takes.
func (d *verdictDetector) poll() {
	m := d.m
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	d.pollTimer = m.clk.AfterFunc(m.cfg.PollInterval, d.poll)
	if d.inFlight {
		// Previous evaluation still awaiting the collaborator; skip this
		// round rather than pile up requests.
		m.mu.Unlock()
		return
	}
	d.inFlight = true
	timeout := m.cfg.EvaluateTimeout
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	negative, conclusive := d.evaluate(ctx)
	cancel()
	d.apply(negative, conclusive)
}

func (d *verdictDetector) apply(negative, conclusive bool) {
	m := d.m
	m.mu.Lock()
	defer m.mu.Unlock()

	d.inFlight = false
	if !m.active || !conclusive {
		return
	}

	now := m.clk.Now()
	if negative {
		if d.negativeSince.IsZero() {
			d.negativeSince = now
			d.sustainTimer = m.clk.AfterFunc(d.sustain, d.sustainElapsed)
		}
		return
	}

	// Positive verdict: drop any pending sustain and close an open episode.
	d.negativeSince = time.Time{}
	if d.sustainTimer != nil {
		d.sustainTimer.Stop()
		d.sustainTimer = nil
	}
	if d.distracted {
		d.distracted = false
		m.emitLocked(domain.TransitionEnd{
			At:       now,
			Duration: clock.Duration(d.episodeStart, now),
			Type:     d.signal,
		})
	}
}

func (d *verdictDetector) sustainElapsed() {
	m := d.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || d.distracted || d.negativeSince.IsZero() {
		return
	}
	d.distracted = true
	d.episodeStart = d.negativeSince
	m.emitLocked(domain.TransitionStart{
		At:   m.clk.Now(),
		Type: d.signal,
	})
}

func (d *verdictDetector) stopLocked() {
	if d.pollTimer != nil {
		d.pollTimer.Stop()
		d.pollTimer = nil
	}
	if d.sustainTimer != nil {
		d.sustainTimer.Stop()
		d.sustainTimer = nil
	}
}
