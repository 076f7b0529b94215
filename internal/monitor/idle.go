package monitor

import (
	"time"

	"driftwatch/internal/clock"
	"driftwatch/internal/domain"
)

// idleDetector tracks the last time any user input activity was observed.
// Every activity event re-arms the idle threshold; when the threshold
// elapses with no activity a distraction starts. The next activity closes
// the episode with a duration measured from when idleness actually began
// (the last observed activity), not from when the timer fired.
type idleDetector struct {
	distracted   bool
	lastActivity time.Time
	m            *Monitor
	timer        clock.Timer
}

func newIdleDetector(m *Monitor, now time.Time) *idleDetector {
	d := &idleDetector{lastActivity: now, m: m}
	d.timer = m.clk.AfterFunc(m.cfg.IdleThreshold, d.thresholdElapsed)
	return d
}

func (d *idleDetector) activityLocked() {
	m := d.m
	now := m.clk.Now()

	if d.distracted {
		d.distracted = false
		m.emitLocked(domain.TransitionEnd{
			At:       now,
			Duration: clock.Duration(d.lastActivity, now),
			Type:     domain.SignalIdle,
		})
	}

	d.lastActivity = now
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = m.clk.AfterFunc(m.cfg.IdleThreshold, d.thresholdElapsed)
}

func (d *idleDetector) thresholdElapsed() {
	m := d.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || d.distracted {
		return
	}
	d.distracted = true
	m.emitLocked(domain.TransitionStart{
		At:   m.clk.Now(),
		Type: domain.SignalIdle,
	})
}

func (d *idleDetector) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
