package monitor

import (
	"time"

	"driftwatch/internal/clock"
	"driftwatch/internal/domain"
)

// attentionDetector watches the binary "has attention" signal. Losing
// attention arms a grace timer; only if attention is not regained before
// the timer fires does a distraction start. The episode duration is
// measured from the instant attention was lost, not from when the grace
// timer fired, so it is never under-counted.
type attentionDetector struct {
	distracted   bool
	graceTimer   clock.Timer
	hasAttention bool
	lostAt       time.Time
	m            *Monitor
}

func (d *attentionDetector) observeLocked(has bool) {
	m := d.m
	now := m.clk.Now()

	switch {
	case !has && d.hasAttention:
		d.hasAttention = false
		d.lostAt = now
		d.graceTimer = m.clk.AfterFunc(m.cfg.AttentionGrace, d.graceElapsed)

	case has && !d.hasAttention:
		d.hasAttention = true
		if d.graceTimer != nil {
			d.graceTimer.Stop()
			d.graceTimer = nil
		}
		if d.distracted {
			d.distracted = false
			m.emitLocked(domain.TransitionEnd{
				At:       now,
				Duration: clock.Duration(d.lostAt, now),
				Type:     domain.SignalAttention,
			})
		}
	}
}

// graceElapsed fires when attention was not regained within the grace
// period. Runs on a timer goroutine; takes the monitor lock and re-checks
// the active flag so a fire racing Deactivate is inert.
func (d *attentionDetector) graceElapsed() {
	m := d.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || d.hasAttention || d.distracted {
		return
	}
	d.distracted = true
	m.emitLocked(domain.TransitionStart{
		At:   m.clk.Now(),
		Type: domain.SignalAttention,
	})
}

func (d *attentionDetector) stopLocked() {
	if d.graceTimer != nil {
		d.graceTimer.Stop()
		d.graceTimer = nil
	}
}
