// Package clock provides the monotonic time source and timer scheduling
// used by the detection engine. All duration arithmetic goes through
// Duration so a misbehaving clock can never produce a negative duration.
package clock

import (
	"time"

	"driftwatch/internal/logging"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from firing.
	Stop() bool
}

// Clock is the time source for the engine. Go's time.Time carries a
// monotonic reading on every Now() call; if the platform offers no
// monotonic source the values degrade to wall-clock time, which means
// reduced precision rather than an error.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
	Since(t time.Time) time.Duration
}

// System is the real-time Clock implementation.
type System struct{}

// NewSystem creates a Clock backed by the runtime clock.
func NewSystem() *System { return &System{} }

func (*System) Now() time.Time { return time.Now() }

func (*System) Since(t time.Time) time.Duration { return Duration(t, time.Now()) }

func (*System) AfterFunc(d time.Duration, f func()) Timer {
	return systemTimer{time.AfterFunc(d, f)}
}

type systemTimer struct{ t *time.Timer }

func (s systemTimer) Stop() bool { return s.t.Stop() }

// Duration returns end-start clamped to zero. A negative reading is a
// clock anomaly: it is logged as a warning and never surfaced as an error.
func Duration(start, end time.Time) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		logging.Logger.Warn("clock anomaly: negative duration clamped to zero",
			"start", start,
			"end", end,
			"raw", d,
		)
		return 0
	}
	return d
}
