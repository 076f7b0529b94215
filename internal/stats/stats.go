// Package stats derives focus-quality, return-rate, and duration metrics
// from a finished session's distraction events. All functions are pure,
// tolerate empty input, and never divide by zero.
package stats

import (
	"math"
	"time"

	"driftwatch/internal/domain"
)

// Summary bundles the metrics computed for one finished session.
type Summary struct {
	AverageDuration  time.Duration
	DistractionCount int
	FocusQuality     int
	MostCommonType   domain.SignalType
	ReturnRate       float64
}

// Summarize computes the full metric set for a session's final event list.
func Summarize(totalDuration time.Duration, events []domain.DistractionEvent) Summary {
	return Summary{
		AverageDuration:  AverageDuration(events),
		DistractionCount: len(events),
		FocusQuality:     FocusQuality(totalDuration, events),
		MostCommonType:   MostCommonType(events),
		ReturnRate:       ReturnRate(events),
	}
}

// FocusQuality returns the percentage of the session not attributed to
// distraction episodes, rounded and clamped into [0,100]. A non-positive
// total duration yields 0.
func FocusQuality(totalDuration time.Duration, events []domain.DistractionEvent) int {
	if totalDuration <= 0 {
		return 0
	}

	var distracted time.Duration
	for _, e := range events {
		if e.Duration != nil {
			distracted += *e.Duration
		}
	}

	quality := int(math.Round(100 * float64(totalDuration-distracted) / float64(totalDuration)))
	if quality < 0 {
		return 0
	}
	if quality > 100 {
		return 100
	}
	return quality
}

// MostCommonType returns the mode of signal types by count, ties broken by
// the first-seen type. Empty input yields the empty type.
func MostCommonType(events []domain.DistractionEvent) domain.SignalType {
	counts := make(map[domain.SignalType]int)
	var order []domain.SignalType

	for _, e := range events {
		if counts[e.SignalType] == 0 {
			order = append(order, e.SignalType)
		}
		counts[e.SignalType]++
	}

	var best domain.SignalType
	bestCount := 0
	for _, t := range order {
		if counts[t] > bestCount {
			best = t
			bestCount = counts[t]
		}
	}
	return best
}

// AverageDuration returns the mean duration of resolved events, or 0 when
// no event is resolved.
func AverageDuration(events []domain.DistractionEvent) time.Duration {
	var total time.Duration
	resolved := 0
	for _, e := range events {
		if e.Resolved && e.Duration != nil {
			total += *e.Duration
			resolved++
		}
	}
	if resolved == 0 {
		return 0
	}
	return total / time.Duration(resolved)
}

// ReturnRate returns the fraction of events the user responded to with
// "returned". Empty input yields 0.
func ReturnRate(events []domain.DistractionEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	returned := 0
	for _, e := range events {
		if e.Response != nil && *e.Response == domain.ResponseReturned {
			returned++
		}
	}
	return float64(returned) / float64(len(events))
}
