package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"driftwatch/internal/domain"
)

func resolvedEvent(signal domain.SignalType, d time.Duration) domain.DistractionEvent {
	e := domain.DistractionEvent{SignalType: signal}
	e.Resolve(d)
	return e
}

func respondedEvent(signal domain.SignalType, d time.Duration, response domain.UserResponse) domain.DistractionEvent {
	e := resolvedEvent(signal, d)
	e.Response = &response
	return e
}

func TestFocusQuality(t *testing.T) {
	tests := []struct {
		name     string
		total    time.Duration
		events   []domain.DistractionEvent
		expected int
	}{
		{"zero total", 0, nil, 0},
		{"negative total", -time.Minute, nil, 0},
		{"no events", 25 * time.Minute, nil, 100},
		{"all zero durations", 25 * time.Minute, []domain.DistractionEvent{
			resolvedEvent(domain.SignalIdle, 0),
			resolvedEvent(domain.SignalAttention, 0),
		}, 100},
		{"half distracted", 10 * time.Minute, []domain.DistractionEvent{
			resolvedEvent(domain.SignalIdle, 5*time.Minute),
		}, 50},
		{"rounding", 3 * time.Minute, []domain.DistractionEvent{
			resolvedEvent(domain.SignalIdle, time.Minute),
		}, 67},
		{"distraction exceeds total clamps to zero", time.Minute, []domain.DistractionEvent{
			resolvedEvent(domain.SignalIdle, 2*time.Minute),
		}, 0},
		{"unresolved events contribute nothing", 10 * time.Minute, []domain.DistractionEvent{
			{SignalType: domain.SignalIdle},
		}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FocusQuality(tt.total, tt.events))
		})
	}
}

func TestMostCommonType(t *testing.T) {
	tests := []struct {
		name     string
		events   []domain.DistractionEvent
		expected domain.SignalType
	}{
		{"empty", nil, domain.SignalType("")},
		{"single", []domain.DistractionEvent{
			{SignalType: domain.SignalIdle},
		}, domain.SignalIdle},
		{"clear majority", []domain.DistractionEvent{
			{SignalType: domain.SignalAttention},
			{SignalType: domain.SignalIdle},
			{SignalType: domain.SignalIdle},
		}, domain.SignalIdle},
		{"tie broken by first seen", []domain.DistractionEvent{
			{SignalType: domain.SignalContent},
			{SignalType: domain.SignalIdle},
			{SignalType: domain.SignalIdle},
			{SignalType: domain.SignalContent},
		}, domain.SignalContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MostCommonType(tt.events))
		})
	}
}

func TestAverageDuration(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), AverageDuration(nil))
	})

	t.Run("ignores unresolved", func(t *testing.T) {
		events := []domain.DistractionEvent{
			resolvedEvent(domain.SignalIdle, 10*time.Second),
			{SignalType: domain.SignalAttention},
		}
		assert.Equal(t, 10*time.Second, AverageDuration(events))
	})

	t.Run("mean of resolved", func(t *testing.T) {
		events := []domain.DistractionEvent{
			resolvedEvent(domain.SignalIdle, 10*time.Second),
			resolvedEvent(domain.SignalAttention, 30*time.Second),
		}
		assert.Equal(t, 20*time.Second, AverageDuration(events))
	})
}

func TestReturnRate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, ReturnRate(nil))
	})

	t.Run("counts only returned responses", func(t *testing.T) {
		events := []domain.DistractionEvent{
			respondedEvent(domain.SignalIdle, time.Second, domain.ResponseReturned),
			respondedEvent(domain.SignalIdle, time.Second, domain.ResponseIgnored),
			resolvedEvent(domain.SignalAttention, time.Second),
			respondedEvent(domain.SignalContent, time.Second, domain.ResponseReturned),
		}
		assert.InDelta(t, 0.5, ReturnRate(events), 1e-9)
	})
}

func TestSummarize(t *testing.T) {
	events := []domain.DistractionEvent{
		respondedEvent(domain.SignalIdle, 2*time.Minute, domain.ResponseReturned),
		resolvedEvent(domain.SignalIdle, time.Minute),
	}

	summary := Summarize(10*time.Minute, events)

	assert.Equal(t, 2, summary.DistractionCount)
	assert.Equal(t, 70, summary.FocusQuality)
	assert.Equal(t, domain.SignalIdle, summary.MostCommonType)
	assert.Equal(t, 90*time.Second, summary.AverageDuration)
	assert.InDelta(t, 0.5, summary.ReturnRate, 1e-9)
}
