package detect

import (
	"fmt"
	"time"

	"log-analyzer/internal/feature"
	"log-analyzer/internal/sink"
	"log-analyzer/internal/types"
)

// Engine runs the sliding-window check over every key of an attempt log
type Engine struct {
	threshold     int
	windowMinutes int
	alerts        sink.Sink
	now           func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the clock used to stamp alerts
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new detection engine writing alert lines to alerts
func NewEngine(threshold, windowMinutes int, alerts sink.Sink, opts ...Option) *Engine {
	e := &Engine{
		threshold:     threshold,
		windowMinutes: windowMinutes,
		alerts:        alerts,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the trailing window length
func (e *Engine) Window() time.Duration {
	return time.Duration(e.windowMinutes) * time.Minute
}

// Detect returns one alert per event whose trailing window reaches the threshold.
// A sustained burst therefore yields several overlapping alerts.
func (e *Engine) Detect(key types.ActivityKey, instants []time.Time) []types.Alert {
	counts := WindowCounts(instants, e.threshold, e.Window())
	if len(counts) == 0 {
		return nil
	}

	alerts := make([]types.Alert, 0, len(counts))
	for _, count := range counts {
		alerts = append(alerts, types.Alert{
			Key:           key,
			WindowCount:   count,
			WindowMinutes: e.windowMinutes,
			GeneratedAt:   e.now(),
			Summary: fmt.Sprintf("User '%s' from IP %s had %d failed attempts within %d minutes.",
				key.User, key.IP, count, e.windowMinutes),
		})
	}
	return alerts
}

// Run checks every key in first-seen order and appends all alert lines to
// the alert sink in one batch. Nothing is written when there are no alerts.
func (e *Engine) Run(log *feature.AttemptLog) ([]types.Alert, error) {
	var alerts []types.Alert
	for _, key := range log.Keys() {
		alerts = append(alerts, e.Detect(key, log.Timestamps(key))...)
	}

	if len(alerts) == 0 {
		return nil, nil
	}

	lines := make([]string, len(alerts))
	for i, a := range alerts {
		lines[i] = a.Line()
	}
	if err := e.alerts.Append(lines...); err != nil {
		return alerts, fmt.Errorf("failed to write alerts: %w", err)
	}
	return alerts, nil
}
