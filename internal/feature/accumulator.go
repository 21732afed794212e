package feature

import (
	"time"

	"log-analyzer/internal/types"
)

// AttemptLog maps each (user, ip) pair to the timestamps of its suspicious
// actions in encounter order. Keys iterate in first-seen order.
type AttemptLog struct {
	order    []types.ActivityKey
	attempts map[types.ActivityKey][]time.Time
}

// NewAttemptLog creates an empty attempt log
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{
		attempts: make(map[types.ActivityKey][]time.Time),
	}
}

// Add appends ts to the key's sequence
func (l *AttemptLog) Add(key types.ActivityKey, ts time.Time) {
	if _, exists := l.attempts[key]; !exists {
		l.order = append(l.order, key)
	}
	l.attempts[key] = append(l.attempts[key], ts)
}

// Keys returns the keys in first-seen order
func (l *AttemptLog) Keys() []types.ActivityKey {
	out := make([]types.ActivityKey, len(l.order))
	copy(out, l.order)
	return out
}

// Timestamps returns the key's sequence. Callers must not modify it.
func (l *AttemptLog) Timestamps(key types.ActivityKey) []time.Time {
	return l.attempts[key]
}

// Count returns how many suspicious actions were recorded for key
func (l *AttemptLog) Count(key types.ActivityKey) int {
	return len(l.attempts[key])
}

// Len returns the number of distinct keys
func (l *AttemptLog) Len() int {
	return len(l.order)
}

// Total returns the number of recorded suspicious actions across all keys
func (l *AttemptLog) Total() int {
	n := 0
	for _, ts := range l.attempts {
		n += len(ts)
	}
	return n
}

// Accumulator builds an AttemptLog from parsed events
type Accumulator struct {
	suspicious map[string]bool
	log        *AttemptLog
}

// NewAccumulator creates an accumulator that keeps only the given actions
func NewAccumulator(suspiciousActions []string) *Accumulator {
	set := make(map[string]bool, len(suspiciousActions))
	for _, a := range suspiciousActions {
		set[a] = true
	}
	return &Accumulator{
		suspicious: set,
		log:        NewAttemptLog(),
	}
}

// IsSuspicious reports whether action is in the configured set (exact match)
func (a *Accumulator) IsSuspicious(action string) bool {
	return a.suspicious[action]
}

// AddEvent records evt if its action is suspicious and reports whether it did
func (a *Accumulator) AddEvent(evt types.LogEvent) bool {
	if !a.IsSuspicious(evt.Action) {
		return false
	}
	a.log.Add(evt.Key(), evt.Timestamp)
	return true
}

// Result returns the attempt log built so far
func (a *Accumulator) Result() *AttemptLog {
	return a.log
}

// Aggregate builds an attempt log from events in order
func Aggregate(events []types.LogEvent, suspiciousActions []string) *AttemptLog {
	acc := NewAccumulator(suspiciousActions)
	for _, evt := range events {
		acc.AddEvent(evt)
	}
	return acc.Result()
}
