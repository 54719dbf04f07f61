// Package waittest provides a backoff timer that fires immediately and records
// every pause it was asked for.
package waittest

import (
	"sync"
	"time"
)

type Timer struct {
	mu     sync.Mutex
	ch     chan time.Time
	pauses []time.Duration
}

func NewTimer() *Timer {
	return &Timer{ch: make(chan time.Time, 1)}
}

func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	t.pauses = append(t.pauses, d)
	t.mu.Unlock()

	select {
	case t.ch <- time.Time{}:
	default:
	}
}

func (t *Timer) Stop() {}

func (t *Timer) C() <-chan time.Time {
	return t.ch
}

// Pauses returns the durations passed to Start, in order.
func (t *Timer) Pauses() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.pauses...)
}

// Total is the sum of all pauses.
func (t *Timer) Total() time.Duration {
	var sum time.Duration
	for _, d := range t.Pauses() {
		sum += d
	}
	return sum
}
