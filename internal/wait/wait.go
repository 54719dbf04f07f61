package wait

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotReady is returned by Poll when the readiness predicate never held.
var ErrNotReady = errors.New("not ready")

// Policy bounds how long a caller waits for content that renders asynchronously.
// The zero Timer uses real time; tests inject a fake one.
type Policy struct {
	Attempts int           // total predicate evaluations
	Interval time.Duration // pause between evaluations
	Timer    backoff.Timer

	// OnRetry runs before each pause with the number of the attempt that just failed.
	OnRetry func(attempt int)
}

// Fixed returns a policy that evaluates at most attempts times, interval apart.
func Fixed(attempts int, interval time.Duration) Policy {
	return Policy{Attempts: attempts, Interval: interval}
}

// WithTimer returns a copy of p that pauses on t.
func (p Policy) WithTimer(t backoff.Timer) Policy {
	p.Timer = t
	return p
}

// Poll evaluates ready until it reports true, fails, or the attempts run out.
// It returns the number of evaluations performed. Errors from ready are returned
// as is and stop polling; exhaustion yields ErrNotReady.
func (p Policy) Poll(ctx context.Context, ready func(ctx context.Context) (bool, error)) (int, error) {
	attempts := 0
	op := func() error {
		attempts++
		ok, err := ready(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return ErrNotReady
		}
		return nil
	}
	notify := func(error, time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempts)
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), p.retries()), ctx)
	err := backoff.RetryNotifyWithTimer(op, b, notify, p.Timer)
	return attempts, err
}

// Retry runs op until it succeeds or the attempts run out, and returns the number
// of runs and the last error.
func (p Policy) Retry(ctx context.Context, op func() error) (int, error) {
	attempts := 0
	run := func() error {
		attempts++
		return op()
	}
	notify := func(error, time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempts)
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), p.retries()), ctx)
	err := backoff.RetryNotifyWithTimer(run, b, notify, p.Timer)
	return attempts, err
}

// Sleep blocks for d or until ctx is done.
func (p Policy) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := p.Timer
	if t == nil {
		t = &realTimer{}
	}
	t.Start(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

func (p Policy) retries() uint64 {
	if p.Attempts <= 1 {
		return 0
	}
	return uint64(p.Attempts - 1)
}

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *realTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}
