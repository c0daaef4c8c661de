// Package timer provides a polled deadline for cooperative loops that have no
// goroutine of their own to wait on a channel.
package timer

import (
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// Timer expires a fixed duration after it was created or last reset. It is
// checked by polling Expired; nothing fires on its own.
type Timer struct {
	clock    clock.Clock
	timeout  time.Duration
	deadline time.Time
}

// New returns a timer that expires timeout from now, as measured by c. A nil
// clock means the system clock.
func New(timeout time.Duration, c clock.Clock) *Timer {
	if c == nil {
		c = clock.NewDefaultClock()
	}
	t := &Timer{
		clock:   c,
		timeout: timeout,
	}
	t.Reset()
	return t
}

// Reset restarts the timer so it expires the full timeout from now.
func (t *Timer) Reset() {
	t.deadline = t.clock.Now().Add(t.timeout)
}

// Expired returns whether the timeout has elapsed since the last reset.
func (t *Timer) Expired() bool {
	return !t.clock.Now().Before(t.deadline)
}

// Remaining returns the time left until the timer expires, or zero once it
// has.
func (t *Timer) Remaining() time.Duration {
	remaining := t.deadline.Sub(t.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
