package flows

import (
	"context"
	"sync"
	"time"
)

// DefaultResendCooldown gates resending a recovery code.
const DefaultResendCooldown = 60 * time.Second

// Countdown is a one-second resend gate. It is advisory: a fresh wizard starts
// with no cooldown, so the backend must enforce its own rate limit.
type Countdown struct {
	period time.Duration
	now    func() time.Time

	mu       sync.Mutex
	deadline time.Time
}

// NewCountdown returns a stopped Countdown. A nil now uses time.Now.
func NewCountdown(period time.Duration, now func() time.Time) *Countdown {
	if period <= 0 {
		period = DefaultResendCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Countdown{period: period, now: now}
}

// Start (re)arms the countdown for a full period.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = c.now().Add(c.period)
}

// Stop clears the countdown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = time.Time{}
}

// Remaining returns whole seconds left, rounded up. Zero means resend is allowed.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked()
}

func (c *Countdown) remainingLocked() int {
	if c.deadline.IsZero() {
		return 0
	}
	left := c.deadline.Sub(c.now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Ticks emits the remaining seconds once per second and closes after emitting
// zero or when ctx is done.
func (c *Countdown) Ticks(ctx context.Context) <-chan int {
	out := make(chan int, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			left := c.Remaining()
			select {
			case out <- left:
			case <-ctx.Done():
				return
			}
			if left == 0 {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
