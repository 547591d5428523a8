package session

import "time"

// Clock abstracts time so countdowns can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

// SystemClock uses the runtime clock; time.Now carries a monotonic reading so
// deadlines are immune to wall-clock jumps.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// countdown is one armed practice-test timer. cancel is the token that
// disarms it even if the callback is already queued.
type countdown struct {
	deadline time.Time
	timer    Timer
	cancel   func()
}

func (c *countdown) stop() {
	if c == nil {
		return
	}
	c.cancel()
	c.timer.Stop()
}

func (c *countdown) remaining(now time.Time) time.Duration {
	if d := c.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}
