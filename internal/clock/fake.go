package clock

import "time"

// FakeClock is a manually advanced Clock for tests. It always reports UTC.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time { return c.now }

// Advance moves the clock forward; negative durations move it back.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
