package Models

import "time"

// Clock supplies the current time to completion and identifier logic.
type Clock interface {
	Now() time.Time
}

type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location != nil {
		return time.Now().In(c.Location)
	}
	return time.Now()
}

// FixedClock always returns the same instant. Set moves it.
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time { return c.At }

func (c *FixedClock) Set(t time.Time) { c.At = t }

func (c *FixedClock) Advance(d time.Duration) { c.At = c.At.Add(d) }

// utc moves each set timestamp to UTC. sqlite compares stored times as
// text, so every persisted instant shares one offset.
func utc(ts ...*time.Time) {
	for _, t := range ts {
		if t != nil && !t.IsZero() {
			*t = t.UTC()
		}
	}
}
