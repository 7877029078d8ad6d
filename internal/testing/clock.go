package testing

import "time"

// Clock is where the runner reads wall time from. Reports print elapsed
// whole seconds, so tests swap in mock.MockClock and advance it by hand.
type Clock interface {
	Now() time.Time
	Since(start time.Time) time.Duration
}

// RealClock reads the system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Since(start time.Time) time.Duration { return time.Since(start) }
