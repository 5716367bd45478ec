package db

import "time"

// fixedClock returns a clock that advances one second per call, starting at start
func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Second)
		return now
	}
}
