package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake so the
// current-year partition split is deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current UTC time from the configured source.
func Now() time.Time {
	return clock.Now().UTC()
}

// Today returns the current UTC civil date.
func Today() time.Time {
	now := clock.Now().UTC()
	return Date(now.Year(), now.Month(), now.Day())
}

// CurrentYear returns the year used to split queries between the historical
// and current partition views.
func CurrentYear() int {
	return clock.Now().UTC().Year()
}
