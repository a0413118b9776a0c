package domain

import "github.com/jonboulle/clockwork"

var eventClock clockwork.Clock = clockwork.NewRealClock()

// UseClock stamps access events with c until the returned func is called.
func UseClock(c clockwork.Clock) (restore func()) {
	prev := eventClock
	eventClock = c
	return func() { eventClock = prev }
}
