package os

import "time"

// Time is a count of CPU timebase ticks.
type Time int64

// The bus clock. The CPU's timebase increments once every four bus cycles.
const (
	BusClock   = 162_000_000
	TimerClock = BusClock / 4
)

func SecondsToTicks(sec int64) Time       { return Time(sec * TimerClock) }
func MillisecondsToTicks(msec int64) Time { return Time(msec * (TimerClock / 1000)) }

// The timebase frequency is not a whole multiple of 1e6, so sub-millisecond
// conversions scale by TimerClock/125000 ticks per 8 microseconds.
func MicrosecondsToTicks(usec int64) Time { return Time(usec * (TimerClock / 125000) / 8) }
func NanosecondsToTicks(nsec int64) Time  { return Time(nsec * (TimerClock / 125000) / 8000) }

func TicksToSeconds(t Time) int64      { return int64(t) / TimerClock }
func TicksToMilliseconds(t Time) int64 { return int64(t) / (TimerClock / 1000) }
func TicksToMicroseconds(t Time) int64 { return int64(t) * 8 / (TimerClock / 125000) }
func TicksToNanoseconds(t Time) int64  { return int64(t) * 8000 / (TimerClock / 125000) }

// A Clock provides the current value of the monotonic system timebase. It
// never fails and never goes backwards.
type Clock interface {
	Now() Time
}

// NewSystemClock returns a Clock counting timebase ticks since its creation,
// derived from the host's monotonic clock.
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

type systemClock struct {
	start time.Time
}

func (c *systemClock) Now() Time {
	return NanosecondsToTicks(time.Since(c.start).Nanoseconds())
}
