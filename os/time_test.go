package os

import (
	"testing"
	"time"
)

func TestTickConversions(t *testing.T) {
	if MillisecondsToTicks(1) != 40500 {
		t.Error("unexpected ticks per millisecond:", MillisecondsToTicks(1))
	}
	if SecondsToTicks(1) != MillisecondsToTicks(1000) {
		t.Error("seconds and milliseconds conversions disagree")
	}
	if MicrosecondsToTicks(1000) != MillisecondsToTicks(1) {
		t.Error("microseconds and milliseconds conversions disagree")
	}
	if NanosecondsToTicks(1_000_000_000) != SecondsToTicks(1) {
		t.Error("nanoseconds and seconds conversions disagree")
	}

	if TicksToSeconds(SecondsToTicks(7)) != 7 {
		t.Error("seconds round trip failed")
	}
	if TicksToMilliseconds(MillisecondsToTicks(123)) != 123 {
		t.Error("milliseconds round trip failed")
	}
	if TicksToMicroseconds(MicrosecondsToTicks(8)) != 8 {
		t.Error("microseconds round trip failed")
	}
	if TicksToNanoseconds(SecondsToTicks(1)) != 1_000_000_000 {
		t.Error("nanoseconds per second mismatch")
	}
}

func TestSystemClock(t *testing.T) {
	c := NewSystemClock()
	before := c.Now()
	time.Sleep(time.Millisecond)
	after := c.Now()
	if after <= before {
		t.Error("clock did not advance:", before, after)
	}
}
