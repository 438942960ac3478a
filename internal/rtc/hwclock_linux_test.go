//go:build linux

package rtc

import (
	"testing"

	"wakeclock/internal/localtime"
)

func TestRTCTimeConversion(t *testing.T) {
	dt := localtime.DateTime{Year: 2024, Month: 1, Day: 1, Hour: 4, Minute: 0, Second: 30, Weekday: 1}
	raw := toRTCTime(dt)
	if raw.Year != 124 || raw.Mon != 0 || raw.Mday != 1 || raw.Wday != 1 {
		t.Fatalf("unexpected rtc_time %+v", *raw)
	}
	if got := fromRTCTime(raw); got != dt {
		t.Fatalf("round trip: got %v want %v", got, dt)
	}
}

func TestOpenHWClock_MissingDevice(t *testing.T) {
	if _, err := OpenHWClock("/dev/rtc-does-not-exist"); err == nil {
		t.Fatalf("expected error")
	}
}
