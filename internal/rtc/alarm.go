// Package rtc models the real-time clock the device keeps local time in:
// a calendar counter plus two alarm comparators (slots A and B) whose
// match flags stay latched until cleared.
package rtc

import (
	"fmt"
	"strings"

	"wakeclock/internal/localtime"
)

type Slot int

const (
	SlotA Slot = iota
	SlotB
)

func (s Slot) String() string {
	switch s {
	case SlotA:
		return "A"
	case SlotB:
		return "B"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Mask marks alarm fields as "don't care".
type Mask uint8

const (
	MaskDate Mask = 1 << iota
	MaskHours
	MaskMinutes
	MaskSeconds
)

func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		bit  Mask
		name string
	}{{MaskDate, "date"}, {MaskHours, "hours"}, {MaskMinutes, "minutes"}, {MaskSeconds, "seconds"}} {
		if m&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// Role records why an alarm slot was armed.
type Role int

const (
	RoleNone Role = iota
	RoleGpsRetry
	RoleGpsDailySync
	RoleMinuteTick
)

func (r Role) String() string {
	switch r {
	case RoleGpsRetry:
		return "gps_retry"
	case RoleGpsDailySync:
		return "gps_daily_sync"
	case RoleMinuteTick:
		return "minute_tick"
	default:
		return "none"
	}
}

type TimeOfDay struct {
	Hour, Minute, Second int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Alarm is one comparator configuration.
type Alarm struct {
	Enabled bool
	Time    TimeOfDay
	// Day of month, compared only when MaskDate is clear.
	Day  int
	Mask Mask
	Role Role
}

// Matches reports whether the comparator fires at now. Masked fields always
// match; a disabled alarm never does.
func (a Alarm) Matches(now localtime.DateTime) bool {
	if !a.Enabled {
		return false
	}
	if a.Mask&MaskDate == 0 && a.Day != now.Day {
		return false
	}
	if a.Mask&MaskHours == 0 && a.Time.Hour != now.Hour {
		return false
	}
	if a.Mask&MaskMinutes == 0 && a.Time.Minute != now.Minute {
		return false
	}
	if a.Mask&MaskSeconds == 0 && a.Time.Second != now.Second {
		return false
	}
	return true
}

func (a Alarm) String() string {
	if !a.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("%s mask=%s role=%s", a.Time, a.Mask, a.Role)
}
