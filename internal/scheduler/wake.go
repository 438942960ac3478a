// Package scheduler decides what a wake is for and drives the alarm-backed
// processes: the GPS time sync on alarm A and the minute tick on alarm B.
package scheduler

import (
	"fmt"

	"wakeclock/internal/rtc"
)

type WakeEvent int

const (
	BootUp WakeEvent = iota
	ExternalButton
	AlarmA
	AlarmB
	AlarmAOrBAmbiguous
)

func (e WakeEvent) String() string {
	switch e {
	case BootUp:
		return "boot_up"
	case ExternalButton:
		return "external_button"
	case AlarmA:
		return "alarm_a"
	case AlarmB:
		return "alarm_b"
	case AlarmAOrBAmbiguous:
		return "alarm_a_or_b"
	default:
		return fmt.Sprintf("wake(%d)", int(e))
	}
}

// WakeFlags is the power controller's view of the last wake.
type WakeFlags interface {
	// TakeFlags returns and clears the resumed-from-standby and wake-pin
	// flags.
	TakeFlags() (resumed, pin bool)
}

// ClassifyWake derives the wake event from the latched flags and clears
// every flag it consulted, so a second call without a new wake reports
// BootUp.
//
// Both alarm flags latched is always AlarmAOrBAmbiguous: the device runs
// both processes rather than drop one of them.
func (s *Scheduler) ClassifyWake() WakeEvent {
	fa := s.clock.TakeAlarmFlag(rtc.SlotA)
	fb := s.clock.TakeAlarmFlag(rtc.SlotB)
	resumed, pin := s.flags.TakeFlags()

	ev, ok := alarmEvent(fa, fb)
	switch {
	case ok:
	case resumed && pin:
		ev = ExternalButton
	default:
		ev = BootUp
	}
	s.log.Info("scheduler: wake classified", "event", ev, "resumed", resumed, "pin", pin, "flag_a", fa, "flag_b", fb)
	return ev
}

// PollWake picks up a wake source that latched while the device is already
// awake. An alarm is reported before a button press; the press then stays
// latched for the next call.
func (s *Scheduler) PollWake() (WakeEvent, bool) {
	fa := s.clock.TakeAlarmFlag(rtc.SlotA)
	fb := s.clock.TakeAlarmFlag(rtc.SlotB)
	ev, ok := alarmEvent(fa, fb)
	if !ok {
		if _, pin := s.flags.TakeFlags(); !pin {
			return BootUp, false
		}
		ev = ExternalButton
	}
	s.log.Debug("scheduler: wake while awake", "event", ev)
	return ev, true
}

func alarmEvent(fa, fb bool) (WakeEvent, bool) {
	switch {
	case fa && fb:
		return AlarmAOrBAmbiguous, true
	case fa:
		return AlarmA, true
	case fb:
		return AlarmB, true
	}
	return BootUp, false
}
