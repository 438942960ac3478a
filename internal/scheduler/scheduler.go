package scheduler

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"wakeclock/internal/gps"
	"wakeclock/internal/localtime"
	"wakeclock/internal/rtc"
)

var nowFn = time.Now

// GPS is the acquisition session the GPS process steps.
type GPS interface {
	State() gps.State
	BeginAcquisition()
	Poll() int
	MissedPolls() int
	PowerCycle() error
	Abandon() bool
	ConsumeResult() (gps.Outcome, bool)
	Sleep() error
}

// SyncEvent describes one dispatched acquisition outcome.
type SyncEvent struct {
	Outcome gps.Outcome
	// Local is the time written to the clock; zero unless Acquired.
	Local localtime.DateTime
	// Next is the alarm A configuration armed in response.
	Next rtc.Alarm
}

// SyncReporter observes dispatched outcomes. Report must not block.
type SyncReporter interface {
	Report(SyncEvent)
}

// Reporters fans one event out to several reporters, in order.
type Reporters []SyncReporter

func (rs Reporters) Report(ev SyncEvent) {
	for _, r := range rs {
		if r != nil {
			r.Report(ev)
		}
	}
}

type Config struct {
	// DailySync is the local time-of-day of the daily resync. Defaults to
	// 04:00:30.
	DailySync rtc.TimeOfDay
	// RetryAfter is the delay before retrying a failed acquisition. Must be
	// under a minute since the retry alarm compares seconds only. Defaults
	// to 20s.
	RetryAfter time.Duration
	// PollInterval is the acquisition timer granularity. Defaults to 1s.
	PollInterval time.Duration
	// MissedPollLimit is the number of unanswered polls that triggers a
	// module power cycle. Defaults to 20.
	MissedPollLimit int
	// MaxPowerCycles bounds power cycles per acquisition. When the module is
	// still silent after the last one the attempt ends as Unresponsive and a
	// retry is armed. Defaults to 2.
	MaxPowerCycles int

	Logger   *log.Logger
	Reporter SyncReporter
}

// ProcessStatus is the result of one step of an alarm-driven process.
type ProcessStatus int

const (
	Running ProcessStatus = iota
	Done
)

func (p ProcessStatus) String() string {
	if p == Done {
		return "done"
	}
	return "running"
}

// Scheduler is the only writer of the alarm configuration.
type Scheduler struct {
	cfg   Config
	clock rtc.Clock
	flags WakeFlags
	gps   GPS
	conv  *localtime.Converter
	log   *log.Logger

	lastPoll time.Time
	cycles   int
}

func New(clock rtc.Clock, flags WakeFlags, session GPS, conv *localtime.Converter, cfg Config) (*Scheduler, error) {
	if clock == nil || flags == nil || session == nil {
		return nil, fmt.Errorf("scheduler: clock, flags and gps are required")
	}
	if cfg.DailySync == (rtc.TimeOfDay{}) {
		cfg.DailySync = rtc.TimeOfDay{Hour: 4, Minute: 0, Second: 30}
	}
	if cfg.RetryAfter == 0 {
		cfg.RetryAfter = 20 * time.Second
	}
	if cfg.RetryAfter < time.Second || cfg.RetryAfter >= time.Minute {
		return nil, fmt.Errorf("scheduler: retry_after must be within [1s,60s), got %s", cfg.RetryAfter)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MissedPollLimit <= 0 {
		cfg.MissedPollLimit = 20
	}
	if cfg.MaxPowerCycles <= 0 {
		cfg.MaxPowerCycles = 2
	}
	if conv == nil {
		conv = localtime.NewConverter(nil)
	}
	lg := cfg.Logger
	if lg == nil {
		lg = log.Default()
	}
	return &Scheduler{
		cfg:   cfg,
		clock: clock,
		flags: flags,
		gps:   session,
		conv:  conv,
		log:   lg.With("component", "scheduler"),
	}, nil
}

// ArmGpsRetry sets alarm A to fire after d, comparing seconds only.
func (s *Scheduler) ArmGpsRetry(d time.Duration) error {
	now := s.clock.Now()
	sec := (now.Second + int(d/time.Second)) % 60
	return s.arm(rtc.SlotA, rtc.Alarm{
		Enabled: true,
		Time:    rtc.TimeOfDay{Second: sec},
		Mask:    rtc.MaskDate | rtc.MaskHours | rtc.MaskMinutes,
		Role:    rtc.RoleGpsRetry,
	})
}

// ArmGpsDailySync sets alarm A to the daily resync time, any date.
func (s *Scheduler) ArmGpsDailySync() error {
	return s.arm(rtc.SlotA, rtc.Alarm{
		Enabled: true,
		Time:    s.cfg.DailySync,
		Mask:    rtc.MaskDate,
		Role:    rtc.RoleGpsDailySync,
	})
}

// ArmMinuteTick sets alarm B to second 0 of the next minute.
func (s *Scheduler) ArmMinuteTick() error {
	now := s.clock.Now()
	return s.arm(rtc.SlotB, rtc.Alarm{
		Enabled: true,
		Time:    rtc.TimeOfDay{Minute: (now.Minute + 1) % 60},
		Mask:    rtc.MaskDate | rtc.MaskHours,
		Role:    rtc.RoleMinuteTick,
	})
}

// RearmAll rewrites every enabled alarm so its comparator stays armed.
func (s *Scheduler) RearmAll() error {
	for _, slot := range []rtc.Slot{rtc.SlotA, rtc.SlotB} {
		a := s.clock.Alarm(slot)
		if !a.Enabled {
			continue
		}
		if err := s.arm(slot, a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) arm(slot rtc.Slot, a rtc.Alarm) error {
	if err := s.clock.SetAlarm(slot, a); err != nil {
		return fmt.Errorf("scheduler: arm %s: %w", slot, err)
	}
	s.log.Debug("scheduler: alarm armed", "slot", slot, "alarm", a)
	return nil
}

// StepGpsProcess advances the GPS process by one increment and never
// blocks beyond a module power cycle. A silent module ends the process after
// (MaxPowerCycles+1)*MissedPollLimit polls.
func (s *Scheduler) StepGpsProcess() ProcessStatus {
	switch s.gps.State() {
	case gps.Idle:
		s.gps.BeginAcquisition()
		s.lastPoll = nowFn()
		s.cycles = 0
		return Running

	case gps.AwaitingSentence:
		now := nowFn()
		if now.Sub(s.lastPoll) < s.cfg.PollInterval {
			return Running
		}
		s.lastPoll = now
		missed := s.gps.Poll()
		if missed < s.cfg.MissedPollLimit {
			return Running
		}
		if s.cycles >= s.cfg.MaxPowerCycles {
			return s.giveUp()
		}
		s.cycles++
		s.log.Warn("scheduler: gps unresponsive", "missed", missed, "cycle", s.cycles)
		if err := s.gps.PowerCycle(); err != nil {
			s.log.Warn("scheduler: gps power cycle failed", "err", err)
		}
		return Running

	case gps.SentenceReady:
		out, ok := s.gps.ConsumeResult()
		if !ok {
			return Running
		}
		s.dispatch(out)
		return Done
	}
	return Running
}

// giveUp ends an acquisition the module never answered. A sentence captured
// in the meantime takes precedence and is consumed on the next step.
func (s *Scheduler) giveUp() ProcessStatus {
	if !s.gps.Abandon() {
		return Running
	}
	if err := s.gps.Sleep(); err != nil {
		s.log.Warn("scheduler: gps sleep failed", "err", err)
	}
	s.dispatch(gps.Outcome{
		Kind: gps.Unresponsive,
		Err:  fmt.Errorf("no sentence after %d power cycles", s.cycles),
	})
	return Done
}

func (s *Scheduler) dispatch(out gps.Outcome) {
	ev := SyncEvent{Outcome: out}
	switch out.Kind {
	case gps.Acquired:
		ev.Local = s.conv.ToLocal(out.UTC)
		if err := s.clock.SetTime(ev.Local); err != nil {
			s.log.Warn("scheduler: clock write failed", "err", err)
		}
		if err := s.ArmGpsDailySync(); err != nil {
			s.log.Warn("scheduler: arm daily sync failed", "err", err)
		}
		if err := s.gps.Sleep(); err != nil {
			s.log.Warn("scheduler: gps sleep failed", "err", err)
		}
		s.log.Info("scheduler: time synced", "utc", out.UTC, "local", ev.Local)
	default:
		if err := s.ArmGpsRetry(s.cfg.RetryAfter); err != nil {
			s.log.Warn("scheduler: arm retry failed", "err", err)
		}
		s.log.Info("scheduler: acquisition failed, retry armed", "outcome", out.Kind, "err", out.Err, "after", s.cfg.RetryAfter)
	}
	ev.Next = s.clock.Alarm(rtc.SlotA)
	if s.cfg.Reporter != nil {
		s.cfg.Reporter.Report(ev)
	}
}
