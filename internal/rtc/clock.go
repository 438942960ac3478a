package rtc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"wakeclock/internal/localtime"
)

// Clock is the RTC as the scheduler and power controller see it.
type Clock interface {
	Now() localtime.DateTime
	SetTime(localtime.DateTime) error

	SetAlarm(Slot, Alarm) error
	Alarm(Slot) Alarm
	AlarmFlag(Slot) bool
	// TakeAlarmFlag reads and clears a flag in one step, so a match that
	// latches concurrently is either returned or left for the next call.
	TakeAlarmFlag(Slot) bool

	// Wake is signalled whenever an alarm flag latches.
	Wake() <-chan struct{}
}

// Mirror receives every time written to a SoftRTC, e.g. a hardware clock.
type Mirror interface {
	WriteTime(localtime.DateTime) error
}

var tickInterval = 100 * time.Millisecond

// maxCatchUp bounds how many seconds one evaluation replays after a jump.
const maxCatchUp = 24 * time.Hour

type SoftOptions struct {
	// Source is the free-running oscillator. Defaults to time.Now.
	Source func() time.Time
	// Start is the initial calendar time. Zero means Source's wall time in
	// the local zone.
	Start  localtime.DateTime
	Mirror Mirror
	Logger *log.Logger
}

// SoftRTC is a Clock driven by a monotonic source. It replays every second
// that passed since the previous evaluation, so alarms latch even when
// nobody looked at the clock at the matching second.
type SoftRTC struct {
	source func() time.Time
	mirror Mirror
	log    *log.Logger

	mu     sync.Mutex
	offset time.Duration
	last   time.Time
	alarms [2]Alarm
	flags  [2]bool

	wake chan struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSoftRTC(opts SoftOptions) *SoftRTC {
	src := opts.Source
	if src == nil {
		src = time.Now
	}
	lg := opts.Logger
	if lg == nil {
		lg = log.Default()
	}
	r := &SoftRTC{
		source: src,
		mirror: opts.Mirror,
		log:    lg.With("component", "rtc"),
		wake:   make(chan struct{}, 1),
	}
	start := opts.Start
	if start == (localtime.DateTime{}) {
		start = localtime.FromTime(src())
	}
	r.offset = start.Time(time.UTC).Sub(src())
	r.last = r.counterLocked()
	return r
}

// counterLocked is the calendar counter as a zone-less time.Time (UTC is
// used only as a container).
func (r *SoftRTC) counterLocked() time.Time {
	return r.source().Add(r.offset).Truncate(time.Second)
}

func (r *SoftRTC) Now() localtime.DateTime {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluateLocked()
	return localtime.FromTime(r.counterLocked())
}

// SetTime loads the calendar counter. Seconds skipped by the jump are not
// replayed against the alarms.
func (r *SoftRTC) SetTime(dt localtime.DateTime) error {
	if !dt.Valid() {
		return fmt.Errorf("rtc: invalid time %s", dt)
	}
	r.mu.Lock()
	r.evaluateLocked()
	t := dt.Time(time.UTC)
	r.offset = t.Sub(r.source())
	r.last = r.counterLocked()
	r.mu.Unlock()

	if r.mirror != nil {
		if err := r.mirror.WriteTime(dt); err != nil {
			return fmt.Errorf("rtc: mirror: %w", err)
		}
	}
	return nil
}

// Advance moves the counter forward by d, latching any alarm matched on
// the way.
func (r *SoftRTC) Advance(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offset += d
	r.evaluateLocked()
}

func (r *SoftRTC) SetAlarm(s Slot, a Alarm) error {
	if s != SlotA && s != SlotB {
		return fmt.Errorf("rtc: unknown slot %v", s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluateLocked()
	r.alarms[s] = a
	return nil
}

func (r *SoftRTC) Alarm(s Slot) Alarm {
	if s != SlotA && s != SlotB {
		return Alarm{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alarms[s]
}

func (r *SoftRTC) AlarmFlag(s Slot) bool {
	if s != SlotA && s != SlotB {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluateLocked()
	return r.flags[s]
}

func (r *SoftRTC) TakeAlarmFlag(s Slot) bool {
	if s != SlotA && s != SlotB {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluateLocked()
	set := r.flags[s]
	r.flags[s] = false
	return set
}

func (r *SoftRTC) Wake() <-chan struct{} { return r.wake }

func (r *SoftRTC) evaluateLocked() {
	cur := r.counterLocked()
	if !cur.After(r.last) {
		return
	}
	t := r.last.Add(time.Second)
	if cur.Sub(t) > maxCatchUp {
		t = cur.Add(-maxCatchUp)
	}
	fired := false
	for ; !t.After(cur); t = t.Add(time.Second) {
		dt := localtime.FromTime(t)
		for s := range r.alarms {
			if r.alarms[s].Matches(dt) && !r.flags[s] {
				r.flags[s] = true
				fired = true
				r.log.Debug("rtc: alarm latched", "slot", Slot(s), "at", dt, "role", r.alarms[s].Role)
			}
		}
	}
	r.last = cur
	if fired {
		select {
		case r.wake <- struct{}{}:
		default:
		}
	}
}

// Start runs the comparators against the free-running source until ctx is
// done or Close is called.
func (r *SoftRTC) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.cancel != nil {
		return nil
	}
	childCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-childCtx.Done():
				return
			case <-t.C:
				r.mu.Lock()
				r.evaluateLocked()
				r.mu.Unlock()
			}
		}
	}()
	return nil
}

func (r *SoftRTC) Close() error {
	r.runMu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	return nil
}
