// Package device runs the cooperative main loop: classify the wake, step
// every active process until none is left, then park in standby.
package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"wakeclock/internal/scheduler"
)

var (
	nowFn   = time.Now
	afterFn = time.After
)

// Panel is the display side: the minute-tick consumer and the menu.
type Panel interface {
	OnMinuteTick()
	RunMenu(first bool, secondsLeft int)
	ShowClock()
}

// Standby parks the device until a wake source fires.
type Standby interface {
	EnterStandby(ctx context.Context) error
}

type Config struct {
	// LoopInterval paces passes while a process is active. Defaults to 50ms.
	LoopInterval time.Duration
	// MenuTimeout is how long the menu stays up after a button wake.
	// Defaults to 20s.
	MenuTimeout time.Duration
	Logger      *log.Logger
}

// Processes is the set of logical processes a wake can activate.
type Processes struct {
	GPS  bool
	Tick bool
	Menu bool
}

func (p Processes) Any() bool { return p.GPS || p.Tick || p.Menu }

type Device struct {
	cfg     Config
	sched   *scheduler.Scheduler
	standby Standby
	panel   Panel
	log     *log.Logger

	mu        sync.Mutex
	active    Processes
	menuFirst bool
	menuStart time.Time
	lastWake  scheduler.WakeEvent
	wakes     int
}

func New(sched *scheduler.Scheduler, standby Standby, panel Panel, cfg Config) (*Device, error) {
	if sched == nil || standby == nil || panel == nil {
		return nil, fmt.Errorf("device: scheduler, standby and panel are required")
	}
	if cfg.LoopInterval <= 0 {
		cfg.LoopInterval = 50 * time.Millisecond
	}
	if cfg.MenuTimeout <= 0 {
		cfg.MenuTimeout = 20 * time.Second
	}
	lg := cfg.Logger
	if lg == nil {
		lg = log.Default()
	}
	return &Device{
		cfg:     cfg,
		sched:   sched,
		standby: standby,
		panel:   panel,
		log:     lg.With("component", "device"),
	}, nil
}

// Wake classifies the current wake and activates the processes it calls
// for.
func (d *Device) Wake() scheduler.WakeEvent {
	ev := d.sched.ClassifyWake()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastWake = ev
	d.wakes++
	d.activateLocked(ev)
	return ev
}

// activateLocked maps a wake event onto processes. Boot and ambiguous
// alarms run both alarm processes.
func (d *Device) activateLocked(ev scheduler.WakeEvent) {
	switch ev {
	case scheduler.AlarmA:
		d.active.GPS = true
	case scheduler.AlarmB:
		d.active.Tick = true
	case scheduler.ExternalButton:
		d.active.Menu = true
		d.menuFirst = true
		d.menuStart = nowFn()
		if err := d.sched.RearmAll(); err != nil {
			d.log.Warn("device: rearm alarms failed", "err", err)
		}
	default:
		d.active.GPS = true
		d.active.Tick = true
	}
}

// Step runs one pass over the active processes and reports whether any is
// still active.
func (d *Device) Step() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Alarms and presses that latch while awake join the running set.
	if ev, ok := d.sched.PollWake(); ok {
		d.log.Debug("device: wake while awake", "event", ev)
		d.activateLocked(ev)
	}

	if d.active.Menu {
		elapsed := nowFn().Sub(d.menuStart)
		if elapsed < d.cfg.MenuTimeout {
			left := int((d.cfg.MenuTimeout - elapsed + time.Second - 1) / time.Second)
			d.panel.RunMenu(d.menuFirst, left)
			d.menuFirst = false
		} else {
			d.panel.ShowClock()
			d.active.Menu = false
		}
	}

	if d.active.GPS {
		if d.sched.StepGpsProcess() == scheduler.Done {
			d.active.GPS = false
		}
	}

	if d.active.Tick {
		d.panel.OnMinuteTick()
		if err := d.sched.ArmMinuteTick(); err != nil {
			d.log.Warn("device: arm minute tick failed", "err", err)
		}
		d.active.Tick = false
	}

	return d.active.Any()
}

// Active returns the currently active processes.
func (d *Device) Active() Processes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// LastWake returns the most recent wake event and how many wakes were
// handled so far.
func (d *Device) LastWake() (scheduler.WakeEvent, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastWake, d.wakes
}

// Run loops wake → steps → standby until ctx is done.
func (d *Device) Run(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	for {
		ev := d.Wake()
		d.log.Debug("device: awake", "event", ev, "active", d.Active())

		for d.Step() {
			select {
			case <-ctx.Done():
				return nil
			case <-afterFn(d.cfg.LoopInterval):
			}
		}

		d.log.Debug("device: entering standby")
		if err := d.standby.EnterStandby(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("device: standby: %w", err)
		}
	}
}
