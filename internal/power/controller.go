// Package power models standby: the device parks until an RTC alarm or the
// wake button brings it back, and the resume/pin flags the wake classifier
// reads afterwards.
package power

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"wakeclock/internal/rtc"
)

type Options struct {
	Logger *log.Logger
}

// Controller owns the standby and wake-pin flags. Both are sticky until
// TakeFlags.
type Controller struct {
	clock rtc.Clock
	log   *log.Logger

	resumed atomic.Bool
	pin     atomic.Bool
	button  chan struct{}

	standbys atomic.Int64
}

func NewController(clock rtc.Clock, opts Options) *Controller {
	lg := opts.Logger
	if lg == nil {
		lg = log.Default()
	}
	return &Controller{
		clock:  clock,
		log:    lg.With("component", "power"),
		button: make(chan struct{}, 1),
	}
}

// ResumedFromStandby reports whether the last wake came out of standby.
func (c *Controller) ResumedFromStandby() bool { return c.resumed.Load() }

// WakePinActive reports whether the wake button was pressed since the flags
// were last cleared.
func (c *Controller) WakePinActive() bool { return c.pin.Load() }

// TakeFlags returns and clears both flags. A press racing with the call is
// either returned here or left latched for the next call.
func (c *Controller) TakeFlags() (resumed, pin bool) {
	return c.resumed.Swap(false), c.pin.Swap(false)
}

// PressButton latches the wake pin. Safe to call from any goroutine.
func (c *Controller) PressButton() {
	c.pin.Store(true)
	select {
	case c.button <- struct{}{}:
	default:
	}
}

// Standbys counts EnterStandby calls.
func (c *Controller) Standbys() int64 { return c.standbys.Load() }

// EnterStandby parks the caller until an alarm flag latches or the wake
// button is pressed. A wake source already pending returns immediately.
// Cancelling ctx aborts standby without marking a resume.
func (c *Controller) EnterStandby(ctx context.Context) error {
	c.standbys.Add(1)

	// Drop notifications for wakes that were already handled.
	select {
	case <-c.clock.Wake():
	default:
	}
	select {
	case <-c.button:
	default:
	}

	if c.pending() {
		c.log.Debug("power: wake source pending, standby skipped")
		c.resumed.Store(true)
		return nil
	}

	c.log.Debug("power: standby")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.Wake():
	case <-c.button:
	}
	c.resumed.Store(true)
	c.log.Debug("power: resumed", "pin", c.pin.Load(), "alarm_a", c.clock.AlarmFlag(rtc.SlotA), "alarm_b", c.clock.AlarmFlag(rtc.SlotB))
	return nil
}

func (c *Controller) pending() bool {
	return c.pin.Load() || c.clock.AlarmFlag(rtc.SlotA) || c.clock.AlarmFlag(rtc.SlotB)
}
