// Package face draws the clock and menu screens on the e-paper panel and
// reads the environment sensor shown next to the time.
package face

import (
	"image"
	"sync"

	"github.com/charmbracelet/log"

	"wakeclock/internal/gps"
	"wakeclock/internal/localtime"
	"wakeclock/internal/scheduler"
)

type Clock interface {
	Now() localtime.DateTime
}

type Options struct {
	Logger *log.Logger
	// Sensor is optional.
	Sensor EnvSensor
	// TimeFormat and DateFormat are strftime patterns.
	TimeFormat string
	DateFormat string
}

// Panel is the minute-tick consumer and the menu. It also records the last
// successful time sync for display.
type Panel struct {
	disp    Display
	clock   Clock
	sensor  EnvSensor
	log     *log.Logger
	timeFmt string
	dateFmt string

	mu       sync.Mutex
	lastSync string
	menuLeft int
}

func NewPanel(disp Display, clock Clock, opts Options) *Panel {
	lg := opts.Logger
	if lg == nil {
		lg = log.Default()
	}
	p := &Panel{
		disp:    disp,
		clock:   clock,
		sensor:  opts.Sensor,
		log:     lg.With("component", "face"),
		timeFmt: opts.TimeFormat,
		dateFmt: opts.DateFormat,
	}
	if p.timeFmt == "" {
		p.timeFmt = "%H:%M"
	}
	if p.dateFmt == "" {
		p.dateFmt = "%a %d.%m.%Y"
	}
	return p
}

// clearer is implemented by panels that ghost and need a periodic full
// refresh.
type clearer interface {
	Clear() error
}

// OnMinuteTick redraws the clock face, fully clearing the panel first on
// every tenth minute.
func (p *Panel) OnMinuteTick() {
	if c, ok := p.disp.(clearer); ok && p.clock.Now().Minute%10 == 0 {
		if err := c.Clear(); err != nil {
			p.log.Warn("face: clear failed", "err", err)
		}
	}
	p.draw(renderClock(p.screen(p.timeFmt)))
}

// ShowClock leaves the menu and returns to the clock face.
func (p *Panel) ShowClock() {
	p.mu.Lock()
	p.menuLeft = -1
	p.mu.Unlock()
	p.draw(renderClock(p.screen(p.timeFmt)))
}

// RunMenu is called on every loop pass while the menu is open. The panel
// redraws on the first pass and then once per second of remaining time.
func (p *Panel) RunMenu(first bool, secondsLeft int) {
	p.mu.Lock()
	changed := first || secondsLeft != p.menuLeft
	p.menuLeft = secondsLeft
	p.mu.Unlock()
	if !changed {
		return
	}
	s := p.screen(p.timeFmt + ":%S")
	s.MenuLeft = secondsLeft
	p.draw(renderMenu(s))
}

// Report records acquired syncs. It satisfies scheduler.SyncReporter.
func (p *Panel) Report(ev scheduler.SyncEvent) {
	if ev.Outcome.Kind != gps.Acquired {
		return
	}
	label := p.format(ev.Local, "%d.%m %H:%M")
	p.mu.Lock()
	p.lastSync = label
	p.mu.Unlock()
}

func (p *Panel) screen(timeFmt string) Screen {
	now := p.clock.Now()
	s := Screen{
		Time: p.format(now, timeFmt),
		Date: p.format(now, p.dateFmt),
	}
	p.mu.Lock()
	s.LastSync = p.lastSync
	p.mu.Unlock()
	if p.sensor != nil {
		r, err := p.sensor.Sense()
		if err != nil {
			p.log.Warn("face: sensor read failed", "err", err)
		} else {
			s.Reading = &r
		}
	}
	return s
}

func (p *Panel) format(dt localtime.DateTime, pattern string) string {
	out, err := dt.Format(pattern)
	if err != nil {
		p.log.Warn("face: bad time format", "pattern", pattern, "err", err)
		return dt.String()
	}
	return out
}

func (p *Panel) draw(frame *image.Gray) {
	if p.disp == nil {
		return
	}
	b := p.disp.Bounds()
	if err := p.disp.Draw(b, fitTo(frame, b), image.Point{}); err != nil {
		p.log.Warn("face: draw failed", "err", err)
	}
}
