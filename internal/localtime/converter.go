package localtime

// Converter turns receiver UTC into local wall time under a Policy.
//
// It keeps a single-entry Window cache keyed by year. Not safe for concurrent
// use; the main loop owns it.
type Converter struct {
	policy Policy

	window Window
	cached bool
}

// NewConverter returns a converter for p, or for CentralEurope when p is nil.
func NewConverter(p Policy) *Converter {
	if p == nil {
		p = CentralEurope{}
	}
	return &Converter{policy: p}
}

// Window returns the transition window for year, recomputing it only when the
// year differs from the cached one.
func (c *Converter) Window(year int) Window {
	if !c.cached || c.window.Year != year {
		c.window = c.policy.Window(year)
		c.cached = true
	}
	return c.window
}

// ToLocal applies the policy offset and rolls hour, day, month and year over.
// The offset is chosen from the pre-offset hour, so the transition days flip
// at 01:00 UTC. Weekday is set on the result.
func (c *Converter) ToLocal(utc DateTime) DateTime {
	w := c.Window(utc.Year)
	out := utc
	out.Hour += c.policy.OffsetHours(w, utc)

	if out.Hour > 23 {
		out.Hour -= 24
		out.Day++
	}
	if out.Day > DaysInMonth(out.Year, out.Month) {
		out.Day = 1
		out.Month++
	}
	if out.Month > 12 {
		out.Month = 1
		out.Year++
	}
	out.Weekday = DayOfWeek(out.Year, out.Month, out.Day)
	return out
}
