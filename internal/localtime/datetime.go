package localtime

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/strftime"
)

// DateTime is a broken-down calendar time as parsed from the receiver or held
// by the RTC. It carries no zone; callers know whether it is UTC or local.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int

	// Weekday is 0 = Sunday .. 6 = Saturday. Only set by ToLocal and FromTime.
	Weekday int
}

// FromTime breaks t down in its own location.
func FromTime(t time.Time) DateTime {
	return DateTime{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
		Weekday: int(t.Weekday()),
	}
}

// Time rebuilds a time.Time in loc. Out-of-range fields are normalized by the
// time package.
func (d DateTime) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, loc)
}

// Valid reports whether every field is inside its calendar range.
func (d DateTime) Valid() bool {
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	if d.Day < 1 || d.Day > DaysInMonth(d.Year, d.Month) {
		return false
	}
	return d.Hour >= 0 && d.Hour <= 23 &&
		d.Minute >= 0 && d.Minute <= 59 &&
		d.Second >= 0 && d.Second <= 59
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// Format renders d with a strftime pattern (e.g. "%H:%M", "%a %d.%m.%Y").
// Zone directives render as UTC since DateTime carries no zone.
func (d DateTime) Format(pattern string) (string, error) {
	return strftime.Format(pattern, d.Time(time.UTC))
}
