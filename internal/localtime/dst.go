package localtime

// Transition is the calendar day on which the offset changes.
type Transition struct {
	Month int
	Day   int
}

// Window holds one year's daylight saving transition days.
type Window struct {
	Year  int
	Start Transition
	End   Transition
}

// Policy decides the UTC offset for a timestamp. Implementations must be pure;
// the Converter caches Window per year.
type Policy interface {
	Window(year int) Window
	// OffsetHours returns the whole-hour offset to add to utc.
	OffsetHours(w Window, utc DateTime) int
}

// CentralEurope is UTC+1 in winter and UTC+2 from the last Sunday of March to
// the last Sunday of October, switching at 01:00 UTC on both days.
type CentralEurope struct{}

const (
	centralEuropeWinter = 1
	centralEuropeSummer = 2

	// transitionHourUTC is compared against the pre-offset hour.
	transitionHourUTC = 1
)

func (CentralEurope) Window(year int) Window {
	return Window{
		Year:  year,
		Start: Transition{Month: 3, Day: LastSundayOf(year, 3)},
		End:   Transition{Month: 10, Day: LastSundayOf(year, 10)},
	}
}

func (CentralEurope) OffsetHours(w Window, utc DateTime) int {
	if summer(w, utc) {
		return centralEuropeSummer
	}
	return centralEuropeWinter
}

func summer(w Window, utc DateTime) bool {
	switch {
	case utc.Month > w.Start.Month && utc.Month < w.End.Month:
		return true
	case utc.Month == w.Start.Month && utc.Day > w.Start.Day:
		return true
	case utc.Month == w.End.Month && utc.Day < w.End.Day:
		return true
	case utc.Month == w.Start.Month && utc.Day == w.Start.Day && utc.Hour >= transitionHourUTC:
		return true
	case utc.Month == w.End.Month && utc.Day == w.End.Day && utc.Hour < transitionHourUTC:
		return true
	}
	return false
}
