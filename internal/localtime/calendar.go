package localtime

const (
	Sunday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Month keys for the Jan/Feb-shifted day-of-week formula.
var monthKeys = [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}

var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DayOfWeek returns 0 (Sunday) .. 6 (Saturday) for a Gregorian date.
// January and February count as months 13 and 14 of the previous year.
// Returns -1 for a month outside 1..12.
func DayOfWeek(year, month, day int) int {
	if month < 1 || month > 12 {
		return -1
	}
	if month < 3 {
		year--
	}
	return (year + year/4 - year/100 + year/400 + monthKeys[month-1] + day) % 7
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	if year%4 != 0 {
		return false
	}
	if year%100 != 0 {
		return true
	}
	return year%400 == 0
}

// DaysInMonth is leap-year aware. Returns 0 for a month outside 1..12.
func DaysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return daysPerMonth[month-1]
}

// LastSundayOf scans the last seven days of the month downward and returns the
// first Sunday found.
func LastSundayOf(year, month int) int {
	last := DaysInMonth(year, month)
	for d := last; d > last-7; d-- {
		if DayOfWeek(year, month, d) == Sunday {
			return d
		}
	}
	return 0
}
