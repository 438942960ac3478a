// Package localtime converts receiver UTC timestamps into wall-clock time for
// the display and RTC.
//
// It is pure calendar arithmetic: day-of-week, leap years, the per-year
// daylight saving window, and hour/day/month/year rollover after applying the
// offset. Weekday indices use 0 = Sunday throughout.
package localtime
