//go:build linux

package rtc

import (
	"fmt"

	"golang.org/x/sys/unix"

	"wakeclock/internal/localtime"
)

// HWClock is a kernel RTC character device (/dev/rtcN). It holds local
// time, like the counter it mirrors.
type HWClock struct {
	fd   int
	path string
}

func OpenHWClock(path string) (*HWClock, error) {
	if path == "" {
		path = "/dev/rtc0"
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("rtc: open %s: %w", path, err)
	}
	return &HWClock{fd: fd, path: path}, nil
}

func (h *HWClock) ReadTime() (localtime.DateTime, error) {
	t, err := unix.IoctlGetRTCTime(h.fd)
	if err != nil {
		return localtime.DateTime{}, fmt.Errorf("rtc: read %s: %w", h.path, err)
	}
	return fromRTCTime(t), nil
}

func (h *HWClock) WriteTime(dt localtime.DateTime) error {
	if err := unix.IoctlSetRTCTime(h.fd, toRTCTime(dt)); err != nil {
		return fmt.Errorf("rtc: write %s: %w", h.path, err)
	}
	return nil
}

func (h *HWClock) Close() error {
	return unix.Close(h.fd)
}

// struct rtc_time counts months from 0 and years from 1900.
func toRTCTime(dt localtime.DateTime) *unix.RTCTime {
	return &unix.RTCTime{
		Sec:  int32(dt.Second),
		Min:  int32(dt.Minute),
		Hour: int32(dt.Hour),
		Mday: int32(dt.Day),
		Mon:  int32(dt.Month - 1),
		Year: int32(dt.Year - 1900),
		Wday: int32(localtime.DayOfWeek(dt.Year, dt.Month, dt.Day)),
	}
}

func fromRTCTime(t *unix.RTCTime) localtime.DateTime {
	dt := localtime.DateTime{
		Year:   int(t.Year) + 1900,
		Month:  int(t.Mon) + 1,
		Day:    int(t.Mday),
		Hour:   int(t.Hour),
		Minute: int(t.Min),
		Second: int(t.Sec),
	}
	dt.Weekday = localtime.DayOfWeek(dt.Year, dt.Month, dt.Day)
	return dt
}
