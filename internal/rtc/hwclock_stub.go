//go:build !linux

package rtc

import (
	"fmt"

	"wakeclock/internal/localtime"
)

type HWClock struct{}

func OpenHWClock(path string) (*HWClock, error) {
	return nil, fmt.Errorf("rtc: hardware clock not supported on this platform")
}

func (h *HWClock) ReadTime() (localtime.DateTime, error) {
	return localtime.DateTime{}, fmt.Errorf("rtc: hardware clock not supported on this platform")
}

func (h *HWClock) WriteTime(localtime.DateTime) error {
	return fmt.Errorf("rtc: hardware clock not supported on this platform")
}

func (h *HWClock) Close() error { return nil }
