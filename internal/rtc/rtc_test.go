package rtc

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wakeclock/internal/localtime"
)

var epoch = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func frozen() time.Time { return epoch }

func newTestRTC(t *testing.T, start localtime.DateTime) *SoftRTC {
	t.Helper()
	return NewSoftRTC(SoftOptions{
		Source: frozen,
		Start:  start,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
}

func TestAlarmMatches(t *testing.T) {
	now := localtime.DateTime{Year: 2024, Month: 6, Day: 15, Hour: 4, Minute: 0, Second: 30}

	cases := []struct {
		name  string
		alarm Alarm
		want  bool
	}{
		{"disabled", Alarm{Time: TimeOfDay{4, 0, 30}, Mask: MaskDate}, false},
		{"daily", Alarm{Enabled: true, Time: TimeOfDay{4, 0, 30}, Mask: MaskDate}, true},
		{"daily other hour", Alarm{Enabled: true, Time: TimeOfDay{5, 0, 30}, Mask: MaskDate}, false},
		{"seconds only", Alarm{Enabled: true, Time: TimeOfDay{23, 59, 30}, Mask: MaskDate | MaskHours | MaskMinutes}, true},
		{"minute tick", Alarm{Enabled: true, Time: TimeOfDay{0, 0, 30}, Mask: MaskDate | MaskHours}, true},
		{"day compared", Alarm{Enabled: true, Day: 14, Time: TimeOfDay{4, 0, 30}}, false},
		{"day matches", Alarm{Enabled: true, Day: 15, Time: TimeOfDay{4, 0, 30}}, true},
		{"all masked", Alarm{Enabled: true, Mask: MaskDate | MaskHours | MaskMinutes | MaskSeconds}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.alarm.Matches(now))
		})
	}
}

func TestMaskString(t *testing.T) {
	assert.Equal(t, "none", Mask(0).String())
	assert.Equal(t, "date|hours", (MaskDate | MaskHours).String())
}

func TestSoftRTC_StartsAtGivenTime(t *testing.T) {
	start := localtime.DateTime{Year: 2024, Month: 2, Day: 29, Hour: 23, Minute: 59, Second: 58}
	r := newTestRTC(t, start)

	got := r.Now()
	assert.Equal(t, start.Year, got.Year)
	assert.Equal(t, start.Second, got.Second)
	assert.Equal(t, localtime.Thursday, got.Weekday)

	r.Advance(3 * time.Second)
	got = r.Now()
	assert.Equal(t, localtime.DateTime{Year: 2024, Month: 3, Day: 1, Hour: 0, Minute: 0, Second: 1, Weekday: localtime.Friday}, got)
}

func TestSoftRTC_AlarmLatchesAndStaysLatched(t *testing.T) {
	r := newTestRTC(t, localtime.DateTime{Year: 2024, Month: 1, Day: 1, Hour: 12, Minute: 0, Second: 0})
	require.NoError(t, r.SetAlarm(SlotB, Alarm{
		Enabled: true,
		Time:    TimeOfDay{Minute: 1},
		Mask:    MaskDate | MaskHours,
		Role:    RoleMinuteTick,
	}))

	r.Advance(59 * time.Second)
	require.False(t, r.AlarmFlag(SlotB))

	r.Advance(time.Second)
	require.True(t, r.AlarmFlag(SlotB))
	require.False(t, r.AlarmFlag(SlotA))

	select {
	case <-r.Wake():
	default:
		t.Fatalf("expected wake signal")
	}

	r.Advance(10 * time.Second)
	require.True(t, r.AlarmFlag(SlotB), "flag is sticky")

	require.True(t, r.TakeAlarmFlag(SlotB))
	require.False(t, r.AlarmFlag(SlotB))
}

func TestSoftRTC_TakeAlarmFlagReadsAndClears(t *testing.T) {
	cur := epoch
	r := NewSoftRTC(SoftOptions{
		Source: func() time.Time { return cur },
		Start:  localtime.DateTime{Year: 2024, Month: 1, Day: 1, Hour: 12},
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
	require.NoError(t, r.SetAlarm(SlotA, Alarm{Enabled: true, Time: TimeOfDay{Second: 5}, Mask: MaskDate | MaskHours | MaskMinutes}))

	require.False(t, r.TakeAlarmFlag(SlotA))

	// The match happens while nobody looks; the take itself evaluates it.
	cur = cur.Add(5 * time.Second)
	require.True(t, r.TakeAlarmFlag(SlotA))
	require.False(t, r.TakeAlarmFlag(SlotA))
	require.False(t, r.AlarmFlag(SlotA))

	cur = cur.Add(time.Minute)
	require.True(t, r.AlarmFlag(SlotA))
	require.True(t, r.TakeAlarmFlag(SlotA))
	require.False(t, r.TakeAlarmFlag(Slot(7)))
}

func TestSoftRTC_ReplaysSkippedSeconds(t *testing.T) {
	r := newTestRTC(t, localtime.DateTime{Year: 2024, Month: 1, Day: 1, Hour: 3, Minute: 59, Second: 0})
	require.NoError(t, r.SetAlarm(SlotA, Alarm{Enabled: true, Time: TimeOfDay{4, 0, 30}, Mask: MaskDate}))

	r.Advance(10 * time.Minute)
	require.True(t, r.AlarmFlag(SlotA))
}

func TestSoftRTC_SetTimeDoesNotReplayJump(t *testing.T) {
	r := newTestRTC(t, localtime.DateTime{Year: 2024, Month: 1, Day: 1, Hour: 3, Minute: 59, Second: 0})
	require.NoError(t, r.SetAlarm(SlotA, Alarm{Enabled: true, Time: TimeOfDay{4, 0, 30}, Mask: MaskDate}))

	require.NoError(t, r.SetTime(localtime.DateTime{Year: 2024, Month: 1, Day: 1, Hour: 5, Minute: 0, Second: 0}))
	require.False(t, r.AlarmFlag(SlotA))
	require.Equal(t, 5, r.Now().Hour)
}

type recordingMirror struct {
	got []localtime.DateTime
	err error
}

func (m *recordingMirror) WriteTime(dt localtime.DateTime) error {
	m.got = append(m.got, dt)
	return m.err
}

func TestSoftRTC_SetTimeMirrors(t *testing.T) {
	m := &recordingMirror{}
	r := NewSoftRTC(SoftOptions{
		Source: frozen,
		Start:  localtime.DateTime{Year: 2024, Month: 1, Day: 1},
		Mirror: m,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
	dt := localtime.DateTime{Year: 2024, Month: 7, Day: 4, Hour: 22, Minute: 15, Second: 30, Weekday: 4}
	require.NoError(t, r.SetTime(dt))
	require.Equal(t, []localtime.DateTime{dt}, m.got)

	m.err = errors.New("ioctl failed")
	require.ErrorContains(t, r.SetTime(dt), "ioctl failed")
}

func TestSoftRTC_RejectsInvalid(t *testing.T) {
	r := newTestRTC(t, localtime.DateTime{Year: 2024, Month: 1, Day: 1})
	require.Error(t, r.SetTime(localtime.DateTime{Year: 2024, Month: 2, Day: 30}))
	require.Error(t, r.SetAlarm(Slot(7), Alarm{}))
	require.False(t, r.AlarmFlag(Slot(7)))
}

func TestSoftRTC_StartLatchesFromSource(t *testing.T) {
	orig := tickInterval
	tickInterval = time.Millisecond
	t.Cleanup(func() { tickInterval = orig })

	base := time.Now()
	r := NewSoftRTC(SoftOptions{
		Source: func() time.Time { return base.Add(time.Since(base) * 1000) },
		Start:  localtime.DateTime{Year: 2024, Month: 1, Day: 1, Hour: 12},
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
	require.NoError(t, r.SetAlarm(SlotA, Alarm{Enabled: true, Time: TimeOfDay{Second: 5}, Mask: MaskDate | MaskHours | MaskMinutes}))
	require.NoError(t, r.Start(context.Background()))
	defer r.Close()

	select {
	case <-r.Wake():
	case <-time.After(2 * time.Second):
		t.Fatalf("alarm never latched")
	}
	require.True(t, r.AlarmFlag(SlotA))
}
