package gps

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"wakeclock/internal/localtime"
	"wakeclock/internal/ubx"
)

func TestParseZDA_Acquired(t *testing.T) {
	line := ubx.Sentence("GPZDA,201530.00,04,07,2002,00,00")
	require.True(t, strings.HasSuffix(line, "*60\r\n"))

	out := ParseZDA([]byte(line))
	require.Equal(t, Acquired, out.Kind, "err=%v", out.Err)
	assert.Equal(t, localtime.DateTime{Year: 2002, Month: 7, Day: 4, Hour: 20, Minute: 15, Second: 30}, out.UTC)
	assert.Equal(t, "$GPZDA,201530.00,04,07,2002,00,00*60", out.Sentence)
}

func TestParseZDA_WithoutChecksum(t *testing.T) {
	out := ParseZDA([]byte("$GPZDA,000001,31,12,2023,00,00\r\n"))
	require.Equal(t, Acquired, out.Kind, "err=%v", out.Err)
	assert.Equal(t, localtime.DateTime{Year: 2023, Month: 12, Day: 31, Second: 1}, out.UTC)
}

func TestParseZDA_ChecksumMismatch(t *testing.T) {
	out := ParseZDA([]byte("$GPZDA,201530.00,04,07,2002,00,00*61\r\n"))
	assert.Equal(t, Malformed, out.Kind)
	assert.Error(t, out.Err)
}

func TestParseZDA_NoFix(t *testing.T) {
	for _, line := range []string{
		"$GPZDA,,,,,00,00\r\n",
		ubx.Sentence("GPZDA,,,,,00,00"),
	} {
		out := ParseZDA([]byte(line))
		assert.Equal(t, NoFix, out.Kind, "line=%q err=%v", line, out.Err)
		assert.Equal(t, localtime.DateTime{}, out.UTC)
	}
}

func TestParseZDA_Malformed(t *testing.T) {
	cases := map[string]string{
		"short time":     "$GPZDA,2015.00,04,07,2002,00,00",
		"one digit day":  "$GPZDA,201530.00,4,07,2002,00,00",
		"one digit mon":  "$GPZDA,201530.00,04,7,2002,00,00",
		"two digit year": "$GPZDA,201530.00,04,07,02,00,00",
		"hour 25":        "$GPZDA,251530.00,04,07,2002,00,00",
		"feb 31":         "$GPZDA,201530.00,31,02,2002,00,00",
		"long fraction":  "$GPZDA,201530.0000,04,07,2002,00,00",
		"letters":        "$GPZDA,20153a.00,04,07,2002,00,00",
		"truncated":      "$GPZDA,201530",
		"empty":          "",
		"other talker":   "$GNZDA,201530.00,04,07,2002,00,00",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			out := ParseZDA([]byte(line + "\r\n"))
			assert.Equal(t, Malformed, out.Kind)
			assert.Error(t, out.Err)
		})
	}
}

func TestParseZDA_ValidDatesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		year := rapid.IntRange(1000, 9999).Draw(t, "year")
		month := rapid.IntRange(1, 12).Draw(t, "month")
		day := rapid.IntRange(1, localtime.DaysInMonth(year, month)).Draw(t, "day")
		want := localtime.DateTime{
			Year:   year,
			Month:  month,
			Day:    day,
			Hour:   rapid.IntRange(0, 23).Draw(t, "hour"),
			Minute: rapid.IntRange(0, 59).Draw(t, "minute"),
			Second: rapid.IntRange(0, 59).Draw(t, "second"),
		}
		payload := fmt.Sprintf("GPZDA,%02d%02d%02d.00,%02d,%02d,%04d,00,00",
			want.Hour, want.Minute, want.Second, want.Day, want.Month, want.Year)

		out := ParseZDA([]byte(ubx.Sentence(payload)))
		if out.Kind != Acquired {
			t.Fatalf("kind=%v err=%v line=%q", out.Kind, out.Err, payload)
		}
		if out.UTC != want {
			t.Fatalf("got %v want %v", out.UTC, want)
		}
	})
}

func (a *accumulator) pending() int { return a.n }

func TestAccumulator_OverflowDropsLine(t *testing.T) {
	var a accumulator
	for i := 0; i < rxCapacity; i++ {
		_, closed := a.push('A')
		require.False(t, closed)
	}
	require.Equal(t, rxCapacity, a.pending())

	_, closed := a.push('B')
	require.False(t, closed)
	require.Equal(t, 0, a.pending())

	line, closed := a.push('\n')
	require.True(t, closed)
	require.Equal(t, "\n", string(line))
}

func TestAccumulator_DollarRestartsLine(t *testing.T) {
	var a accumulator
	for _, b := range []byte("garbage$GP") {
		a.push(b)
	}
	require.Equal(t, 3, a.pending())

	var line []byte
	for _, b := range []byte("$GPZDA\n") {
		line, _ = a.push(b)
	}
	require.Equal(t, "$GPZDA\n", string(line))
}
