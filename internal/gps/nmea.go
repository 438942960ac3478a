package gps

import (
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"wakeclock/internal/localtime"
)

const (
	// TargetTag is the only sentence the session asks the module for.
	TargetTag = "$GPZDA"
	// NoFixSentence is what the module sends before it has satellites.
	NoFixSentence = "$GPZDA,,,,,00,00"
)

type OutcomeKind int

const (
	Malformed OutcomeKind = iota
	Acquired
	NoFix
	// Unresponsive is never parsed; the scheduler reports it when the module
	// stays silent through every power cycle of one acquisition.
	Unresponsive
)

func (k OutcomeKind) String() string {
	switch k {
	case Acquired:
		return "acquired"
	case NoFix:
		return "no_fix"
	case Unresponsive:
		return "unresponsive"
	default:
		return "malformed"
	}
}

// Outcome is the classification of one captured ZDA line.
type Outcome struct {
	Kind OutcomeKind
	// UTC is set only for Acquired.
	UTC      localtime.DateTime
	Sentence string
	Err      error
}

func isTarget(line []byte) bool {
	return len(line) >= len(TargetTag) && string(line[:len(TargetTag)]) == TargetTag
}

// ParseZDA classifies a captured line laid out as
// $GPZDA,hhmmss.ss,dd,mm,yyyy,xx,xx[*CS].
//
// When a checksum is present it must verify. Field widths are fixed: six time
// digits with an optional fraction, two-digit day and month, four-digit year.
func ParseZDA(raw []byte) Outcome {
	line := strings.TrimRight(string(raw), "\r\n")
	out := Outcome{Sentence: line}

	if strings.Contains(line, "*") {
		if _, err := nmea.Parse(line); err != nil {
			out.Err = fmt.Errorf("zda: %w", err)
			return out
		}
	}

	utc, err := parseZDAFields(line)
	if err == nil {
		out.Kind = Acquired
		out.UTC = utc
		return out
	}
	if strings.HasPrefix(line, NoFixSentence) {
		out.Kind = NoFix
		return out
	}
	out.Err = err
	return out
}

func parseZDAFields(line string) (localtime.DateTime, error) {
	body := line
	if star := strings.IndexByte(body, '*'); star != -1 {
		body = body[:star]
	}
	f := strings.Split(body, ",")
	if len(f) < 5 {
		return localtime.DateTime{}, fmt.Errorf("zda: %d fields", len(f))
	}
	if f[0] != TargetTag {
		return localtime.DateTime{}, fmt.Errorf("zda: tag %q", f[0])
	}

	hms, frac, _ := strings.Cut(f[1], ".")
	if len(hms) != 6 || !digits(hms) || (frac != "" && (len(frac) > 3 || !digits(frac))) {
		return localtime.DateTime{}, fmt.Errorf("zda: bad time %q", f[1])
	}
	if len(f[2]) != 2 || !digits(f[2]) {
		return localtime.DateTime{}, fmt.Errorf("zda: bad day %q", f[2])
	}
	if len(f[3]) != 2 || !digits(f[3]) {
		return localtime.DateTime{}, fmt.Errorf("zda: bad month %q", f[3])
	}
	if len(f[4]) != 4 || !digits(f[4]) {
		return localtime.DateTime{}, fmt.Errorf("zda: bad year %q", f[4])
	}

	dt := localtime.DateTime{
		Hour:   atoi(hms[0:2]),
		Minute: atoi(hms[2:4]),
		Second: atoi(hms[4:6]),
		Day:    atoi(f[2]),
		Month:  atoi(f[3]),
		Year:   atoi(f[4]),
	}
	if !dt.Valid() {
		return localtime.DateTime{}, fmt.Errorf("zda: out of range %s", dt)
	}
	return dt, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// atoi is only called on strings already checked by digits.
func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
