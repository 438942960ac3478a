package gps

const rxCapacity = 256

// accumulator assembles one NMEA line at a time. Only the receive context
// touches it.
type accumulator struct {
	buf [rxCapacity]byte
	n   int
}

// push appends b and returns the closed line when b is a line feed. The
// returned slice aliases the buffer and is only valid until the next push.
//
// '$' restarts the line. A byte that would overflow the buffer is dropped
// together with the partial line.
func (a *accumulator) push(b byte) ([]byte, bool) {
	if b == '$' {
		a.n = 0
	}
	if a.n >= rxCapacity {
		a.n = 0
		return nil, false
	}
	a.buf[a.n] = b
	a.n++
	if b != '\n' {
		return nil, false
	}
	line := a.buf[:a.n]
	a.n = 0
	return line, true
}
