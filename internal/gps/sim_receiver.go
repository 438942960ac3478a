package gps

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"wakeclock/internal/ubx"
)

// SimConfig shapes the simulated receiver.
type SimConfig struct {
	// Interval between sentences. Defaults to 1s.
	Interval time.Duration
	// NoFixFor is the number of "no fix" ZDA lines sent before real ones.
	NoFixFor int
	// Silent makes the receiver accept commands but never answer.
	Silent bool
	// Now supplies the UTC time reported in ZDA lines. Defaults to time.Now.
	Now func() time.Time
}

// SimReceiver is an in-process stand-in for the u-blox module. It honors
// the PUBX output selection and the UBX backup/wake sequence well enough to
// drive a Session end to end.
type SimReceiver struct {
	cfg SimConfig

	mu      sync.Mutex
	out     bytes.Buffer
	ready   chan struct{}
	zdaOn   bool
	asleep  bool
	closed  bool
	sent    int
	written [][]byte

	stop chan struct{}
	done chan struct{}
}

var zdaOnCmd = []byte(ubx.PUBXRate("ZDA", true))

func isBackupRequest(p []byte) bool {
	fr, _, err := ubx.Decode(p)
	return err == nil && fr.Class == ubx.ClassRXM && fr.ID == ubx.IDRxmPMREQ
}

func NewSimReceiver(cfg SimConfig) *SimReceiver {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	r := &SimReceiver{
		cfg:   cfg,
		ready: make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *SimReceiver) run() {
	defer close(r.done)
	t := time.NewTicker(r.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-t.C:
			r.emit()
		}
	}
}

func (r *SimReceiver) emit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.asleep || r.cfg.Silent {
		return
	}
	now := r.cfg.Now().UTC()
	switch {
	case r.zdaOn && r.sent < r.cfg.NoFixFor:
		r.out.WriteString(ubx.Sentence(NoFixSentence[1:]))
	case r.zdaOn:
		r.out.WriteString(ubx.Sentence(fmt.Sprintf("GPZDA,%02d%02d%02d.00,%02d,%02d,%04d,00,00",
			now.Hour(), now.Minute(), now.Second(), now.Day(), int(now.Month()), now.Year())))
	default:
		return
	}
	r.sent++
	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// Read blocks until a sentence is available or the receiver is closed.
func (r *SimReceiver) Read(p []byte) (int, error) {
	for {
		r.mu.Lock()
		if r.out.Len() > 0 {
			n, _ := r.out.Read(p)
			r.mu.Unlock()
			return n, nil
		}
		if r.closed {
			r.mu.Unlock()
			return 0, io.EOF
		}
		r.mu.Unlock()
		<-r.ready
	}
}

func (r *SimReceiver) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.ErrClosedPipe
	}
	r.written = append(r.written, append([]byte(nil), p...))
	if r.asleep {
		// Any RX activity wakes the module; the bytes themselves are lost.
		r.asleep = false
		return len(p), nil
	}
	switch {
	case bytes.Equal(p, zdaOnCmd):
		r.zdaOn = true
	case isBackupRequest(p):
		r.asleep = true
		r.out.Reset()
	}
	return len(p), nil
}

func (r *SimReceiver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.stop)
	<-r.done
	select {
	case r.ready <- struct{}{}:
	default:
	}
	return nil
}

// Asleep reports whether the last power request left the module in backup.
func (r *SimReceiver) Asleep() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.asleep
}

// Written returns a copy of every command received, in order.
func (r *SimReceiver) Written() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.written))
	copy(out, r.written)
	return out
}
