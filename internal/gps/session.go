package gps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"wakeclock/internal/ubx"
)

var sleep = time.Sleep

// State is the session lifecycle. It lives in an atomic cell shared by the
// receive goroutine and the main loop.
type State int32

const (
	Idle State = iota
	AwaitingSentence
	SentenceReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingSentence:
		return "awaiting"
	case SentenceReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const defaultPowerCyclePause = 10 * time.Millisecond

type Options struct {
	Logger *log.Logger
	// PowerCyclePause separates sleep, wake and reconfiguration during a
	// power cycle. Defaults to 10ms.
	PowerCyclePause time.Duration
}

// Session owns the receiver's byte stream.
//
// Field ownership:
//   - acc is touched only by OnByteReceived (receive context).
//   - captured is a one-slot queue: the receive context sends exactly one
//     line per acquisition, ConsumeResult receives it.
//   - state moves Idle→Awaiting in the loop, Awaiting→Ready in the receive
//     context (after the line is queued), Ready→Idle in the loop.
type Session struct {
	port io.ReadWriteCloser
	log  *log.Logger
	gap  time.Duration

	state     atomic.Int32
	capturing atomic.Bool
	missed    atomic.Int32
	captured  chan []byte

	acc accumulator

	txMu sync.Mutex

	configs atomic.Int64
	cycles  atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSession(port io.ReadWriteCloser, opts Options) *Session {
	lg := opts.Logger
	if lg == nil {
		lg = log.Default()
	}
	gap := opts.PowerCyclePause
	if gap <= 0 {
		gap = defaultPowerCyclePause
	}
	return &Session{
		port:     port,
		log:      lg.With("component", "gps"),
		gap:      gap,
		captured: make(chan []byte, 1),
	}
}

func (s *Session) State() State { return State(s.state.Load()) }

// MissedPolls is the number of poll intervals since the last captured
// target sentence.
func (s *Session) MissedPolls() int { return int(s.missed.Load()) }

// Configurations counts configuration bursts sent to the module.
func (s *Session) Configurations() int64 { return s.configs.Load() }

// PowerCycles counts PowerCycle calls.
func (s *Session) PowerCycles() int64 { return s.cycles.Load() }

// BeginAcquisition moves Idle→AwaitingSentence, arms capture and configures
// the module. It does nothing unless the session is Idle.
func (s *Session) BeginAcquisition() {
	if !s.state.CompareAndSwap(int32(Idle), int32(AwaitingSentence)) {
		return
	}
	select {
	case <-s.captured:
	default:
	}
	s.missed.Store(0)
	s.capturing.Store(true)
	s.log.Debug("gps: acquisition started")
	if err := s.Configure(); err != nil {
		s.log.Warn("gps: configure failed", "err", err)
	}
}

// OnByteReceived is the receive-context callback. It never blocks on the
// main loop; the only transmission it may trigger is a reconfiguration when
// the module emits a sentence other than the target.
func (s *Session) OnByteReceived(b byte) {
	if !s.capturing.Load() {
		return
	}
	line, closed := s.acc.push(b)
	if !closed || s.State() != AwaitingSentence {
		return
	}
	if !isTarget(line) {
		if err := s.Configure(); err != nil {
			s.log.Warn("gps: reconfigure failed", "err", err)
		}
		return
	}

	cp := make([]byte, len(line))
	copy(cp, line)
	select {
	case s.captured <- cp:
	default:
		// Slot still holds an unconsumed line; replace it.
		select {
		case <-s.captured:
		default:
		}
		s.captured <- cp
	}
	s.missed.Store(0)
	s.capturing.Store(false)
	// Loses only to Abandon; BeginAcquisition drops the queued line.
	s.state.CompareAndSwap(int32(AwaitingSentence), int32(SentenceReady))
}

// Abandon ends an acquisition that never produced a sentence:
// AwaitingSentence moves to Idle with capture disarmed. It reports false, and
// changes nothing, when a sentence was captured first or no acquisition is
// running.
func (s *Session) Abandon() bool {
	if !s.state.CompareAndSwap(int32(AwaitingSentence), int32(Idle)) {
		return false
	}
	s.capturing.Store(false)
	s.missed.Store(0)
	s.log.Debug("gps: acquisition abandoned")
	return true
}

// Poll accounts for one poll interval without a captured sentence and re-arms
// capture. It returns the updated missed count. Outside AwaitingSentence it
// only reports the count.
func (s *Session) Poll() int {
	if s.State() != AwaitingSentence {
		return s.MissedPolls()
	}
	s.capturing.Store(true)
	return int(s.missed.Add(1))
}

// ConsumeResult parses and releases the captured sentence. ok is false when
// no result is pending; a result is handed out exactly once.
func (s *Session) ConsumeResult() (out Outcome, ok bool) {
	if s.State() != SentenceReady {
		return Outcome{}, false
	}
	var line []byte
	select {
	case line = <-s.captured:
	default:
	}
	s.state.Store(int32(Idle))
	return ParseZDA(line), true
}

// Configure forces the module to emit ZDA only and re-applies power save and
// constellation settings.
func (s *Session) Configure() error {
	s.configs.Add(1)
	var errs []error
	for _, cmd := range ubx.SelectOutput("ZDA") {
		errs = append(errs, s.write([]byte(cmd)))
	}
	errs = append(errs, s.write(ubx.CfgPM2()), s.write(ubx.CfgGNSS()))
	return errors.Join(errs...)
}

// Sleep requests backup mode. State is unchanged.
func (s *Session) Sleep() error {
	s.log.Debug("gps: sleep")
	return errors.Join(s.write(ubx.CfgRXMPowerSave()), s.write(ubx.RxmPMREQ(0)))
}

// Wake drives the module's RX line to bring it out of backup mode. State is
// unchanged.
func (s *Session) Wake() error {
	s.log.Debug("gps: wake")
	return s.write(ubx.WakeSequence())
}

// PowerCycle recovers an unresponsive module: sleep, pause, wake, pause,
// reconfigure. The missed poll count restarts from zero.
func (s *Session) PowerCycle() error {
	s.cycles.Add(1)
	s.log.Info("gps: power cycling unresponsive module", "missed", s.MissedPolls())
	err := s.Sleep()
	sleep(s.gap)
	err = errors.Join(err, s.Wake())
	sleep(s.gap)
	err = errors.Join(err, s.Configure())
	s.missed.Store(0)
	return err
}

func (s *Session) write(b []byte) error {
	if s.port == nil {
		return fmt.Errorf("gps: no port")
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if _, err := s.port.Write(b); err != nil {
		return fmt.Errorf("gps: write: %w", err)
	}
	return nil
}
