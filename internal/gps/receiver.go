package gps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var afterFn = time.After

// Pause after a transient read error before trying the port again.
const readErrorBackoff = 250 * time.Millisecond

// Start launches the receive goroutine, the port's only reader. Calling it
// on a running session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	switch {
	case ctx == nil:
		return fmt.Errorf("gps: nil context")
	case s.port == nil:
		return fmt.Errorf("gps: no port")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.receive(rctx)
	return nil
}

func (s *Session) receive(ctx context.Context) {
	defer s.wg.Done()
	buf := make([]byte, 64)
	for ctx.Err() == nil {
		n, err := s.port.Read(buf)
		for _, b := range buf[:n] {
			s.OnByteReceived(b)
		}
		if err != nil && !s.readFailed(ctx, err) {
			return
		}
	}
}

// readFailed reports whether the receive loop should keep going after err.
func (s *Session) readFailed(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		s.log.Debug("gps: receive stopped", "err", err)
		return false
	}
	s.log.Warn("gps: read failed", "err", err)
	select {
	case <-ctx.Done():
		return false
	case <-afterFn(readErrorBackoff):
		return true
	}
}

// Close stops the receive goroutine and closes the port, which unblocks a
// pending Read.
func (s *Session) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	var err error
	if s.port != nil {
		err = s.port.Close()
	}
	s.wg.Wait()
	return err
}
