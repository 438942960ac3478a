package telemetry

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wakeclock/internal/gps"
	"wakeclock/internal/scheduler"
)

type fakeConn struct {
	writes   [][]byte
	writeErr error
	closed   bool
}

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestAnnouncer_SendsOneDatagramPerEvent(t *testing.T) {
	orig := dialUDPFn
	t.Cleanup(func() { dialUDPFn = orig })
	fc := &fakeConn{}
	var gotDest string
	dialUDPFn = func(dest string) (io.WriteCloser, error) {
		gotDest = dest
		return fc, nil
	}

	a, err := NewAnnouncer("192.168.10.255:4100", quiet())
	require.NoError(t, err)
	require.Equal(t, "192.168.10.255:4100", gotDest)

	a.Report(scheduler.SyncEvent{Outcome: gps.Outcome{Kind: gps.NoFix}})
	require.Len(t, fc.writes, 1)
	var msg SyncMessage
	require.NoError(t, json.Unmarshal(fc.writes[0], &msg))
	require.Equal(t, gps.NoFix.String(), msg.Outcome)

	require.NoError(t, a.Close())
	require.True(t, fc.closed)
}

func TestAnnouncer_WriteErrorIsLogged(t *testing.T) {
	orig := dialUDPFn
	t.Cleanup(func() { dialUDPFn = orig })
	fc := &fakeConn{writeErr: errors.New("network is unreachable")}
	dialUDPFn = func(string) (io.WriteCloser, error) { return fc, nil }

	a, err := NewAnnouncer("10.0.0.255:4100", quiet())
	require.NoError(t, err)
	a.Report(scheduler.SyncEvent{Outcome: gps.Outcome{Kind: gps.Malformed}})
	require.Empty(t, fc.writes)
}

func TestNewAnnouncer_Errors(t *testing.T) {
	_, err := NewAnnouncer("", nil)
	require.Error(t, err)

	orig := dialUDPFn
	t.Cleanup(func() { dialUDPFn = orig })
	sentinel := errors.New("no route")
	dialUDPFn = func(string) (io.WriteCloser, error) { return nil, sentinel }
	_, err = NewAnnouncer("10.0.0.1:1", nil)
	require.ErrorIs(t, err, sentinel)
}

func TestAnnouncer_Loopback(t *testing.T) {
	ln, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer ln.Close()

	a, err := NewAnnouncer(ln.LocalAddr().String(), quiet())
	require.NoError(t, err)
	defer a.Close()
	a.Report(scheduler.SyncEvent{Outcome: gps.Outcome{Kind: gps.NoFix}})

	require.NoError(t, ln.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1500)
	n, _, err := ln.ReadFromUDP(buf)
	require.NoError(t, err)
	var msg SyncMessage
	require.NoError(t, json.Unmarshal(buf[:n], &msg))
	require.Equal(t, "no_fix", msg.Outcome)
}
