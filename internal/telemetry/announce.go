package telemetry

import (
	"fmt"
	"io"
	"net"

	"github.com/charmbracelet/log"

	"wakeclock/internal/scheduler"
)

var dialUDPFn = func(dest string) (io.WriteCloser, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}
	// DialUDP picks the local address.
	return net.DialUDP("udp", nil, addr)
}

// Announcer sends each sync outcome as one UDP datagram, in the same JSON
// shape the MQTT publisher uses. It is a scheduler.SyncReporter.
type Announcer struct {
	dest string
	conn io.WriteCloser
	log  *log.Logger
}

func NewAnnouncer(dest string, lg *log.Logger) (*Announcer, error) {
	if dest == "" {
		return nil, fmt.Errorf("telemetry: udp dest is required")
	}
	conn, err := dialUDPFn(dest)
	if err != nil {
		return nil, fmt.Errorf("telemetry: udp %s: %w", dest, err)
	}
	if lg == nil {
		lg = log.Default()
	}
	lg = lg.With("component", "telemetry")
	lg.Info("telemetry: udp announcer ready", "dest", dest)
	return &Announcer{dest: dest, conn: conn, log: lg}, nil
}

// Report writes one datagram. UDP writes do not block on the peer.
func (a *Announcer) Report(ev scheduler.SyncEvent) {
	payload, err := encode(ev)
	if err != nil {
		a.log.Warn("telemetry: encode failed", "err", err)
		return
	}
	if _, err := a.conn.Write(payload); err != nil {
		a.log.Warn("telemetry: udp send failed", "dest", a.dest, "err", err)
	}
}

func (a *Announcer) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
