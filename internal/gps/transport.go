package gps

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PortConfig selects how the receiver is reached.
//
// Driver is "termios" (raw Linux tty, the default), "goserial" (portable
// driver) or "sim" (in-process simulated receiver). Device may be empty to
// auto-detect.
type PortConfig struct {
	Driver string
	Device string
	Baud   int
	Sim    SimConfig
}

var (
	openSerialFn   = openSerial
	openGoSerialFn = openGoSerial
)

// OpenPort opens the configured transport.
func OpenPort(cfg PortConfig) (io.ReadWriteCloser, string, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "termios"
	}
	if driver == "sim" {
		return NewSimReceiver(cfg.Sim), "sim", nil
	}

	device := strings.TrimSpace(cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			return nil, "", fmt.Errorf("gps auto-detect failed: no serial device found")
		}
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	switch driver {
	case "termios":
		f, err := openSerialFn(device, baud)
		if err != nil {
			return nil, device, fmt.Errorf("gps open failed device=%s baud=%d: %w", device, baud, err)
		}
		return f, device, nil
	case "goserial":
		p, err := openGoSerialFn(device, baud)
		if err != nil {
			return nil, device, fmt.Errorf("gps open failed device=%s baud=%d: %w", device, baud, err)
		}
		return p, device, nil
	default:
		return nil, "", fmt.Errorf("gps: unknown driver %q", cfg.Driver)
	}
}

func autoDetectDevice() string {
	// UART header pins first; USB adapters after.
	candidates := []string{"/dev/serial0", "/dev/ttyAMA0", "/dev/ttyS0"}
	for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*"} {
		m, _ := filepath.Glob(pattern)
		candidates = append(candidates, m...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
