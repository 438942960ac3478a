package gps

import (
	"errors"
	"io"
	"testing"
)

func TestOpenPort_Sim(t *testing.T) {
	p, dev, err := OpenPort(PortConfig{Driver: "sim"})
	if err != nil {
		t.Fatalf("OpenPort: %v", err)
	}
	defer p.Close()
	if dev != "sim" {
		t.Fatalf("device=%q", dev)
	}
	if _, ok := p.(*SimReceiver); !ok {
		t.Fatalf("expected *SimReceiver, got %T", p)
	}
}

func TestOpenPort_DefaultsToTermios(t *testing.T) {
	orig := openSerialFn
	t.Cleanup(func() { openSerialFn = orig })

	var gotPath string
	var gotBaud int
	openSerialFn = func(path string, baud int) (io.ReadWriteCloser, error) {
		gotPath, gotBaud = path, baud
		return newFakePort(), nil
	}

	_, dev, err := OpenPort(PortConfig{Device: "/dev/ttyTEST"})
	if err != nil {
		t.Fatalf("OpenPort: %v", err)
	}
	if dev != "/dev/ttyTEST" || gotPath != "/dev/ttyTEST" {
		t.Fatalf("device=%q path=%q", dev, gotPath)
	}
	if gotBaud != 9600 {
		t.Fatalf("baud=%d", gotBaud)
	}
}

func TestOpenPort_GoSerial(t *testing.T) {
	orig := openGoSerialFn
	t.Cleanup(func() { openGoSerialFn = orig })

	called := false
	openGoSerialFn = func(path string, baud int) (io.ReadWriteCloser, error) {
		called = true
		if baud != 115200 {
			t.Fatalf("baud=%d", baud)
		}
		return newFakePort(), nil
	}

	if _, _, err := OpenPort(PortConfig{Driver: "GoSerial", Device: "/dev/ttyUSB9", Baud: 115200}); err != nil {
		t.Fatalf("OpenPort: %v", err)
	}
	if !called {
		t.Fatalf("goserial driver not used")
	}
}

func TestOpenPort_WrapsOpenError(t *testing.T) {
	orig := openSerialFn
	t.Cleanup(func() { openSerialFn = orig })

	sentinel := errors.New("permission denied")
	openSerialFn = func(string, int) (io.ReadWriteCloser, error) { return nil, sentinel }

	_, _, err := OpenPort(PortConfig{Device: "/dev/ttyTEST"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestOpenPort_UnknownDriver(t *testing.T) {
	if _, _, err := OpenPort(PortConfig{Driver: "carrier-pigeon", Device: "/dev/null"}); err == nil {
		t.Fatalf("expected error")
	}
}
