//go:build linux

package gps

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var ttySpeeds = map[int]uint32{
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// openSerial opens the receiver's tty raw at baud. O_NONBLOCK puts the file
// on the runtime poller, which is what lets Close wake a blocked Read.
func openSerial(path string, baud int) (io.ReadWriteCloser, error) {
	speed, ok := ttySpeeds[baud]
	if !ok {
		return nil, fmt.Errorf("gps: unsupported baud %d", baud)
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("gps: open %s: %w", path, err)
	}
	if err := configureTTY(fd, speed); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("gps: configure %s: %w", path, err)
	}
	return os.NewFile(uintptr(fd), path), nil
}

// configureTTY applies 8N1 with no line discipline; UBX frames are binary.
func configureTTY(fd int, speed uint32) error {
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	makeRaw(tio, speed)
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, tio); err != nil {
		return err
	}
	// Stale bytes from before the open are useless to the accumulator.
	return unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)
}

func makeRaw(tio *unix.Termios, speed uint32) {
	tio.Iflag = 0
	tio.Oflag = 0
	tio.Lflag = 0
	tio.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	tio.Ispeed = speed
	tio.Ospeed = speed
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0
}
