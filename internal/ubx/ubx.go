// Package ubx builds the receiver commands used to steer a u-blox module:
// binary UBX frames for power management and constellation setup, and
// proprietary PUBX text sentences for output-rate control.
package ubx

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	Sync1 = 0xB5
	Sync2 = 0x62
)

const (
	ClassRXM = 0x02
	ClassCFG = 0x06
)

const (
	IDCfgRXM   = 0x11
	IDCfgPM2   = 0x3B
	IDCfgGNSS  = 0x3E
	IDRxmPMREQ = 0x41
)

const (
	headerLen   = 6
	checksumLen = 2
)

// Checksum is the 8-bit Fletcher sum over class, id, length and payload.
func Checksum(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// Encode frames payload as a UBX message. The checksum is always computed
// from the bytes being sent.
func Encode(class, id byte, payload []byte) []byte {
	buf := make([]byte, 0, headerLen+len(payload)+checksumLen)
	buf = append(buf, Sync1, Sync2, class, id)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	ckA, ckB := Checksum(buf[2:])
	return append(buf, ckA, ckB)
}

// Frame is a decoded UBX message.
type Frame struct {
	Class   byte
	ID      byte
	Payload []byte
}

// Decode parses one complete frame from the start of b and returns the number
// of bytes consumed.
func Decode(b []byte) (Frame, int, error) {
	if len(b) < headerLen+checksumLen {
		return Frame{}, 0, fmt.Errorf("ubx: short frame (%d bytes)", len(b))
	}
	if b[0] != Sync1 || b[1] != Sync2 {
		return Frame{}, 0, fmt.Errorf("ubx: bad sync 0x%02X 0x%02X", b[0], b[1])
	}
	n := int(binary.LittleEndian.Uint16(b[4:6]))
	total := headerLen + n + checksumLen
	if len(b) < total {
		return Frame{}, 0, fmt.Errorf("ubx: truncated frame want=%d have=%d", total, len(b))
	}
	ckA, ckB := Checksum(b[2 : headerLen+n])
	if b[total-2] != ckA || b[total-1] != ckB {
		return Frame{}, 0, fmt.Errorf("ubx: checksum mismatch")
	}
	return Frame{Class: b[2], ID: b[3], Payload: b[headerLen : headerLen+n]}, total, nil
}

// CFG-PM2 power save parameters: cyclic tracking, 1 s update period,
// 10 s search period, EXTINT wake disabled.
var pm2Payload = []byte{
	0x01, 0x06, 0x00, 0x00, 0x0E, 0x90, 0x40, 0x01,
	0xE8, 0x03, 0x00, 0x00, 0x10, 0x27, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
	0x2C, 0x01, 0x00, 0x00, 0x4F, 0xC1, 0x03, 0x00,
	0x87, 0x02, 0x00, 0x00, 0xFF, 0x00, 0x00, 0x00,
	0x64, 0x40, 0x01, 0x00,
}

// CFG-GNSS block restricting tracking to GPS.
var gnssPayload = []byte{
	0x00, 0x00, 0xFF, 0x04, 0x00, 0x08, 0xFF, 0x00,
	0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

func CfgPM2() []byte { return Encode(ClassCFG, IDCfgPM2, pm2Payload) }

func CfgGNSS() []byte { return Encode(ClassCFG, IDCfgGNSS, gnssPayload) }

// CfgRXMPowerSave selects power save mode (lpMode=1).
func CfgRXMPowerSave() []byte {
	return Encode(ClassCFG, IDCfgRXM, []byte{0x08, 0x01})
}

// pmreqBackup is the RXM-PMREQ flag requesting backup mode.
const pmreqBackup = 0x02

// RxmPMREQ requests backup mode for d; zero means until woken on RX.
func RxmPMREQ(d time.Duration) []byte {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], uint32(d/time.Millisecond))
	binary.LittleEndian.PutUint32(payload[4:8], pmreqBackup)
	return Encode(ClassRXM, IDRxmPMREQ, payload)
}

// WakeSequence holds the receiver's RX line busy long enough to leave backup
// mode.
func WakeSequence() []byte {
	b := make([]byte, 10)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}
