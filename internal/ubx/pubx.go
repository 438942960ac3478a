package ubx

import (
	"fmt"
	"strings"
)

// DefaultOutputs are the sentences a u-blox module emits out of the box.
var DefaultOutputs = []string{"GLL", "GSA", "GGA", "RMC", "GSV", "VTG"}

// NMEAChecksum XORs every byte of payload (the text between '$' and '*').
func NMEAChecksum(payload string) byte {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return ck
}

// Sentence wraps payload as "$payload*CS\r\n".
func Sentence(payload string) string {
	return fmt.Sprintf("$%s*%02X\r\n", payload, NMEAChecksum(payload))
}

// PUBXRate builds a PUBX,40 rate command for msg on UART1 only.
func PUBXRate(msg string, on bool) string {
	rate := 0
	if on {
		rate = 1
	}
	return Sentence(fmt.Sprintf("PUBX,40,%s,0,%d,0,0,0,0", strings.ToUpper(msg), rate))
}

// SelectOutput disables DefaultOutputs and enables target, in that order.
func SelectOutput(target string) []string {
	cmds := make([]string, 0, len(DefaultOutputs)+1)
	for _, m := range DefaultOutputs {
		cmds = append(cmds, PUBXRate(m, false))
	}
	return append(cmds, PUBXRate(target, true))
}
