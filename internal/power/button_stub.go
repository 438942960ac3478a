//go:build !linux || (!arm && !arm64)

package power

import "fmt"

func openButton(pin int, onPress func()) (closer, error) {
	return nil, fmt.Errorf("power: gpio unsupported on this platform")
}
