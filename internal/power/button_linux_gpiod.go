//go:build linux && (arm || arm64)

package power

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const buttonDebounce = 20 * time.Millisecond

// openButton requests the BCM line "GPIO<pin>" as a pulled-up input. The
// button shorts it to ground, so every debounced falling edge is a press.
func openButton(pin int, onPress func()) (closer, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("power: invalid gpio pin %d", pin)
	}
	name := fmt.Sprintf("GPIO%d", pin)
	chip, offset, err := gpiocdev.FindLine(name)
	if err != nil {
		return nil, fmt.Errorf("power: find %s: %w", name, err)
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(buttonDebounce),
		gpiocdev.WithConsumer("wakeclock-button"),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type == gpiocdev.LineEventFallingEdge {
				onPress()
			}
		}))
	if err != nil {
		return nil, fmt.Errorf("power: request %s on %s: %w", name, chip, err)
	}
	return line, nil
}
