package power

import "fmt"

type closer interface {
	Close() error
}

var openButtonFn = openButton

// WatchButton routes falling edges on the BCM GPIO pin to PressButton. The
// returned func releases the line.
func (c *Controller) WatchButton(pin int) (func() error, error) {
	btn, err := openButtonFn(pin, c.PressButton)
	if err != nil {
		return nil, fmt.Errorf("power: wake button: %w", err)
	}
	c.log.Info("power: wake button armed", "gpio", pin)
	return btn.Close, nil
}
