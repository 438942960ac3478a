package face

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// Reading is one environment sample.
type Reading struct {
	TempC       float64
	PressureHPa float64
}

type EnvSensor interface {
	Sense() (Reading, error)
}

// BMX is a Bosch BMP280/BME280 on I2C.
type BMX struct {
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// OpenBMX opens the sensor at addr on the named I2C bus ("" picks the
// first one).
func OpenBMX(busName string, addr uint16) (*BMX, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("face: periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("face: i2c open %q: %w", busName, err)
	}
	if addr == 0 {
		addr = 0x76
	}
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("face: bmxx80 init addr=0x%02x: %w", addr, err)
	}
	return &BMX{bus: bus, dev: dev}, nil
}

func (b *BMX) Sense() (Reading, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return Reading{}, fmt.Errorf("face: bmxx80 sense: %w", err)
	}
	return readingFromEnv(e), nil
}

func (b *BMX) Close() error {
	err := b.dev.Halt()
	if cerr := b.bus.Close(); err == nil {
		err = cerr
	}
	return err
}

func readingFromEnv(e physic.Env) Reading {
	pa := float64(e.Pressure) / float64(physic.Pascal)
	return Reading{
		TempC:       e.Temperature.Celsius(),
		PressureHPa: pa / 100.0,
	}
}
