package face

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"
)

// Display is a frame sink.
type Display interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// EPaper drives a Waveshare 2.13" V4 HAT. The controller is put to sleep
// after every frame and re-initialized before the next one.
type EPaper struct {
	port     spi.PortCloser
	dev      *waveshare2in13v4.Dev
	sleeping bool
}

func OpenEPaper(spiPort string) (*EPaper, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("face: periph host init: %w", err)
	}
	port, err := spireg.Open(spiPort)
	if err != nil {
		return nil, fmt.Errorf("face: spi open %q: %w", spiPort, err)
	}
	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("face: epaper: %w", err)
	}
	if err := dev.Init(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("face: epaper init: %w", err)
	}
	if err := dev.Clear(color.White); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("face: epaper clear: %w", err)
	}
	return &EPaper{port: port, dev: dev}, nil
}

func (e *EPaper) Bounds() image.Rectangle { return e.dev.Bounds() }

func (e *EPaper) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if e.sleeping {
		if err := e.dev.Init(); err != nil {
			return fmt.Errorf("face: epaper wake: %w", err)
		}
		e.sleeping = false
	}
	img := image1bit.NewVerticalLSB(e.dev.Bounds())
	draw.Draw(img, img.Bounds(), src, sp, draw.Src)
	if err := e.dev.Draw(r, img, image.Point{}); err != nil {
		return fmt.Errorf("face: epaper draw: %w", err)
	}
	if err := e.dev.Sleep(); err != nil {
		return fmt.Errorf("face: epaper sleep: %w", err)
	}
	e.sleeping = true
	return nil
}

// Clear blanks the panel, removing ghosting left by partial updates.
func (e *EPaper) Clear() error {
	if e.sleeping {
		if err := e.dev.Init(); err != nil {
			return fmt.Errorf("face: epaper wake: %w", err)
		}
		e.sleeping = false
	}
	if err := e.dev.Clear(color.White); err != nil {
		return fmt.Errorf("face: epaper clear: %w", err)
	}
	return nil
}

func (e *EPaper) Close() error {
	err := e.dev.Halt()
	if cerr := e.port.Close(); err == nil {
		err = cerr
	}
	return err
}
