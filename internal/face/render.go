package face

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Landscape canvas of the 2.13" panel.
const (
	canvasW = 250
	canvasH = 122
)

const (
	ink   = 0
	paper = 255
)

// Screen is everything a frame shows.
type Screen struct {
	Time     string
	Date     string
	Reading  *Reading
	LastSync string
	// MenuLeft is shown on the menu screen only.
	MenuLeft int
}

func newCanvas() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, canvasW, canvasH))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.Gray{Y: paper}}, image.Point{}, draw.Src)
	return img
}

func renderClock(s Screen) *image.Gray {
	img := newCanvas()
	bigText(img, 0, 10, canvasW, 3, s.Time)
	centerText(img, 72, s.Date)
	hline(img, 84)
	if s.Reading != nil {
		text(img, 6, 102, fmt.Sprintf("%.1f C", s.Reading.TempC))
		text(img, 6, 117, fmt.Sprintf("%.0f hPa", s.Reading.PressureHPa))
	}
	if s.LastSync != "" {
		rightText(img, 102, "sync "+s.LastSync)
	} else {
		rightText(img, 102, "no sync")
	}
	return img
}

func renderMenu(s Screen) *image.Gray {
	img := newCanvas()
	text(img, 6, 16, "MENU")
	rightText(img, 16, fmt.Sprintf("%ds", s.MenuLeft))
	hline(img, 22)
	bigText(img, 0, 28, canvasW, 2, s.Time)
	centerText(img, 78, s.Date)
	if s.Reading != nil {
		text(img, 6, 98, fmt.Sprintf("T %.2f C  P %.1f hPa", s.Reading.TempC, s.Reading.PressureHPa))
	} else {
		text(img, 6, 98, "sensor n/a")
	}
	sync := s.LastSync
	if sync == "" {
		sync = "never"
	}
	text(img, 6, 114, "last sync "+sync)
	return img
}

func text(img *image.Gray, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: ink}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

func centerText(img *image.Gray, y int, s string) {
	text(img, (canvasW-textWidth(s))/2, y, s)
}

func rightText(img *image.Gray, y int, s string) {
	text(img, canvasW-6-textWidth(s), y, s)
}

// bigText draws s scaled by k, centered horizontally in [x0, x0+w).
func bigText(img *image.Gray, x0, y0, w, k int, s string) {
	face := basicfont.Face7x13
	sw := textWidth(s)
	sh := face.Height
	small := image.NewGray(image.Rect(0, 0, sw, sh))
	draw.Draw(small, small.Bounds(), &image.Uniform{color.Gray{Y: paper}}, image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Gray{Y: ink}),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)

	x := x0 + (w-sw*k)/2
	dst := image.Rect(x, y0, x+sw*k, y0+sh*k)
	xdraw.NearestNeighbor.Scale(img, dst, small, small.Bounds(), draw.Src, nil)
}

func hline(img *image.Gray, y int) {
	for x := 0; x < canvasW; x++ {
		img.SetGray(x, y, color.Gray{Y: ink})
	}
}

// fitTo rotates the landscape canvas a quarter turn clockwise when the
// target is portrait.
func fitTo(src *image.Gray, bounds image.Rectangle) image.Image {
	if bounds.Dx() >= bounds.Dy() {
		return src
	}
	sb := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, sb.Dy(), sb.Dx()))
	for y := 0; y < sb.Dy(); y++ {
		for x := 0; x < sb.Dx(); x++ {
			dst.SetGray(sb.Dy()-1-y, x, src.GrayAt(sb.Min.X+x, sb.Min.Y+y))
		}
	}
	return dst
}
