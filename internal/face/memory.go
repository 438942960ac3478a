package face

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// MemoryDisplay keeps the last frame; FramePath, when set, also writes it
// out as PNG so a workstation run can be watched.
type MemoryDisplay struct {
	FramePath string

	mu     sync.Mutex
	bounds image.Rectangle
	last   *image.Gray
	frames int
}

func NewMemoryDisplay(bounds image.Rectangle) *MemoryDisplay {
	if bounds.Empty() {
		bounds = image.Rect(0, 0, canvasW, canvasH)
	}
	return &MemoryDisplay{bounds: bounds}
}

func (m *MemoryDisplay) Bounds() image.Rectangle { return m.bounds }

func (m *MemoryDisplay) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	img := image.NewGray(m.bounds)
	draw.Draw(img, r, src, sp, draw.Src)

	m.mu.Lock()
	m.last = img
	m.frames++
	path := m.FramePath
	m.mu.Unlock()

	if path == "" {
		return nil
	}
	return writePNG(path, img)
}

// Last returns the most recent frame, or nil.
func (m *MemoryDisplay) Last() *image.Gray {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *MemoryDisplay) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

func writePNG(path string, img image.Image) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("face: frame file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("face: png encode: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
