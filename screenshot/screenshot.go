package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/kbinani/screenshot"

	"qt-visual-agent/vision"
)

// Capture captures the entire primary display as a pixel grid.
func Capture() (*image.RGBA, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	return screenshot.CaptureDisplay(0)
}

// Source adapts the capture backend to the engine's frame source contract.
func Source() vision.FrameSource {
	return func() (image.Image, error) {
		return Capture()
	}
}

// SavePNG writes a frame to disk, used for failure artifacts.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// GetDisplayBounds returns the bounds of the primary display
func GetDisplayBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}

	// Get bounds of the primary display (display 0)
	bounds := screenshot.GetDisplayBounds(0)
	return bounds, nil
}
