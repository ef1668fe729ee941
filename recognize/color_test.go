package recognize

import (
	"image"
	"image/color"
	"testing"

	"qt-visual-agent/vision"
)

func fill(img *image.NRGBA, x, y, w, h int, c color.NRGBA) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			img.SetNRGBA(x+dx, y+dy, c)
		}
	}
}

func TestColorMatchExactColorRGB(t *testing.T) {
	frame := flatFrame(50, 50)
	target := color.NRGBA{R: 120, G: 60, B: 200, A: 255}
	near := color.NRGBA{R: 121, G: 60, B: 200, A: 255}
	fill(frame, 10, 10, 4, 4, target)
	fill(frame, 30, 30, 4, 4, near)

	m := Recognize(frame, ColorMatch{
		Lower:    [3]int{120, 60, 200},
		Upper:    [3]int{120, 60, 200},
		Space:    SpaceRGB,
		MinCount: 1,
	}, nil)

	if !m.Success {
		t.Fatalf("expected success, got %+v", m)
	}
	if m.Score != 16 {
		t.Errorf("pixel count: got %v, want 16 (exact color only)", m.Score)
	}
	if m.Box != (vision.Rect{X: 10, Y: 10, Width: 4, Height: 4}) {
		t.Errorf("box: got %+v", m.Box)
	}
}

func TestColorMatchMinCountIsHardFloor(t *testing.T) {
	frame := flatFrame(40, 40)
	fill(frame, 5, 5, 3, 3, color.NRGBA{R: 255, G: 255, B: 255, A: 255}) // 9 pixels

	spec := ColorMatch{
		Lower: [3]int{255, 255, 255},
		Upper: [3]int{255, 255, 255},
		Space: SpaceRGB,
	}

	spec.MinCount = 10
	if m := Recognize(frame, spec, nil); m.Success {
		t.Error("9 matching pixels must fail a floor of 10")
	}
	spec.MinCount = 9
	if m := Recognize(frame, spec, nil); !m.Success {
		t.Error("9 matching pixels must pass a floor of 9")
	}
}

func TestColorMatchBelowFloorStillReportsCandidate(t *testing.T) {
	frame := flatFrame(40, 40)
	fill(frame, 5, 5, 2, 2, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	m := Recognize(frame, ColorMatch{
		Lower:    [3]int{255, 0, 0},
		Upper:    [3]int{255, 0, 0},
		Space:    SpaceRGB,
		MinCount: 100,
	}, nil)
	if m.Success {
		t.Fatal("expected failure below floor")
	}
	if len(m.All) != 1 || m.All[0].Score != 4 {
		t.Errorf("all candidates should still carry the undersized region: %+v", m.All)
	}
	if len(m.Filtered) != 0 {
		t.Errorf("filtered must be empty below floor: %+v", m.Filtered)
	}
}

func TestColorMatchConnectedOnlyKeepsLargestBlob(t *testing.T) {
	frame := flatFrame(60, 60)
	red := color.NRGBA{R: 200, G: 10, B: 10, A: 255}
	fill(frame, 5, 5, 2, 2, red)    // 4 pixels
	fill(frame, 40, 40, 4, 3, red)  // 12 pixels
	fill(frame, 55, 5, 1, 1, red)   // 1 pixel

	m := Recognize(frame, ColorMatch{
		Lower:         [3]int{200, 10, 10},
		Upper:         [3]int{200, 10, 10},
		Space:         SpaceRGB,
		MinCount:      1,
		ConnectedOnly: true,
	}, nil)

	if !m.Success {
		t.Fatal("expected success")
	}
	if m.Score != 12 {
		t.Errorf("count: got %v, want 12 (largest component only)", m.Score)
	}
	if m.Box != (vision.Rect{X: 40, Y: 40, Width: 4, Height: 3}) {
		t.Errorf("box: got %+v", m.Box)
	}
}

func TestColorMatchWithoutConnectedSpansAllBlobs(t *testing.T) {
	frame := flatFrame(60, 60)
	red := color.NRGBA{R: 200, G: 10, B: 10, A: 255}
	fill(frame, 5, 5, 2, 2, red)
	fill(frame, 40, 40, 4, 3, red)

	m := Recognize(frame, ColorMatch{
		Lower:    [3]int{200, 10, 10},
		Upper:    [3]int{200, 10, 10},
		Space:    SpaceRGB,
		MinCount: 1,
	}, nil)

	if !m.Success {
		t.Fatal("expected success")
	}
	if m.Score != 16 {
		t.Errorf("count: got %v, want 16", m.Score)
	}
	// Bounding box spans both blobs.
	if m.Box != (vision.Rect{X: 5, Y: 5, Width: 39, Height: 38}) {
		t.Errorf("box: got %+v", m.Box)
	}
}

func TestColorMatchHSVRed(t *testing.T) {
	frame := flatFrame(30, 30)
	fill(frame, 10, 10, 5, 5, color.NRGBA{R: 250, G: 10, B: 10, A: 255})

	// Classic cv2-style red range.
	m := Recognize(frame, ColorMatch{
		Lower:    [3]int{0, 100, 100},
		Upper:    [3]int{10, 255, 255},
		Space:    SpaceHSV,
		MinCount: 25,
	}, nil)
	if !m.Success {
		t.Fatalf("HSV red not found: %+v", m)
	}
	if m.Score != 25 {
		t.Errorf("count: got %v, want 25", m.Score)
	}
}

func TestColorMatchOutOfFrameRoi(t *testing.T) {
	frame := flatFrame(30, 30)
	m := Recognize(frame, ColorMatch{
		Lower:    [3]int{0, 0, 0},
		Upper:    [3]int{255, 255, 255},
		Space:    SpaceRGB,
		MinCount: 1,
		Roi:      vision.Rect{X: 100, Y: 100, Width: 10, Height: 10},
	}, nil)
	if m.Success || len(m.All) != 0 {
		t.Errorf("out-of-frame ROI must be a clean miss, got %+v", m)
	}
}

func TestRGBToHSVKnownColors(t *testing.T) {
	cases := []struct {
		r, g, b uint8
		h, s, v uint8
	}{
		{255, 0, 0, 0, 255, 255},
		{0, 255, 0, 60, 255, 255},
		{0, 0, 255, 120, 255, 255},
		{255, 255, 255, 0, 0, 255},
		{0, 0, 0, 0, 0, 0},
	}
	for _, c := range cases {
		h, s, v := rgbToHSV(c.r, c.g, c.b)
		if h != c.h || s != c.s || v != c.v {
			t.Errorf("rgbToHSV(%d,%d,%d): got (%d,%d,%d), want (%d,%d,%d)",
				c.r, c.g, c.b, h, s, v, c.h, c.s, c.v)
		}
	}
}
