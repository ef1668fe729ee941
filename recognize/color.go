package recognize

import (
	"image"
	"time"

	"qt-visual-agent/vision"
)

func (s ColorMatch) analyze(frame image.Image) vision.MatchResult {
	start := time.Now()
	result := vision.MatchResult{}

	roi := clampRoi(s.Roi, frame.Bounds())
	if roi.Empty() {
		result.CostMS = msSince(start)
		return result
	}

	w, h := roi.Dx(), roi.Dy()
	mask := make([]bool, w*h)
	count := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cr, cg, cb, _ := frame.At(roi.Min.X+x, roi.Min.Y+y).RGBA()
			c0, c1, c2 := channels(uint8(cr>>8), uint8(cg>>8), uint8(cb>>8), s.Space)
			if inRange(c0, s.Lower[0], s.Upper[0]) &&
				inRange(c1, s.Lower[1], s.Upper[1]) &&
				inRange(c2, s.Lower[2], s.Upper[2]) {
				mask[y*w+x] = true
				count++
			}
		}
	}

	if s.ConnectedOnly && count > 0 {
		mask, count = largestComponent(mask, w, h)
	}

	if count > 0 {
		box := maskBounds(mask, w, h)
		box.X += roi.Min.X
		box.Y += roi.Min.Y
		c := vision.Candidate{Box: box, Score: float64(count)}
		result.All = []vision.Candidate{c}
		result.Box = box
		result.Score = float64(count)
		if count >= s.MinCount {
			result.Success = true
			result.Filtered = []vision.Candidate{c}
		}
	}
	result.CostMS = msSince(start)
	return result
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

func channels(r, g, b uint8, space ColorSpace) (int, int, int) {
	switch space {
	case SpaceRGB:
		return int(r), int(g), int(b)
	case SpaceBGR:
		return int(b), int(g), int(r)
	default:
		hh, ss, vv := rgbToHSV(r, g, b)
		return int(hh), int(ss), int(vv)
	}
}

// rgbToHSV converts to HSV with OpenCV scaling (H in [0,180), S and V in
// [0,255]) so configurations written against cv2 ranges carry over.
func rgbToHSV(r, g, b uint8) (uint8, uint8, uint8) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	mx := max3(rf, gf, bf)
	mn := min3(rf, gf, bf)
	d := mx - mn

	var hue float64
	switch {
	case d == 0:
		hue = 0
	case mx == rf:
		hue = 60 * ((gf - bf) / d)
	case mx == gf:
		hue = 60 * ((bf-rf)/d + 2)
	default:
		hue = 60 * ((rf-gf)/d + 4)
	}
	if hue < 0 {
		hue += 360
	}

	var sat float64
	if mx > 0 {
		sat = d / mx
	}

	hh := int(hue/2 + 0.5)
	if hh > 179 {
		hh = 179
	}
	return uint8(hh), uint8(sat*255 + 0.5), uint8(mx*255 + 0.5)
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// largestComponent restricts the mask to its biggest 4-connected region.
func largestComponent(mask []bool, w, h int) ([]bool, int) {
	visited := make([]bool, len(mask))
	var best []int
	queue := make([]int, 0, 64)

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		comp := []int{start}
		visited[start] = true
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				nb := ny*w + nx
				if !mask[nb] || visited[nb] {
					continue
				}
				visited[nb] = true
				comp = append(comp, nb)
				queue = append(queue, nb)
			}
		}
		if len(comp) > len(best) {
			best = comp
		}
	}

	out := make([]bool, len(mask))
	for _, i := range best {
		out[i] = true
	}
	return out, len(best)
}

func maskBounds(mask []bool, w, h int) vision.Rect {
	minX, minY := w, h
	maxX, maxY := -1, -1
	for i, on := range mask {
		if !on {
			continue
		}
		x, y := i%w, i/w
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	if maxX < 0 {
		return vision.Rect{}
	}
	return vision.Rect{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}
